package stats

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/verte-zerg/mashr/internal/model"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if !s.Empty() {
		t.Fatalf("expected empty summary, got %+v", s)
	}
	if s != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
	s, err := SummarizeRecords([]model.Record{})
	if err != nil || !s.Empty() {
		t.Fatalf("expected empty summary without error, got %+v %v", s, err)
	}
}

func TestSummarizeTwoResults(t *testing.T) {
	results := []model.SessionResult{
		{TotalPresses: 10, CorrectPresses: 5, Accuracy: 50.0, KeysPerSecond: 0.2},
		{TotalPresses: 20, CorrectPresses: 20, Accuracy: 100.0, KeysPerSecond: 0.4},
	}
	s := Summarize(results)
	if s.TotalGames != 2 || s.TotalPresses != 30 || s.TotalCorrect != 25 {
		t.Fatalf("unexpected sums: %+v", s)
	}
	if s.AverageAccuracy != 75.0 {
		t.Fatalf("expected average accuracy 75.0, got %v", s.AverageAccuracy)
	}
	if s.BestAccuracy != 100.0 || s.MostPressesInGame != 20 {
		t.Fatalf("unexpected bests: %+v", s)
	}
	if s.BestKPS != 0.4 {
		t.Fatalf("best kps must be unrounded, got %v", s.BestKPS)
	}
	if s.AverageKPS != 0.3 {
		t.Fatalf("expected average kps rounded to 0.3, got %v", s.AverageKPS)
	}
}

func TestSummarizeTrustsStoredDerivedValues(t *testing.T) {
	results := []model.SessionResult{
		{TotalPresses: 4, CorrectPresses: 9, Accuracy: 12.5, KeysPerSecond: 7},
	}
	s := Summarize(results)
	if s.AverageAccuracy != 12.5 || s.BestKPS != 7 || s.TotalCorrect != 9 {
		t.Fatalf("expected stored values used verbatim, got %+v", s)
	}
}

func TestSummarizeOrderInvariant(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	results := make([]model.SessionResult, 200)
	for i := range results {
		total := rnd.Intn(500)
		correct := 0
		if total > 0 {
			correct = rnd.Intn(total + 1)
		}
		duration := model.AllowedDurations[rnd.Intn(len(model.AllowedDurations))]
		results[i] = model.NewSessionResult(model.SessionConfig{TargetKey: "A", DurationSeconds: duration}, total, correct, time.Unix(int64(i), 0))
	}
	want := Summarize(results)
	for round := 0; round < 20; round++ {
		shuffled := append([]model.SessionResult(nil), results...)
		rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := Summarize(shuffled); got != want {
			t.Fatalf("summary changed under permutation: %+v vs %+v", got, want)
		}
	}
}

func TestSummarizeRecordsRejectsNaNInAnyPosition(t *testing.T) {
	for pos := 0; pos < 2; pos++ {
		records := []model.Record{validRecord(), validRecord()}
		records[pos][model.FieldAccuracy] = "NaN"
		_, err := SummarizeRecords(records)
		var derr *DataIntegrityError
		if !errors.As(err, &derr) {
			t.Fatalf("position %d: expected DataIntegrityError, got %v", pos, err)
		}
		if derr.Index != pos || derr.Field != model.FieldAccuracy {
			t.Fatalf("position %d: unexpected error location: %+v", pos, derr)
		}
	}
}

func TestSummarizeRecordsFailsFast(t *testing.T) {
	records := []model.Record{
		validRecord(),
		validRecord(),
		validRecord(),
	}
	records[1][model.FieldAccuracy] = "high"
	_, err := SummarizeRecords(records)
	var derr *DataIntegrityError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DataIntegrityError, got %v", err)
	}
	if derr.Index != 1 || derr.Field != model.FieldAccuracy {
		t.Fatalf("unexpected error location: %+v", derr)
	}
}
