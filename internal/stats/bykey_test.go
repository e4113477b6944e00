package stats

import (
	"testing"
	"time"

	"github.com/verte-zerg/mashr/internal/model"
)

func TestSummarizeByKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	result := func(key string, total, correct int) model.SessionResult {
		return model.NewSessionResult(model.SessionConfig{TargetKey: key, DurationSeconds: 10}, total, correct, at)
	}
	got := SummarizeByKey([]model.SessionResult{
		result("A", 20, 20),
		result("S", 10, 5),
		result("A", 40, 30),
		result("D", 10, 10),
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(got))
	}
	if got[0].Key != "A" || got[0].TotalGames != 2 || got[0].TotalPresses != 60 {
		t.Fatalf("unexpected first group: %+v", got[0])
	}
	if got[1].Key != "D" || got[2].Key != "S" {
		t.Fatalf("expected ties ordered by key, got %s then %s", got[1].Key, got[2].Key)
	}
	if got[0].BestKPS != 4 {
		t.Fatalf("expected best KPS 4, got %v", got[0].BestKPS)
	}
}

func TestSummarizeByKeyEmpty(t *testing.T) {
	if got := SummarizeByKey(nil); len(got) != 0 {
		t.Fatalf("expected no groups, got %+v", got)
	}
}
