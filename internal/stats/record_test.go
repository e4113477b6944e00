package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/mashr/internal/model"
)

func validRecord() model.Record {
	return model.Record{
		model.FieldTimestamp:      "2024-05-01T12:00:00Z",
		model.FieldDuration:       "60",
		model.FieldSelectedKey:    "A",
		model.FieldDevice:         "Laptop",
		model.FieldOrientation:    "Landscape",
		model.FieldTotalPresses:   "3",
		model.FieldCorrectPresses: "2",
		model.FieldWrongPresses:   "1",
		model.FieldAccuracy:       "66.7",
		model.FieldKeysPerSecond:  "0.05",
	}
}

func TestDecodeRecord(t *testing.T) {
	r, err := DecodeRecord(0, validRecord())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !r.Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", r.Timestamp)
	}
	if r.DurationSeconds != 60 || r.TargetKey != "A" || r.TotalPresses != 3 || r.CorrectPresses != 2 || r.WrongPresses != 1 {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.Accuracy != 66.7 || r.KeysPerSecond != 0.05 {
		t.Fatalf("unexpected derived values: %+v", r)
	}
	if r.Device != "Laptop" || r.Orientation != "Landscape" {
		t.Fatalf("metadata not passed through: %+v", r)
	}
}

func TestDecodeRecordReplayMatchesKPS(t *testing.T) {
	orig := model.NewSessionResult(model.SessionConfig{TargetKey: "S", DurationSeconds: 90}, 271, 250, time.Now().UTC())
	r, err := DecodeRecord(0, EncodeRecord(orig))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.KeysPerSecond != model.KeysPerSecond(r.TotalPresses, r.DurationSeconds) {
		t.Fatalf("replayed kps %v differs from recomputed", r.KeysPerSecond)
	}
	if r.Accuracy != orig.Accuracy {
		t.Fatalf("replayed accuracy %v differs from %v", r.Accuracy, orig.Accuracy)
	}
}

func TestDecodeRecordDerivesMissingColumns(t *testing.T) {
	rec := validRecord()
	delete(rec, model.FieldWrongPresses)
	delete(rec, model.FieldAccuracy)
	delete(rec, model.FieldKeysPerSecond)
	r, err := DecodeRecord(0, rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.WrongPresses != 1 || r.Accuracy != 66.7 || r.KeysPerSecond != 0.05 {
		t.Fatalf("expected derived values, got %+v", r)
	}
}

func TestDecodeRecordIntegrityErrors(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value *string
	}{
		{name: "non-numeric total", field: model.FieldTotalPresses, value: strPtr("lots")},
		{name: "negative correct", field: model.FieldCorrectPresses, value: strPtr("-1")},
		{name: "fractional duration", field: model.FieldDuration, value: strPtr("60.5")},
		{name: "missing duration", field: model.FieldDuration},
		{name: "empty key", field: model.FieldSelectedKey, value: strPtr("")},
		{name: "bad timestamp", field: model.FieldTimestamp, value: strPtr("yesterday")},
		{name: "non-numeric kps", field: model.FieldKeysPerSecond, value: strPtr("fast")},
		{name: "empty accuracy", field: model.FieldAccuracy, value: strPtr(" ")},
		{name: "nan accuracy", field: model.FieldAccuracy, value: strPtr("NaN")},
		{name: "infinite kps", field: model.FieldKeysPerSecond, value: strPtr("Inf")},
		{name: "negative infinite kps", field: model.FieldKeysPerSecond, value: strPtr("-Inf")},
		{name: "infinite total", field: model.FieldTotalPresses, value: strPtr("+Inf")},
	}
	for _, tc := range cases {
		rec := validRecord()
		if tc.value == nil {
			delete(rec, tc.field)
		} else {
			rec[tc.field] = *tc.value
		}
		_, err := DecodeRecord(4, rec)
		var derr *DataIntegrityError
		if !errors.As(err, &derr) {
			t.Fatalf("%s: expected DataIntegrityError, got %v", tc.name, err)
		}
		if derr.Index != 4 || derr.Field != tc.field {
			t.Fatalf("%s: unexpected location %+v", tc.name, derr)
		}
	}
}

func TestDecodeRecordAcceptsFloatIntegers(t *testing.T) {
	rec := validRecord()
	rec[model.FieldTotalPresses] = "3.0"
	r, err := DecodeRecord(0, rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.TotalPresses != 3 {
		t.Fatalf("expected 3 presses, got %d", r.TotalPresses)
	}
}

func strPtr(s string) *string {
	return &s
}
