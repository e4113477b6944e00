package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/mashr/internal/model"
)

// DataIntegrityError reports a stored record that fails shape validation.
type DataIntegrityError struct {
	Index int
	Field string
	Value string
	Err   error
}

func (e *DataIntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record %d: invalid %s %q: %v", e.Index, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("record %d: missing %s", e.Index, e.Field)
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Err
}

// DecodeRecords validates every record, stopping at the first malformed one.
func DecodeRecords(records []model.Record) ([]model.SessionResult, error) {
	results := make([]model.SessionResult, 0, len(records))
	for i, rec := range records {
		r, err := DecodeRecord(i, rec)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// DecodeRecord turns a stored row into a SessionResult. Stored derived values
// are trusted as-is; derived columns absent from the row are computed from
// the counts.
func DecodeRecord(index int, rec model.Record) (model.SessionResult, error) {
	d := decoder{index: index, rec: rec}
	var r model.SessionResult
	r.Timestamp = d.timestamp(model.FieldTimestamp)
	r.DurationSeconds = d.count(model.FieldDuration)
	r.TargetKey = d.text(model.FieldSelectedKey)
	r.Device = rec[model.FieldDevice]
	r.Orientation = rec[model.FieldOrientation]
	r.TotalPresses = d.count(model.FieldTotalPresses)
	r.CorrectPresses = d.count(model.FieldCorrectPresses)
	if d.err != nil {
		return model.SessionResult{}, d.err
	}

	r.WrongPresses = r.TotalPresses - r.CorrectPresses
	if _, ok := rec[model.FieldWrongPresses]; ok {
		r.WrongPresses = d.count(model.FieldWrongPresses)
	}
	r.Accuracy = model.Accuracy(r.TotalPresses, r.CorrectPresses)
	if _, ok := rec[model.FieldAccuracy]; ok {
		r.Accuracy = d.number(model.FieldAccuracy)
	}
	r.KeysPerSecond = model.KeysPerSecond(r.TotalPresses, r.DurationSeconds)
	if _, ok := rec[model.FieldKeysPerSecond]; ok {
		r.KeysPerSecond = d.number(model.FieldKeysPerSecond)
	}
	if d.err != nil {
		return model.SessionResult{}, d.err
	}
	return r, nil
}

type decoder struct {
	index int
	rec   model.Record
	err   error
}

func (d *decoder) raw(field string) (string, bool) {
	if d.err != nil {
		return "", false
	}
	v, ok := d.rec[field]
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		d.err = &DataIntegrityError{Index: d.index, Field: field}
		return "", false
	}
	return v, true
}

func (d *decoder) fail(field, value string, err error) {
	d.err = &DataIntegrityError{Index: d.index, Field: field, Value: value, Err: err}
}

func (d *decoder) text(field string) string {
	v, _ := d.raw(field)
	return v
}

func (d *decoder) count(field string) int {
	v, ok := d.raw(field)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Spreadsheet exports render integers as "12.0".
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || !finite(f) || f != float64(int(f)) {
			d.fail(field, v, fmt.Errorf("not an integer"))
			return 0
		}
		n = int(f)
	}
	if n < 0 {
		d.fail(field, v, fmt.Errorf("must be >= 0"))
		return 0
	}
	return n
}

func (d *decoder) number(field string) float64 {
	v, ok := d.raw(field)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !finite(f) {
		d.fail(field, v, fmt.Errorf("not a number"))
		return 0
	}
	return f
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (d *decoder) timestamp(field string) time.Time {
	v, ok := d.raw(field)
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	d.fail(field, v, fmt.Errorf("not an ISO-8601 timestamp"))
	return time.Time{}
}

// EncodeRecord renders a result as a stored row.
func EncodeRecord(r model.SessionResult) model.Record {
	return model.Record{
		model.FieldTimestamp:      r.Timestamp.Format(time.RFC3339Nano),
		model.FieldDuration:       strconv.Itoa(r.DurationSeconds),
		model.FieldSelectedKey:    r.TargetKey,
		model.FieldDevice:         r.Device,
		model.FieldOrientation:    r.Orientation,
		model.FieldTotalPresses:   strconv.Itoa(r.TotalPresses),
		model.FieldCorrectPresses: strconv.Itoa(r.CorrectPresses),
		model.FieldWrongPresses:   strconv.Itoa(r.WrongPresses),
		model.FieldAccuracy:       strconv.FormatFloat(r.Accuracy, 'f', -1, 64),
		model.FieldKeysPerSecond:  strconv.FormatFloat(r.KeysPerSecond, 'f', -1, 64),
	}
}
