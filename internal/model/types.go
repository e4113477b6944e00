// Package model defines shared data structures.
package model

import (
	"math"
	"time"
)

// AllowedDurations lists the session lengths, in seconds, a session may run for.
var AllowedDurations = []int{10, 30, 60, 90, 120}

// SessionConfig defines the parameters of one mashing session.
type SessionConfig struct {
	TargetKey       string
	DurationSeconds int
	Device          string
	Orientation     string
}

// SessionResult captures a completed mashing session.
type SessionResult struct {
	Timestamp       time.Time
	DurationSeconds int
	TargetKey       string
	Device          string
	Orientation     string
	TotalPresses    int
	CorrectPresses  int
	WrongPresses    int
	Accuracy        float64
	KeysPerSecond   float64
}

// NewSessionResult builds a result from final counters, filling the derived fields.
func NewSessionResult(cfg SessionConfig, total, correct int, at time.Time) SessionResult {
	return SessionResult{
		Timestamp:       at,
		DurationSeconds: cfg.DurationSeconds,
		TargetKey:       cfg.TargetKey,
		Device:          cfg.Device,
		Orientation:     cfg.Orientation,
		TotalPresses:    total,
		CorrectPresses:  correct,
		WrongPresses:    total - correct,
		Accuracy:        Accuracy(total, correct),
		KeysPerSecond:   KeysPerSecond(total, cfg.DurationSeconds),
	}
}

// Accuracy returns the share of correct presses as a percentage rounded to one
// decimal. Zero presses yield 0.
func Accuracy(total, correct int) float64 {
	if total <= 0 {
		return 0
	}
	return Round1(float64(correct) / float64(total) * 100)
}

// KeysPerSecond returns presses per second of session time.
func KeysPerSecond(total, durationSeconds int) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return float64(total) / float64(durationSeconds)
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// KeyEventType distinguishes presses from releases.
type KeyEventType int

// Key event kinds.
const (
	KeyDown KeyEventType = iota
	KeyUp
)

// KeyEvent is a single timestamped press or release.
type KeyEvent struct {
	Type KeyEventType
	Char rune
	Time time.Time
}

// Record is a stored session row as read back from persistence, keyed by
// column name. Values are untyped text until decoded.
type Record map[string]string

// Record column names.
const (
	FieldTimestamp      = "timestamp"
	FieldDuration       = "duration"
	FieldSelectedKey    = "selected_key"
	FieldDevice         = "device"
	FieldOrientation    = "orientation"
	FieldTotalPresses   = "total_presses"
	FieldCorrectPresses = "correct_presses"
	FieldWrongPresses   = "wrong_presses"
	FieldAccuracy       = "accuracy"
	FieldKeysPerSecond  = "keys_per_second"
)

// RecordFields is the canonical column order used for exports.
var RecordFields = []string{
	FieldTimestamp,
	FieldDuration,
	FieldSelectedKey,
	FieldTotalPresses,
	FieldCorrectPresses,
	FieldWrongPresses,
	FieldAccuracy,
	FieldKeysPerSecond,
	FieldDevice,
	FieldOrientation,
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Key         string
	Duration    int
	Since       *time.Time
	Last        int
	CurveWindow int
}
