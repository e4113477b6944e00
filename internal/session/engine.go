// Package session implements the timed key-mashing state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/mashr/internal/model"
)

// State is the lifecycle stage of an Engine.
type State int

// Engine states.
const (
	StateIdle State = iota
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNotIdle is returned when starting an engine that already ran.
var ErrNotIdle = errors.New("session already started")

// Sink durably appends a finished session result.
type Sink interface {
	Append(ctx context.Context, result model.SessionResult) error
}

// ConfigError reports an invalid session configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid session config: %s %s", e.Field, e.Reason)
}

// Snapshot is a point-in-time view of a session's counters.
type Snapshot struct {
	State            State
	TotalPresses     int
	CorrectPresses   int
	SecondsRemaining int
	Accuracy         float64
}

// Engine counts debounced presses for one session. It is driven by a single
// event loop and is not safe for concurrent use.
type Engine struct {
	cfg    model.SessionConfig
	target rune
	sink   Sink

	state     State
	total     int
	correct   int
	held      bool
	remaining int
	startedAt time.Time

	result  *model.SessionResult
	aborted bool
}

// New validates cfg and returns an idle engine that reports to sink.
func New(cfg model.SessionConfig, sink Sink) (*Engine, error) {
	target, err := ValidateConfig(cfg)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("session sink is nil")
	}
	cfg.TargetKey = strings.ToUpper(string(target))
	return &Engine{
		cfg:    cfg,
		target: target,
		sink:   sink,
		state:  StateIdle,
	}, nil
}

// ValidateConfig checks cfg and returns the lowercased target key.
func ValidateConfig(cfg model.SessionConfig) (rune, error) {
	if cfg.DurationSeconds <= 0 {
		return 0, &ConfigError{Field: "duration", Reason: "must be > 0"}
	}
	if !slices.Contains(model.AllowedDurations, cfg.DurationSeconds) {
		return 0, &ConfigError{Field: "duration", Reason: fmt.Sprintf("must be one of %v", model.AllowedDurations)}
	}
	if utf8.RuneCountInString(cfg.TargetKey) != 1 {
		return 0, &ConfigError{Field: "key", Reason: "must be a single character"}
	}
	r, _ := utf8.DecodeRuneInString(cfg.TargetKey)
	if r == utf8.RuneError || unicode.IsSpace(r) || !unicode.IsPrint(r) {
		return 0, &ConfigError{Field: "key", Reason: "must be a printable character"}
	}
	return unicode.ToLower(r), nil
}

// Config returns the normalized session configuration.
func (e *Engine) Config() model.SessionConfig {
	return e.cfg
}

// State returns the current lifecycle stage.
func (e *Engine) State() State {
	return e.state
}

// Start begins the countdown.
func (e *Engine) Start(at time.Time) error {
	if e.state != StateIdle {
		return ErrNotIdle
	}
	e.state = StateRunning
	e.remaining = e.cfg.DurationSeconds
	e.startedAt = at
	return nil
}

// StartedAt returns when the countdown started.
func (e *Engine) StartedAt() time.Time {
	return e.startedAt
}

// HandleEvent dispatches a press or release.
func (e *Engine) HandleEvent(ev model.KeyEvent) {
	switch ev.Type {
	case model.KeyDown:
		e.KeyDown(ev.Char, ev.Time)
	case model.KeyUp:
		e.KeyUp(ev.Char, ev.Time)
	}
}

// KeyDown registers a press. A key that is still held counts once until a
// release arrives, however many repeat notifications follow.
func (e *Engine) KeyDown(ch rune, _ time.Time) {
	if e.state != StateRunning || e.held {
		return
	}
	e.held = true
	e.total++
	if unicode.ToLower(ch) == e.target {
		e.correct++
	}
}

// KeyUp clears the hold, whichever key was released.
func (e *Engine) KeyUp(_ rune, _ time.Time) {
	if e.state != StateRunning {
		return
	}
	e.held = false
}

// Tick advances the countdown by one second. On the tick that exhausts the
// countdown the engine finishes, appends the result to the sink and returns
// true. An append failure is returned; the result stays available from Result.
func (e *Engine) Tick(ctx context.Context, at time.Time) (bool, error) {
	if e.state != StateRunning {
		return false, nil
	}
	e.remaining--
	if e.remaining > 0 {
		return false, nil
	}
	e.remaining = 0
	e.state = StateFinished
	result := model.NewSessionResult(e.cfg, e.total, e.correct, at)
	e.result = &result
	if err := e.sink.Append(ctx, result); err != nil {
		return true, fmt.Errorf("failed to save session result: %w", err)
	}
	return true, nil
}

// Abort discards the session without producing a result.
func (e *Engine) Abort() {
	if e.state == StateFinished {
		return
	}
	e.state = StateFinished
	e.aborted = true
}

// Aborted reports whether the session was discarded.
func (e *Engine) Aborted() bool {
	return e.aborted
}

// Result returns the finished result, if the countdown reached zero.
func (e *Engine) Result() (model.SessionResult, bool) {
	if e.result == nil {
		return model.SessionResult{}, false
	}
	return *e.result, true
}

// Snapshot returns the live counters.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		State:            e.state,
		TotalPresses:     e.total,
		CorrectPresses:   e.correct,
		SecondsRemaining: e.remaining,
		Accuracy:         model.Accuracy(e.total, e.correct),
	}
}
