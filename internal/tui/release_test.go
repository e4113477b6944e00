package tui

import (
	"testing"
	"time"

	"github.com/verte-zerg/mashr/internal/model"
	"github.com/verte-zerg/mashr/internal/session"
)

func TestReleaseDetectorPressThenExpire(t *testing.T) {
	d := newReleaseDetector(0)
	if d.window != DefaultReleaseWindow {
		t.Fatalf("expected default window, got %v", d.window)
	}
	now := time.Unix(0, 0)
	events, seq := d.press('a', now)
	if len(events) != 1 || events[0].Type != model.KeyDown || events[0].Char != 'a' {
		t.Fatalf("unexpected press events: %+v", events)
	}
	ev, ok := d.expire(seq, now.Add(d.window))
	if !ok || ev.Type != model.KeyUp || ev.Char != 'a' {
		t.Fatalf("expected release of a, got %+v ok=%v", ev, ok)
	}
	if _, ok := d.expire(seq, now.Add(2*d.window)); ok {
		t.Fatalf("expected a single release per hold")
	}
}

func TestReleaseDetectorRepeatExtendsHold(t *testing.T) {
	d := newReleaseDetector(30 * time.Millisecond)
	now := time.Unix(0, 0)
	_, first := d.press('a', now)
	events, second := d.press('a', now.Add(10*time.Millisecond))
	if len(events) != 1 || events[0].Type != model.KeyDown {
		t.Fatalf("expected repeat forwarded as a press, got %+v", events)
	}
	if _, ok := d.expire(first, now.Add(30*time.Millisecond)); ok {
		t.Fatalf("stale expiry must not release a repeating key")
	}
	if _, ok := d.expire(second, now.Add(40*time.Millisecond)); !ok {
		t.Fatalf("expected release after the latest repeat expires")
	}
}

func TestReleaseDetectorDifferentKeyReleasesHeld(t *testing.T) {
	d := newReleaseDetector(0)
	now := time.Unix(0, 0)
	d.press('a', now)
	events, _ := d.press('b', now)
	if len(events) != 2 {
		t.Fatalf("expected release and press, got %+v", events)
	}
	if events[0].Type != model.KeyUp || events[0].Char != 'a' {
		t.Fatalf("expected release of a first, got %+v", events[0])
	}
	if events[1].Type != model.KeyDown || events[1].Char != 'b' {
		t.Fatalf("expected press of b second, got %+v", events[1])
	}
}

func TestReleaseDetectorReset(t *testing.T) {
	d := newReleaseDetector(0)
	_, seq := d.press('a', time.Unix(0, 0))
	d.reset()
	if _, ok := d.expire(seq, time.Unix(1, 0)); ok {
		t.Fatalf("expected no release after reset")
	}
}

// holdPresses replays a key held through the terminal's auto-repeat delay and
// returns how many presses the engine counts.
func holdPresses(t *testing.T, window, repeatDelay, repeatRate time.Duration) int {
	t.Helper()
	engine, err := session.New(model.SessionConfig{TargetKey: "a", DurationSeconds: 10}, &fakeStore{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	now := time.Unix(0, 0)
	if err := engine.Start(now); err != nil {
		t.Fatalf("start: %v", err)
	}
	presses := []time.Duration{0}
	for at := repeatDelay; at <= repeatDelay+10*repeatRate; at += repeatRate {
		presses = append(presses, at)
	}
	d := newReleaseDetector(window)
	for i, at := range presses {
		events, seq := d.press('a', now.Add(at))
		for _, ev := range events {
			engine.HandleEvent(ev)
		}
		deadline := at + window
		if i+1 == len(presses) || presses[i+1] > deadline {
			if ev, ok := d.expire(seq, now.Add(deadline)); ok {
				engine.HandleEvent(ev)
			}
		}
	}
	return engine.Snapshot().TotalPresses
}

func TestHeldKeyAcrossRepeatDelay(t *testing.T) {
	repeatDelay, repeatRate := 500*time.Millisecond, 33*time.Millisecond
	if got := holdPresses(t, DefaultReleaseWindow, repeatDelay, repeatRate); got != 2 {
		t.Fatalf("default window: expected initial press plus first repeat, got %d", got)
	}
	if got := holdPresses(t, 600*time.Millisecond, repeatDelay, repeatRate); got != 1 {
		t.Fatalf("window above repeat delay: expected one press, got %d", got)
	}
}
