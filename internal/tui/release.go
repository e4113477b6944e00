package tui

import (
	"time"

	"github.com/verte-zerg/mashr/internal/model"
)

// DefaultReleaseWindow is how long a key may stay silent before it counts as released.
const DefaultReleaseWindow = 45 * time.Millisecond

// releaseDetector turns the terminal's press-only key stream into press and
// release events. Terminals report auto-repeat as further presses, so a key is
// considered released once no press for it arrives within the window, or as
// soon as a different key is pressed.
type releaseDetector struct {
	window  time.Duration
	held    rune
	holding bool
	seq     int
}

func newReleaseDetector(window time.Duration) releaseDetector {
	if window <= 0 {
		window = DefaultReleaseWindow
	}
	return releaseDetector{window: window}
}

// press records a key press and returns the events to forward together with
// the sequence number the matching expiry check must carry.
func (d *releaseDetector) press(ch rune, at time.Time) ([]model.KeyEvent, int) {
	var events []model.KeyEvent
	if d.holding && d.held != ch {
		events = append(events, model.KeyEvent{Type: model.KeyUp, Char: d.held, Time: at})
	}
	events = append(events, model.KeyEvent{Type: model.KeyDown, Char: ch, Time: at})
	d.held = ch
	d.holding = true
	d.seq++
	return events, d.seq
}

// expire reports the inferred release if no press arrived since seq was issued.
func (d *releaseDetector) expire(seq int, at time.Time) (model.KeyEvent, bool) {
	if !d.holding || seq != d.seq {
		return model.KeyEvent{}, false
	}
	d.holding = false
	return model.KeyEvent{Type: model.KeyUp, Char: d.held, Time: at}, true
}

func (d *releaseDetector) reset() {
	d.holding = false
	d.held = 0
	d.seq++
}
