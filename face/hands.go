package face

import (
	"fmt"
	"time"
)

// Names of the style properties read by the clock face stylesheet to
// position each hand.
const (
	PropertySeconds = "--start-seconds"
	PropertyMinutes = "--start-minutes"
	PropertyHours   = "--start-hours"
)

// Hands holds the hand positions of an analog clock. Seconds and Minutes are
// in [0, 59] and Hours is in [0, 11].
type Hands struct {
	Seconds int
	Minutes int
	Hours   int
}

// HandsAt derives the hand positions for t in t's own location.
func HandsAt(t time.Time) Hands {
	return Hands{
		Seconds: t.Second(),
		Minutes: t.Minute(),
		Hours:   t.Hour() % 12,
	}
}

// Properties maps each style property name to its value.
func (h Hands) Properties() map[string]int {
	return map[string]int{
		PropertySeconds: h.Seconds,
		PropertyMinutes: h.Minutes,
		PropertyHours:   h.Hours,
	}
}

// Style renders the hands as an inline CSS declaration list.
func (h Hands) Style() string {
	return fmt.Sprintf("%s: %d; %s: %d; %s: %d",
		PropertySeconds, h.Seconds,
		PropertyMinutes, h.Minutes,
		PropertyHours, h.Hours,
	)
}

// Angles returns the clockwise angle from twelve o'clock, in degrees, of the
// second, minute and hour hands. Minute and hour hands advance continuously
// with the smaller units.
func (h Hands) Angles() (seconds, minutes, hours float64) {
	seconds = float64(h.Seconds) * 6
	minutes = float64(h.Minutes)*6 + float64(h.Seconds)*0.1
	hours = float64(h.Hours)*30 + float64(h.Minutes)*0.5
	return seconds, minutes, hours
}
