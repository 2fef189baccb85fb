package preview

import (
	"fmt"
	"time"
)

// Placeholder is shown for both fields before a run has started.
const Placeholder = "--"

// DurationDisplay is the elapsed time of a run as zero-padded strings.
type DurationDisplay struct {
	Minutes string `json:"minutes"`
	Seconds string `json:"seconds"`
}

// IdleDuration returns the placeholder display.
func IdleDuration() DurationDisplay {
	return DurationDisplay{Minutes: Placeholder, Seconds: Placeholder}
}

// FormatDuration converts an elapsed duration. Negative values clamp to zero.
func FormatDuration(d time.Duration) DurationDisplay {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return DurationDisplay{
		Minutes: fmt.Sprintf("%02d", total/60),
		Seconds: fmt.Sprintf("%02d", total%60),
	}
}

// String returns "mm:ss".
func (d DurationDisplay) String() string { return d.Minutes + ":" + d.Seconds }
