package api

import (
	"fmt"
	"time"
)

var timeframes = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// window is a half-open [From, To) interval.
type window struct {
	From time.Time
	To   time.Time
}

// previous returns the window of equal length ending where w starts.
func (w window) previous() window {
	return window{From: w.From.Add(-w.To.Sub(w.From)), To: w.From}
}

func parseTimeframe(name string, now time.Time) (window, error) {
	if name == "" {
		name = "24h"
	}
	length, ok := timeframes[name]
	if !ok {
		return window{}, fmt.Errorf("unsupported timeframe %q", name)
	}
	return window{From: now.Add(-length), To: now}, nil
}
