package domain

import "time"

// Epoch is the default start of every time window.
var Epoch = time.Unix(0, 0).UTC()

// DripHistoryEvent is one rate change on a stream: starting at Timestamp the stream
// holds Balance and drains at AmtPerSec per second. A zero rate means paused.
type DripHistoryEvent struct {
	Balance   Money     `json:"balance"`
	AmtPerSec Money     `json:"amtPerSec"`
	Timestamp time.Time `json:"timestamp"`
}

// Paused reports whether the event stops the flow.
func (e DripHistoryEvent) Paused() bool {
	return e.AmtPerSec.IsZero()
}

// TimeWindow is the half-open interval [From, To).
type TimeWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// WindowUntil returns [Epoch, to).
func WindowUntil(to time.Time) TimeWindow {
	return TimeWindow{From: Epoch, To: to}
}

// Seconds returns the window length in whole seconds, or 0 for inverted windows.
func (w TimeWindow) Seconds() int64 {
	return max(w.To.Unix()-w.From.Unix(), 0)
}

// Estimate is the live state of one stream at a given instant.
type Estimate struct {
	CurrentBalance     Money      `json:"currentBalance"`
	RemainingBalance   Money      `json:"remainingBalance"`
	StreamingUntil     *time.Time `json:"streamingUntil,omitempty"`
	CurrentlyStreaming bool       `json:"currentlyStreaming"`
	Paused             bool       `json:"paused"`
}
