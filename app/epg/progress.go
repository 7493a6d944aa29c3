package epg

import (
	"sync"
	"time"
)

// ProgressEvent is one observation of a running generation. Percent is
// monotone non-decreasing within a run. Unit completion events additionally
// carry the 1-based index of the finished unit and the total unit count.
type ProgressEvent struct {
	RunID   string    `json:"run_id"`
	Status  string    `json:"status"`
	Percent int       `json:"percent"`
	Unit    string    `json:"unit,omitempty"`
	Index   int       `json:"index,omitempty"`
	Total   int       `json:"total,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

const progressBufferSize = 16

// progressBroadcaster fans progress events out to subscribers over bounded
// channels. A slow subscriber loses events rather than stalling the run;
// progress is advisory, run state in the database is authoritative.
type progressBroadcaster struct {
	mu          sync.Mutex
	subscribers map[chan ProgressEvent]struct{}
	lastPercent int
	lastRunID   string
}

func newProgressBroadcaster() *progressBroadcaster {
	return &progressBroadcaster{
		subscribers: make(map[chan ProgressEvent]struct{}),
	}
}

// Subscribe registers a new listener. The returned cancel function must be
// called to release the channel.
func (b *progressBroadcaster) Subscribe() (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, progressBufferSize)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish clamps the percent so it never regresses within a run, then sends
// the event to every subscriber, dropping it for any whose buffer is full.
func (b *progressBroadcaster) Publish(event ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if event.RunID != b.lastRunID {
		b.lastRunID = event.RunID
		b.lastPercent = 0
	}
	if event.Percent < b.lastPercent {
		event.Percent = b.lastPercent
	}
	if event.Percent > 100 {
		event.Percent = 100
	}
	b.lastPercent = event.Percent

	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
