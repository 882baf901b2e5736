package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

const defaultCapacity = 500

// Event is one progress or completion event of a job, numbered in the
// order it was published.
type Event struct {
	Seq        int64                  `json:"seq"`
	Timestamp  time.Time              `json:"timestamp"`
	JobID      uuid.UUID              `json:"jobId"`
	Progress   *model.ProgressEvent   `json:"progress,omitempty"`
	Completion *model.CompletionEvent `json:"completion,omitempty"`
}

// EventBus keeps the newest events of all jobs in a fixed ring. Event n
// lives in slot (n-1) % capacity until it is overwritten.
type EventBus struct {
	mu   sync.RWMutex
	ring []Event
	seq  int64 // sequence of the newest event
}

// NewEventBus creates a bus remembering up to capacity events.
func NewEventBus(capacity int) *EventBus {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &EventBus{ring: make([]Event, capacity)}
}

// Publish numbers ev, stamps it when unstamped and stores it.
func (b *EventBus) Publish(ev Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	ev.Seq = b.seq
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	b.ring[b.slot(ev.Seq)] = ev

	return ev
}

// Since returns the retained events of job numbered after seq, oldest
// first. uuid.Nil selects the events of every job.
func (b *EventBus) Since(job uuid.UUID, seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	first := max(seq+1, b.seq-int64(len(b.ring))+1, 1)

	var out []Event
	for n := first; n <= b.seq; n++ {
		ev := b.ring[b.slot(n)]
		if job == uuid.Nil || ev.JobID == job {
			out = append(out, ev)
		}
	}
	return out
}

// LastSeq returns the sequence of the newest event, or 0.
func (b *EventBus) LastSeq() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}

func (b *EventBus) slot(seq int64) int {
	return int((seq - 1) % int64(len(b.ring)))
}
