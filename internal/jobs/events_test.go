package jobs

import (
	"testing"

	"github.com/google/uuid"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(3)
	for i := 0; i < 3; i++ {
		bus.Publish(Event{Progress: &model.ProgressEvent{Index: i}})
	}

	events := bus.Since(uuid.Nil, 1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
	if bus.LastSeq() != 3 {
		t.Fatalf("last seq = %d", bus.LastSeq())
	}
	if got := bus.Since(uuid.Nil, 3); len(got) != 0 {
		t.Fatalf("events after the newest: %+v", got)
	}
}

func TestEventBusOverwritesOldest(t *testing.T) {
	bus := NewEventBus(2)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{Progress: &model.ProgressEvent{Index: i}})
	}

	events := bus.Since(uuid.Nil, 0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Progress.Index != 3 || events[1].Progress.Index != 4 || events[1].Seq != 5 {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestEventBusFiltersByJob(t *testing.T) {
	bus := NewEventBus(10)
	a, b := uuid.New(), uuid.New()
	bus.Publish(Event{JobID: a})
	bus.Publish(Event{JobID: b})
	bus.Publish(Event{JobID: a})

	got := bus.Since(a, 0)
	if len(got) != 2 || got[0].Seq != 1 || got[1].Seq != 3 {
		t.Fatalf("events of a = %+v", got)
	}
	if got := bus.Since(b, 2); len(got) != 0 {
		t.Fatalf("events of b after 2 = %+v", got)
	}
}
