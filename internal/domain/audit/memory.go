package audit

import (
	"context"
	"sync"
)

// MemorySink keeps events in process for the memory storage driver.
type MemorySink struct {
	mu     sync.Mutex
	nextID int64
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Write(_ context.Context, evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	evt.ID = m.nextID
	m.events = append(m.events, evt)
	return nil
}

// List returns newest first.
func (m *MemorySink) List(_ context.Context, filter Filter, limit, offset int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Event{}
	for i := len(m.events) - 1; i >= 0; i-- {
		evt := m.events[i]
		if !matches(evt, filter) {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, evt)
	}
	return out, nil
}

func matches(evt Event, f Filter) bool {
	return (f.Action == "" || evt.Action == f.Action) &&
		(f.EntityType == "" || evt.EntityType == f.EntityType) &&
		(f.EntityID == "" || evt.EntityID == f.EntityID) &&
		(f.ActorID == "" || evt.ActorID == f.ActorID)
}
