package audit

import "sync"

// MemoryLogger keeps events in memory. Used for dry runs and tests.
type MemoryLogger struct {
	mu     sync.RWMutex
	events []*Event
}

// NewMemoryLogger creates an empty in-memory logger.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) Log(event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryLogger) Query(filter Filter) ([]*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Event
	for _, e := range m.events {
		if e.Matches(filter) {
			out = append(out, e)
		}
	}
	return page(out, filter), nil
}

func (m *MemoryLogger) Close() error {
	return nil
}
