package notify

import (
	"context"
	"sync"
	"time"

	"github.com/brojonat/burnwatch/service/burn"
)

// MockSink records events for tests.
type MockSink struct {
	name string

	mu     sync.Mutex
	events []*burn.Event
	err    error
	delay  time.Duration
	closed bool
}

func NewMockSink(name string) *MockSink {
	return &MockSink{name: name}
}

func (m *MockSink) Name() string { return m.name }

// Send records ev, after the configured delay, unless an error is configured.
func (m *MockSink) Send(ctx context.Context, ev *burn.Event) error {
	m.mu.Lock()
	delay, err := m.delay, m.err
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *MockSink) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockSink) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Events returns a copy of the recorded events.
func (m *MockSink) Events() []*burn.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*burn.Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockSink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockSink) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
