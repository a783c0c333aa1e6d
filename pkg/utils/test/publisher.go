package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/ollamaui/pkg/eventstream"
)

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.ExchangeCompletedEvent

	// Fail causes PublishExchange to return an error.
	Fail bool
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishExchange(_ context.Context, event *eventstream.ExchangeCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	if m.Fail {
		return errors.New("mock publish failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a snapshot of everything published so far.
func (m *MockPublisher) Events() []*eventstream.ExchangeCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.ExchangeCompletedEvent(nil), m.events...)
}

func (m *MockPublisher) Close() error {
	return nil
}
