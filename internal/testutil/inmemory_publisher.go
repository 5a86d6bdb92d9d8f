package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/taxledger/internal/domain/taxation"
)

// InMemoryTaxationPublisher records published taxation events
type InMemoryTaxationPublisher struct {
	mu     sync.RWMutex
	events []*taxation.RecordedEvent
	err    error
}

func NewInMemoryTaxationPublisher() *InMemoryTaxationPublisher {
	return &InMemoryTaxationPublisher{
		events: make([]*taxation.RecordedEvent, 0),
	}
}

// Fail makes every subsequent publish return err; nil restores normal behaviour
func (p *InMemoryTaxationPublisher) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *InMemoryTaxationPublisher) PublishRecorded(ctx context.Context, event *taxation.RecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns the published events in publish order
func (p *InMemoryTaxationPublisher) Events() []*taxation.RecordedEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*taxation.RecordedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *InMemoryTaxationPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = p.events[:0]
}
