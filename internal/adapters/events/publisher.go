package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"affiliatehub/internal/core/domain"
)

// Publisher emits affiliate lifecycle events
type Publisher interface {
	PublishActivation(ctx context.Context, event domain.ActivationEvent) error
	Close() error
}

// LogPublisher writes events to the process log.
// Used when no broker is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) PublishActivation(_ context.Context, event domain.ActivationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	log.Printf("📣 affiliate.activated %s", payload)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// MemoryPublisher keeps published events in memory
type MemoryPublisher struct {
	mu     sync.Mutex
	events []domain.ActivationEvent
	Err    error
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) PublishActivation(_ context.Context, event domain.ActivationEvent) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of what was published
func (p *MemoryPublisher) Events() []domain.ActivationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ActivationEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *MemoryPublisher) Close() error { return nil }
