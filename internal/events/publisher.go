// Package events provides change notifications for layout configuration.
// Every mutation of a blueprint store becomes one models.Event, delivered
// synchronously to matching subscribers and optionally recorded.
package events

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tOgg1/visrange/internal/models"
)

// MetadataViewID is the metadata key carrying the view an event belongs to.
const MetadataViewID = "view_id"

// Publisher errors.
var (
	ErrInvalidSubscriptionID = errors.New("subscription ID is required")
	ErrNilHandler            = errors.New("handler cannot be nil")
	ErrSubscriptionExists    = errors.New("subscription already exists")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
)

// EventHandler receives a matching event. Handlers run on the publishing
// goroutine and must not block.
type EventHandler func(event *models.Event)

// Repository records published events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	EventTypes  []models.EventType
	EntityTypes []models.EntityType

	// ViewID keeps events about one view.
	ViewID string

	// Entity keeps entity range events for one entity path.
	Entity models.EntityPath
}

// Matches reports whether event passes every set criterion.
func (f Filter) Matches(event *models.Event) bool {
	switch {
	case event == nil:
		return false
	case len(f.EventTypes) > 0 && !slices.Contains(f.EventTypes, event.Type):
		return false
	case len(f.EntityTypes) > 0 && !slices.Contains(f.EntityTypes, event.EntityType):
		return false
	case f.ViewID != "" && event.Metadata[MetadataViewID] != f.ViewID:
		return false
	case f.Entity != "" && (event.EntityType != models.EntityTypeEntity || event.EntityID != string(f.Entity)):
		return false
	}
	return true
}

// Publisher fans events out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event *models.Event)
	Subscribe(id string, filter Filter, handler EventHandler) error
	Unsubscribe(id string) error
}

type subscription struct {
	id      string
	filter  Filter
	handler EventHandler
}

// InMemoryPublisher delivers events in-process, to subscribers in the order
// they subscribed.
type InMemoryPublisher struct {
	mu     sync.RWMutex
	subs   []subscription
	repo   Repository
	logger zerolog.Logger
}

// PublisherOption configures an InMemoryPublisher.
type PublisherOption func(*InMemoryPublisher)

// WithRepository records every published event before delivery.
func WithRepository(repo Repository) PublisherOption {
	return func(p *InMemoryPublisher) {
		p.repo = repo
	}
}

// WithPublisherLogger sets the logger used to report failed recordings.
func WithPublisherLogger(logger zerolog.Logger) PublisherOption {
	return func(p *InMemoryPublisher) {
		p.logger = logger
	}
}

// NewInMemoryPublisher creates a publisher with no subscribers.
func NewInMemoryPublisher(opts ...PublisherOption) *InMemoryPublisher {
	p := &InMemoryPublisher{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish records event (when a repository is set) and hands it to every
// matching subscriber. A failed recording is logged and does not stop
// delivery.
func (p *InMemoryPublisher) Publish(ctx context.Context, event *models.Event) {
	if event == nil {
		return
	}

	if p.repo != nil {
		if err := p.repo.Create(ctx, event); err != nil {
			p.logger.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to record event")
		}
	}

	p.mu.RLock()
	var handlers []EventHandler
	for _, sub := range p.subs {
		if sub.filter.Matches(event) {
			handlers = append(handlers, sub.handler)
		}
	}
	p.mu.RUnlock()

	// Outside the lock so handlers may subscribe or unsubscribe.
	for _, handler := range handlers {
		handler(event)
	}
}

// Subscribe registers handler under a unique id.
func (p *InMemoryPublisher) Subscribe(id string, filter Filter, handler EventHandler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.indexOf(id) >= 0 {
		return ErrSubscriptionExists
	}
	p.subs = append(p.subs, subscription{id: id, filter: filter, handler: handler})
	return nil
}

// Unsubscribe removes the subscription registered under id.
func (p *InMemoryPublisher) Unsubscribe(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexOf(id)
	if i < 0 {
		return ErrSubscriptionNotFound
	}
	p.subs = slices.Delete(p.subs, i, i+1)
	return nil
}

func (p *InMemoryPublisher) indexOf(id string) int {
	return slices.IndexFunc(p.subs, func(sub subscription) bool { return sub.id == id })
}

// Len returns the number of subscriptions.
func (p *InMemoryPublisher) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Close drops every subscription.
func (p *InMemoryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = nil
}
