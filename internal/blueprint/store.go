package blueprint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tOgg1/visrange/internal/events"
	"github.com/tOgg1/visrange/internal/models"
)

// Store owns the current snapshot. Writers are serialized; readers call
// Snapshot and never block.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	publisher events.Publisher
	metrics   *Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPublisher publishes a models.Event for every change.
func WithPublisher(p events.Publisher) StoreOption {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithMetrics records changes in m.
func WithMetrics(m *Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithNow overrides the clock used for view timestamps.
func WithNow(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a store starting from initial (or an empty layout).
func NewStore(initial *Snapshot, opts ...StoreOption) *Store {
	s := &Store{
		logger: zerolog.Nop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if initial == nil {
		initial = EmptySnapshot()
	}
	s.current.Store(initial)
	return s
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// update applies fn to a copy of the current snapshot and installs it.
func (s *Store) update(op string, fn func(next *Snapshot) error) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().with()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.current.Store(next)
	s.metrics.observe(op, next)
	s.logger.Debug().Str("op", op).Uint64("version", next.Version()).Msg("blueprint updated")
	return next, nil
}

// AddView adds a view. An empty ID is filled with a new UUID.
func (s *Store) AddView(ctx context.Context, view models.View) (models.View, error) {
	if view.ID == "" {
		view.ID = uuid.New().String()
	}
	now := s.now()
	view.CreatedAt = now
	view.UpdatedAt = now
	if err := view.Validate(); err != nil {
		return models.View{}, fmt.Errorf("invalid view: %w", err)
	}

	_, err := s.update("add_view", func(next *Snapshot) error {
		if _, exists := next.views[view.ID]; exists {
			return fmt.Errorf("%w: %s", ErrViewExists, view.ID)
		}
		next.views[view.ID] = &viewState{view: view, overrides: map[models.EntityPath]models.VisibleTimeRanges{}}
		next.order = append(next.order, view.ID)
		return nil
	})
	if err != nil {
		return models.View{}, err
	}

	s.publish(ctx, models.EventTypeViewAdded, models.EntityTypeView, view.ID, view.ID, view)
	return view, nil
}

// RemoveView deletes a view with all its ranges.
func (s *Store) RemoveView(ctx context.Context, id string) error {
	_, err := s.update("remove_view", func(next *Snapshot) error {
		if _, exists := next.views[id]; !exists {
			return fmt.Errorf("%w: %s", ErrViewNotFound, id)
		}
		delete(next.views, id)
		for i, existing := range next.order {
			if existing == id {
				next.order = append(next.order[:i], next.order[i+1:]...)
				break
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, models.EventTypeViewRemoved, models.EntityTypeView, id, id, nil)
	return nil
}

// SetViewRange sets the default range of a view for one timeline.
func (s *Store) SetViewRange(ctx context.Context, viewID, timeline string, r models.TimeRange) error {
	entry := models.VisibleTimeRange{Timeline: timeline, Range: r}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid range: %w", err)
	}

	_, err := s.updateView("set_view_range", viewID, func(state *viewState) error {
		state.defaults = state.defaults.With(timeline, r)
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, models.EventTypeViewRangeSet, models.EntityTypeView, viewID, viewID,
		models.RangeChangedPayload{ViewID: viewID, Timeline: timeline, Range: &r})
	return nil
}

// ClearViewRange removes the default range of a view for one timeline.
func (s *Store) ClearViewRange(ctx context.Context, viewID, timeline string) error {
	_, err := s.updateView("clear_view_range", viewID, func(state *viewState) error {
		if _, ok := state.defaults.RangeForTimeline(timeline); !ok {
			return fmt.Errorf("%w: %s", ErrRangeNotFound, timeline)
		}
		state.defaults = state.defaults.Without(timeline)
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, models.EventTypeViewRangeCleared, models.EntityTypeView, viewID, viewID,
		models.RangeChangedPayload{ViewID: viewID, Timeline: timeline})
	return nil
}

// SetEntityRange overrides the range of one entity within a view.
func (s *Store) SetEntityRange(ctx context.Context, viewID string, entity models.EntityPath, timeline string, r models.TimeRange) error {
	if err := entity.Validate(); err != nil {
		return err
	}
	entry := models.VisibleTimeRange{Timeline: timeline, Range: r}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid range: %w", err)
	}

	_, err := s.updateView("set_entity_range", viewID, func(state *viewState) error {
		state.overrides[entity] = state.overrides[entity].With(timeline, r)
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, models.EventTypeEntityRangeSet, models.EntityTypeEntity, string(entity), viewID,
		models.RangeChangedPayload{ViewID: viewID, Entity: entity, Timeline: timeline, Range: &r})
	return nil
}

// ClearEntityRange removes an entity override so the timeline falls back to
// the view default or the class default.
func (s *Store) ClearEntityRange(ctx context.Context, viewID string, entity models.EntityPath, timeline string) error {
	_, err := s.updateView("clear_entity_range", viewID, func(state *viewState) error {
		current := state.overrides[entity]
		if _, ok := current.RangeForTimeline(timeline); !ok {
			return fmt.Errorf("%w: %s on %s", ErrRangeNotFound, timeline, entity)
		}
		remaining := current.Without(timeline)
		if len(remaining) == 0 {
			delete(state.overrides, entity)
		} else {
			state.overrides[entity] = remaining
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, models.EventTypeEntityRangeCleared, models.EntityTypeEntity, string(entity), viewID,
		models.RangeChangedPayload{ViewID: viewID, Entity: entity, Timeline: timeline})
	return nil
}

// Replace swaps in a whole new layout, e.g. after loading a saved one.
func (s *Store) Replace(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		snap = EmptySnapshot()
	}
	installed, err := s.update("replace", func(next *Snapshot) error {
		next.views = snap.views
		next.order = append([]string(nil), snap.order...)
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, models.EventTypeLayoutReplaced, models.EntityTypeLayout, "layout", "",
		models.LayoutReplacedPayload{Views: len(installed.order), Version: installed.Version()})
	return nil
}

func (s *Store) updateView(op, viewID string, fn func(state *viewState) error) (*Snapshot, error) {
	return s.update(op, func(next *Snapshot) error {
		state, ok := next.views[viewID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrViewNotFound, viewID)
		}
		changed := state.clone()
		if err := fn(changed); err != nil {
			return err
		}
		changed.view.UpdatedAt = s.now()
		next.views[viewID] = changed
		return nil
	})
}

func (s *Store) publish(ctx context.Context, eventType models.EventType, entityType models.EntityType, entityID, viewID string, payload any) {
	if s.publisher == nil {
		return
	}

	event := &models.Event{
		ID:         uuid.New().String(),
		Timestamp:  s.now(),
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if viewID != "" {
		event.Metadata = map[string]string{events.MetadataViewID: viewID}
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal event payload")
		} else {
			event.Payload = data
		}
	}
	s.publisher.Publish(ctx, event)
}
