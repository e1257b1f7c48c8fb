package db

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tOgg1/visrange/internal/events"
	"github.com/tOgg1/visrange/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := OpenInMemory()
	require.NoError(t, err)
	_, err = database.MigrateUp(context.Background())
	if err != nil {
		database.Close()
	}
	require.NoError(t, err)
	return database
}

func rangeSetEvent(viewID string, at time.Time) *models.Event {
	return &models.Event{
		Type:       models.EventTypeViewRangeSet,
		EntityType: models.EntityTypeView,
		EntityID:   viewID,
		Timestamp:  at,
		Metadata:   map[string]string{events.MetadataViewID: viewID},
	}
}

func overrideEvent(eventType models.EventType, viewID string, entity models.EntityPath, at time.Time) *models.Event {
	return &models.Event{
		Type:       eventType,
		EntityType: models.EntityTypeEntity,
		EntityID:   string(entity),
		Timestamp:  at,
		Metadata:   map[string]string{events.MetadataViewID: viewID},
	}
}

func eventIDs(page *EventPage) []string {
	ids := make([]string, 0, len(page.Events))
	for _, event := range page.Events {
		ids = append(ids, event.ID)
	}
	return ids
}

func TestEventRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	event := rangeSetEvent("plot", time.Now().Truncate(time.Millisecond))
	event.Payload = json.RawMessage(`{"view_id":"plot","timeline":"log_time"}`)
	require.NoError(t, repo.Create(ctx, event))
	require.NotEmpty(t, event.ID)

	got, err := repo.Get(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, event.Type, got.Type)
	require.Equal(t, models.EntityTypeView, got.EntityType)
	require.Equal(t, "plot", got.EntityID)
	require.JSONEq(t, string(event.Payload), string(got.Payload))
	require.Equal(t, "plot", got.Metadata[events.MetadataViewID])
	require.True(t, got.Timestamp.Equal(event.Timestamp), "got %v, want %v", got.Timestamp, event.Timestamp)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventRepositoryRejectsIncompleteEvents(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	ctx := context.Background()
	require.ErrorIs(t, repo.Create(ctx, nil), ErrInvalidEvent)
	require.ErrorIs(t, repo.Create(ctx, &models.Event{}), ErrInvalidEvent)
	require.ErrorIs(t, repo.Create(ctx, &models.Event{Type: models.EventTypeViewAdded, EntityType: models.EntityTypeView}), ErrInvalidEvent)
	require.Error(t, repo.CreateWithTx(ctx, nil, rangeSetEvent("plot", time.Time{})))
}

func TestEventRepositoryPagination(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	base := time.Now().Truncate(time.Second)
	var created []string
	for i := 0; i < 3; i++ {
		event := rangeSetEvent("plot", base.Add(time.Duration(i)*300*time.Millisecond))
		require.NoError(t, repo.Create(ctx, event))
		created = append(created, event.ID)
	}

	t.Run("oldest first", func(t *testing.T) {
		page, err := repo.Query(ctx, EventQuery{Limit: 2})
		require.NoError(t, err)
		require.Equal(t, created[:2], eventIDs(page))
		require.Equal(t, created[1], page.NextCursor)

		page, err = repo.Query(ctx, EventQuery{Limit: 2, Cursor: page.NextCursor})
		require.NoError(t, err)
		require.Equal(t, created[2:], eventIDs(page))
		require.Empty(t, page.NextCursor)
	})

	t.Run("newest first", func(t *testing.T) {
		page, err := repo.Query(ctx, EventQuery{Limit: 2, Newest: true})
		require.NoError(t, err)
		require.Equal(t, []string{created[2], created[1]}, eventIDs(page))

		page, err = repo.Query(ctx, EventQuery{Limit: 2, Newest: true, Cursor: page.NextCursor})
		require.NoError(t, err)
		require.Equal(t, []string{created[0]}, eventIDs(page))
		require.Empty(t, page.NextCursor)
	})
}

func TestEventRepositoryFilters(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	base := time.Now().Truncate(time.Second)
	stored := []*models.Event{
		rangeSetEvent("plot", base),
		rangeSetEvent("scene", base.Add(time.Second)),
		overrideEvent(models.EventTypeEntityRangeSet, "plot", "/robot/arm", base.Add(2*time.Second)),
		overrideEvent(models.EventTypeEntityRangeCleared, "plot", "/robot/arm", base.Add(3*time.Second)),
		overrideEvent(models.EventTypeEntityRangeSet, "plot", "/robot/leg", base.Add(5*time.Second)),
	}
	for _, event := range stored {
		require.NoError(t, repo.Create(ctx, event))
	}
	id := func(i int) string { return stored[i].ID }

	tests := []struct {
		name  string
		query EventQuery
		want  []string
	}{
		{name: "view", query: EventQuery{ViewID: "scene"}, want: []string{id(1)}},
		{name: "entity", query: EventQuery{Entity: "/robot/arm"}, want: []string{id(2), id(3)}},
		{
			name:  "types",
			query: EventQuery{Types: []models.EventType{models.EventTypeViewRangeSet, models.EventTypeEntityRangeCleared}},
			want:  []string{id(0), id(1), id(3)},
		},
		{name: "since", query: EventQuery{ViewID: "plot", Since: base.Add(3 * time.Second)}, want: []string{id(3), id(4)}},
		{name: "until", query: EventQuery{Until: base.Add(time.Second)}, want: []string{id(0)}},
		{
			name:  "combined",
			query: EventQuery{ViewID: "plot", Types: []models.EventType{models.EventTypeEntityRangeSet}, Since: base.Add(time.Second)},
			want:  []string{id(2), id(4)},
		},
		{name: "no match", query: EventQuery{ViewID: "missing"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.Query(ctx, tt.query)
			require.NoError(t, err)
			require.Equal(t, tt.want, eventIDs(page))
		})
	}
}

func TestEventRepositoryPrune(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	base := time.Now().Truncate(time.Second)
	for _, offset := range []time.Duration{0, time.Second, 5 * time.Second} {
		require.NoError(t, repo.Create(ctx, rangeSetEvent("plot", base.Add(offset))))
	}

	deleted, err := repo.DeleteOlderThan(ctx, base.Add(2*time.Second))
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestEventRepositoryRecordsPublishedEvents(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	pub := events.NewInMemoryPublisher(events.WithRepository(repo))
	pub.Publish(ctx, rangeSetEvent("plot", time.Time{}))
	pub.Publish(ctx, overrideEvent(models.EventTypeEntityRangeSet, "plot", "/robot/arm", time.Time{}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	page, err := repo.Query(ctx, EventQuery{Entity: "/robot/arm"})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	require.False(t, page.Events[0].Timestamp.IsZero())
}
