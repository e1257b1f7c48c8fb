package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tOgg1/visrange/internal/events"
	"github.com/tOgg1/visrange/internal/models"
)

// eventTimeFormat has a fixed width so timestamps sort as text.
const eventTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const (
	defaultEventLimit = 100
	eventColumns      = `id, timestamp, type, entity_type, entity_id, payload_json, metadata_json`
)

// Event repository errors.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidEvent  = errors.New("invalid event")
)

var _ events.Repository = (*EventRepository)(nil)

// EventRepository stores the history of layout changes.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// EventQuery selects a page of history. Zero fields do not filter.
type EventQuery struct {
	Types []models.EventType

	// ViewID keeps events whose metadata names this view.
	ViewID string

	// Entity keeps entity range events for one entity path.
	Entity models.EntityPath

	// Since and Until bound the timestamp, inclusive and exclusive.
	Since time.Time
	Until time.Time

	// Cursor is the NextCursor of the previous page.
	Cursor string
	Limit  int

	// Newest returns the most recent events first.
	Newest bool
}

// EventPage is one page of query results.
type EventPage struct {
	Events     []*models.Event
	NextCursor string
}

type sqlExecer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Create records an event. A missing ID or timestamp is filled in.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.insert(ctx, r.db, event)
}

// CreateWithTx records an event inside tx.
func (r *EventRepository) CreateWithTx(ctx context.Context, tx *sql.Tx, event *models.Event) error {
	if tx == nil {
		return errors.New("transaction is required")
	}
	return r.insert(ctx, tx, event)
}

func (r *EventRepository) insert(ctx context.Context, execer sqlExecer, event *models.Event) error {
	if event == nil || event.Type == "" || event.EntityType == "" || event.EntityID == "" {
		return ErrInvalidEvent
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Timestamp = event.Timestamp.UTC()

	var metadata sql.NullString
	if len(event.Metadata) > 0 {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}
	payload := sql.NullString{String: string(event.Payload), Valid: len(event.Payload) > 0}

	_, err := execer.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Timestamp.Format(eventTimeFormat),
		string(event.Type),
		string(event.EntityType),
		event.EntityID,
		payload,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", event.Type, err)
	}
	return nil
}

// Get returns one event by ID.
func (r *EventRepository) Get(ctx context.Context, id string) (*models.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	event, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return event, err
}

type whereClause struct {
	conds []string
	args  []any
}

func (w *whereClause) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Query returns one page of events in timestamp order.
func (r *EventRepository) Query(ctx context.Context, q EventQuery) (*EventPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}

	var where whereClause
	if len(q.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(q.Types)), ", ")
		args := make([]any, len(q.Types))
		for i, t := range q.Types {
			args[i] = string(t)
		}
		where.add(`type IN (`+placeholders+`)`, args...)
	}
	if q.ViewID != "" {
		where.add(`json_extract(metadata_json, '$.`+events.MetadataViewID+`') = ?`, q.ViewID)
	}
	if q.Entity != "" {
		where.add(`entity_type = ? AND entity_id = ?`, string(models.EntityTypeEntity), string(q.Entity))
	}
	if !q.Since.IsZero() {
		where.add(`timestamp >= ?`, q.Since.UTC().Format(eventTimeFormat))
	}
	if !q.Until.IsZero() {
		where.add(`timestamp < ?`, q.Until.UTC().Format(eventTimeFormat))
	}

	order, after := "ASC", ">"
	if q.Newest {
		order, after = "DESC", "<"
	}
	if q.Cursor != "" {
		where.add(`(timestamp, id) `+after+` (SELECT timestamp, id FROM events WHERE id = ?)`, q.Cursor)
	}

	query := `SELECT ` + eventColumns + ` FROM events` + where.String() +
		` ORDER BY timestamp ` + order + `, id ` + order + ` LIMIT ?`
	// One extra row tells whether another page exists.
	rows, err := r.db.QueryContext(ctx, query, append(where.args, limit+1)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	page := &EventPage{}
	for rows.Next() {
		event, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		page.Events = append(page.Events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	if len(page.Events) > limit {
		page.Events = page.Events[:limit]
		page.NextCursor = page.Events[limit-1].ID
	}
	return page, nil
}

func (r *EventRepository) scan(row rowScanner) (*models.Event, error) {
	var (
		event                 models.Event
		timestamp             string
		eventType, entityType string
		payload, metadata     sql.NullString
	)
	if err := row.Scan(&event.ID, &timestamp, &eventType, &entityType, &event.EntityID, &payload, &metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	event.Type = models.EventType(eventType)
	event.EntityType = models.EntityType(entityType)
	parsed, err := time.Parse(eventTimeFormat, timestamp)
	if err != nil {
		return nil, fmt.Errorf("event %s: bad timestamp %q: %w", event.ID, timestamp, err)
	}
	event.Timestamp = parsed

	if payload.Valid {
		event.Payload = json.RawMessage(payload.String)
	}
	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &event.Metadata); err != nil {
			r.db.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to parse event metadata")
		}
	}
	return &event, nil
}

// Count returns the number of stored events.
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// DeleteOlderThan prunes events recorded before before and reports how many
// were removed.
func (r *EventRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE timestamp < ?`, before.UTC().Format(eventTimeFormat))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old events: %w", err)
	}
	return result.RowsAffected()
}
