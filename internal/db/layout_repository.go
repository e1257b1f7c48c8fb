package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tOgg1/visrange/internal/blueprint"
	"github.com/tOgg1/visrange/internal/codec"
	"github.com/tOgg1/visrange/internal/models"
)

// ErrCorruptRanges is returned when a stored range blob cannot be decoded.
var ErrCorruptRanges = errors.New("stored visible ranges are corrupt")

// LayoutRepository persists the views of a blueprint with their ranges.
// Ranges are stored as codec-encoded blobs, one row per scope.
type LayoutRepository struct {
	db *DB
}

// NewLayoutRepository creates a new LayoutRepository.
func NewLayoutRepository(db *DB) *LayoutRepository {
	return &LayoutRepository{db: db}
}

// Save replaces the stored layout with configs.
func (r *LayoutRepository) Save(ctx context.Context, configs []blueprint.ViewConfig) error {
	now := time.Now().UTC().Format(time.RFC3339)

	return r.db.TransactionWithRetry(ctx, DefaultRetryPolicy(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM views`); err != nil {
			return fmt.Errorf("failed to clear views: %w", err)
		}

		for position, cfg := range configs {
			view := cfg.View
			createdAt := view.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now().UTC()
			}
			updatedAt := view.UpdatedAt
			if updatedAt.IsZero() {
				updatedAt = createdAt
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO views (id, class, name, origin, position, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`,
				view.ID,
				string(view.Class),
				view.Name,
				string(view.Origin),
				position,
				createdAt.UTC().Format(time.RFC3339),
				updatedAt.UTC().Format(time.RFC3339),
			)
			if err != nil {
				if isUniqueConstraintError(err) {
					return fmt.Errorf("%w: %s", blueprint.ErrViewExists, view.ID)
				}
				return fmt.Errorf("failed to insert view %s: %w", view.ID, err)
			}

			if err := insertRanges(ctx, tx, view.ID, "", cfg.Defaults, now); err != nil {
				return err
			}
			for entity, ranges := range cfg.Overrides {
				if err := insertRanges(ctx, tx, view.ID, entity, ranges, now); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func insertRanges(ctx context.Context, tx *sql.Tx, viewID string, entity models.EntityPath, ranges models.VisibleTimeRanges, now string) error {
	if len(ranges) == 0 {
		return nil
	}
	blob, err := codec.MarshalVisibleTimeRanges(ranges)
	if err != nil {
		return fmt.Errorf("failed to encode ranges for %s %s: %w", viewID, entity, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO visible_time_ranges (view_id, entity_path, ranges, updated_at)
		VALUES (?, ?, ?, ?)
	`, viewID, string(entity), blob, now)
	if err != nil {
		return fmt.Errorf("failed to insert ranges for %s %s: %w", viewID, entity, err)
	}
	return nil
}

// ListViews returns the stored views in layout order.
func (r *LayoutRepository) ListViews(ctx context.Context) ([]models.View, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class, name, origin, created_at, updated_at
		FROM views
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query views: %w", err)
	}
	defer rows.Close()

	var views []models.View
	for rows.Next() {
		var view models.View
		var class, origin, createdAt, updatedAt string
		if err := rows.Scan(&view.ID, &class, &view.Name, &origin, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan view: %w", err)
		}
		view.Class = models.ViewClass(class)
		view.Origin = models.EntityPath(origin)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			view.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			view.UpdatedAt = t
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating views: %w", err)
	}
	return views, nil
}

// Load reads the stored layout.
func (r *LayoutRepository) Load(ctx context.Context) ([]blueprint.ViewConfig, error) {
	views, err := r.ListViews(ctx)
	if err != nil {
		return nil, err
	}

	configs := make([]blueprint.ViewConfig, len(views))
	index := make(map[string]int, len(views))
	for i, view := range views {
		configs[i] = blueprint.ViewConfig{View: view}
		index[view.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT view_id, entity_path, ranges
		FROM visible_time_ranges
		ORDER BY view_id, entity_path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query visible ranges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var viewID, entity string
		var blob []byte
		if err := rows.Scan(&viewID, &entity, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan visible ranges: %w", err)
		}
		i, ok := index[viewID]
		if !ok {
			continue
		}

		ranges, err := codec.UnmarshalVisibleTimeRanges(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: view %s entity %q: %v", ErrCorruptRanges, viewID, entity, err)
		}

		if entity == "" {
			configs[i].Defaults = ranges
			continue
		}
		if configs[i].Overrides == nil {
			configs[i].Overrides = make(map[models.EntityPath]models.VisibleTimeRanges)
		}
		configs[i].Overrides[models.EntityPath(entity)] = ranges
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visible ranges: %w", err)
	}

	return configs, nil
}

// LoadSnapshot reads the stored layout as a blueprint snapshot.
func (r *LayoutRepository) LoadSnapshot(ctx context.Context) (*blueprint.Snapshot, error) {
	configs, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return blueprint.NewSnapshot(configs)
}

// SaveSnapshot stores snap, replacing the previous layout.
func (r *LayoutRepository) SaveSnapshot(ctx context.Context, snap *blueprint.Snapshot) error {
	return r.Save(ctx, snap.Configs())
}
