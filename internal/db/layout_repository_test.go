package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tOgg1/visrange/internal/blueprint"
	"github.com/tOgg1/visrange/internal/models"
	"github.com/tOgg1/visrange/internal/resolve"
)

func sampleLayout() []blueprint.ViewConfig {
	return []blueprint.ViewConfig{
		{
			View: models.View{ID: "plot", Class: models.ViewClassTimeSeries, Name: "Joint angles"},
			Defaults: models.VisibleTimeRanges{
				{Timeline: "log_time", Range: models.RelativeRange(-5_000_000_000, 0)},
			},
			Overrides: map[models.EntityPath]models.VisibleTimeRanges{
				"/robot/arm": {
					{Timeline: "log_tick", Range: models.RelativeRange(-500, 0)},
					{Timeline: "log_time", Range: models.EverythingRange()},
				},
			},
		},
		{
			View: models.View{ID: "scene", Class: models.ViewClassSpatial3D, Origin: "/world"},
		},
	}
}

func TestLayoutRepository_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewLayoutRepository(database)
	require.NoError(t, repo.Save(ctx, sampleLayout()))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	require.Equal(t, "plot", loaded[0].View.ID)
	require.Equal(t, "Joint angles", loaded[0].View.Name)
	require.False(t, loaded[0].View.CreatedAt.IsZero())
	require.Len(t, loaded[0].Defaults, 1)
	require.True(t, loaded[0].Defaults[0].Range.Equal(models.RelativeRange(-5_000_000_000, 0)))

	arm := loaded[0].Overrides["/robot/arm"]
	require.Len(t, arm, 2)
	require.Equal(t, []string{"log_tick", "log_time"}, arm.Timelines())

	require.Equal(t, "scene", loaded[1].View.ID)
	require.Equal(t, models.EntityPath("/world"), loaded[1].View.Origin)
	require.Empty(t, loaded[1].Defaults)
	require.Nil(t, loaded[1].Overrides)
}

func TestLayoutRepository_SnapshotResolvesAfterReload(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewLayoutRepository(database)
	original, err := blueprint.NewSnapshot(sampleLayout())
	require.NoError(t, err)
	require.NoError(t, repo.SaveSnapshot(ctx, original))

	snap, err := repo.LoadSnapshot(ctx)
	require.NoError(t, err)

	mode, err := snap.QueryMode("plot", "/robot/arm", "log_tick", 1000)
	require.NoError(t, err)
	require.Equal(t, resolve.SourceEntityOverride, mode.Source)
	require.Equal(t, resolve.Range{Low: resolve.Finite(500), High: resolve.Finite(1000)}, *mode.Range)

	mode, err = snap.QueryMode("scene", "/robot/arm", "log_tick", 1000)
	require.NoError(t, err)
	require.Equal(t, resolve.QueryKindLatestAt, mode.Kind)
}

func TestLayoutRepository_SaveReplacesPreviousLayout(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewLayoutRepository(database)
	require.NoError(t, repo.Save(ctx, sampleLayout()))
	require.NoError(t, repo.Save(ctx, sampleLayout()[1:]))

	views, err := repo.ListViews(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "scene", views[0].ID)

	var orphaned int
	require.NoError(t, database.QueryRowContext(ctx, `SELECT COUNT(*) FROM visible_time_ranges`).Scan(&orphaned))
	require.Zero(t, orphaned)
}

func TestLayoutRepository_DuplicateViewsRollBack(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewLayoutRepository(database)
	require.NoError(t, repo.Save(ctx, sampleLayout()))

	layout := sampleLayout()
	err := repo.Save(ctx, append(layout, layout[0]))
	require.ErrorIs(t, err, blueprint.ErrViewExists)

	views, err := repo.ListViews(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2, "failed save must leave the previous layout in place")
}

func TestLayoutRepository_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewLayoutRepository(database)
	require.NoError(t, repo.Save(ctx, sampleLayout()[1:]))
	_, err := database.ExecContext(ctx, `
		INSERT INTO visible_time_ranges (view_id, entity_path, ranges, updated_at)
		VALUES ('scene', '', X'0a05', '2026-01-01T00:00:00Z')
	`)
	require.NoError(t, err)

	_, err = repo.Load(ctx)
	require.True(t, errors.Is(err, ErrCorruptRanges), "got %v", err)
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	applied, err := database.MigrateUp(ctx)
	require.NoError(t, err)
	require.Zero(t, applied)

	version, err := database.SchemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, version)
}
