package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tOgg1/visrange/internal/blueprint"
	"github.com/tOgg1/visrange/internal/config"
	"github.com/tOgg1/visrange/internal/db"
	"github.com/tOgg1/visrange/internal/events"
	"github.com/tOgg1/visrange/internal/logging"
	"github.com/tOgg1/visrange/internal/models"
)

var storeMetrics = sync.OnceValue(func() *blueprint.Metrics {
	return blueprint.NewMetrics(metricsRegistry)
})

func openDatabase() (*db.DB, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	dbCfg := db.DefaultConfig()
	dbCfg.Path = cfg.DatabasePath()
	dbCfg.MaxConnections = cfg.Database.MaxConnections
	dbCfg.BusyTimeoutMs = cfg.Database.BusyTimeoutMs

	database, err := db.Open(dbCfg)
	if err != nil {
		return nil, err
	}
	if _, err := database.MigrateUp(context.Background()); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

// session is one command's view of the stored layout: a store seeded from
// the database whose changes are written back by commit.
type session struct {
	database *db.DB
	layouts  *db.LayoutRepository
	events   *db.EventRepository
	store    *blueprint.Store
}

func openSession(ctx context.Context) (*session, error) {
	database, err := openDatabase()
	if err != nil {
		return nil, err
	}

	layouts := db.NewLayoutRepository(database)
	snap, err := layouts.LoadSnapshot(ctx)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	eventRepo := db.NewEventRepository(database)
	publisher := events.NewInMemoryPublisher(
		events.WithRepository(eventRepo),
		events.WithPublisherLogger(logging.Component("events")),
	)
	store := blueprint.NewStore(snap,
		blueprint.WithPublisher(publisher),
		blueprint.WithMetrics(storeMetrics()),
		blueprint.WithLogger(logging.Component("blueprint")),
	)

	return &session{database: database, layouts: layouts, events: eventRepo, store: store}, nil
}

func (s *session) commit(ctx context.Context) error {
	return s.layouts.SaveSnapshot(ctx, s.store.Snapshot())
}

func (s *session) Close() error {
	return s.database.Close()
}

// resolveViewRef finds a view by ID, unique ID prefix, or name. An empty ref
// falls back to the view selected with `visrange view use`.
func resolveViewRef(snap *blueprint.Snapshot, ref string) (models.View, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		current, err := loadContext()
		if err != nil {
			return models.View{}, err
		}
		if !current.HasView() {
			return models.View{}, &PreflightError{
				Message:  "no view selected",
				Hint:     "Pass --view or select one",
				NextStep: "visrange view use <view>",
			}
		}
		ref = current.ViewID
	}

	if view, ok := snap.View(ref); ok {
		return view, nil
	}

	var matches []models.View
	for _, view := range snap.Views() {
		if view.Name == ref || strings.HasPrefix(view.ID, ref) {
			matches = append(matches, view)
		}
	}
	switch len(matches) {
	case 0:
		return models.View{}, &PreflightError{
			Message:  "view not found: " + ref,
			NextStep: "visrange view ls",
		}
	case 1:
		return matches[0], nil
	default:
		return models.View{}, &PreflightError{
			Message: "view reference is ambiguous: " + ref,
			Hint:    "Use the full view ID",
		}
	}
}

func contextStore() *config.ContextStore {
	path := ""
	if cfg := GetConfig(); cfg != nil {
		path = filepath.Join(cfg.Global.ConfigDir, "context.yaml")
	}
	return config.NewContextStore(path)
}

func loadContext() (*config.Context, error) {
	return contextStore().Load()
}
