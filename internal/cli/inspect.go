package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/tOgg1/visrange/internal/inspect"
	"github.com/tOgg1/visrange/internal/models"
	"golang.org/x/term"
)

var (
	inspectView      string
	inspectTimelines []string
	inspectEntities  []string
	inspectCursor    string
)

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectView, "view", "", "view ID or name (default: selected view)")
	inspectCmd.Flags().StringSliceVar(&inspectTimelines, "timeline", nil, "timeline column (repeatable)")
	inspectCmd.Flags().StringSliceVar(&inspectEntities, "entity", nil, "extra entity row (repeatable)")
	inspectCmd.Flags().StringVar(&inspectCursor, "cursor", "0", "starting cursor position")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Browse resolved queries of a view interactively",
	Long: `Open a terminal view listing the entities of a view and the query each
timeline resolves to. Move the cursor with the arrow keys to see relative
ranges follow it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect()
	},
}

func runInspect() error {
	if IsNonInteractive() {
		return &PreflightError{
			Message:  "inspect requires an interactive terminal",
			Hint:     "Run without --non-interactive and with a TTY, or use 'visrange resolve'",
			NextStep: "visrange resolve --help",
		}
	}

	ctx := context.Background()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	snap := sess.store.Snapshot()
	view, err := resolveViewRef(snap, inspectView)
	if err != nil {
		return err
	}

	cfg := GetConfig()
	cursor, err := parseCursor(inspectCursor, cfg.Resolver.TimelineKind)
	if err != nil {
		return err
	}

	entities := make([]models.EntityPath, 0, len(inspectEntities)+1)
	if current, err := loadContext(); err == nil && current.ViewID == view.ID && current.Entity != "" {
		entities = append(entities, current.Entity)
	}
	for _, entity := range inspectEntities {
		entities = append(entities, models.EntityPath(entity))
	}

	timelines := inspectTimelines
	if len(timelines) == 0 {
		timelines = []string{cfg.Resolver.DefaultTimeline}
	}

	return inspect.Run(snap, inspect.Config{
		ViewID:       view.ID,
		Timelines:    timelines,
		TimelineKind: cfg.Resolver.TimelineKind,
		Entities:     entities,
		Cursor:       cursor,
		CursorStep:   cfg.TUI.CursorStep,
		Theme:        cfg.TUI.Theme,
		ShowSource:   cfg.TUI.ShowSource,
	})
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
