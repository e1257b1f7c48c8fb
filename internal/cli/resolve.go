package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tOgg1/visrange/internal/blueprint"
	"github.com/tOgg1/visrange/internal/logging"
	"github.com/tOgg1/visrange/internal/models"
	"github.com/tOgg1/visrange/internal/resolve"
)

var (
	resolveView      string
	resolveEntity    string
	resolveTimelines []string
	resolveCursor    string
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	addResolveFlags(resolveCmd)
}

func addResolveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&resolveView, "view", "", "view ID or name (default: selected view)")
	cmd.Flags().StringVar(&resolveEntity, "entity", "", "entity path (default: selected entity)")
	cmd.Flags().StringSliceVar(&resolveTimelines, "timeline", nil, "timeline name (repeatable; default: resolver.default_timeline)")
	cmd.Flags().StringVar(&resolveCursor, "cursor", "0", "cursor position: an integer, or a duration on time timelines")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the query for an entity at a cursor",
	Long: `Resolve which data an entity in a view should show at the given cursor.
The result is either a range [low, high] (both ends included) or a latest-at
query, together with the configuration tier it came from.`,
	Example: `  visrange resolve --view plot --entity /robot/arm --timeline log_tick --cursor 1000
  visrange resolve --entity /robot/arm --timeline log_time --timeline log_tick --cursor 5s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		results, err := runResolve(sess.store.Snapshot())
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, results)
		}

		rows := make([][]string, 0, len(results))
		for _, result := range results {
			rows = append(rows, resolutionRow(result))
		}
		return writeTable(os.Stdout, []string{"VIEW", "ENTITY", "TIMELINE", "QUERY", "SOURCE", "EMPTY"}, rows)
	},
}

// resolution is the output of one resolved timeline.
type resolution struct {
	View     string            `json:"view"`
	Entity   models.EntityPath `json:"entity"`
	Timeline string            `json:"timeline"`
	Cursor   models.TimeInt    `json:"cursor"`
	Mode     resolve.QueryMode `json:"mode"`
	Empty    bool              `json:"empty"`
}

func runResolve(snap *blueprint.Snapshot) ([]resolution, error) {
	view, err := resolveViewRef(snap, resolveView)
	if err != nil {
		return nil, err
	}

	entity := resolveEntity
	if entity == "" {
		if current, err := loadContext(); err == nil && current.ViewID == view.ID {
			entity = string(current.Entity)
		}
	}
	if entity == "" {
		return nil, &PreflightError{
			Message:  "no entity given",
			Hint:     "Pass --entity with an entity path",
			NextStep: "visrange resolve --entity /world/points",
		}
	}

	cursor, err := parseCursor(resolveCursor, GetConfig().Resolver.TimelineKind)
	if err != nil {
		return nil, err
	}

	timelines := resolveTimelines
	if len(timelines) == 0 {
		timelines = []string{GetConfig().Resolver.DefaultTimeline}
	}

	queries, err := snap.ResolveEntity(view.ID, models.EntityPath(entity), timelines, cursor)
	if err != nil {
		return nil, err
	}

	logger := logging.WithEntity(view.ID, entity)
	results := make([]resolution, 0, len(queries))
	for _, q := range queries {
		timelineLogger := logging.WithTimeline(logger, q.Timeline)
		timelineLogger.Debug().
			Int64("cursor", int64(cursor)).
			Str("mode", q.Mode.String()).
			Str("source", string(q.Mode.Source)).
			Msg("resolved query")
		results = append(results, resolution{
			View:     view.ID,
			Entity:   models.EntityPath(entity),
			Timeline: q.Timeline,
			Cursor:   cursor,
			Mode:     q.Mode,
			Empty:    q.Mode.IsEmpty(),
		})
	}
	return results, nil
}

func resolutionRow(r resolution) []string {
	return []string{r.View, string(r.Entity), r.Timeline, r.Mode.String(), string(r.Mode.Source), formatYesNo(r.Empty)}
}

// parseCursor accepts an integer, or a Go duration when kind is time.
func parseCursor(text string, kind models.TimelineKind) (models.TimeInt, error) {
	text = strings.TrimSpace(text)
	if value, err := strconv.ParseInt(text, 10, 64); err == nil {
		return models.TimeInt(value), nil
	}
	if kind == models.TimelineKindTime {
		if d, err := time.ParseDuration(text); err == nil {
			return models.TimeIntFromDuration(d), nil
		}
	}
	return 0, fmt.Errorf("invalid cursor %q", text)
}
