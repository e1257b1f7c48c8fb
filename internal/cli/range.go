package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tOgg1/visrange/internal/models"
)

var (
	rangeView     string
	rangeEntity   string
	rangeTimeline string
	rangeStart    string
	rangeEnd      string
	rangeKind     string
)

func init() {
	rootCmd.AddCommand(rangeCmd)
	rangeCmd.AddCommand(rangeSetCmd)
	rangeCmd.AddCommand(rangeClearCmd)
	rangeCmd.AddCommand(rangeListCmd)

	for _, cmd := range []*cobra.Command{rangeSetCmd, rangeClearCmd, rangeListCmd} {
		cmd.Flags().StringVar(&rangeView, "view", "", "view ID or name (default: selected view)")
		cmd.Flags().StringVar(&rangeEntity, "entity", "", "entity path; omit for the view default")
	}
	for _, cmd := range []*cobra.Command{rangeSetCmd, rangeClearCmd} {
		cmd.Flags().StringVar(&rangeTimeline, "timeline", "", "timeline name (default: resolver.default_timeline)")
	}
	rangeSetCmd.Flags().StringVar(&rangeStart, "start", "inf", "start boundary: inf, cursor, rel:<n>, abs:<n>")
	rangeSetCmd.Flags().StringVar(&rangeEnd, "end", "inf", "end boundary: inf, cursor, rel:<n>, abs:<n>")
	rangeSetCmd.Flags().StringVar(&rangeKind, "kind", "", "timeline kind used to parse durations (time, sequence)")
}

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Configure visible time ranges",
	Long: `Configure the visible time range of a view (its default) or of one entity
within a view (an override). Overrides win over view defaults, which win over
the default of the view class. Each timeline is configured independently.`,
}

var rangeSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set a visible range",
	Example: `  visrange range set --view plot --timeline log_time --start rel:-10s --end cursor
  visrange range set --view plot --entity /robot/arm --timeline log_tick --start rel:-500 --end cursor`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		timeline := timelineOrDefault(rangeTimeline)

		kind := GetConfig().Resolver.TimelineKind
		if rangeKind != "" {
			kind = models.TimelineKind(rangeKind)
			if err := kind.Validate(); err != nil {
				return err
			}
		}

		start, err := models.ParseBoundary(rangeStart, kind)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		end, err := models.ParseBoundary(rangeEnd, kind)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		r := models.TimeRange{Start: start, End: end}

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		view, err := resolveViewRef(sess.store.Snapshot(), rangeView)
		if err != nil {
			return err
		}

		if rangeEntity == "" {
			err = sess.store.SetViewRange(ctx, view.ID, timeline, r)
		} else {
			err = sess.store.SetEntityRange(ctx, view.ID, models.EntityPath(rangeEntity), timeline, r)
		}
		if err != nil {
			return err
		}
		if err := sess.commit(ctx); err != nil {
			return err
		}

		row := rangeRow{View: view.ID, Entity: models.EntityPath(rangeEntity), Timeline: timeline, Range: r}
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, row)
		}
		if !IsQuiet() {
			fmt.Fprintf(os.Stdout, "Set %s on %s: %s\n", timeline, row.scope(), r)
		}
		return nil
	},
}

var rangeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove a visible range so the next tier applies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		timeline := timelineOrDefault(rangeTimeline)

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		view, err := resolveViewRef(sess.store.Snapshot(), rangeView)
		if err != nil {
			return err
		}

		if rangeEntity == "" {
			err = sess.store.ClearViewRange(ctx, view.ID, timeline)
		} else {
			err = sess.store.ClearEntityRange(ctx, view.ID, models.EntityPath(rangeEntity), timeline)
		}
		if err != nil {
			return err
		}
		if err := sess.commit(ctx); err != nil {
			return err
		}

		row := rangeRow{View: view.ID, Entity: models.EntityPath(rangeEntity), Timeline: timeline}
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{"view": row.View, "entity": row.Entity, "timeline": timeline, "cleared": true})
		}
		if !IsQuiet() {
			fmt.Fprintf(os.Stdout, "Cleared %s on %s\n", timeline, row.scope())
		}
		return nil
	},
}

var rangeListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List configured ranges of a view",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		snap := sess.store.Snapshot()
		view, err := resolveViewRef(snap, rangeView)
		if err != nil {
			return err
		}

		var rows []rangeRow
		if rangeEntity == "" {
			defaults, err := snap.ViewDefaults(view.ID)
			if err != nil {
				return err
			}
			for _, entry := range defaults {
				rows = append(rows, rangeRow{View: view.ID, Timeline: entry.Timeline, Range: entry.Range})
			}
		}
		entities := snap.Entities(view.ID)
		if rangeEntity != "" {
			entities = []models.EntityPath{models.EntityPath(rangeEntity)}
		}
		for _, entity := range entities {
			overrides, err := snap.EntityOverrides(view.ID, entity)
			if err != nil {
				return err
			}
			for _, entry := range overrides {
				rows = append(rows, rangeRow{View: view.ID, Entity: entity, Timeline: entry.Timeline, Range: entry.Range})
			}
		}

		if IsJSONOutput() || IsJSONLOutput() {
			if rows == nil {
				rows = []rangeRow{}
			}
			return WriteOutput(os.Stdout, rows)
		}
		if len(rows) == 0 {
			if !IsQuiet() {
				fmt.Fprintf(os.Stdout, "No ranges configured for %s; the %s class default applies.\n", view.DisplayName(), view.Class)
			}
			return nil
		}

		table := make([][]string, 0, len(rows))
		for _, row := range rows {
			table = append(table, []string{row.scope(), row.Timeline, boundaryText(row.Range.Start), boundaryText(row.Range.End)})
		}
		return writeTable(os.Stdout, []string{"SCOPE", "TIMELINE", "START", "END"}, table)
	},
}

type rangeRow struct {
	View     string            `json:"view"`
	Entity   models.EntityPath `json:"entity,omitempty"`
	Timeline string            `json:"timeline"`
	Range    models.TimeRange  `json:"range"`
}

func (r rangeRow) scope() string {
	if r.Entity == "" {
		return "(view default)"
	}
	return string(r.Entity)
}

func boundaryText(b models.Boundary) string {
	if b == nil {
		return "-"
	}
	return b.String()
}

func timelineOrDefault(timeline string) string {
	if timeline != "" {
		return timeline
	}
	return GetConfig().Resolver.DefaultTimeline
}
