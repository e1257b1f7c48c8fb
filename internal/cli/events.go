package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tOgg1/visrange/internal/db"
	"github.com/tOgg1/visrange/internal/models"
)

var (
	eventsView   string
	eventsEntity string
	eventsTypes  []string
	eventsSince  time.Duration
	eventsLimit  int
	eventsNewest bool
)

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().StringVar(&eventsView, "view", "", "only events of this view ID")
	eventsCmd.Flags().StringVar(&eventsEntity, "entity", "", "only override changes of this entity path")
	eventsCmd.Flags().StringSliceVar(&eventsTypes, "type", nil, "only events of these types (repeatable)")
	eventsCmd.Flags().DurationVar(&eventsSince, "since", 0, "only events newer than this (e.g. 1h)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "maximum number of events")
	eventsCmd.Flags().BoolVar(&eventsNewest, "newest", false, "list the most recent events first")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the history of layout changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		q := db.EventQuery{ViewID: eventsView, Limit: eventsLimit, Newest: eventsNewest}
		if eventsEntity != "" {
			q.Entity = models.EntityPath(eventsEntity)
			if err := q.Entity.Validate(); err != nil {
				return err
			}
		}
		for _, t := range eventsTypes {
			q.Types = append(q.Types, models.EventType(t))
		}
		if eventsSince > 0 {
			q.Since = time.Now().Add(-eventsSince)
		}
		page, err := sess.events.Query(ctx, q)
		if err != nil {
			return err
		}

		found := page.Events
		if found == nil {
			found = []*models.Event{}
		}
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, found)
		}
		if len(found) == 0 {
			if !IsQuiet() {
				fmt.Fprintln(os.Stdout, "No events.")
			}
			return nil
		}

		rows := make([][]string, 0, len(found))
		for _, event := range found {
			rows = append(rows, []string{
				event.Timestamp.Local().Format(time.DateTime),
				string(event.Type),
				event.EntityID,
				string(event.Payload),
			})
		}
		return writeTable(os.Stdout, []string{"TIME", "TYPE", "ID", "PAYLOAD"}, rows)
	},
}
