package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tOgg1/visrange/internal/query"
)

var querySamples string

func init() {
	rootCmd.AddCommand(queryCmd)
	addResolveFlags(queryCmd)
	queryCmd.Flags().StringVar(&querySamples, "samples", "", "JSON lines file of samples ({entity, timeline, time, value})")
	_ = queryCmd.MarkFlagRequired("samples")
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Resolve and fetch samples from a JSON lines file",
	Long: `Resolve the query for an entity like 'visrange resolve', then run it against
a file of samples and print the samples the view would show.`,
	Example: `  visrange query --samples run.jsonl --view plot --entity /robot/arm --timeline log_tick --cursor 1000`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		store := query.NewMemoryStore()
		f, err := os.Open(querySamples)
		if err != nil {
			return fmt.Errorf("failed to open samples: %w", err)
		}
		_, err = store.LoadJSONL(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", querySamples, err)
		}

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		results, err := runResolve(sess.store.Snapshot())
		if err != nil {
			return err
		}

		samples, err := fetchAll(ctx, store, results)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			if samples == nil {
				samples = []query.Sample{}
			}
			return WriteOutput(os.Stdout, samples)
		}

		rows := make([][]string, 0, len(samples))
		for _, sample := range samples {
			rows = append(rows, []string{string(sample.Entity), sample.Timeline, strconv.FormatInt(int64(sample.Time), 10), string(sample.Value)})
		}
		if !IsQuiet() {
			for _, result := range results {
				fmt.Fprintf(os.Stdout, "%s: %s (%s)\n", result.Timeline, result.Mode, result.Mode.Source)
			}
		}
		return writeTable(os.Stdout, []string{"ENTITY", "TIMELINE", "TIME", "VALUE"}, rows)
	},
}

func fetchAll(ctx context.Context, adapter query.Adapter, results []resolution) ([]query.Sample, error) {
	var out []query.Sample
	for _, result := range results {
		samples, err := adapter.Fetch(ctx, query.Request{
			Entity:   result.Entity,
			Timeline: result.Timeline,
			Mode:     result.Mode,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, samples...)
	}
	return out, nil
}
