package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tOgg1/visrange/internal/blueprint"
	"github.com/tOgg1/visrange/internal/layout"
)

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.AddCommand(layoutExportCmd)
	layoutCmd.AddCommand(layoutImportCmd)
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Export or import the whole layout as YAML",
}

var layoutExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the layout to a file (or stdout)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		snap := sess.store.Snapshot()
		if len(args) == 0 || args[0] == "-" {
			return layout.Export(os.Stdout, snap)
		}
		if err := layout.ExportFile(args[0], snap); err != nil {
			return err
		}
		if !IsQuiet() {
			fmt.Fprintf(os.Stderr, "Exported %d views to %s\n", len(snap.Views()), args[0])
		}
		return nil
	},
}

var layoutImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the layout with the contents of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		path := args[0]
		var loaded *blueprint.Snapshot
		var err error
		if path == "-" {
			loaded, err = layout.Import(os.Stdin)
		} else {
			loaded, err = layout.ImportFile(path)
		}
		if err != nil {
			return err
		}

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.store.Replace(ctx, loaded); err != nil {
			return err
		}
		if err := sess.commit(ctx); err != nil {
			return err
		}

		count := len(sess.store.Snapshot().Views())
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{"views": count, "source": path})
		}
		if !IsQuiet() {
			fmt.Fprintf(os.Stdout, "Imported %d views from %s\n", count, path)
		}
		return nil
	},
}
