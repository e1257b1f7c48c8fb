package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tOgg1/visrange/internal/models"
)

var (
	viewAddID     string
	viewAddName   string
	viewAddOrigin string
	viewAddUse    bool
	viewUseEntity string
)

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.AddCommand(viewAddCmd)
	viewCmd.AddCommand(viewListCmd)
	viewCmd.AddCommand(viewRemoveCmd)
	viewCmd.AddCommand(viewUseCmd)

	viewAddCmd.Flags().StringVar(&viewAddID, "id", "", "view ID (default: generated)")
	viewAddCmd.Flags().StringVar(&viewAddName, "name", "", "display name")
	viewAddCmd.Flags().StringVar(&viewAddOrigin, "origin", "", "entity path the view is rooted at")
	viewAddCmd.Flags().BoolVar(&viewAddUse, "use", false, "select the new view")
	viewUseCmd.Flags().StringVar(&viewUseEntity, "entity", "", "also select this entity path")
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Manage views",
}

var viewAddCmd = &cobra.Command{
	Use:   "add <class>",
	Short: "Add a view of the given class",
	Long: `Add a view. The class decides the range used when nothing is configured:
TimeSeries views show everything, all other classes show the latest value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		class := models.ViewClass(args[0])
		if !class.IsKnown() {
			return &PreflightError{
				Message: fmt.Sprintf("unknown view class %q", class),
				Hint:    fmt.Sprintf("Known classes: %v", models.KnownViewClasses),
			}
		}

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		view, err := sess.store.AddView(ctx, models.View{
			ID:     viewAddID,
			Class:  class,
			Name:   viewAddName,
			Origin: models.EntityPath(viewAddOrigin),
		})
		if err != nil {
			return err
		}
		if err := sess.commit(ctx); err != nil {
			return err
		}

		if viewAddUse {
			if err := useView(view, ""); err != nil {
				return err
			}
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, view)
		}
		if IsQuiet() {
			fmt.Fprintln(os.Stdout, view.ID)
			return nil
		}
		fmt.Fprintf(os.Stdout, "Added view %s (%s)\n", view.DisplayName(), view.ID)
		return nil
	},
}

var viewListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		snap := sess.store.Snapshot()
		views := snap.Views()
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, views)
		}
		if len(views) == 0 {
			if !IsQuiet() {
				fmt.Fprintln(os.Stdout, "No views configured.")
			}
			return nil
		}

		current, _ := loadContext()
		rows := make([][]string, 0, len(views))
		for _, view := range views {
			defaults, _ := snap.ViewDefaults(view.ID)
			marker := ""
			if current != nil && current.ViewID == view.ID {
				marker = "*"
			}
			rows = append(rows, []string{
				marker,
				view.ID,
				view.Name,
				string(view.Class),
				strconv.Itoa(len(defaults)),
				strconv.Itoa(len(snap.Entities(view.ID))),
			})
		}
		return writeTable(os.Stdout, []string{"", "ID", "NAME", "CLASS", "DEFAULTS", "OVERRIDES"}, rows)
	},
}

var viewRemoveCmd = &cobra.Command{
	Use:     "rm <view>",
	Aliases: []string{"remove"},
	Short:   "Remove a view and its ranges",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		view, err := resolveViewRef(sess.store.Snapshot(), args[0])
		if err != nil {
			return err
		}
		if err := sess.store.RemoveView(ctx, view.ID); err != nil {
			return err
		}
		if err := sess.commit(ctx); err != nil {
			return err
		}

		if current, err := loadContext(); err == nil && current.ViewID == view.ID {
			current.Clear()
			_ = contextStore().Save(current)
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{"view": view.ID, "removed": true})
		}
		if !IsQuiet() {
			fmt.Fprintf(os.Stdout, "Removed view %s\n", view.DisplayName())
		}
		return nil
	},
}

var viewUseCmd = &cobra.Command{
	Use:   "use <view>",
	Short: "Select the view used when --view is omitted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		view, err := resolveViewRef(sess.store.Snapshot(), args[0])
		if err != nil {
			return err
		}
		if err := useView(view, models.EntityPath(viewUseEntity)); err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{"view": view.ID, "name": view.Name, "entity": viewUseEntity})
		}
		if !IsQuiet() {
			fmt.Fprintf(os.Stdout, "Using view %s\n", view.DisplayName())
			if viewUseEntity != "" {
				fmt.Fprintf(os.Stdout, "Using entity %s\n", viewUseEntity)
			}
		}
		return nil
	},
}

func useView(view models.View, entity models.EntityPath) error {
	store := contextStore()
	current, err := store.Load()
	if err != nil {
		return err
	}
	current.SetView(view.ID, view.Name)
	if entity != "" {
		if err := current.SetEntity(entity); err != nil {
			return err
		}
	}
	return store.Save(current)
}
