package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newToggleCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <id>",
		Short:   "Mark a task completed or pending",
		Aliases: []string{"done"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			_, status, err := app.Tasks.ToggleTask(cmd.Context(), app.owner, id)
			if err != nil {
				return wrapNotFound(id, err)
			}
			fmt.Fprintf(app.out, "Task %d marked as %s\n", id, status)
			return nil
		},
	}
}

func newDeleteCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a task",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			if !yes {
				task, err := app.Tasks.GetTask(cmd.Context(), app.owner, id)
				if err != nil {
					return wrapNotFound(id, err)
				}
				ok, err := app.confirm(fmt.Sprintf("Are you sure you want to delete task '%s'? (y/N): ", task.Title))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(app.out, "Deletion cancelled.")
					return nil
				}
			}

			if err := app.Tasks.DeleteTask(cmd.Context(), app.owner, id); err != nil {
				return wrapNotFound(id, err)
			}
			fmt.Fprintf(app.out, "Task %d deleted successfully\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

func newTagsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with the number of tasks using them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tags, err := app.Tasks.Tags(cmd.Context(), app.owner)
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				fmt.Fprintln(app.out, "No tags yet.")
				return nil
			}
			for _, tag := range tags {
				fmt.Fprintf(app.out, "%-20s %d\n", tag.Name, tag.Count)
			}
			return nil
		},
	}
}
