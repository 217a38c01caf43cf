package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
)

func newUpdateCommand(app *App) *cobra.Command {
	var (
		title       string
		description string
		priority    string
		tags        string
		due         string
		remind      string
		repeat      string
		completed   bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a task",
		Long: `Update fields of a task. Only the flags you pass are changed.

Use --clear-<field> to remove an optional value, for example
  todo update 3 --clear-due --clear-repeat`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			f := cmd.Flags()
			var patch service.TaskPatch
			if f.Changed("title") {
				patch.Title = model.Some(title)
			}
			if f.Changed("completed") {
				patch.Completed = model.Some(completed)
			}
			if f.Changed("tags") {
				patch.Tags = model.Some(splitTags(tags))
			}
			patch.Description = optionalString(f, "description", description)
			patch.Priority = optionalEnum[model.Priority](f, "priority", priority)
			patch.RecurringPattern = optionalEnum[model.Recurrence](f, "repeat", repeat)
			if patch.DueDate, err = optionalTime(f, "due", due); err != nil {
				return err
			}
			if patch.ReminderTime, err = optionalTime(f, "remind", remind); err != nil {
				return err
			}
			if f.NFlag() == countGlobal(f) {
				return errors.New("nothing to update, pass at least one field flag")
			}

			if _, err := app.Tasks.UpdateTask(cmd.Context(), app.owner, id, patch); err != nil {
				return wrapNotFound(id, err)
			}
			fmt.Fprintf(app.out, "Task %d updated successfully\n", id)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "New title")
	f.StringVarP(&description, "description", "d", "", "New description")
	f.StringVarP(&priority, "priority", "p", "", "New priority: high, medium or low")
	f.StringVarP(&tags, "tags", "t", "", "Replace tags (comma separated, empty clears)")
	f.StringVar(&due, "due", "", "New due date")
	f.StringVar(&remind, "remind", "", "New reminder time")
	f.StringVar(&repeat, "repeat", "", "New recurrence: daily, weekly or monthly")
	f.BoolVar(&completed, "completed", false, "Set completion explicitly")
	for _, name := range []string{"description", "priority", "due", "remind", "repeat"} {
		f.Bool("clear-"+name, false, "Remove the "+name)
	}
	return cmd
}

// countGlobal counts set flags that do not describe a field change.
func countGlobal(f *pflag.FlagSet) int {
	n := 0
	for _, name := range []string{"owner", "db"} {
		if f.Changed(name) {
			n++
		}
	}
	return n
}

func cleared(f *pflag.FlagSet, name string) bool {
	v, _ := f.GetBool("clear-" + name)
	return v
}

func optionalString(f *pflag.FlagSet, name, value string) model.Optional[string] {
	switch {
	case cleared(f, name):
		return model.Null[string]()
	case f.Changed(name):
		return model.Some(value)
	}
	return model.Optional[string]{}
}

func optionalEnum[T ~string](f *pflag.FlagSet, name, value string) model.Optional[T] {
	switch {
	case cleared(f, name):
		return model.Null[T]()
	case f.Changed(name):
		return model.Some(T(strings.ToLower(value)))
	}
	return model.Optional[T]{}
}

func optionalTime(f *pflag.FlagSet, name, value string) (model.Optional[time.Time], error) {
	switch {
	case cleared(f, name):
		return model.Null[time.Time](), nil
	case f.Changed(name):
		t, err := parseWhen(name, value)
		if err != nil {
			return model.Optional[time.Time]{}, err
		}
		return model.Some(t), nil
	}
	return model.Optional[time.Time]{}, nil
}
