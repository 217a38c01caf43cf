package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
)

// whenLayouts are accepted for --due and --remind. Values without an
// offset are UTC.
var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseWhen(flag, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --%s %q, use YYYY-MM-DD or YYYY-MM-DD HH:MM", flag, raw)
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

func newAddCommand(app *App) *cobra.Command {
	var (
		description string
		priority    string
		tags        string
		due         string
		remind      string
		repeat      string
		completed   bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Long: `Add a task. The title is 1-200 characters; quote it when it has spaces.

Examples:
  todo add "Pay rent" --priority high --due 2024-02-01 --repeat monthly
  todo add "Read book" -d "chapter 3" --tags home,reading`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := service.TaskInput{
				Title:     strings.Join(args, " "),
				Completed: completed,
				Tags:      splitTags(tags),
			}
			flags := cmd.Flags()
			if flags.Changed("description") {
				in.Description = &description
			}
			if flags.Changed("priority") {
				p := model.Priority(strings.ToLower(priority))
				in.Priority = &p
			}
			if flags.Changed("repeat") {
				r := model.Recurrence(strings.ToLower(repeat))
				in.RecurringPattern = &r
			}
			if due != "" {
				t, err := parseWhen("due", due)
				if err != nil {
					return err
				}
				in.DueDate = &t
			}
			if remind != "" {
				t, err := parseWhen("remind", remind)
				if err != nil {
					return err
				}
				in.ReminderTime = &t
			}

			task, err := app.Tasks.CreateTask(cmd.Context(), app.owner, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Task '%s' added successfully with ID %d\n", task.Title, task.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&description, "description", "d", "", "Task description (max 1000 characters)")
	f.StringVarP(&priority, "priority", "p", "", "Priority: high, medium or low")
	f.StringVarP(&tags, "tags", "t", "", "Comma separated tags")
	f.StringVar(&due, "due", "", "Due date (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	f.StringVar(&remind, "remind", "", "Reminder time (YYYY-MM-DD HH:MM)")
	f.StringVar(&repeat, "repeat", "", "Recurrence: daily, weekly or monthly")
	f.BoolVar(&completed, "completed", false, "Create the task already completed")
	return cmd
}
