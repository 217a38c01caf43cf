package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
)

const timeLayout = "2006-01-02 15:04"

func newListCommand(app *App) *cobra.Command {
	var (
		params query.Params
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks with optional filtering and sorting.

Filter Options:
  --status      pending, completed or all
  --priority    comma separated priorities (high,medium,low)
  --tags        comma separated tags; a task matches when it has any of them
  --search      case-insensitive text in title or description

Sort Options:
  --sort        created_at, due_date, priority or title
  --order       asc or desc (priority always lists high first)`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := app.Tasks.ListTasks(cmd.Context(), app.owner, query.Parse(params))
			if err != nil {
				return err
			}
			return writeTasks(app.out, output, tasks)
		},
	}

	f := cmd.Flags()
	f.StringVar(&params.Status, "status", "all", "Filter by status")
	f.StringVar(&params.Priority, "priority", "", "Filter by priority")
	f.StringVar(&params.Tags, "tags", "", "Filter by tags")
	f.StringVar(&params.Search, "search", "", "Search title and description")
	f.StringVar(&params.Sort, "sort", "created_at", "Sort key")
	f.StringVar(&params.Order, "order", "desc", "Sort order")
	f.StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")
	return cmd
}

func newGetCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			task, err := app.Tasks.GetTask(cmd.Context(), app.owner, id)
			if err != nil {
				return wrapNotFound(id, err)
			}

			switch output {
			case "json", "yaml":
				return encode(app.out, output, task)
			default:
				printTask(app.out, *task)
				return nil
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	return cmd
}

func writeTasks(w io.Writer, format string, tasks []model.Task) error {
	switch format {
	case "json", "yaml":
		return encode(w, format, tasks)
	case "table", "":
		printTable(w, tasks)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTAGS\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, statusMark(t), priorityText(t.Priority), when(t.DueDate), strings.Join(t.Tags, ","), t.Title)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nTasks (%d)\n", len(tasks))
}

func printTask(w io.Writer, t model.Task) {
	fmt.Fprintf(w, "[%s] ID: %d\n", statusMark(t), t.ID)
	fmt.Fprintf(w, "    Title:    %s\n", t.Title)
	if t.Description != nil && *t.Description != "" {
		fmt.Fprintf(w, "    Desc:     %s\n", *t.Description)
	}
	if t.Priority != nil {
		fmt.Fprintf(w, "    Priority: %s\n", *t.Priority)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(w, "    Tags:     %s\n", strings.Join(t.Tags, ", "))
	}
	if t.DueDate != nil {
		fmt.Fprintf(w, "    Due:      %s\n", when(t.DueDate))
	}
	if t.ReminderTime != nil {
		fmt.Fprintf(w, "    Remind:   %s\n", when(t.ReminderTime))
	}
	if t.RecurringPattern != nil {
		line := string(*t.RecurringPattern)
		if t.NextOccurrence != nil {
			line += ", next " + when(t.NextOccurrence)
		}
		fmt.Fprintf(w, "    Repeats:  %s\n", line)
	}
	fmt.Fprintf(w, "    Created:  %s\n", t.CreatedAt.Format(time.DateTime))
	fmt.Fprintf(w, "    Updated:  %s\n", t.UpdatedAt.Format(time.DateTime))
}

func statusMark(t model.Task) string {
	if t.Completed {
		return "✓"
	}
	return "○"
}

func priorityText(p *model.Priority) string {
	if p == nil {
		return "-"
	}
	return string(*p)
}

func when(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}
