// Package cli is the command-line front end for the task service.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"todo-planner/internal/logging"
	"todo-planner/internal/model"
	"todo-planner/internal/repository"
	"todo-planner/internal/service"
)

// DefaultOwner owns every task created from the command line unless
// --owner says otherwise.
const DefaultOwner = "local"

// App carries the state shared by every command of one process. Tasks is
// opened lazily from --db unless already set.
type App struct {
	Tasks  *service.TaskService
	Logger *slog.Logger

	owner  string
	dbURL  string
	stores *repository.Stores

	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

// NewApp wires the standard streams. Pass a non-nil tasks service to skip
// store selection.
func NewApp(tasks *service.TaskService, in io.Reader, out, errOut io.Writer) *App {
	return &App{
		Tasks:  tasks,
		Logger: logging.Discard(),
		owner:  DefaultOwner,
		in:     bufio.NewReader(in),
		out:    out,
		err:    errOut,
	}
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "Manage your tasks from the terminal",
		Long: `todo creates, lists, updates, completes and deletes tasks.

Without --db every invocation starts from an empty in-memory list; use
"todo shell" to keep tasks between commands, or point --db at a SQLite
path or a postgres:// URL to persist them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.open(cmd.Context())
		},
	}
	root.SetIn(app.in)
	root.SetOut(app.out)
	root.SetErr(app.err)

	root.PersistentFlags().StringVar(&app.owner, "owner", app.owner, "Owner the tasks belong to")
	root.PersistentFlags().StringVar(&app.dbURL, "db", app.dbURL, "Database URL or SQLite path (default: in-memory)")

	root.AddCommand(
		newAddCommand(app),
		newListCommand(app),
		newGetCommand(app),
		newUpdateCommand(app),
		newDeleteCommand(app),
		newToggleCommand(app),
		newTagsCommand(app),
		newShellCommand(app),
	)
	return root
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, app *App, args []string) int {
	defer app.Close()

	root := NewRootCommand(app)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(app.err, "Error:", describe(err))
		return 1
	}
	return 0
}

func (a *App) open(ctx context.Context) error {
	if a.Tasks != nil {
		return nil
	}

	stores := repository.OpenMemory()
	if a.dbURL != "" {
		var err error
		stores, err = repository.Open(ctx, a.dbURL, "", a.Logger)
		if err != nil {
			return err
		}
	}
	a.stores = stores
	a.Tasks = service.NewTaskService(stores.Tasks, a.Logger)
	return nil
}

// Close releases a store opened from --db.
func (a *App) Close() {
	if a.stores != nil {
		_ = a.stores.Close()
		a.stores = nil
	}
}

// confirm asks a yes/no question on the app's input. Anything but y or yes
// is a no.
func (a *App) confirm(prompt string) (bool, error) {
	fmt.Fprint(a.out, prompt)
	answer, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

// describe turns engine errors into the text shown to the user.
func describe(err error) string {
	var ve *model.ValidationError
	var nf *notFoundError
	switch {
	case errors.As(err, &nf):
		return fmt.Sprintf("Task ID %d not found", nf.id)
	case errors.As(err, &ve):
		return ve.Message
	default:
		return err.Error()
	}
}

type notFoundError struct {
	id int64
}

func (e *notFoundError) Error() string { return fmt.Sprintf("task %d not found", e.id) }

func (e *notFoundError) Unwrap() error { return model.ErrNotFound }

// wrapNotFound attaches the id to a not-found error so the message can
// name it.
func wrapNotFound(id int64, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return &notFoundError{id: id}
	}
	return err
}

func parseIDArg(raw string) (int64, error) {
	id, err := service.ParseID(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: task id must be a positive integer", err)
	}
	return id, nil
}
