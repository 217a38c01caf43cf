package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

const shellPrompt = "todo> "

func newShellCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against one task list",
		Long: `Start an interactive session. Every command of the CLI is available
without the "todo" prefix, and tasks persist until you type exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runShell(cmd)
		},
	}
}

func (a *App) runShell(cmd *cobra.Command) error {
	fmt.Fprintln(a.out, "Welcome to the Todo App! Type help for commands, exit to quit.")

	for {
		fmt.Fprint(a.out, shellPrompt)
		line, err := a.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read command: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		args, splitErr := splitArgs(line)
		switch {
		case splitErr != nil:
			fmt.Fprintln(a.err, "Error:", splitErr)
		case len(args) == 0:
		case args[0] == "exit" || args[0] == "quit":
			fmt.Fprintln(a.out, "Thank you for using the Todo App!")
			return nil
		case args[0] == "shell":
			fmt.Fprintln(a.err, "Error: already in a shell")
		default:
			root := NewRootCommand(a)
			root.SetArgs(args)
			if err := root.ExecuteContext(cmd.Context()); err != nil {
				fmt.Fprintln(a.err, "Error:", describe(err))
			}
		}

		if eof {
			fmt.Fprintln(a.out)
			return nil
		}
	}
}

// splitArgs splits a command line on whitespace. Single and double quotes
// group words; a backslash escapes the next character outside single
// quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
