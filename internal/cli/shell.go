package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewShellCommand creates the shell command. All lines share one app, so
// undo works across commands.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against one session",
		Long: `Read commands from standard input, one per line, and run them against
the same session. Undo only reaches deletes and clears made in the same
session. Type "exit" or send EOF to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			for {
				fmt.Fprint(out, "> ")
				if !in.Scan() {
					fmt.Fprintln(out)
					return in.Err()
				}
				fields, err := splitLine(in.Text())
				if err != nil {
					fmt.Fprintln(out, color.RedString("Error: %v", err))
					continue
				}
				if len(fields) == 0 {
					continue
				}
				if fields[0] == "exit" || fields[0] == "quit" {
					return nil
				}
				if fields[0] == "shell" {
					fmt.Fprintln(out, color.RedString("Error: already in a shell"))
					continue
				}

				sub := NewRootCommand(rootOpts)
				sub.SetArgs(fields)
				sub.SetIn(cmd.InOrStdin())
				sub.SetOut(out)
				sub.SetErr(cmd.ErrOrStderr())
				if err := sub.ExecuteContext(cmd.Context()); err != nil {
					fmt.Fprintln(out, color.RedString("Error: %v", err))
				}
			}
		},
	}
}

// splitLine splits a command line on whitespace. Single or double quotes
// group words.
func splitLine(line string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		quote   rune
		inWord  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				fields = append(fields, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inWord {
		fields = append(fields, current.String())
	}
	return fields, nil
}
