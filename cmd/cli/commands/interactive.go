package commands

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (load config once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands against the same
environment. Logging in inside the session applies to every later command.
The session will keep running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(app.out(), "\n🚀 Starting interactive session...")
			fmt.Fprintln(app.out(), "Type 'help' for available commands, 'exit' or 'quit' to leave")
			if user, err := app.User(); err == nil {
				fmt.Fprintf(app.out(), "Logged in as %s (%d)\n", user.Name, user.StaffID)
			}

			commands := sessionCommands(cmd.Parent())
			scanner := app.Input()

			for {
				fmt.Fprint(app.out(), "> ")

				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				// Parse command (respecting quotes)
				parts, err := parseCommandLine(line)
				if err != nil {
					fmt.Fprintf(app.out(), "❌ Error parsing command: %v\n\n", err)
					continue
				}
				if len(parts) == 0 {
					continue
				}
				cmdName := parts[0]
				cmdArgs := parts[1:]

				if cmdName == "exit" || cmdName == "quit" {
					fmt.Fprintln(app.out(), "👋 Goodbye!")
					return nil
				}

				if cmdName == "help" {
					printInteractiveHelp(app, commands)
					continue
				}

				targetCmd, exists := commands[cmdName]
				if !exists {
					fmt.Fprintf(app.out(), "❌ Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}

				if err := runInSession(targetCmd, cmdArgs); err != nil {
					fmt.Fprintf(app.out(), "❌ Error: %v\n\n", err)
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}

			return nil
		},
	}

	return cmd
}

// sessionCommands returns the sibling commands that can run inside a session
func sessionCommands(root *cobra.Command) map[string]*cobra.Command {
	commands := make(map[string]*cobra.Command)
	for _, subCmd := range root.Commands() {
		switch subCmd.Name() {
		case "interactive", "completion", "help":
			continue
		}
		commands[subCmd.Name()] = subCmd
	}
	return commands
}

// runInSession executes a command's RunE directly, bypassing Execute() so
// PersistentPreRunE does not initialise the app again
func runInSession(targetCmd *cobra.Command, args []string) error {
	resetFlags(targetCmd.Flags())

	if err := targetCmd.ParseFlags(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	args = targetCmd.Flags().Args()
	if targetCmd.Args != nil {
		if err := targetCmd.Args(targetCmd, args); err != nil {
			return err
		}
	}

	if targetCmd.RunE != nil {
		return targetCmd.RunE(targetCmd, args)
	}
	if targetCmd.Run != nil {
		targetCmd.Run(targetCmd, args)
	}
	return nil
}

// resetFlags restores defaults left over from the previous run.
// Slice flags are emptied since setting "[]" would append a literal "[]".
func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
		if sv, ok := flag.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
			return
		}
		flag.Value.Set(flag.DefValue)
	})
}

func printInteractiveHelp(app *AppContext, commands map[string]*cobra.Command) {
	fmt.Fprintln(app.out(), "\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(app.out(), "  %-40s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Fprintln(app.out(), "\n  help                                     Show this help message")
	fmt.Fprintln(app.out(), "  exit, quit                               Exit the interactive session")
}

// parseCommandLine splits a command line into arguments, respecting quoted strings
// Supports both single and double quotes
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune // 0 if not in quote, '"' or '\'' if in quote
	quoted := false  // keeps "" as an empty argument

	for _, r := range line {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
			quoted = true
		case unicode.IsSpace(r):
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}

	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args, nil
}
