// Пакет cli — дерево команд CLI-клиента Task Tracker и вывод в терминал.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// ErrUsage — неверный вызов команды (код выхода 2).
var ErrUsage = errors.New("неверное использование команды")

// Command — команда или группа подкоманд.
type Command struct {
	// Name — имя команды в командной строке.
	Name string
	// Summary — однострочное описание для справки родителя.
	Summary string
	// Usage — строка использования; если пусто, строится автоматически.
	Usage string
	// Flags возвращает набор флагов команды. Вызывается при каждом запуске.
	Flags func() *pflag.FlagSet
	// Subcommands — вложенные команды, выбираемые первым аргументом.
	Subcommands []*Command
	// Run выполняет команду с аргументами, оставшимися после флагов.
	Run func(ctx context.Context, args []string) error

	parent *Command
}

// Execute разбирает аргументы и передаёт управление подкоманде или Run.
func (c *Command) Execute(ctx context.Context, args []string, stderr io.Writer) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(stderr)
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				sub.parent = c
				return sub.Execute(ctx, args[1:], stderr)
			}
		}
		return fmt.Errorf("%w: неизвестная команда %q, см. '%s --help'", ErrUsage, args[0], c.fullName())
	}

	if c.Run == nil {
		c.PrintHelp(stderr)
		return fmt.Errorf("%w: требуется подкоманда", ErrUsage)
	}

	fs := pflag.NewFlagSet(c.Name, pflag.ContinueOnError)
	if c.Flags != nil {
		fs = c.Flags()
	}
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			c.PrintHelp(stderr)
			return nil
		}
		return fmt.Errorf("%w: %s, см. '%s --help'", ErrUsage, err.Error(), c.fullName())
	}
	return c.Run(ctx, fs.Args())
}

// PrintHelp выводит справку по команде.
func (c *Command) PrintHelp(w io.Writer) {
	if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", c.fullName())
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", c.fullName())
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if c.Flags != nil {
		var sb strings.Builder
		fs := c.Flags()
		fs.SetOutput(&sb)
		fs.PrintDefaults()
		if sb.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", sb.String())
		}
	}
}

func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
