package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/bigkaa/tasktracker/internal/syncengine"
)

// Prompter задаёт вопросы пользователю в терминале.
type Prompter struct {
	in       io.Reader
	out      io.Writer
	terminal func() bool
	// assumeYes — ответ «да» без вопроса (--yes)
	assumeYes bool
}

// NewPrompter создаёт Prompter поверх stdin/stderr процесса.
func NewPrompter() *Prompter {
	return &Prompter{
		in:       os.Stdin,
		out:      os.Stderr,
		terminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

// SetAssumeYes включает автоматическое подтверждение.
func (p *Prompter) SetAssumeYes(v bool) {
	p.assumeYes = v
}

// Confirm — syncengine.ConfirmFunc. Без терминала и без --yes
// необратимые действия отклоняются.
func (p *Prompter) Confirm(_ context.Context, prompt string) bool {
	if p.assumeYes {
		return true
	}
	if !p.terminal() {
		fmt.Fprintf(p.out, "%s\nНет терминала для подтверждения, используйте --yes.\n", prompt)
		return false
	}

	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "д", "да":
		return true
	default:
		return false
	}
}

// ConfirmFunc возвращает Confirm как syncengine.ConfirmFunc.
func (p *Prompter) ConfirmFunc() syncengine.ConfirmFunc {
	return p.Confirm
}

// ReadSecret читает секрет: из файла path, из stdin при path == "-",
// либо интерактивно без эха.
func (p *Prompter) ReadSecret(label, path string) (string, error) {
	var data []byte
	var err error

	switch {
	case path != "" && path != "-":
		data, err = os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("чтение %s: %w", path, err)
		}
	case path == "-" || !p.terminal():
		data, err = io.ReadAll(p.in)
		if err != nil {
			return "", fmt.Errorf("чтение stdin: %w", err)
		}
	default:
		fmt.Fprintf(p.out, "%s: ", label)
		data, err = term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("чтение из терминала: %w", err)
		}
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fmt.Errorf("%w: пустое значение %s", ErrUsage, label)
	}
	return secret, nil
}
