package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Dispatch(t *testing.T) {
	var got []string
	var name *string

	root := &Command{
		Name: "tt",
		Subcommands: []*Command{
			{
				Name: "projects",
				Subcommands: []*Command{
					{
						Name: "update",
						Flags: func() *pflag.FlagSet {
							fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
							name = fs.String("name", "", "")
							return fs
						},
						Run: func(_ context.Context, args []string) error {
							got = args
							return nil
						},
					},
				},
			},
		},
	}

	var stderr bytes.Buffer
	if err := root.Execute(context.Background(), []string{"projects", "update", "7", "--name", "Alpha"}, &stderr); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 1 || got[0] != "7" {
		t.Errorf("args = %v, ожидалось [7]", got)
	}
	if *name != "Alpha" {
		t.Errorf("name = %q, ожидалось Alpha", *name)
	}
}

func TestCommand_Errors(t *testing.T) {
	root := &Command{
		Name: "tt",
		Subcommands: []*Command{
			{Name: "whoami", Run: func(context.Context, []string) error { return nil }},
		},
	}

	tests := []struct {
		name string
		args []string
	}{
		{"неизвестная команда", []string{"nope"}},
		{"нет подкоманды", nil},
		{"неизвестный флаг", []string{"whoami", "--bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			err := root.Execute(context.Background(), tt.args, &stderr)
			if !errors.Is(err, ErrUsage) {
				t.Errorf("ожидалась ErrUsage, получено %v", err)
			}
		})
	}
}

func TestCommand_Help(t *testing.T) {
	root := &Command{
		Name:    "tt",
		Summary: "Task Tracker",
		Subcommands: []*Command{
			{Name: "login", Summary: "Вход"},
			{Name: "logout", Summary: "Выход"},
		},
	}

	var stderr bytes.Buffer
	if err := root.Execute(context.Background(), []string{"--help"}, &stderr); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := stderr.String()
	for _, want := range []string{"Task Tracker", "login", "Вход", "logout"} {
		if !strings.Contains(out, want) {
			t.Errorf("справка не содержит %q:\n%s", want, out)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		args    []string
		want    int64
		wantErr bool
	}{
		{[]string{"5"}, 5, false},
		{nil, 0, true},
		{[]string{"1", "2"}, 0, true},
		{[]string{"abc"}, 0, true},
		{[]string{"0"}, 0, true},
	}

	for _, tt := range tests {
		got, err := parseID(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseID(%v): err = %v, wantErr %v", tt.args, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseID(%v) = %d, ожидалось %d", tt.args, got, tt.want)
		}
	}
}

func TestBindTask_OnlyChangedFlags(t *testing.T) {
	fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
	build := bindTask(fs)
	if err := fs.Parse([]string{"--status", "completed"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	in, err := build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !in.StatusOnly() {
		t.Errorf("ожидался патч только со статусом: %+v", in)
	}
}

func TestBindProject_InvalidDate(t *testing.T) {
	fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
	build := bindProject(fs)
	if err := fs.Parse([]string{"--name", "A", "--start-date", "2024/01/01"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	_, err := build()
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("ожидалась ErrUsage, получено %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid start_date format") {
		t.Errorf("неожиданное сообщение: %v", err)
	}
}

func TestBindProject_Dates(t *testing.T) {
	fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
	build := bindProject(fs)
	if err := fs.Parse([]string{"--name", "A", "--end-date", "2024-03-31", "--owner-id", "4"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	in, err := build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if in.StartDate != nil || in.Description != nil {
		t.Errorf("незаданные поля должны быть nil: %+v", in)
	}
	if in.EndDate == nil || date(in.EndDate) != "2024-03-31" {
		t.Errorf("end_date = %v", in.EndDate)
	}
	if in.OwnerID == nil || *in.OwnerID != 4 {
		t.Errorf("owner_id = %v", in.OwnerID)
	}
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		terminal bool
		yes      bool
		want     bool
	}{
		{"--yes", "", false, true, true},
		{"нет терминала", "y\n", false, false, false},
		{"ответ y", "y\n", true, false, true},
		{"ответ да", "да\n", true, false, true},
		{"пустой ответ", "\n", true, false, false},
		{"EOF", "", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &Prompter{
				in:       strings.NewReader(tt.input),
				out:      &out,
				terminal: func() bool { return tt.terminal },
			}
			p.SetAssumeYes(tt.yes)
			if got := p.Confirm(context.Background(), "Delete?"); got != tt.want {
				t.Errorf("Confirm = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

func TestPrompter_ReadSecretFromStdin(t *testing.T) {
	p := &Prompter{
		in:       strings.NewReader("id-token-value\n"),
		out:      &bytes.Buffer{},
		terminal: func() bool { return false },
	}

	got, err := p.ReadSecret("token", "-")
	if err != nil {
		t.Fatalf("ReadSecret: %v", err)
	}
	if got != "id-token-value" {
		t.Errorf("ReadSecret = %q", got)
	}

	p.in = strings.NewReader("")
	if _, err := p.ReadSecret("token", ""); !errors.Is(err, ErrUsage) {
		t.Errorf("пустой токен: ожидалась ErrUsage, получено %v", err)
	}
}
