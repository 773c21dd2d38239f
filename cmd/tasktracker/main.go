// Точка входа CLI-клиента Task Tracker.
// Загружает профиль клиента, открывает хранилище учётных данных,
// собирает контроллер Dashboard и выполняет команду из аргументов.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/bigkaa/tasktracker/internal/apiclient"
	"github.com/bigkaa/tasktracker/internal/cli"
	"github.com/bigkaa/tasktracker/internal/config"
	"github.com/bigkaa/tasktracker/internal/credstore"
	"github.com/bigkaa/tasktracker/internal/dashboard"
	"github.com/bigkaa/tasktracker/internal/session"
	"github.com/bigkaa/tasktracker/internal/syncengine"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Загрузка профиля клиента (YAML + TT_CLIENT_*)
	cfg, err := config.LoadClient(config.ProfilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		return 1
	}

	// 2. Логирование в stderr
	logger := config.SetupClientLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Хранилище учётных данных (SQLite, токен опционально шифруется)
	var sealer *credstore.Sealer
	if cfg.CredentialsKey != "" {
		if sealer, err = credstore.NewSealer(cfg.CredentialsKey); err != nil {
			logger.Error("Ошибка ключа шифрования", slog.String("error", err.Error()))
			return 1
		}
	}
	store, err := credstore.OpenSQLite(cfg.CredentialsPath, sealer, logger)
	if err != nil {
		logger.Error("Ошибка открытия хранилища учётных данных",
			slog.String("path", cfg.CredentialsPath),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer store.Close()

	// 4. Сессия, HTTP-клиент, сообщения, метрики
	sess := session.New(store, logger)
	client := apiclient.New(cfg.APIURL, store, cfg.RequestTimeout, logger)
	notifier := syncengine.NewNotifier(syncengine.DefaultMessageTTL)
	defer notifier.Close()

	registry := prometheus.NewRegistry()
	metrics := syncengine.NewMetrics(registry)

	// 5. Контроллер и дерево команд
	prompter := cli.NewPrompter()
	dash := dashboard.New(sess, client, notifier, prompter.ConfirmFunc(), metrics, logger)
	renderer := cli.NewRenderer(os.Stdout, !term.IsTerminal(int(os.Stdout.Fd())))
	app := cli.NewApp(dash, prompter, renderer, os.Stderr, logger)

	err = app.Run(ctx, os.Args[1:])

	if cfg.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(cfg.MetricsFile, registry); werr != nil {
			logger.Warn("Не удалось записать метрики",
				slog.String("path", cfg.MetricsFile),
				slog.String("error", werr.Error()),
			)
		}
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrReported):
		logger.Debug("Команда не выполнена", slog.String("error", err.Error()))
		return 1
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintln(os.Stderr, err)
		return 2
	default:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
}
