package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

const schema = `CREATE TABLE IF NOT EXISTS credentials (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteStore — Store в локальном SQLite-файле. Токен и профиль лежат
// в таблице ключ-значение и пишутся одной транзакцией.
type SQLiteStore struct {
	db     *sql.DB
	sealer *Sealer
	logger *slog.Logger
}

// OpenSQLite открывает (или создаёт) хранилище по пути path.
// sealer может быть nil — тогда токен хранится как есть.
func OpenSQLite(path string, sealer *Sealer, logger *slog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("путь к хранилищу не задан")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return nil, fmt.Errorf("создание каталога хранилища: %w", err)
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("открытие SQLite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("проверка SQLite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("создание схемы хранилища: %w", err)
	}
	// Токен не должен быть доступен другим пользователям системы
	if err := os.Chmod(cleanPath, 0o600); err != nil {
		logger.Warn("Не удалось ограничить права на файл хранилища",
			slog.String("path", cleanPath),
			slog.String("error", err.Error()),
		)
	}

	return &SQLiteStore{
		db:     db,
		sealer: sealer,
		logger: logger.With(slog.String("component", "credstore")),
	}, nil
}

// Close закрывает файл хранилища.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save сохраняет токен и профиль в одной транзакции.
func (s *SQLiteStore) Save(ctx context.Context, token string, identity model.Identity) error {
	profile, err := encodeProfile(identity)
	if err != nil {
		return err
	}

	storedToken := token
	if s.sealer != nil {
		storedToken, err = s.sealer.Seal(token)
		if err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // после Commit возвращает ErrTxDone

	const upsert = `INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, upsert, KeyToken, storedToken); err != nil {
		return fmt.Errorf("запись %s: %w", KeyToken, err)
	}
	if _, err := tx.ExecContext(ctx, upsert, KeyProfile, profile); err != nil {
		return fmt.Errorf("запись %s: %w", KeyProfile, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	s.logger.Debug("Учётные данные сохранены", slog.String("email", identity.Email))
	return nil
}

// Load читает обе части credential. Отсутствие любой из них, как и
// нерасшифровываемый токен, — ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context) (*model.Credential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM credentials WHERE key IN (?, ?)`, KeyToken, KeyProfile)
	if err != nil {
		return nil, fmt.Errorf("чтение хранилища: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("чтение хранилища: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("чтение хранилища: %w", err)
	}

	token, profile := values[KeyToken], values[KeyProfile]
	if token == "" || profile == "" {
		return nil, ErrNotFound
	}

	if s.sealer != nil {
		token, err = s.sealer.Open(token)
		if err != nil {
			// Токен зашифрован другим ключом или повреждён: считаем, что входа не было
			s.logger.Warn("Не удалось расшифровать токен, требуется повторный вход",
				slog.String("error", err.Error()),
			)
			return nil, ErrNotFound
		}
	}

	identity, err := decodeProfile(profile)
	if err != nil {
		return nil, err
	}

	cred := &model.Credential{Token: token, Identity: identity}
	if !cred.Valid() {
		return nil, ErrNotFound
	}
	return cred, nil
}

// Clear удаляет обе части credential одной командой.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE key IN (?, ?)`, KeyToken, KeyProfile); err != nil {
		return fmt.Errorf("очистка хранилища: %w", err)
	}
	s.logger.Debug("Учётные данные удалены")
	return nil
}
