// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт уникальности (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — запись уже существует")
	// ErrReference — ссылка на несуществующую запись (внешний ключ).
	ErrReference = errors.New("ссылка на несуществующую запись")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner позволяет выполнять операции в транзакции.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner для управления транзакциями.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx выполняет fn внутри транзакции: ошибка fn — откат, иначе коммит.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// mapError переводит ошибки PostgreSQL в ошибки репозитория.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", ErrReference, pgErr.ConstraintName)
		}
	}
	return err
}

// setList собирает SET-часть частичного UPDATE из заданных полей.
type setList struct {
	columns []string
	args    []any
}

func (s *setList) add(column string, value any) {
	s.args = append(s.args, value)
	s.columns = append(s.columns, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setList) empty() bool {
	return len(s.columns) == 0
}

// update выполняет UPDATE table SET ... WHERE id = $n. Пустой набор полей
// сводится к проверке существования записи.
func (s *setList) update(ctx context.Context, db DBTX, table string, id int64) error {
	if s.empty() {
		var exists bool
		err := db.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("ошибка проверки записи %s: %w", table, err)
		}
		if !exists {
			return ErrNotFound
		}
		return nil
	}

	args := append(s.args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`, table, strings.Join(s.columns, ", "), len(args))
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления %s: %w", table, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteByID удаляет запись по id.
func deleteByID(ctx context.Context, db DBTX, table string, id int64) error {
	tag, err := db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("ошибка удаления из %s: %w", table, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func dateArg(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func toDate(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}

// Stores — набор репозиториев поверх одного DBTX (пула или транзакции).
type Stores struct {
	Users    UserRepository
	Roles    RoleRepository
	Projects ProjectRepository
	Tasks    TaskRepository
}

// NewStores создаёт репозитории поверх db.
func NewStores(db DBTX) Stores {
	return Stores{
		Users:    NewUserRepository(db),
		Roles:    NewRoleRepository(db),
		Projects: NewProjectRepository(db),
		Tasks:    NewTaskRepository(db),
	}
}

// InTx выполняет fn с репозиториями, работающими в одной транзакции.
func (r *TxRunner) InTx(ctx context.Context, fn func(Stores) error) error {
	return r.RunInTx(ctx, func(tx pgx.Tx) error {
		return fn(NewStores(tx))
	})
}
