package credstore

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testIdentity() model.Identity {
	roleID := int64(3)
	return model.Identity{
		ID:       7,
		GoogleID: "g-123",
		Email:    "alice@example.com",
		Name:     "Alice",
		RoleID:   &roleID,
		RoleName: "Read Only",
	}
}

// openTestStore открывает SQLite-хранилище во временном каталоге.
func openTestStore(t *testing.T, path string, sealer *Sealer) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(path, sealer, testLogger())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// storeContract проверяет общие свойства любой реализации Store.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("пустое хранилище: ожидался ErrNotFound, получен %v", err)
	}

	if err := s.Save(ctx, "tok-1", testIdentity()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cred, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cred.Token != "tok-1" {
		t.Errorf("Token = %q, ожидался tok-1", cred.Token)
	}
	if cred.Identity.Email != "alice@example.com" || cred.Identity.RoleName != "Read Only" {
		t.Errorf("Identity = %+v", cred.Identity)
	}
	if cred.Identity.RoleID == nil || *cred.Identity.RoleID != 3 {
		t.Errorf("RoleID = %v, ожидался 3", cred.Identity.RoleID)
	}

	// Повторное сохранение перезаписывает обе части
	id2 := testIdentity()
	id2.Email = "bob@example.com"
	if err := s.Save(ctx, "tok-2", id2); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cred, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cred.Token != "tok-2" || cred.Identity.Email != "bob@example.com" {
		t.Errorf("после перезаписи: %q / %q", cred.Token, cred.Identity.Email)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("после Clear: ожидался ErrNotFound, получен %v", err)
	}
	// Повторный Clear не ошибка
	if err := s.Clear(ctx); err != nil {
		t.Errorf("повторный Clear: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, openTestStore(t, filepath.Join(t.TempDir(), "creds.db"), nil))
}

func TestSQLiteStore_Sealed(t *testing.T) {
	sealer, err := NewSealer(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	storeContract(t, openTestStore(t, filepath.Join(t.TempDir(), "creds.db"), sealer))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "creds.db")
	ctx := context.Background()

	s1, err := OpenSQLite(path, nil, testLogger())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s1.Save(ctx, "persisted", testIdentity()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s1.Close()

	s2 := openTestStore(t, path, nil)
	cred, err := s2.Load(ctx)
	if err != nil {
		t.Fatalf("Load после переоткрытия: %v", err)
	}
	if cred.Token != "persisted" {
		t.Errorf("Token = %q", cred.Token)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Errorf("права файла %o, ожидался доступ только владельцу", perm)
	}
}

func TestSQLiteStore_PartialIsAbsent(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "creds.db"), nil)
	ctx := context.Background()

	// Только токен, без профиля
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (key, value) VALUES (?, ?)`, KeyToken, "orphan"); err != nil {
		t.Fatalf("вставка: %v", err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("токен без профиля: ожидался ErrNotFound, получен %v", err)
	}
}

func TestSQLiteStore_WrongKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.db")
	ctx := context.Background()

	good, err := NewSealer(strings.Repeat("1f", 32))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	s1, err := OpenSQLite(path, good, testLogger())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s1.Save(ctx, "secret-token", testIdentity()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s1.Close()

	other, err := NewSealer(strings.Repeat("2e", 32))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	s2 := openTestStore(t, path, other)
	if _, err := s2.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("токен под чужим ключом: ожидался ErrNotFound, получено %v", err)
	}
}

func TestSealer_RoundTripAndNonce(t *testing.T) {
	s, err := NewSealer(strings.Repeat("0a", 32))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	a, err := s.Seal("token")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	b, _ := s.Seal("token")
	if a == b {
		t.Error("одинаковый шифротекст: nonce не уникален")
	}

	plain, err := s.Open(a)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if plain != "token" {
		t.Errorf("Open = %q", plain)
	}

	if _, err := s.Open("AAAA"); err == nil {
		t.Error("ожидалась ошибка для короткого шифротекста")
	}
}

func TestNewSealer_RejectsBadKeys(t *testing.T) {
	badKeys := []string{
		"",
		"abcd",
		strings.Repeat("zz", 32),
		"correct horse battery staple, correct horse battery staple 1234",
	}
	for _, key := range badKeys {
		if _, err := NewSealer(key); err == nil {
			t.Errorf("ожидалась ошибка для ключа %q", key)
		}
	}
	if err := ValidateKey(strings.Repeat("AB", 32)); err != nil {
		t.Errorf("hex в верхнем регистре должен приниматься: %v", err)
	}
}

func TestStore_ProfileWithoutEmail(t *testing.T) {
	ctx := context.Background()
	identity := model.Identity{ID: 7, RoleName: "Admin"}

	for name, s := range map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": openTestStore(t, filepath.Join(t.TempDir(), "creds.db"), nil),
	} {
		if err := s.Save(ctx, "tok", identity); err != nil {
			t.Fatalf("%s: Save: %v", name, err)
		}
		cred, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("%s: профиль без email должен читаться: %v", name, err)
		}
		if cred.Token != "tok" || cred.Identity.ID != 7 {
			t.Errorf("%s: Load = %+v", name, cred)
		}
	}
}
