package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/eaata/helpdesk/internal/config"
)

func TestRebind(t *testing.T) {
	pg := &Database{Dialect: DialectPostgres}
	got := pg.Rebind("SELECT * FROM tickets WHERE id=? AND status IN (?,?)")
	want := "SELECT * FROM tickets WHERE id=$1 AND status IN ($2,$3)"
	if got != want {
		t.Errorf("Rebind = %q, want %q", got, want)
	}

	lite := &Database{Dialect: DialectSQLite}
	q := "SELECT * FROM tickets WHERE id=?"
	if lite.Rebind(q) != q {
		t.Error("sqlite queries must be left untouched")
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "helpdesk.sqlite")
	logger := zap.NewNop()

	db, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path}, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if db.Dialect != DialectSQLite {
		t.Errorf("dialect = %q", db.Dialect)
	}
	if err := RunMigrations(ctx, db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Migrations are re-runnable.
	if err := RunMigrations(ctx, db, logger); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	for _, table := range []string{"tickets", "comments", "sectors"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Error("foreign keys must be enabled")
	}
	if err := db.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for mysql")
	}
}

func TestRedisDisabledWithoutAddr(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())
	if r.Enabled() {
		t.Fatal("redis should be disabled without an address")
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Error("ping on disabled redis must fail")
	}
	r.Close()
}
