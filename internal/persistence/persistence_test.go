package persistence

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dashboard/internal/config"
)

func TestMigrationFilesSortedSQLOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql": {Data: []byte("SELECT 2")},
		"001_a.sql": {Data: []byte("SELECT 1")},
		"README.md": {Data: []byte("docs")},
		"sub/x.sql": {Data: []byte("SELECT 3")},
	}
	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) != 2 || files[0] != "001_a.sql" || files[1] != "002_b.sql" {
		t.Fatalf("unexpected files %v", files)
	}
}

func TestBundledMigrations(t *testing.T) {
	files, err := migrationFiles(Migrations())
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) == 0 || files[0] != "001_ticket_arrivals.sql" {
		t.Fatalf("expected bundled arrival migration, got %v", files)
	}
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	if err := RunMigrations(context.Background(), nil, Migrations(), zap.NewNop()); err != nil {
		t.Fatalf("expected skip without pool, got %v", err)
	}
}

func TestUnconfiguredStores(t *testing.T) {
	ctx := context.Background()
	pg, err := NewPostgres(ctx, config.PostgresConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if pg.Enabled() || !errors.Is(pg.Ping(ctx), ErrNotConfigured) {
		t.Fatal("expected disabled postgres")
	}

	rdb := NewRedis(config.RedisConfig{KeyPrefix: "dash"}, zap.NewNop())
	if rdb.Enabled() || !errors.Is(rdb.Ping(ctx), ErrNotConfigured) {
		t.Fatal("expected disabled redis")
	}
	if got := rdb.Key("view", "abc"); got != "dash:view:abc" {
		t.Fatalf("unexpected key %q", got)
	}
	pg.Close()
	rdb.Close()
}
