package storage

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/config"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/domain/repository"
	"github.com/polkiloo/farmsupply/internal/storage/memory"
	"github.com/polkiloo/farmsupply/internal/storage/sqlite"
)

func populate(t *testing.T, cfg *config.Config) (repository.SessionRepository, *fxtest.App) {
	t.Helper()
	var repo repository.SessionRepository
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(cfg, zap.NewNop()),
		fx.Provide(func() context.Context { return context.Background() }),
		Module,
		fx.Populate(&repo),
	)
	return repo, app
}

func TestModuleSelectsMemoryByDefault(t *testing.T) {
	repo, app := populate(t, &config.Config{})
	app.RequireStart().RequireStop()
	if _, ok := repo.(*memory.SessionStore); !ok {
		t.Fatalf("expected memory store, got %T", repo)
	}
}

func TestModuleOpensSQLite(t *testing.T) {
	cfg := &config.Config{
		SessionStore: config.SessionStoreSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "console.db"),
	}
	repo, app := populate(t, cfg)
	app.RequireStart()
	if _, ok := repo.(*sqlite.SessionStore); !ok {
		t.Fatalf("expected sqlite store, got %T", repo)
	}
	if err := repo.Save(context.Background(), model.SessionRecord{ID: "x"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	app.RequireStop()
}

func TestModuleRejectsUnknownStore(t *testing.T) {
	var repo repository.SessionRepository
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&config.Config{SessionStore: "etcd"}, zap.NewNop()),
		fx.Provide(func() context.Context { return context.Background() }),
		Module,
		fx.Populate(&repo),
	)
	if app.Err() == nil {
		t.Fatal("expected error for unknown store")
	}
}
