package di

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/adapter/backend"
	"github.com/polkiloo/farmsupply/internal/app"
	"github.com/polkiloo/farmsupply/internal/config"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/domain/repository"
	"github.com/polkiloo/farmsupply/internal/test"
)

func testConfig() *config.Config {
	return &config.Config{
		RunAddress:      "127.0.0.1:0",
		BackendURL:      "http://backend.invalid",
		BackendTimeout:  time.Second,
		ConsoleSecret:   "secret",
		ConsoleTokenTTL: time.Hour,
		SessionStore:    config.SessionStoreMemory,
		RefreshInterval: time.Hour,
		RefreshWorkers:  1,
		ShutdownTimeout: time.Second,
		LogLevel:        "error",
		LogFormat:       "json",
	}
}

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	stub := test.NewBackendStub()
	repo := &test.SessionRepositoryStub{}

	var (
		facade *app.ConsoleFacade
		engine *gin.Engine
	)
	fxApp := fxtest.New(t,
		fx.NopLogger,
		fx.Provide(func() context.Context { return context.Background() }),
		fx.Supply((*pflag.FlagSet)(nil)),
		Module(
			fx.Replace(testConfig()),
			fx.Replace(zap.NewNop()),
			fx.Replace(backend.Client(stub)),
			fx.Replace(repository.SessionRepository(repo)),
		),
		fx.Populate(&facade, &engine),
	)

	fxApp.RequireStart()
	if facade == nil || engine == nil {
		t.Fatal("expected console facade and router")
	}
	if _, ok := facade.Session(); ok {
		t.Fatal("expected no session without a persisted record")
	}
	fxApp.RequireStop()
}

func TestModuleRestoresPersistedSession(t *testing.T) {
	fixtures := test.NewFixtures(3)
	stub := test.NewBackendStub()
	stub.Farmers = []model.Farmer{fixtures.Farmer(1, model.StatePending)}
	repo := &test.SessionRepositoryStub{Record: &model.SessionRecord{
		ID:        "persisted",
		Principal: model.Principal{ID: 1, Username: "admin", Role: model.RoleAdmin},
		Token:     "opaque-token",
		SavedAt:   time.Now().UTC(),
	}}

	var facade *app.ConsoleFacade
	fxApp := fxtest.New(t,
		fx.NopLogger,
		fx.Provide(func() context.Context { return context.Background() }),
		fx.Supply((*pflag.FlagSet)(nil)),
		Module(
			fx.Replace(testConfig()),
			fx.Replace(zap.NewNop()),
			fx.Replace(backend.Client(stub)),
			fx.Replace(repository.SessionRepository(repo)),
		),
		fx.Populate(&facade),
	)

	fxApp.RequireStart()
	defer fxApp.RequireStop()

	p, ok := facade.Session()
	if !ok || p.Role != model.RoleAdmin {
		t.Fatalf("expected restored admin session, got %+v %v", p, ok)
	}
	if got := len(facade.Snapshot().Farmers); got != 1 {
		t.Fatalf("expected resync after restore, got %d farmers", got)
	}
}
