// Package console assembles a console facade over an in-memory backend for
// gateway tests.
package console

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/app"
	"github.com/polkiloo/farmsupply/internal/authz"
	"github.com/polkiloo/farmsupply/internal/coordinator"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/metrics"
	pkgAuth "github.com/polkiloo/farmsupply/internal/pkg/auth"
	"github.com/polkiloo/farmsupply/internal/store"
	"github.com/polkiloo/farmsupply/internal/test"
	"github.com/polkiloo/farmsupply/internal/usecase"
	"github.com/polkiloo/farmsupply/internal/workflow"
)

// Today is the fixed clock of the workflow engine.
var Today = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// Password is shared by every seeded account.
const Password = "s3cret-pass"

// Usernames of the seeded accounts per role.
var Usernames = map[model.Role]string{
	model.RoleAdmin:          "admin",
	model.RoleFieldOfficer:   "amina",
	model.RoleFinanceOfficer: "grace",
	model.RoleTrainee:        "tom",
}

// Console bundles a facade with the fakes behind it.
type Console struct {
	Facade  *app.ConsoleFacade
	Backend *test.BackendStub
	Repo    *test.SessionRepositoryStub
	Metrics *metrics.Metrics
	Tokens  pkgAuth.Strategy

	skew atomic.Int64
}

// Advance moves the console token clock forward by d.
func (c *Console) Advance(d time.Duration) {
	c.skew.Add(int64(d))
}

func (c *Console) now() time.Time {
	return time.Now().Add(time.Duration(c.skew.Load()))
}

// New seeds a backend and wires a facade over it. No session is open.
func New(t testing.TB) *Console {
	t.Helper()

	fx := test.NewFixtures(7)
	b := test.NewBackendStub()
	ids := map[model.Role]int64{
		model.RoleAdmin:          1,
		model.RoleFieldOfficer:   2,
		model.RoleFinanceOfficer: 5,
		model.RoleTrainee:        9,
	}
	for role, name := range Usernames {
		b.Accounts[name] = test.Account{
			Password:  Password,
			Token:     "backend-" + name,
			Principal: model.Principal{ID: ids[role], Username: name, Role: role},
		}
	}

	b.Farmers = []model.Farmer{fx.Farmer(7, model.StatePending), fx.Farmer(8, model.StateApproved)}
	product := fx.Product(3, 8, 10)
	product.UnitPrice = decimal.NewFromInt(250)
	b.Products = []model.Product{product}
	b.Orders = []model.Order{
		fx.Order(42, product, 2, 5, model.StatePending),
		fx.Order(43, product, 1, 5, model.StateApproved),
		fx.Order(44, product, 1, 6, model.StateScheduled),
	}
	b.Users = []model.User{fx.User(1, model.RoleAdmin), fx.User(5, model.RoleFinanceOfficer)}
	b.Trainings = []model.Training{fx.Training(1, Today.AddDate(0, 0, 7))}

	logger := zap.NewNop()
	guard := authz.NewGuard()
	engine := workflow.NewEngine(guard, workflow.WithClock(func() time.Time { return Today }))
	st := store.New()
	repo := &test.SessionRepositoryStub{}
	session := usecase.NewSessionUseCase(b, repo, pkgAuth.NewBearerToken(), st, logger)
	m := metrics.New()
	coord := coordinator.New(b, st, engine, guard, session, nil, m, logger, coordinator.Options{DispatchTimeout: 5 * time.Second})
	c := &Console{Backend: b, Repo: repo, Metrics: m}
	c.Tokens = pkgAuth.NewJWTStrategy("test-secret", pkgAuth.Options{TTL: time.Hour, Now: c.now})
	c.Facade = app.NewConsoleFacade(session, coord, guard, c.Tokens, logger)
	return c
}
