package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/adapter/backend"
	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/domain/repository"
	pkgAuth "github.com/polkiloo/farmsupply/internal/pkg/auth"
)

// Authenticator exchanges credentials for a backend identity.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (backend.LoginResult, error)
}

// Invalidator empties the entity cache between sessions.
type Invalidator interface {
	Invalidate()
}

// SessionUseCase holds the single authenticated principal of the console.
type SessionUseCase struct {
	auth   Authenticator
	repo   repository.SessionRepository
	bearer *pkgAuth.BearerToken
	cache  Invalidator
	logger *zap.Logger
	now    func() time.Time

	// transitions serialises Login, Logout and Restore.
	transitions sync.Mutex

	mu      sync.RWMutex
	current *model.SessionRecord
}

// NewSessionUseCase constructs SessionUseCase.
func NewSessionUseCase(
	auth Authenticator,
	repo repository.SessionRepository,
	bearer *pkgAuth.BearerToken,
	cache Invalidator,
	logger *zap.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		auth:   auth,
		repo:   repo,
		bearer: bearer,
		cache:  cache,
		logger: logger.Named("session"),
		now:    time.Now,
	}
}

// Login authenticates against the backend and makes the result the live session.
func (u *SessionUseCase) Login(ctx context.Context, username, password string) (model.Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.Principal{}, &domainErrors.AuthError{Op: "login", Err: domainErrors.ErrInvalidCredentials}
	}

	u.transitions.Lock()
	defer u.transitions.Unlock()

	if _, ok := u.Current(); ok {
		return model.Principal{}, &domainErrors.AuthError{Op: "login", Err: domainErrors.ErrSessionActive}
	}

	res, err := u.auth.Login(ctx, username, password)
	if err != nil {
		return model.Principal{}, err
	}
	if res.Principal.Username == "" {
		res.Principal.Username = username
	}

	rec := model.SessionRecord{
		ID:        uuid.NewString(),
		Principal: res.Principal,
		Token:     res.Token,
		SavedAt:   u.now().UTC(),
	}
	u.activate(rec)

	if err := u.repo.Save(ctx, rec); err != nil {
		u.logger.Warn("persist session failed", zap.Error(err))
	}
	u.logger.Info("session started",
		zap.Int64("principal_id", rec.Principal.ID),
		zap.String("role", string(rec.Principal.Role)),
	)
	return rec.Principal, nil
}

// Logout ends the session. It never fails and may be called repeatedly.
func (u *SessionUseCase) Logout(ctx context.Context) {
	u.transitions.Lock()
	defer u.transitions.Unlock()

	u.mu.Lock()
	had := u.current != nil
	u.current = nil
	u.mu.Unlock()

	u.bearer.Clear()
	u.cache.Invalidate()

	if err := u.repo.Clear(ctx); err != nil {
		u.logger.Warn("clear persisted session failed", zap.Error(err))
	}
	if had {
		u.logger.Info("session ended")
	}
}

// Restore reloads a persisted session. Expired backend tokens are discarded.
func (u *SessionUseCase) Restore(ctx context.Context) (model.Principal, bool, error) {
	u.transitions.Lock()
	defer u.transitions.Unlock()

	if p, ok := u.Current(); ok {
		return p, true, nil
	}

	rec, err := u.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return model.Principal{}, false, nil
		}
		return model.Principal{}, false, err
	}

	if rec.Token == "" || !rec.Principal.Role.IsValid() || pkgAuth.Expired(rec.Token, u.now()) {
		u.logger.Info("discarding persisted session", zap.Int64("principal_id", rec.Principal.ID))
		if err := u.repo.Clear(ctx); err != nil {
			u.logger.Warn("clear persisted session failed", zap.Error(err))
		}
		return model.Principal{}, false, nil
	}

	u.activate(rec)
	u.logger.Info("session restored",
		zap.Int64("principal_id", rec.Principal.ID),
		zap.String("role", string(rec.Principal.Role)),
	)
	return rec.Principal, true, nil
}

// Current returns the live principal.
func (u *SessionUseCase) Current() (model.Principal, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.current == nil {
		return model.Principal{}, false
	}
	return u.current.Principal, true
}

// Live returns the live principal together with the id of its session.
// Console tokens are bound to that id.
func (u *SessionUseCase) Live() (model.Principal, string, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.current == nil {
		return model.Principal{}, "", false
	}
	return u.current.Principal, u.current.ID, true
}

// Token returns the backend bearer token of the live session.
func (u *SessionUseCase) Token() string {
	return u.bearer.Token()
}

func (u *SessionUseCase) activate(rec model.SessionRecord) {
	u.mu.Lock()
	u.current = &rec
	u.mu.Unlock()
	u.bearer.Set(rec.Token)
	u.cache.Invalidate()
}
