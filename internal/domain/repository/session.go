package repository

import (
	"context"

	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// SessionRepository persists the single live session across restarts.
// Load returns errors.ErrNotFound when nothing is stored.
type SessionRepository interface {
	Save(ctx context.Context, rec model.SessionRecord) error
	Load(ctx context.Context) (model.SessionRecord, error)
	Clear(ctx context.Context) error
}
