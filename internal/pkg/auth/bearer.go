package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerToken holds the backend bearer token of the live session.
type BearerToken struct {
	mu    sync.RWMutex
	token string
}

// NewBearerToken constructs an empty holder.
func NewBearerToken() *BearerToken {
	return &BearerToken{}
}

// Token returns the current token or an empty string.
func (b *BearerToken) Token() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

// Set replaces the token.
func (b *BearerToken) Set(token string) {
	b.mu.Lock()
	b.token = token
	b.mu.Unlock()
}

// Clear forgets the token.
func (b *BearerToken) Clear() {
	b.Set("")
}

// Expired reports whether token is a JWT whose exp lies before now. The
// signature is not checked: only the backend can verify it. Opaque tokens
// never expire locally.
func Expired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
