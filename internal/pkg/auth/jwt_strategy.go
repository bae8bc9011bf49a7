package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "farmsupply-console"

type consoleClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTStrategy issues HS256 console tokens.
type JWTStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTStrategy builds JWTStrategy with provided secret and options.
func NewJWTStrategy(secret string, opts Options) *JWTStrategy {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &JWTStrategy{secret: []byte(secret), ttl: ttl, now: now}
}

// IssueToken signs a token bound to the session in claims.
func (s *JWTStrategy) IssueToken(claims Claims) (string, error) {
	if claims.SessionID == "" {
		return "", errors.New("session id is required")
	}
	issued := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, consoleClaims{
		Role: claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.SessionID,
			Subject:   strconv.FormatInt(claims.PrincipalID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
		},
	})
	return token.SignedString(s.secret)
}

// ParseToken validates signature, issuer and expiry.
func (s *JWTStrategy) ParseToken(token string) (Claims, error) {
	var parsed consoleClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	id, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || parsed.ID == "" {
		return Claims{}, ErrInvalidToken
	}

	return Claims{SessionID: parsed.ID, PrincipalID: id, Role: parsed.Role}, nil
}

func (s *JWTStrategy) Name() string {
	return "jwt"
}
