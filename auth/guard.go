package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanni/community/store"
	"github.com/yanni/community/utils"
)

// Claims defines JWT claims used in the application.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

// Identity is the verified caller behind a bearer token.
type Identity struct {
	UserID    uint
	Nickname  string
	TokenID   string
	ExpiresAt time.Time
}

// Guard issues and verifies HS256 identity tokens.
type Guard struct {
	secret  []byte
	ttl     time.Duration
	revoked Revocations
	now     func() time.Time
}

var _ store.TokenIssuer = (*Guard)(nil)

// NewGuard creates a Guard. revoked may be nil, in which case logout is not tracked.
func NewGuard(secret string, ttl time.Duration, revoked Revocations) *Guard {
	return &Guard{secret: []byte(secret), ttl: ttl, revoked: revoked, now: time.Now}
}

// Issue signs a token for the given user.
func (g *Guard) Issue(userID uint, nickname string) (string, error) {
	now := g.now()
	claims := Claims{
		UserID:   userID,
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   nickname,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// Authenticate resolves an Authorization header value of the form "Bearer <token>".
func (g *Guard) Authenticate(ctx context.Context, header string) (Identity, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}, store.AuthError("missing bearer token")
	}
	return g.Parse(ctx, parts[1])
}

// Parse verifies signature, expiry and revocation of a raw token.
func (g *Guard) Parse(ctx context.Context, raw string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !parsed.Valid || claims.UserID == 0 || claims.ID == "" {
		return Identity{}, store.AuthError("invalid or expired token")
	}

	id := Identity{
		UserID:    claims.UserID,
		Nickname:  claims.Nickname,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if g.revoked != nil {
		revoked, err := g.revoked.IsRevoked(ctx, id.TokenID)
		if err != nil {
			// Fail open so a revocation store outage does not lock everyone out
			utils.Logger.Warn("revocation check failed", zap.Error(err))
		} else if revoked {
			return Identity{}, store.AuthError("token has been revoked")
		}
	}
	return id, nil
}

// Revoke invalidates the identity's token until it would have expired anyway.
func (g *Guard) Revoke(ctx context.Context, id Identity) error {
	if g.revoked == nil {
		return nil
	}
	return g.revoked.Revoke(ctx, id.TokenID, id.ExpiresAt)
}
