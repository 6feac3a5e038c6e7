// Package token signs and verifies the compact, expiring tokens that carry
// an account identifier between the service and its clients.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/accountd/internal/common"
)

// Claims is the signed claim set: the registered iat/exp pair plus the
// account identifier the token was issued for.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

// Codec issues and verifies HS256-signed tokens. The signing key is
// process-wide configuration loaded once at startup; rotating it
// invalidates all outstanding tokens.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec builds a Codec. The access lifetime must be strictly shorter
// than the refresh lifetime.
func NewCodec(secret []byte, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing key")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if accessTTL >= refreshTTL {
		return nil, errors.New("access token lifetime must be shorter than refresh token lifetime")
	}
	return &Codec{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs a short-lived access token for accountID.
func (c *Codec) IssueAccess(accountID string) (string, error) {
	return c.issue(accountID, c.accessTTL)
}

// IssueRefresh signs a longer-lived refresh token for accountID.
func (c *Codec) IssueRefresh(accountID string) (string, error) {
	return c.issue(accountID, c.refreshTTL)
}

func (c *Codec) issue(accountID string, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps two tokens minted within the same second distinct,
			// which rotation depends on.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		AccountID: accountID,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// embedded account id. Every failure mode (malformed, tampered, expired)
// collapses to common.ErrInvalidToken so callers cannot distinguish a
// signature failure from an expiry failure.
func (c *Codec) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.AccountID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.AccountID, nil
}
