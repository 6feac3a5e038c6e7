// Package sessions implements the session lifecycle state machine:
// registration, login, logout, refresh-token rotation with replay
// detection, password change and profile updates.
//
// Per account the service sees two states: NoSession (the stored refresh
// token is empty) and Active (it holds the live token). Login and a
// successful rotation move to Active with a fresh token; logout moves back
// to NoSession. An expired refresh token is functionally NoSession the
// moment its verification fails.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/dbx"
	"github.com/dmitrijs2005/accountd/internal/server/metrics"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/password"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountd/internal/server/token"
)

// TokenPair bundles a short-lived access token and a longer-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterRequest carries the fields accepted at registration.
type RegisterRequest struct {
	FullName     string
	Email        string
	Phone        string
	Password     string
	Organization string
}

// LoginResult is the successful outcome of Login: the sanitized account
// plus a fresh token pair.
type LoginResult struct {
	Account *models.Sanitized
	Tokens  TokenPair
}

// Service orchestrates the account store, password hasher and token codec.
// It owns all state-transition and replay logic; it never keeps account
// state beyond one in-flight operation.
type Service struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	hasher password.Hasher
	codec  *token.Codec
}

// NewService constructs a Service from its three collaborators.
func NewService(db *sql.DB, repos repomanager.RepositoryManager, hasher password.Hasher, codec *token.Codec) *Service {
	return &Service{db: db, repos: repos, hasher: hasher, codec: codec}
}

// Register validates the request, hashes the password and creates the
// account. Uniqueness of email and phone is ultimately enforced by the
// store's insert; the early lookup only produces a friendlier conflict
// without a wasted hash computation.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Sanitized, error) {

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Organization = strings.TrimSpace(req.Organization)

	// The password is checked trimmed but hashed as given: surrounding
	// whitespace in a real password is legitimate, a whitespace-only one
	// is not.
	for field, value := range map[string]string{
		"fullname": req.FullName,
		"email":    req.Email,
		"phone":    req.Phone,
		"password": strings.TrimSpace(req.Password),
	} {
		if value == "" {
			return nil, fmt.Errorf("%w: %s is required", common.ErrorValidation, field)
		}
	}

	repo := s.repos.Accounts(s.db)

	if _, err := repo.FindByEmailOrPhone(ctx, req.Email, req.Phone); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorInternal
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	acc, err := repo.Create(ctx, &models.Account{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Organization: req.Organization,
		Role:         common.DefaultRole,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, common.ErrorInternal
	}

	metrics.Registrations.Inc()
	return acc.Sanitize(), nil
}

// Login verifies the credentials, mints a token pair and stores the refresh
// token, unconditionally replacing any prior one. A login from a second
// device therefore silently invalidates the first device's session.
//
// An unknown email surfaces as ErrorNotFound while a wrong password is
// ErrorUnauthorized, matching the observed behavior this service replaces;
// the trade-off is recorded in DESIGN.md.
func (s *Service) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {

	repo := s.repos.Accounts(s.db)

	acc, err := repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	if !s.hasher.Check(plaintext, acc.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.issuePair(acc.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := repo.SetRefreshToken(ctx, acc.ID, pair.RefreshToken); err != nil {
		return nil, common.ErrorInternal
	}

	metrics.Logins.Inc()
	return &LoginResult{Account: acc.Sanitize(), Tokens: *pair}, nil
}

// Refresh rotates the refresh token. The presented token must pass
// signature and expiry checks and must byte-for-byte equal the value
// currently stored for its account; the equality check and the overwrite
// are one compare-and-swap, so two concurrent refreshes against the same
// stored token cannot both succeed. Every failure mode collapses to
// ErrorUnauthorized so callers get no oracle on why a token was rejected.
func (s *Service) Refresh(ctx context.Context, presented string) (*TokenPair, error) {

	if presented == "" {
		return nil, common.ErrorUnauthorized
	}

	accountID, err := s.codec.Verify(presented)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.issuePair(accountID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repos.Accounts(s.db)
	if err := repo.ReplaceRefreshToken(ctx, accountID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Structurally valid but superseded, cleared, or the account is
			// gone: the replay defense.
			metrics.RefreshReplays.Inc()
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	metrics.RefreshRotations.Inc()
	return pair, nil
}

// Logout clears the stored refresh token. It is idempotent: logging out an
// account with no active session (or an unknown account) is not an error.
func (s *Service) Logout(ctx context.Context, accountID string) error {
	if err := s.repos.Accounts(s.db).SetRefreshToken(ctx, accountID, ""); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// ChangePassword verifies the old password and stores a hash of the new
// one inside a single transaction, so the write only lands together with a
// successful check. The in-tx read takes no row lock, so two concurrent
// changes presenting the same old password may both succeed; last write
// wins. The active refresh token is deliberately left in place (see
// DESIGN.md).
func (s *Service) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {

	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", common.ErrorValidation)
	}

	// The expensive hash happens before any row is touched.
	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Accounts(tx)

		acc, err := repo.FindByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorNotFound
			}
			return common.ErrorInternal
		}

		if !s.hasher.Check(oldPassword, acc.PasswordHash) {
			return common.ErrorUnauthorized
		}

		if err := repo.UpdatePasswordHash(ctx, accountID, newHash); err != nil {
			return common.ErrorInternal
		}
		return nil
	})
}

// UpdateProfile applies a whitelisted partial update of non-credential
// fields. Provided-but-blank values are rejected; credential fields cannot
// be expressed through ProfilePatch at all.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, patch *models.ProfilePatch) (*models.Sanitized, error) {

	trim := func(p *string, field string) (*string, error) {
		if p == nil {
			return nil, nil
		}
		v := strings.TrimSpace(*p)
		if v == "" {
			return nil, fmt.Errorf("%w: %s must not be empty", common.ErrorValidation, field)
		}
		return &v, nil
	}

	var err error
	if patch.FullName, err = trim(patch.FullName, "fullname"); err != nil {
		return nil, err
	}
	if patch.Email, err = trim(patch.Email, "email"); err != nil {
		return nil, err
	}
	if patch.Phone, err = trim(patch.Phone, "phone"); err != nil {
		return nil, err
	}
	if patch.Organization, err = trim(patch.Organization, "organization"); err != nil {
		return nil, err
	}

	// Nothing to change: answer with the current profile.
	if patch.IsEmpty() {
		return s.GetCurrent(ctx, accountID)
	}

	acc, err := s.repos.Accounts(s.db).UpdateProfile(ctx, accountID, patch)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorConflict) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}

	return acc.Sanitize(), nil
}

// GetCurrent returns the sanitized account the caller is authenticated as.
func (s *Service) GetCurrent(ctx context.Context, accountID string) (*models.Sanitized, error) {
	acc, err := s.repos.Accounts(s.db).FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return acc.Sanitize(), nil
}

func (s *Service) issuePair(accountID string) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(accountID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.IssueRefresh(accountID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
