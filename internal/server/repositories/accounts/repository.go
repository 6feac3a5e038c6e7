package accounts

import (
	"context"

	"github.com/dmitrijs2005/accountd/internal/server/models"
)

// Repository persists account records. All operations are atomic with
// respect to a single account row; uniqueness of email and phone is
// enforced by the store itself, not by callers.
type Repository interface {
	// Create inserts a new account and returns it with id and timestamps
	// populated. A duplicate email or phone yields common.ErrorConflict.
	Create(ctx context.Context, acc *models.Account) (*models.Account, error)

	// FindByID returns the account with the given id, or common.ErrorNotFound.
	FindByID(ctx context.Context, id string) (*models.Account, error)

	// FindByEmail returns the account with the given email, or common.ErrorNotFound.
	FindByEmail(ctx context.Context, email string) (*models.Account, error)

	// FindByEmailOrPhone returns an account matching either value,
	// or common.ErrorNotFound.
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Account, error)

	// UpdateProfile applies a whitelisted partial update and returns the
	// updated account. A duplicate email or phone yields common.ErrorConflict.
	UpdateProfile(ctx context.Context, id string, patch *models.ProfilePatch) (*models.Account, error)

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// SetRefreshToken unconditionally overwrites the stored refresh token.
	// An empty token clears the session. Unknown ids are a no-op, which
	// keeps logout idempotent.
	SetRefreshToken(ctx context.Context, id, token string) error

	// ReplaceRefreshToken swaps old for new only if old is still the stored
	// value for the account (a compare-and-swap). If the stored value has
	// moved on, it returns common.ErrorNotFound. This is the serialization
	// point that keeps two concurrent refresh calls from both succeeding.
	ReplaceRefreshToken(ctx context.Context, id, oldToken, newToken string) error
}
