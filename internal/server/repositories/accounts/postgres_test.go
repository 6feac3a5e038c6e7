package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func accountRows(acc *models.Account) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "fullname", "email", "phone", "organization", "role",
		"password_hash", "refresh_token", "created_at", "updated_at",
	}).AddRow(acc.ID, acc.FullName, acc.Email, acc.Phone, acc.Organization,
		acc.Role, acc.PasswordHash, acc.RefreshToken, acc.CreatedAt, acc.UpdatedAt)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+accounts\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*RETURNING\s+created_at,\s*updated_at\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "Alice", "alice@x.com", "555-1", "", "user", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	acc, err := repo.Create(context.Background(), &models.Account{
		FullName: "Alice", Email: "alice@x.com", Phone: "555-1",
		Role: "user", PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !acc.CreatedAt.Equal(now) {
		t.Fatalf("unexpected created_at: %v", acc.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+accounts\b`

	mock.ExpectQuery(q).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	_, err := repo.Create(context.Background(), &models.Account{
		FullName: "Alice", Email: "alice@x.com", Phone: "555-1", PasswordHash: "h",
	})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+accounts\b`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Account{})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	want := &models.Account{
		ID: "a1", FullName: "Alice", Email: "alice@x.com", Phone: "555-1",
		Role: "user", PasswordHash: "hash", RefreshToken: "tok",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("a1").
		WillReturnRows(accountRows(want))

	got, err := repo.FindByID(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != want.Email || got.RefreshToken != want.RefreshToken {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFindByEmailOrPhone_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	want := &models.Account{ID: "a1", Email: "alice@x.com", Phone: "555-1"}

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1\s+OR\s+phone\s*=\s*\$2\s*$`).
		WithArgs("alice@x.com", "555-1").
		WillReturnRows(accountRows(want))

	got, err := repo.FindByEmailOrPhone(context.Background(), "alice@x.com", "555-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "a1" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestUpdateProfile_BuildsPartialSet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	fullname := "Alice B"
	org := "Acme"
	want := &models.Account{ID: "a1", FullName: fullname, Organization: org}

	// Only fullname and organization provided: $1, $2 then id $3.
	q := `(?s)^UPDATE\s+accounts\s+SET\s+fullname\s*=\s*\$1,\s*organization\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$3\s+RETURNING\b`

	mock.ExpectQuery(q).
		WithArgs(fullname, org, "a1").
		WillReturnRows(accountRows(want))

	got, err := repo.UpdateProfile(context.Background(), "a1", &models.ProfilePatch{
		FullName:     &fullname,
		Organization: &org,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FullName != fullname {
		t.Fatalf("unexpected row: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateProfile_EmptyPatchReadsBack(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	want := &models.Account{ID: "a1", Email: "alice@x.com"}

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("a1").
		WillReturnRows(accountRows(want))

	got, err := repo.UpdateProfile(context.Background(), "a1", &models.ProfilePatch{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != "alice@x.com" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestUpdateProfile_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	email := "taken@x.com"
	mock.ExpectQuery(`(?s)^UPDATE\s+accounts\s+SET\b`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	_, err := repo.UpdateProfile(context.Background(), "a1", &models.ProfilePatch{Email: &email})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts\s+SET\s+password_hash\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs("a1", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePasswordHash(context.Background(), "a1", "newhash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(q).
		WithArgs("missing", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePasswordHash(context.Background(), "missing", "newhash")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSetRefreshToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts\s+SET\s+refresh_token\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs("a1", "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetRefreshToken(context.Background(), "a1", "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Clearing an unknown id is a no-op, not an error.
	mock.ExpectExec(q).
		WithArgs("missing", "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetRefreshToken(context.Background(), "missing", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReplaceRefreshToken_CAS(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts\s+SET\s+refresh_token\s*=\s*\$3,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+AND\s+refresh_token\s*=\s*\$2\s*$`

	mock.ExpectExec(q).
		WithArgs("a1", "old", "new").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ReplaceRefreshToken(context.Background(), "a1", "old", "new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Stale token: zero rows matched means the value was rotated away.
	mock.ExpectExec(q).
		WithArgs("a1", "stale", "new2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReplaceRefreshToken(context.Background(), "a1", "stale", "new2")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
