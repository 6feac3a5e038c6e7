// Command seed creates an initial administrator account. It is meant to be
// run once against a fresh database, before the server is exposed.
//
// Connection settings are taken from the same configuration sources as the
// server (.env, JSON file, flags). The password is read from the terminal
// without echo and must be entered twice.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/dmitrijs2005/accountd/internal/flagx"
	"github.com/dmitrijs2005/accountd/internal/server/config"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/password"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repomanager"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

type seedOptions struct {
	FullName     string
	Email        string
	Phone        string
	Organization string
}

func parseSeedFlags(args []string) (*seedOptions, error) {
	opts := &seedOptions{}

	filtered := flagx.FilterArgs(args, []string{"-fullname", "-email", "-phone", "-org"})

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.StringVar(&opts.FullName, "fullname", "", "administrator full name")
	fs.StringVar(&opts.Email, "email", "", "administrator email")
	fs.StringVar(&opts.Phone, "phone", "", "administrator phone")
	fs.StringVar(&opts.Organization, "org", "", "administrator organization")

	if err := fs.Parse(filtered); err != nil {
		return nil, err
	}

	if opts.FullName == "" || opts.Email == "" || opts.Phone == "" {
		return nil, errors.New("fullname, email and phone are required")
	}
	return opts, nil
}

// promptPassword reads the password twice without echo and makes sure both
// entries match and are not empty.
func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Enter password: ")
	first, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}

	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}

	return string(first), nil
}

func run(ctx context.Context, cfg *config.Config, opts *seedOptions, plaintext string) error {

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	hash, err := hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	acc, err := rm.Accounts(db).Create(ctx, &models.Account{
		FullName:     opts.FullName,
		Email:        opts.Email,
		Phone:        opts.Phone,
		Organization: opts.Organization,
		Role:         "admin",
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}

	fmt.Printf("created admin account %s (%s)\n", acc.ID, acc.Email)
	return nil
}

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	opts, err := parseSeedFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	plaintext, err := promptPassword(os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := run(context.Background(), cfg, opts, plaintext); err != nil {
		log.Fatalf("%v", err)
	}
}
