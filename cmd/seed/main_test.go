package main

import (
	"io"
	"testing"
)

func TestParseSeedFlags(t *testing.T) {
	opts, err := parseSeedFlags([]string{
		"-fullname", "Root Admin",
		"-email", "admin@example.com",
		"-phone", "+100000000",
		"-org", "HQ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.FullName != "Root Admin" || opts.Email != "admin@example.com" {
		t.Errorf("unexpected opts: %+v", opts)
	}
	if opts.Organization != "HQ" {
		t.Errorf("unexpected org: %s", opts.Organization)
	}
}

func TestParseSeedFlags_MissingRequired(t *testing.T) {
	if _, err := parseSeedFlags([]string{"-email", "admin@example.com"}); err == nil {
		t.Error("expected error for missing fields")
	}
}

func TestParseSeedFlags_IgnoresForeignFlags(t *testing.T) {
	opts, err := parseSeedFlags([]string{
		"-d", "postgres://somewhere/db",
		"-fullname", "Root Admin",
		"-email", "admin@example.com",
		"-phone", "+100000000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.FullName != "Root Admin" {
		t.Errorf("unexpected opts: %+v", opts)
	}
}

func TestPromptPassword(t *testing.T) {
	orig := readPassword
	defer func() { readPassword = orig }()

	t.Run("match", func(t *testing.T) {
		readPassword = func() ([]byte, error) { return []byte("s3cret"), nil }
		pw, err := promptPassword(io.Discard)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pw != "s3cret" {
			t.Errorf("unexpected password: %s", pw)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		answers := [][]byte{[]byte("one"), []byte("two")}
		readPassword = func() ([]byte, error) {
			next := answers[0]
			answers = answers[1:]
			return next, nil
		}
		if _, err := promptPassword(io.Discard); err == nil {
			t.Error("expected error for mismatched passwords")
		}
	})

	t.Run("empty", func(t *testing.T) {
		readPassword = func() ([]byte, error) { return nil, nil }
		if _, err := promptPassword(io.Discard); err == nil {
			t.Error("expected error for empty password")
		}
	})
}
