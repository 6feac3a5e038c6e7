// Package models holds the server-side domain records.
package models

import "time"

// Account is one registered principal. RefreshToken mirrors the single
// currently live refresh token; an empty value means no active session.
type Account struct {
	ID           string
	FullName     string
	Email        string
	Phone        string
	Organization string
	Role         string
	PasswordHash string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized is the caller-facing view of an account. It never carries the
// password hash or the stored refresh token.
type Sanitized struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullname"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Organization string    `json:"organization,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sanitize strips credential material from the account.
func (a *Account) Sanitize() *Sanitized {
	return &Sanitized{
		ID:           a.ID,
		FullName:     a.FullName,
		Email:        a.Email,
		Phone:        a.Phone,
		Organization: a.Organization,
		Role:         a.Role,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// ProfilePatch is a partial update of the non-credential account fields.
// Nil means "leave unchanged". Password and refresh token cannot be
// expressed here by construction.
type ProfilePatch struct {
	FullName     *string
	Email        *string
	Phone        *string
	Organization *string
}

// IsEmpty reports whether the patch changes nothing.
func (p *ProfilePatch) IsEmpty() bool {
	return p.FullName == nil && p.Email == nil && p.Phone == nil && p.Organization == nil
}
