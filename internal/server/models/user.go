// Package models holds the identity server's persistent records.
package models

import "time"

type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          string
	EmailVerified bool
	CreatedAt     time.Time
}

// VerificationToken is a single-use email verification token.
type VerificationToken struct {
	Token   string
	UserID  string
	Expires time.Time
}
