// Package models defines client-side data models of the sign-in engine.
package models

import "github.com/dmitrijs2005/authkeeper/internal/common"

// User is the identity record materialized as the active session.
//
// UID is the non-empty primary key. EmailVerified gates whether the record
// may become the active session.
type User struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// NewUser returns a User with the default role applied when role is empty.
func NewUser(uid, email, role string, verified bool) *User {
	if role == "" {
		role = common.DefaultRole
	}
	return &User{UID: uid, Email: email, Role: role, EmailVerified: verified}
}

// Clone returns a copy of u, or nil for a nil receiver.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
