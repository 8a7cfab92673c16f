// Package identity is the client side of the remote identity provider: the
// Provider contract the sign-in engine depends on and its gRPC
// implementation.
package identity

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/client/models"
)

// Failure classes reported by a Provider. Match them with errors.Is.
var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRemote          = errors.New("identity provider error")
)

// Error is a failure reported by the identity provider. Message is the
// provider's own text and is meant to be shown to the user as is.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// Provider is the remote identity service.
//
// SignIn and SignUp make the returned user the provider's current user.
// CurrentUser returns (nil, nil) when nobody is signed in on this device.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SendEmailVerification(ctx context.Context) error
	VerifyEmail(ctx context.Context, token string) error
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	Ping(ctx context.Context) error
	Close() error
}
