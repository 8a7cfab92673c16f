// Package services contains application services for the authkeeper client.
// This file defines the sign-in orchestrator: it decides, per request,
// whether to trust the identity provider, the locally cached session, or
// neither, and keeps the session stores and the credential vault in step.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/authkeeper/internal/client/identity"
	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"go.uber.org/multierr"
)

// User-facing messages of the sign-in outcomes.
const (
	MsgInvalidEmail       = "invalid email format"
	MsgNoInternet         = "no internet connection"
	MsgNoCachedCredential = "no internet and no valid cached credentials"
	MsgEmailNotVerified   = "email not verified"
)

// CredentialVault holds the last successfully used credentials.
type CredentialVault interface {
	Save(ctx context.Context, email, password string) error
	Get(ctx context.Context) (email, password string, err error)
	Clear(ctx context.Context) error
}

// SessionManager is the view of the current session the orchestrator needs.
type SessionManager interface {
	SaveSession(ctx context.Context, user *models.User, remember bool) error
	ClearSession(ctx context.Context) error
	GetCurrentUser(ctx context.Context) (*models.User, error)
	TryLocalSignIn(ctx context.Context) (*models.User, error)
}

// State is a sign-in progress step reported to the progress observer.
type State int

const (
	StateValidating State = iota
	StateResolvingLocal
	StateResolvingRemote
	StateLoading
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateResolvingLocal:
		return "resolving-local"
	case StateResolvingRemote:
		return "resolving-remote"
	case StateLoading:
		return "loading"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the single terminal result of an asynchronous sign-in.
// Exactly one of User and Err is set.
type Outcome struct {
	User *models.User
	Err  error
}

type Option func(*AuthService)

// WithProgress installs an observer for progress states. It is called
// synchronously from the sign-in goroutine and must not block.
func WithProgress(fn func(State)) Option {
	return func(s *AuthService) { s.progress = fn }
}

// AuthService orchestrates sign-in, sign-out and account flows.
type AuthService struct {
	provider identity.Provider
	sessions SessionManager
	vault    CredentialVault
	oracle   connectivity.Oracle
	logger   logging.Logger
	progress func(State)
}

func NewAuthService(provider identity.Provider, sessions SessionManager, vault CredentialVault,
	oracle connectivity.Oracle, logger logging.Logger, opts ...Option) *AuthService {
	s := &AuthService{
		provider: provider,
		sessions: sessions,
		vault:    vault,
		oracle:   oracle,
		logger:   logger.With("module", "auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) report(st State) {
	if s.progress != nil {
		s.progress(st)
	}
}

// SignInAsync runs SignIn on its own goroutine. The returned channel
// receives exactly one Outcome and is then closed.
func (s *AuthService) SignInAsync(ctx context.Context, email, password string) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		user, err := s.SignIn(ctx, email, password)
		out <- Outcome{User: user, Err: err}
	}()
	return out
}

// SignIn authenticates email/password and, on success, returns a verified
// user that is also the persisted current session.
//
// Errors are *common.Error values; their kind is one of ErrValidation,
// ErrNetwork, ErrVerification, ErrAuth, ErrStorage and ErrInternal.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (user *models.User, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "sign-in aborted by panic", "panic", r)
			user, err = nil, common.NewError(common.ErrInternal, fmt.Sprint(r))
		}
	}()

	s.report(StateValidating)
	if !common.ValidEmail(email) {
		return nil, common.NewError(common.ErrValidation, MsgInvalidEmail)
	}

	s.report(StateLoading)
	cachedEmail, cachedPassword, err := s.vault.Get(ctx)
	if err != nil {
		return nil, asKind(common.ErrStorage, "reading cached credentials", err)
	}
	// Equality only: the cached pair is neither re-hashed nor re-checked remotely.
	cacheMatches := cachedEmail != "" &&
		subtle.ConstantTimeCompare([]byte(cachedEmail), []byte(email)) == 1 &&
		subtle.ConstantTimeCompare([]byte(cachedPassword), []byte(password)) == 1

	online := s.oracle.IsConnected()
	switch {
	case !online && cacheMatches:
		s.report(StateResolvingLocal)
		return s.signInLocal(ctx)
	case !online:
		s.logger.Info(ctx, "offline sign-in refused", "reason", "no matching cached credentials")
		return nil, common.NewError(common.ErrNetwork, MsgNoCachedCredential)
	}

	s.report(StateResolvingRemote)
	return s.signInRemote(ctx, email, password)
}

func (s *AuthService) signInLocal(ctx context.Context) (*models.User, error) {
	user, err := s.sessions.TryLocalSignIn(ctx)
	switch {
	case errors.Is(err, common.ErrNetwork):
		return nil, common.NewError(common.ErrNetwork, MsgNoInternet)
	case errors.Is(err, common.ErrVerification):
		return nil, common.NewError(common.ErrVerification, MsgEmailNotVerified)
	case err != nil:
		return nil, asKind(common.ErrStorage, "resolving local session", err)
	case user == nil:
		return nil, common.NewError(common.ErrNetwork, MsgNoInternet)
	case !user.EmailVerified:
		return nil, common.NewError(common.ErrVerification, MsgEmailNotVerified)
	}

	if err := s.sessions.SaveSession(ctx, user, true); err != nil {
		return nil, asKind(common.ErrStorage, "saving session", err)
	}
	s.logger.Info(ctx, "signed in", "uid", user.UID, "path", "offline")
	return user, nil
}

func (s *AuthService) signInRemote(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Warn(ctx, "identity provider rejected sign-in", "error", err)
		return nil, common.WrapError(common.ErrAuth, "", err)
	}
	if user == nil {
		return nil, common.NewError(common.ErrAuth, "identity provider returned no user")
	}
	if !user.EmailVerified {
		return nil, common.NewError(common.ErrVerification, MsgEmailNotVerified)
	}

	if err := s.sessions.SaveSession(ctx, user, true); err != nil {
		return nil, asKind(common.ErrStorage, "saving session", err)
	}
	if err := s.vault.Save(ctx, email, password); err != nil {
		return nil, asKind(common.ErrStorage, "caching credentials", err)
	}
	s.logger.Info(ctx, "signed in", "uid", user.UID, "path", "online")
	return user, nil
}

// SignOut signs out at the provider (best effort), then clears the session
// and the credential vault. Local clearing is always attempted; failures
// are aggregated into one StorageError.
func (s *AuthService) SignOut(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = common.NewError(common.ErrInternal, fmt.Sprint(r))
		}
	}()

	if perr := s.provider.SignOut(ctx); perr != nil {
		s.logger.Warn(ctx, "provider sign-out failed", "error", perr)
	}

	var local error
	local = multierr.Append(local, s.sessions.ClearSession(ctx))
	local = multierr.Append(local, s.vault.Clear(ctx))
	if local != nil {
		return common.WrapError(common.ErrStorage, "signing out", local)
	}
	s.logger.Info(ctx, "signed out")
	return nil
}

// Register creates an account and asks the provider to send a verification
// mail. The new account cannot sign in until it is verified.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if !common.ValidEmail(email) {
		return nil, common.NewError(common.ErrValidation, MsgInvalidEmail)
	}
	if password == "" {
		return nil, common.NewError(common.ErrValidation, "password must not be empty")
	}
	if !s.oracle.IsConnected() {
		return nil, common.NewError(common.ErrNetwork, MsgNoInternet)
	}

	user, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, common.WrapError(common.ErrAuth, "", err)
	}
	if err := s.provider.SendEmailVerification(ctx); err != nil {
		return user, common.WrapError(common.ErrAuth, "account created, but the verification mail could not be sent", err)
	}
	s.logger.Info(ctx, "registered", "uid", user.UID)
	return user, nil
}

// ResendVerification asks the provider to send another verification mail
// to the provider's current user.
func (s *AuthService) ResendVerification(ctx context.Context) error {
	if !s.oracle.IsConnected() {
		return common.NewError(common.ErrNetwork, MsgNoInternet)
	}
	if err := s.provider.SendEmailVerification(ctx); err != nil {
		return common.WrapError(common.ErrAuth, "", err)
	}
	return nil
}

// VerifyEmail redeems a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return common.NewError(common.ErrValidation, "verification token must not be empty")
	}
	if !s.oracle.IsConnected() {
		return common.NewError(common.ErrNetwork, MsgNoInternet)
	}
	if err := s.provider.VerifyEmail(ctx, token); err != nil {
		return common.WrapError(common.ErrAuth, "", err)
	}
	return nil
}

// CurrentUser returns the current session's user or nil.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	return s.sessions.GetCurrentUser(ctx)
}

// Online reports the connectivity oracle's current answer.
func (s *AuthService) Online() bool {
	return s.oracle.IsConnected()
}

// asKind keeps err as is when it already carries a kind and tags it with
// kind otherwise.
func asKind(kind error, msg string, err error) error {
	if common.KindOf(err) != nil {
		return err
	}
	return common.WrapError(kind, msg, err)
}
