// Package session provides the SessionManager: one coherent view of "the
// current session" over the durable session store and the preference store.
//
// Precedence: the durable store is authoritative whenever it holds a row.
// The preference pointer is consulted only when the durable store is empty,
// and it never stands on its own; it must be joined against the identity
// source to yield a user.
package session

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/client/connectivity"
	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/client/repositories/preferences"
	"github.com/dmitrijs2005/authkeeper/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"go.uber.org/multierr"
)

// Messages carried by the errors this package returns.
const (
	MsgEmailNotVerified = "email not verified"
	MsgNoLocalSession   = "no local session"
)

// UserSource resolves the identity currently known to the identity provider
// on this device. It may return (nil, nil).
type UserSource interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

type Manager struct {
	sessions sessions.Repository
	prefs    preferences.Repository
	source   UserSource
	oracle   connectivity.Oracle
	logger   logging.Logger
}

// NewManager wires a Manager. source may be nil, in which case the
// preference pointer can never be resolved on its own.
func NewManager(s sessions.Repository, p preferences.Repository, source UserSource, oracle connectivity.Oracle, logger logging.Logger) *Manager {
	return &Manager{
		sessions: s,
		prefs:    p,
		source:   source,
		oracle:   oracle,
		logger:   logger.With("module", "session"),
	}
}

// SaveSession materializes user as the active session. It is the single
// write-path gate for the verified-only rule. The durable store is written
// first; the preference pointer only when remember is set.
func (m *Manager) SaveSession(ctx context.Context, user *models.User, remember bool) error {
	if user == nil || user.UID == "" {
		return common.NewError(common.ErrValidation, "session user must have a uid")
	}
	if !user.EmailVerified {
		return common.NewError(common.ErrVerification, MsgEmailNotVerified)
	}

	if err := m.sessions.Replace(ctx, user); err != nil {
		return common.WrapError(common.ErrStorage, "saving session", err)
	}
	if !remember {
		return nil
	}
	if err := m.prefs.Set(ctx, preferences.SessionPointerKey, user.UID); err != nil {
		return common.WrapError(common.ErrStorage, "saving session pointer", err)
	}

	m.logger.Debug(ctx, "session saved", "uid", user.UID, "remember", remember)
	return nil
}

// ClearSession removes the pointer and the durable session. Both deletes are
// attempted even if the first fails.
func (m *Manager) ClearSession(ctx context.Context) error {
	var err error
	err = multierr.Append(err, m.prefs.Delete(ctx, preferences.SessionPointerKey))
	err = multierr.Append(err, m.sessions.Clear(ctx))
	if err != nil {
		return common.WrapError(common.ErrStorage, "clearing session", err)
	}
	return nil
}

// GetCurrentUser returns the current session's user, or (nil, nil) when
// there is none. Only storage failures are errors.
func (m *Manager) GetCurrentUser(ctx context.Context) (*models.User, error) {
	return m.resolve(ctx)
}

// TryLocalSignIn resolves the session like GetCurrentUser but is meant for
// callers that intend to authenticate: an unresolvable session is an error.
//
// While offline the persisted verification flag is trusted as stored; the
// caller decides what an unverified result means. While online an
// unverified local user is rejected here.
func (m *Manager) TryLocalSignIn(ctx context.Context) (*models.User, error) {
	user, err := m.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.NewError(common.ErrNetwork, MsgNoLocalSession)
	}
	if !user.EmailVerified && m.oracle.IsConnected() {
		return nil, common.NewError(common.ErrVerification, MsgEmailNotVerified)
	}
	return user, nil
}

func (m *Manager) resolve(ctx context.Context) (*models.User, error) {
	user, err := m.sessions.Get(ctx)
	if err != nil {
		return nil, common.WrapError(common.ErrStorage, "reading session", err)
	}
	if user != nil {
		return user, nil
	}

	uid, ok, err := m.prefs.Get(ctx, preferences.SessionPointerKey)
	if err != nil {
		return nil, common.WrapError(common.ErrStorage, "reading session pointer", err)
	}
	if !ok || uid == "" || m.source == nil {
		return nil, nil
	}

	current, err := m.source.CurrentUser(ctx)
	if err != nil {
		m.logger.Warn(ctx, "session pointer could not be resolved", "uid", uid, "error", err)
		return nil, nil
	}
	if current == nil || current.UID != uid {
		return nil, nil
	}
	return current.Clone(), nil
}
