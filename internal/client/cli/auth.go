package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) promptCredentials() (string, string, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", "", err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

// Login prompts for credentials and signs in. Offline, only the credentials
// of the last successful online sign-in are accepted.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.promptCredentials()
	if err != nil {
		return err
	}

	user, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		a.report(err)
		return err
	}

	a.user = user
	fmt.Fprintf(a.out, "Signed in as %s\n", user.Email)
	return nil
}

// Logout signs out and clears the session and the cached credentials.
func (a *App) Logout(ctx context.Context) error {
	err := a.auth.SignOut(ctx)
	a.user = nil
	if err != nil {
		a.report(err)
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// Register prompts for credentials and creates an account. The account has
// to be verified before it can sign in.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.promptCredentials()
	if err != nil {
		return err
	}

	user, err := a.auth.Register(ctx, email, password)
	if err != nil {
		a.report(err)
		return err
	}
	fmt.Fprintf(a.out, "Account %s created. Check your mailbox and run 'verify <token>'.\n", user.Email)
	return nil
}

func (a *App) Verify(ctx context.Context, token string) error {
	if err := a.auth.VerifyEmail(ctx, token); err != nil {
		a.report(err)
		return err
	}
	fmt.Fprintln(a.out, "Email verified, you can log in now")
	return nil
}

func (a *App) Resend(ctx context.Context) error {
	if err := a.auth.ResendVerification(ctx); err != nil {
		a.report(err)
		return err
	}
	fmt.Fprintln(a.out, "Verification mail sent")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.auth.CurrentUser(ctx)
	if err != nil {
		a.report(err)
		return err
	}
	a.user = u
	if u == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (uid %s, role %s)\n", u.Email, u.UID, u.Role)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	mode := "offline"
	if a.auth.Online() {
		mode = "online"
	}
	fmt.Fprintf(a.out, "Server %s: %s\n", a.config.ServerEndpointAddr, mode)
	return a.WhoAmI(ctx)
}

// report prints err with a hint matching its kind.
func (a *App) report(err error) {
	fmt.Fprintln(a.out, describe(err))
}

func describe(err error) string {
	var e *common.Error
	msg := err.Error()
	if errors.As(err, &e) && e.Message != "" {
		msg = e.Message
	}

	switch common.KindOf(err) {
	case common.ErrValidation:
		return "Invalid input: " + msg
	case common.ErrNetwork:
		return "Offline: " + msg
	case common.ErrVerification:
		return "Not verified: " + msg + " (run 'verify <token>' or 'resend')"
	case common.ErrAuth:
		return "Rejected: " + msg
	case common.ErrStorage:
		return "Local storage failure: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
