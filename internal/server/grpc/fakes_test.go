package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

const testSecret = "secret"

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakeIdentity struct {
	session *services.Session
	user    *models.User
	err     error

	gotEmail, gotPassword string
	gotUserID, gotToken   string
}

func (f *fakeIdentity) SignUp(_ context.Context, email, password string) (*services.Session, error) {
	f.gotEmail, f.gotPassword = email, password
	return f.session, f.err
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*services.Session, error) {
	f.gotEmail, f.gotPassword = email, password
	return f.session, f.err
}

func (f *fakeIdentity) GetUser(_ context.Context, userID string) (*models.User, error) {
	f.gotUserID = userID
	return f.user, f.err
}

func (f *fakeIdentity) SendEmailVerification(_ context.Context, userID string) error {
	f.gotUserID = userID
	return f.err
}

func (f *fakeIdentity) VerifyEmail(_ context.Context, token string) error {
	f.gotToken = token
	return f.err
}

func (f *fakeIdentity) UserIDFromToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, []byte(testSecret))
}

func newTestServer(id IdentityService) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", nopLogger{}, id)
}

func mustToken(userID string, validity time.Duration) string {
	tok, err := auth.GenerateToken(userID, []byte(testSecret), validity)
	if err != nil {
		panic(err)
	}
	return tok
}
