package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/identityrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const defaultCallTimeout = 10 * time.Second

type invoker interface {
	Invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// GRPCClient implements Provider over the identity gRPC service. It keeps
// the access token and the last signed-in user in memory only.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	rpc         invoker
	callTimeout time.Duration

	mu          sync.RWMutex
	accessToken string
	user        *models.User
}

var _ Provider = (*GRPCClient)(nil)

// NewGRPCClient prepares a client for endpointURL. No connection is made
// until the first call.
func NewGRPCClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, callTimeout: defaultCallTimeout}

	conn, err := grpc.NewClient(endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.rpc = identityrpc.NewClient(conn)
	return c, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := c.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *GRPCClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *GRPCClient) setSession(token string, user *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
	c.user = user
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	if _, ok := ctx.Deadline(); !ok && c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}
	resp, err := c.rpc.Invoke(ctx, method, req)
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (c *GRPCClient) authenticate(ctx context.Context, method, email, password string) (*models.User, error) {
	resp, err := c.invoke(ctx, method, identityrpc.Credentials(email, password))
	if err != nil {
		return nil, err
	}
	auth, err := identityrpc.AuthResponseFromStruct(resp)
	if err != nil {
		return nil, &Error{Err: ErrRemote, Message: "unexpected response from identity provider"}
	}

	user := fromWire(auth.User)
	c.setSession(auth.AccessToken, user)
	return user.Clone(), nil
}

func (c *GRPCClient) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	return c.authenticate(ctx, identityrpc.MethodSignIn, email, password)
}

func (c *GRPCClient) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	return c.authenticate(ctx, identityrpc.MethodSignUp, email, password)
}

func (c *GRPCClient) SendEmailVerification(ctx context.Context) error {
	if c.token() == "" {
		return &Error{Err: ErrUnauthorized, Message: "not signed in"}
	}
	_, err := c.invoke(ctx, identityrpc.MethodSendEmailVerification, identityrpc.Empty())
	return err
}

func (c *GRPCClient) VerifyEmail(ctx context.Context, token string) error {
	_, err := c.invoke(ctx, identityrpc.MethodVerifyEmail, identityrpc.Single(identityrpc.FieldToken, token))
	return err
}

// SignOut tells the server and forgets the in-memory session. The local
// state is dropped even when the call fails.
func (c *GRPCClient) SignOut(ctx context.Context) error {
	if c.token() == "" {
		c.setSession("", nil)
		return nil
	}
	_, err := c.invoke(ctx, identityrpc.MethodSignOut, identityrpc.Empty())
	c.setSession("", nil)
	return err
}

// CurrentUser returns the signed-in user, refreshed from the server when it
// is reachable. When the server cannot be reached the last known user is
// returned.
func (c *GRPCClient) CurrentUser(ctx context.Context) (*models.User, error) {
	c.mu.RLock()
	token, cached := c.accessToken, c.user
	c.mu.RUnlock()

	if cached == nil {
		return nil, nil
	}
	if token == "" {
		return cached.Clone(), nil
	}

	resp, err := c.invoke(ctx, identityrpc.MethodGetUser, identityrpc.Empty())
	switch {
	case errors.Is(err, ErrUnavailable):
		return cached.Clone(), nil
	case errors.Is(err, ErrUnauthorized):
		c.setSession("", nil)
		return nil, nil
	case err != nil:
		return nil, err
	}

	wire, err := identityrpc.UserFromStruct(identityrpc.Struct(resp, identityrpc.FieldUser))
	if err != nil {
		return nil, &Error{Err: ErrRemote, Message: "unexpected response from identity provider"}
	}
	user := fromWire(wire)
	c.setSession(token, user)
	return user.Clone(), nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.invoke(ctx, identityrpc.MethodPing, identityrpc.Empty())
	if err != nil {
		return err
	}
	if identityrpc.String(resp, identityrpc.FieldStatus) != identityrpc.StatusOK {
		return &Error{Err: ErrUnavailable, Message: ErrUnavailable.Error()}
	}
	return nil
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func fromWire(u identityrpc.User) *models.User {
	return models.NewUser(u.UID, u.Email, u.Role, u.EmailVerified)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return &Error{Err: ErrUnavailable, Message: ErrUnavailable.Error()}
		}
		return &Error{Err: ErrRemote, Message: err.Error()}
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return &Error{Err: ErrUnavailable, Message: ErrUnavailable.Error()}
	case codes.Unauthenticated, codes.PermissionDenied:
		return &Error{Err: ErrUnauthorized, Message: st.Message()}
	case codes.AlreadyExists:
		return &Error{Err: ErrAlreadyExists, Message: st.Message()}
	case codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition:
		return &Error{Err: ErrInvalidArgument, Message: st.Message()}
	default:
		return &Error{Err: ErrRemote, Message: st.Message()}
	}
}
