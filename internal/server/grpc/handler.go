package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/identityrpc"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func wireUser(u *models.User) identityrpc.User {
	return identityrpc.User{UID: u.ID, Email: u.Email, Role: u.Role, EmailVerified: u.EmailVerified}
}

func sessionResponse(sess *services.Session) *structpb.Struct {
	return identityrpc.AuthResponse{User: wireUser(sess.User), AccessToken: sess.AccessToken}.Struct()
}

// toStatus maps service errors to gRPC statuses. Unexpected errors are
// logged and reported as Internal without detail.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "email already registered")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrEmptyPassword),
		errors.Is(err, services.ErrInvalidVerificationToken):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCServer) SignUp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email := identityrpc.String(req, identityrpc.FieldEmail)

	sess, err := s.identity.SignUp(ctx, email, identityrpc.String(req, identityrpc.FieldPassword))
	if err != nil {
		return nil, s.toStatus(ctx, identityrpc.MethodSignUp, err)
	}

	s.logger.Info(ctx, "Registered", "uid", sess.User.ID)
	return sessionResponse(sess), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.identity.SignIn(ctx,
		identityrpc.String(req, identityrpc.FieldEmail),
		identityrpc.String(req, identityrpc.FieldPassword))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, services.MsgInvalidCredentials)
		}
		return nil, s.toStatus(ctx, identityrpc.MethodSignIn, err)
	}

	s.logger.Info(ctx, "Signed in", "uid", sess.User.ID, "verified", sess.User.EmailVerified)
	return sessionResponse(sess), nil
}

// SignOut acknowledges; access tokens are stateless and expire on their own.
func (s *GRPCServer) SignOut(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if uid, ok := userIDFromContext(ctx); ok {
		s.logger.Info(ctx, "Signed out", "uid", uid)
	}
	return identityrpc.Empty(), nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	u, err := s.identity.GetUser(ctx, uid)
	if err != nil {
		return nil, s.toStatus(ctx, identityrpc.MethodGetUser, err)
	}
	return identityrpc.UserResponse(wireUser(u)), nil
}

func (s *GRPCServer) SendEmailVerification(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	if err := s.identity.SendEmailVerification(ctx, uid); err != nil {
		return nil, s.toStatus(ctx, identityrpc.MethodSendEmailVerification, err)
	}
	return identityrpc.Empty(), nil
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.identity.VerifyEmail(ctx, identityrpc.String(req, identityrpc.FieldToken)); err != nil {
		return nil, s.toStatus(ctx, identityrpc.MethodVerifyEmail, err)
	}
	return identityrpc.Empty(), nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return identityrpc.Single(identityrpc.FieldStatus, identityrpc.StatusOK), nil
}
