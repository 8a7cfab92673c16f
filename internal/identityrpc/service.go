// Package identityrpc declares the identity gRPC service shared by the
// client and the server.
//
// The service is declared by hand on top of google.protobuf.Struct
// payloads, so no generated code is involved. The payload shapes are
// fixed by the helpers in payload.go.
package identityrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "authkeeper.identity.IdentityService"

// Method names.
const (
	MethodSignUp                = "SignUp"
	MethodSignIn                = "SignIn"
	MethodSignOut               = "SignOut"
	MethodGetUser               = "GetUser"
	MethodSendEmailVerification = "SendEmailVerification"
	MethodVerifyEmail           = "VerifyEmail"
	MethodPing                  = "Ping"
)

// FullMethod returns the gRPC full method name, e.g.
// "/authkeeper.identity.IdentityService/SignIn".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Server is implemented by the identity server.
type Server interface {
	SignUp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SignOut(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SendEmailVerification(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	VerifyEmail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type call func(srv Server, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unary(method string, fn call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(Server), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(Server), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the identity service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodSignUp, Server.SignUp),
		unary(MethodSignIn, Server.SignIn),
		unary(MethodSignOut, Server.SignOut),
		unary(MethodGetUser, Server.GetUser),
		unary(MethodSendEmailVerification, Server.SendEmailVerification),
		unary(MethodVerifyEmail, Server.VerifyEmail),
		unary(MethodPing, Server.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authkeeper/identity",
}

// RegisterServer registers srv on s.
func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client is a thin typed wrapper over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Invoke calls method with req and returns the response payload.
func (c *Client) Invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
