package identityrpc

import (
	"errors"

	"google.golang.org/protobuf/types/known/structpb"
)

// Payload field names.
const (
	FieldEmail         = "email"
	FieldPassword      = "password"
	FieldUID           = "uid"
	FieldRole          = "role"
	FieldEmailVerified = "email_verified"
	FieldUser          = "user"
	FieldAccessToken   = "access_token"
	FieldToken         = "token"
	FieldStatus        = "status"
)

// StatusOK is the Ping status of a healthy server.
const StatusOK = "OK"

var ErrMalformedPayload = errors.New("malformed payload")

// User is the wire form of an identity.
type User struct {
	UID           string
	Email         string
	Role          string
	EmailVerified bool
}

func (u User) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldUID:           structpb.NewStringValue(u.UID),
		FieldEmail:         structpb.NewStringValue(u.Email),
		FieldRole:          structpb.NewStringValue(u.Role),
		FieldEmailVerified: structpb.NewBoolValue(u.EmailVerified),
	}}
}

// UserFromStruct reads a User; a missing uid is malformed.
func UserFromStruct(s *structpb.Struct) (User, error) {
	u := User{
		UID:           String(s, FieldUID),
		Email:         String(s, FieldEmail),
		Role:          String(s, FieldRole),
		EmailVerified: Bool(s, FieldEmailVerified),
	}
	if u.UID == "" {
		return User{}, ErrMalformedPayload
	}
	return u, nil
}

// Credentials builds a SignIn / SignUp request.
func Credentials(email, password string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldEmail:    structpb.NewStringValue(email),
		FieldPassword: structpb.NewStringValue(password),
	}}
}

// AuthResponse is the SignIn / SignUp response.
type AuthResponse struct {
	User        User
	AccessToken string
}

func (r AuthResponse) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldUser:        structpb.NewStructValue(r.User.Struct()),
		FieldAccessToken: structpb.NewStringValue(r.AccessToken),
	}}
}

func AuthResponseFromStruct(s *structpb.Struct) (AuthResponse, error) {
	u, err := UserFromStruct(Struct(s, FieldUser))
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{User: u, AccessToken: String(s, FieldAccessToken)}, nil
}

// UserResponse wraps a User under the "user" field (GetUser).
func UserResponse(u User) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldUser: structpb.NewStructValue(u.Struct()),
	}}
}

// Single builds a struct with one string field.
func Single(key, value string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		key: structpb.NewStringValue(value),
	}}
}

// Empty returns an empty payload.
func Empty() *structpb.Struct {
	return &structpb.Struct{}
}

// String returns the string field key of s, or "" if absent or not a string.
func String(s *structpb.Struct, key string) string {
	v := s.GetFields()[key]
	if v == nil {
		return ""
	}
	return v.GetStringValue()
}

// Bool returns the bool field key of s, or false.
func Bool(s *structpb.Struct, key string) bool {
	v := s.GetFields()[key]
	if v == nil {
		return false
	}
	return v.GetBoolValue()
}

// Struct returns the nested struct field key of s, or nil.
func Struct(s *structpb.Struct, key string) *structpb.Struct {
	v := s.GetFields()[key]
	if v == nil {
		return nil
	}
	return v.GetStructValue()
}
