// Package common contains shared constants, helpers and error kinds used across
// authkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultRole is assigned to identities that carry no explicit role.
const DefaultRole = "user"
