// Package preferences implements the lightweight key/value preference store.
//
// Values are whole-value replaced; there is no field-level patching.
// The sign-in engine uses a single key, SessionPointerKey.
package preferences

import "context"

// SessionPointerKey names the uid of the remembered session.
const SessionPointerKey = "session_pointer"

type Repository interface {
	// Get returns the value and true, or "" and false when key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}
