// Package cli provides the interactive authkeeper command-line client.
//
// It wires configuration, local storage, the identity provider client and
// the sign-in service, then runs a REPL. A background watcher keeps the
// online/offline status fresh; sign-in falls back to the cached session
// when the server cannot be reached.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
