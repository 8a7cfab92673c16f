// Package vault implements the credential vault: a single encrypted slot
// holding the (email, password) pair of the last successful online sign-in.
//
// The pair is only a plausibility check for offline sign-in; it is not an
// identity. Both values are sealed with AES-256-GCM under the device key
// before they reach the database, each bound to its logical key name.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	vaultrepo "github.com/dmitrijs2005/authkeeper/internal/client/repositories/vault"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
)

const (
	emailKey    = "email"
	passwordKey = "password"
)

var errPartialSlot = errors.New("vault slot is partially written")

// Vault is safe for concurrent use; all operations are serialized.
type Vault struct {
	mu  sync.Mutex
	db  *sql.DB
	key []byte
}

// New returns a Vault storing into db and sealing with key, which must be
// cryptox.KeySize bytes long.
func New(db *sql.DB, key []byte) (*Vault, error) {
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("vault key must be %d bytes, got %d", cryptox.KeySize, len(key))
	}
	return &Vault{db: db, key: append([]byte(nil), key...)}, nil
}

// Save replaces the stored pair.
func (v *Vault) Save(ctx context.Context, email, password string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	sealedEmail, err := cryptox.Seal(v.key, []byte(email), []byte(emailKey))
	if err != nil {
		return common.WrapError(common.ErrStorage, "sealing cached email", err)
	}
	pw := []byte(password)
	sealedPassword, err := cryptox.Seal(v.key, pw, []byte(passwordKey))
	common.WipeByteArray(pw)
	if err != nil {
		return common.WrapError(common.ErrStorage, "sealing cached password", err)
	}

	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := vaultrepo.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, emailKey, sealedEmail); err != nil {
			return err
		}
		return repo.Set(ctx, passwordKey, sealedPassword)
	})
	if err != nil {
		return common.WrapError(common.ErrStorage, "saving cached credentials", err)
	}
	return nil
}

// Get returns the stored pair, or two empty strings when nothing is stored.
// Read and decryption failures are reported as storage errors, never as an
// empty pair.
func (v *Vault) Get(ctx context.Context) (string, string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	repo := vaultrepo.NewSQLiteRepository(v.db)

	sealedEmail, err := repo.Get(ctx, emailKey)
	if err != nil {
		return "", "", common.WrapError(common.ErrStorage, "reading cached credentials", err)
	}
	sealedPassword, err := repo.Get(ctx, passwordKey)
	if err != nil {
		return "", "", common.WrapError(common.ErrStorage, "reading cached credentials", err)
	}

	if sealedEmail == nil && sealedPassword == nil {
		return "", "", nil
	}
	if sealedEmail == nil || sealedPassword == nil {
		return "", "", common.WrapError(common.ErrStorage, "reading cached credentials", errPartialSlot)
	}

	email, err := cryptox.Open(v.key, sealedEmail, []byte(emailKey))
	if err != nil {
		return "", "", common.WrapError(common.ErrStorage, "decrypting cached email", err)
	}
	password, err := cryptox.Open(v.key, sealedPassword, []byte(passwordKey))
	if err != nil {
		return "", "", common.WrapError(common.ErrStorage, "decrypting cached password", err)
	}
	defer common.WipeByteArray(password)

	return string(email), string(password), nil
}

// Clear removes the stored pair.
func (v *Vault) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := vaultrepo.NewSQLiteRepository(v.db).Clear(ctx); err != nil {
		return common.WrapError(common.ErrStorage, "clearing cached credentials", err)
	}
	return nil
}
