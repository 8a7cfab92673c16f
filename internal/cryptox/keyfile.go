package cryptox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// keyFileSize is salt followed by the random device secret.
const keyFileSize = SaltSize + KeySize

// LoadOrCreateDeviceKey returns the vault key for this device. The key file
// holds a random salt and secret; the key is derived from them with
// DeriveKey. A missing file is created with mode 0600.
func LoadOrCreateDeviceKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data = common.GenerateRandByteArray(keyFileSize)
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return nil, fmt.Errorf("write key file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	if len(data) != keyFileSize {
		return nil, fmt.Errorf("key file %s: unexpected size %d", path, len(data))
	}

	salt, secret := data[:SaltSize], data[SaltSize:]
	return DeriveKey(secret, salt), nil
}
