// Package verificationtokens declares and implements storage of single-use
// email verification tokens.
package verificationtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository issues, finds and revokes verification tokens.
type Repository interface {
	// Create stores token for userID, expiring at now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns the token row; a missing token is common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.VerificationToken, error)

	// DeleteByUser revokes every token of userID. Deleting nothing is not an error.
	DeleteByUser(ctx context.Context, userID string) error
}
