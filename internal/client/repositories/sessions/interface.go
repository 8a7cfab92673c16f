// Package sessions implements the durable session store: a single-row table
// holding the last session materialized on this device.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/client/models"
)

type Repository interface {
	// Get returns the stored user, or (nil, nil) when the store is empty.
	Get(ctx context.Context) (*models.User, error)
	// Replace removes any stored row and writes user in its place.
	Replace(ctx context.Context, user *models.User) error
	// Clear removes all rows.
	Clear(ctx context.Context) error
}
