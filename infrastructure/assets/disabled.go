// Package assets provides the default AssetStorage implementation.
package assets

import (
	"context"

	"mentorconnect-backend/application/ports"
)

// DisabledStorage rejects every upload. Wired when no hosting provider is
// configured; profile photos must then arrive as already-hosted URLs.
type DisabledStorage struct{}

// NewDisabledStorage creates the rejecting implementation.
func NewDisabledStorage() *DisabledStorage {
	return &DisabledStorage{}
}

// Upload always fails with ErrAssetStorageDisabled.
func (s *DisabledStorage) Upload(ctx context.Context, data, folder string) (string, error) {
	return "", ports.ErrAssetStorageDisabled
}
