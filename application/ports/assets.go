package ports

import (
	"context"
	"errors"
)

// ErrAssetStorageDisabled is returned by the default AssetStorage when no
// upstream asset host is configured.
var ErrAssetStorageDisabled = errors.New("asset storage is not configured")

// AssetStorage uploads user-supplied images to an external asset host and
// returns the public URL. The host itself is an external collaborator; only
// this contract is part of the backend.
type AssetStorage interface {
	// Upload stores inline image data (a data: URI payload) under the given
	// folder and returns the hosted URL.
	Upload(ctx context.Context, data string, folder string) (string, error)
}
