// Package media abstracts the external object store that holds post images.
// The service never serves image bytes itself; posts carry stable URLs into
// the store and deletion happens by key.
package media

import (
	"context"
	"io"
)

// UploadResult identifies a stored object: the key used for later deletion
// and the public URL embedded into post records.
type UploadResult struct {
	Key string
	URL string
}

// Store is the media upload collaborator.
type Store interface {
	// Upload stores the blob and returns its key and public URL.
	Upload(ctx context.Context, body io.Reader, size int64, contentType, ext string) (UploadResult, error)

	// Delete removes a previously uploaded object by key.
	Delete(ctx context.Context, key string) error
}
