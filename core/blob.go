package core

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

var ErrBlobNotFound = errors.New("file not found")

// BlobStore persists uploaded attachments by name.
type BlobStore interface {
	// Save stores the content of r under name, overwriting any existing blob.
	Save(ctx context.Context, name string, r io.Reader) error
	// Open returns a reader on the named blob; ErrBlobNotFound if absent.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes the named blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}
