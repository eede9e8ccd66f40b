package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
)

// FSStore keeps blobs as files of a single directory.
type FSStore struct {
	dir string
}

var _ core.BlobStore = (*FSStore)(nil)

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload directory")
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) path(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Save writes to a temporary file first so readers never see a partial blob.
func (s *FSStore) Save(ctx context.Context, name string, r io.Reader) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, readerWithContext(ctx, r)); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), p), "storing %s", name)
}

func (s *FSStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, core.ErrBlobNotFound
	}
	return f, errors.Wrapf(err, "opening %s", name)
}

func (s *FSStore) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %s", name)
	}
	return nil
}

func (s *FSStore) Exists(_ context.Context, name string) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, errors.Wrapf(err, "checking %s", name)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
