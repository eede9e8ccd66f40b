// Package blob stores uploaded project attachments.
package blob

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sintimjnr/gctu-project-submission-system/core"
)

const (
	DriverFS    = "fs"
	DriverMinio = "minio"
)

// Open returns the blob store selected by the configuration.
func Open(ctx context.Context, conf *core.Config) (core.BlobStore, error) {
	switch conf.Blob.Driver {
	case DriverFS, "":
		dir := conf.Blob.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(conf.WorkDir, dir)
		}
		return NewFSStore(dir)
	case DriverMinio:
		s, err := NewMinioStore(MinioConfig{
			Endpoint:  conf.Blob.Endpoint,
			AccessKey: conf.Blob.AccessKey,
			SecretKey: conf.Blob.SecretKey,
			Bucket:    conf.Blob.Bucket,
			UseSSL:    conf.Blob.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported blob driver %q", conf.Blob.Driver)
	}
}

// validName rejects names that would escape the store.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("invalid blob name %q", name)
	}
	return nil
}
