package blob

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore keeps blobs as objects of a single bucket.
type MinioStore struct {
	mc     *minio.Client
	bucket string
}

var _ core.BlobStore = (*MinioStore)(nil)

func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access key and secret key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating minio client")
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "gctu-uploads"
	}
	return &MinioStore{mc: mc, bucket: bucket}, nil
}

func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, "checking bucket")
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return errors.Wrap(err, "creating bucket")
		}
	}
	return nil
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Save streams r to the bucket; the size is unknown so minio uploads in parts.
func (s *MinioStore) Save(ctx context.Context, name string, r io.Reader) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := s.mc.PutObject(ctx, s.bucket, name, r, -1, minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	return errors.Wrapf(err, "uploading %s", name)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (s *MinioStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	obj, err := s.mc.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "downloading %s", name)
	}
	// GetObject is lazy, Stat surfaces a missing key
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, core.ErrBlobNotFound
		}
		return nil, errors.Wrapf(err, "stat %s", name)
	}
	return obj, nil
}

func (s *MinioStore) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	return errors.Wrapf(s.mc.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}), "deleting %s", name)
}

func (s *MinioStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	if _, err := s.mc.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "stat %s", name)
	}
	return true, nil
}
