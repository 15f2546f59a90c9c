package results

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"sourcing_backend/platform/apperr"
	"sourcing_backend/platform/config"
)

// Storage archives batch reports in object storage.
type Storage struct {
	client *minio.Client
	bucket string
}

// NewStorage connects to the object store configured for report archiving.
func NewStorage(cfg config.StorageConfig) (*Storage, error) {
	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, "connect object storage", err)
	}
	return &Storage{client: client, bucket: cfg.GetMinioBucketReports()}, nil
}

// EnsureBucket creates the report bucket if it does not exist yet.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return apperr.Wrap(apperr.KindUnknown, "check report bucket", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return apperr.Wrap(apperr.KindUnknown, "create report bucket", err)
	}
	return nil
}

// UploadReport stores a report file under the batch's key and returns the
// object key.
func (s *Storage) UploadReport(ctx context.Context, batchID, path string) (string, error) {
	key := fmt.Sprintf("batches/%s/%s", batchID, filepath.Base(path))
	_, err := s.client.FPutObject(ctx, s.bucket, key, path, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, "upload report", err)
	}
	return key, nil
}
