package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/framecraft/framecraft/internal/config"
	"github.com/framecraft/framecraft/internal/usecase"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewMinIOStorage(bucket, tempPath, endpoint, accessKeyID, secretAccessKey string, secure bool) (*MinIOStorage, error) {
	m, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	return &MinIOStorage{
		client:   m,
		bucket:   bucket,
		tempPath: tempPath,
	}, nil
}

type MinIOStorage struct {
	client   *minio.Client
	bucket   string
	tempPath string
}

func (f *MinIOStorage) key(name string) string {
	return path.Join(f.tempPath, name)
}

func (f *MinIOStorage) GetTempUploadURL(ctx context.Context, name string) (string, error) {
	u, err := f.client.PresignedPutObject(ctx, f.bucket, f.key(name), time.Minute*config.PRESIGN_URL_EXPIRE_MINUTES)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// OpenTempFile stats the staged object first so a missing upload surfaces
// as usecase.ErrNotFound instead of failing mid-stream.
func (f *MinIOStorage) OpenTempFile(ctx context.Context, name string) (io.ReadCloser, error) {
	if _, err := f.client.StatObject(ctx, f.bucket, f.key(name), minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("staged file %s: %w", name, usecase.ErrNotFound)
		}
		return nil, err
	}
	obj, err := f.client.GetObject(ctx, f.bucket, f.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (f *MinIOStorage) RemoveTempFile(ctx context.Context, name string) error {
	err := f.client.RemoveObject(ctx, f.bucket, f.key(name), minio.RemoveObjectOptions{})
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
		return nil
	}
	return err
}
