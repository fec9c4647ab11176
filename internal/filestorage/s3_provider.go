package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	consts "github.com/framecraft/framecraft/internal/config"
	"github.com/framecraft/framecraft/internal/usecase"
)

type FileStorage struct {
	client   *s3.Client
	bucket   string
	tempPath string
}

// New uses the default AWS credential chain.
func New(ctx context.Context, bucket string, tempPath string) (*FileStorage, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3: %w", err)
	}
	return &FileStorage{
		client:   s3.NewFromConfig(cfg),
		bucket:   bucket,
		tempPath: tempPath,
	}, nil
}

func (f *FileStorage) key(name string) string {
	return path.Join(f.tempPath, name)
}

func (f *FileStorage) GetTempUploadURL(ctx context.Context, name string) (string, error) {
	var (
		key           = f.key(name)
		presignClient = s3.NewPresignClient(f.client)
	)
	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &f.bucket,
		Key:    &key,
	}, func(po *s3.PresignOptions) {
		po.Expires = time.Minute * consts.PRESIGN_URL_EXPIRE_MINUTES
	})
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (f *FileStorage) OpenTempFile(ctx context.Context, name string) (io.ReadCloser, error) {
	key := f.key(name)
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &f.bucket,
		Key:    &key,
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("staged file %s: %w", name, usecase.ErrNotFound)
		}
		return nil, err
	}
	return out.Body, nil
}

func (f *FileStorage) RemoveTempFile(ctx context.Context, name string) error {
	key := f.key(name)
	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &f.bucket,
		Key:    &key,
	})
	return err
}
