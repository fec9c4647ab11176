package filestorage

import (
	"context"
	"fmt"

	"github.com/framecraft/framecraft/internal/config"
	"github.com/framecraft/framecraft/internal/usecase"
)

const (
	PROVIDER_MINIO = "minio"
	PROVIDER_S3    = "s3"
)

// FromEnv builds the staging provider named by STORAGE_PROVIDER. An unset
// provider disables staged uploads.
func FromEnv(ctx context.Context) (usecase.FileStorageProvider, error) {
	var (
		bucket   = config.String(config.ENV_KEY_STORAGE_BUCKET, "")
		tempPath = config.String(config.ENV_KEY_STORAGE_TEMP_PATH, "temp")
	)
	switch p := config.String(config.ENV_KEY_STORAGE_PROVIDER, ""); p {
	case "":
		return nil, nil
	case PROVIDER_MINIO:
		m, err := NewMinIOStorage(
			bucket,
			tempPath,
			config.String(config.ENV_KEY_MINIO_ENDPOINT, ""),
			config.String(config.ENV_KEY_MINIO_ACCESS_KEY, ""),
			config.String(config.ENV_KEY_MINIO_SECRET_KEY, ""),
			config.Bool(config.ENV_KEY_MINIO_USE_SSL, true),
		)
		if err != nil {
			return nil, err
		}
		return m, nil
	case PROVIDER_S3:
		s, err := New(ctx, bucket, tempPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", p)
	}
}
