package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"time"

	"github.com/google/uuid"
)

// GetTempUploadURL returns a presigned PUT URL for staging a large upload
// and the staged name to commit later.
func (u Usecase) GetTempUploadURL(ctx context.Context, name string) (string, string, error) {
	if u.fileStorageProvider == nil {
		return "", "", fmt.Errorf("%w: file storage not configured", ErrUnavailable)
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == "" {
		return "", "", fmt.Errorf("%w: invalid file name %q", ErrInvalidInput, name)
	}
	staged := fmt.Sprintf("%s-%d/%s", uuid.NewString()[:8], time.Now().Unix(), base)
	url, err := u.fileStorageProvider.GetTempUploadURL(ctx, staged)
	if err != nil {
		return "", "", err
	}
	return url, staged, nil
}

// runImport streams every staged file to the site's upload endpoint one
// after the other, removing each staged copy once the site accepted it.
func (u Usecase) runImport(ctx context.Context, p ImportPayload) JobResult {
	var c collector
	for _, name := range p.Names {
		if err := ctx.Err(); err != nil {
			c.fail(name, err)
			continue
		}
		if err := u.importOne(ctx, name, p); err != nil {
			c.fail(name, err)
			continue
		}
		c.ok(name)
	}
	return c.result()
}

func (u Usecase) importOne(ctx context.Context, name string, p ImportPayload) error {
	if u.fileStorageProvider == nil {
		return fmt.Errorf("%w: file storage not configured", ErrUnavailable)
	}
	rc, err := u.fileStorageProvider.OpenTempFile(ctx, name)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := u.site.UploadAsset(ctx, UploadAsset{
		Filename:            path.Base(name),
		ContentType:         contentType,
		Body:                rc,
		GenerateDerivatives: p.GenerateDerivatives,
		Tags:                p.Tags,
	}); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	if err := u.fileStorageProvider.RemoveTempFile(ctx, name); err != nil {
		u.logger().WarnContext(ctx, "staged file not removed", slog.String("name", name), slog.String("err", err.Error()))
	}
	return nil
}
