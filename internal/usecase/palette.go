package usecase

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/cenkalti/dominantcolor"
	"github.com/framecraft/framecraft/internal/config"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// AssetPalette returns the dominant colors of an asset thumbnail as hex
// strings, computing and caching them on a miss.
func (u Usecase) AssetPalette(ctx context.Context, id string) ([]string, error) {
	if colors, ok, err := u.cache.GetPalette(ctx, id); err != nil {
		u.logger().WarnContext(ctx, "palette cache read failed", slog.String("asset_id", id), slog.String("err", err.Error()))
	} else if ok {
		return colors, nil
	}

	colors, err := u.computePalette(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := u.cache.SetPalette(ctx, id, colors); err != nil {
		u.logger().WarnContext(ctx, "palette cache write failed", slog.String("asset_id", id), slog.String("err", err.Error()))
	}
	return colors, nil
}

func (u Usecase) computePalette(ctx context.Context, id string) ([]string, error) {
	rc, err := u.site.AssetThumbnail(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail %s: %w", id, err)
	}

	found := dominantcolor.FindN(img, config.PALETTE_SIZE)
	colors := make([]string, 0, len(found))
	for _, c := range found {
		colors = append(colors, dominantcolor.Hex(c))
	}
	return colors, nil
}

// SweepPalettes warms the palette cache for the newest assets. It returns
// how many palettes were computed.
func (u Usecase) SweepPalettes(ctx context.Context, limit int) (int, error) {
	assets, err := u.site.ListAssets(ctx, ViewState{Sort: SortNewest}.Query())
	if err != nil {
		return 0, fmt.Errorf("list assets: %w", err)
	}
	assets = SortAssets(assets, SortNewest)
	if limit > 0 && len(assets) > limit {
		assets = assets[:limit]
	}

	var n int
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if _, ok, _ := u.cache.GetPalette(ctx, a.ID); ok {
			continue
		}
		if _, err := u.AssetPalette(ctx, a.ID); err != nil {
			u.logger().WarnContext(ctx, "palette sweep skipped asset", slog.String("asset_id", a.ID), slog.String("err", err.Error()))
			continue
		}
		n++
	}
	return n, nil
}
