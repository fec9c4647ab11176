package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/framecraft/framecraft/internal/usecase"
	"github.com/redis/go-redis/v9"
)

const (
	keyAssetGeneration = "framecraft:assets:gen"
	keyAutoTagStatus   = "framecraft:autotag:status"
	keyPalettePrefix   = "framecraft:palette:"

	autoTagStatusTTL = time.Hour
	paletteTTL       = 7 * 24 * time.Hour
)

// Redis implements usecase.Cache. Asset snapshots are keyed by a
// generation counter so one INCR drops every cached query at once.
type Redis struct {
	client      *redis.Client
	snapshotTTL time.Duration
}

func New(client *redis.Client, snapshotTTL time.Duration) *Redis {
	return &Redis{client: client, snapshotTTL: snapshotTTL}
}

func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

func (r *Redis) generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, keyAssetGeneration).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func snapshotKey(gen int64, query string) string {
	return "framecraft:assets:" + strconv.FormatInt(gen, 10) + ":" + query
}

// GetAssetSnapshot returns the snapshot for query under the current
// generation, along with that generation for a later SetAssetSnapshot.
func (r *Redis) GetAssetSnapshot(ctx context.Context, query string) ([]usecase.Asset, int64, bool, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	b, err := r.client.Get(ctx, snapshotKey(gen, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, err
	}
	var assets []usecase.Asset
	if err := json.Unmarshal(b, &assets); err != nil {
		return nil, gen, false, fmt.Errorf("decode asset snapshot: %w", err)
	}
	return assets, gen, true, nil
}

// SetAssetSnapshot stores assets under gen. A list fetched before an
// invalidation lands under the old generation and is never read back.
func (r *Redis) SetAssetSnapshot(ctx context.Context, gen int64, query string, assets []usecase.Asset) error {
	if r.snapshotTTL <= 0 {
		return nil
	}
	b, err := json.Marshal(assets)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, snapshotKey(gen, query), b, r.snapshotTTL).Err()
}

func (r *Redis) InvalidateAssets(ctx context.Context) error {
	return r.client.Incr(ctx, keyAssetGeneration).Err()
}

func (r *Redis) SaveAutoTagJobs(ctx context.Context, jobs []usecase.AutoTagJob) error {
	if len(jobs) == 0 {
		return nil
	}
	fields := make(map[string]any, len(jobs))
	for _, j := range usecase.LatestAutoTagJobs(jobs) {
		b, err := json.Marshal(j)
		if err != nil {
			return err
		}
		fields[j.AssetID] = b
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, keyAutoTagStatus, fields)
	pipe.Expire(ctx, keyAutoTagStatus, autoTagStatusTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) GetAutoTagJobs(ctx context.Context, ids []string) ([]usecase.AutoTagJob, error) {
	if len(ids) == 0 {
		return []usecase.AutoTagJob{}, nil
	}
	vals, err := r.client.HMGet(ctx, keyAutoTagStatus, ids...).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]usecase.AutoTagJob, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var j usecase.AutoTagJob
		if err := json.Unmarshal([]byte(s), &j); err != nil {
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (r *Redis) GetPalette(ctx context.Context, assetID string) ([]string, bool, error) {
	b, err := r.client.Get(ctx, keyPalettePrefix+assetID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var colors []string
	if err := json.Unmarshal(b, &colors); err != nil {
		return nil, false, fmt.Errorf("decode palette: %w", err)
	}
	return colors, true, nil
}

func (r *Redis) SetPalette(ctx context.Context, assetID string, colors []string) error {
	b, err := json.Marshal(colors)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPalettePrefix+assetID, b, paletteTTL).Err()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
