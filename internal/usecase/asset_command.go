package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ListAssets returns the site's asset list for v, served from the snapshot
// cache when a fresh copy exists.
func (u Usecase) ListAssets(ctx context.Context, v ViewState) ([]Asset, error) {
	query := v.Query()
	key := query.Encode()

	cached, gen, hit, err := u.cache.GetAssetSnapshot(ctx, key)
	if err != nil {
		u.logger().WarnContext(ctx, "asset snapshot read failed", slog.String("err", err.Error()))
	} else if hit {
		return cached, nil
	}
	store := err == nil

	assets, err := u.site.ListAssets(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	if store {
		if err := u.cache.SetAssetSnapshot(ctx, gen, key, assets); err != nil {
			u.logger().WarnContext(ctx, "asset snapshot write failed", slog.String("err", err.Error()))
		}
	}
	return assets, nil
}

// GetAssetView fetches the library and runs the view pipeline over it.
func (u Usecase) GetAssetView(ctx context.Context, v ViewState) (AssetView, error) {
	assets, err := u.ListAssets(ctx, v)
	if err != nil {
		return AssetView{}, err
	}
	return BuildAssetView(assets, v), nil
}

func (u Usecase) GetAsset(ctx context.Context, id string) (Asset, error) {
	return u.site.GetAsset(ctx, id)
}

// ParseTagList splits comma separated tag input, dropping blanks and
// repeats.
func ParseTagList(raw string) []string {
	var (
		tags []string
		seen = make(map[string]bool)
	)
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

func manualTags(tags []string) []AssetTagInput {
	in := make([]AssetTagInput, 0, len(tags))
	for _, t := range tags {
		in = append(in, AssetTagInput{Tag: t, Source: TAG_SOURCE_MANUAL})
	}
	return in
}

func (u Usecase) AddAssetTags(ctx context.Context, id string, tags []string) (Asset, error) {
	if len(tags) == 0 {
		return Asset{}, fmt.Errorf("%w: no tags given", ErrInvalidInput)
	}
	a, err := u.site.AddAssetTags(ctx, id, manualTags(tags))
	if err != nil {
		return Asset{}, err
	}
	u.invalidateAssets(ctx)
	return a, nil
}

func (u Usecase) RemoveAssetTag(ctx context.Context, id, tag, source string) error {
	if err := u.site.RemoveAssetTag(ctx, id, tag, source); err != nil {
		return err
	}
	u.invalidateAssets(ctx)
	return nil
}

// BuildRolePayload turns role keys into the payload replacing a's roles.
// hero_main is always published; other roles keep their current flag.
func BuildRolePayload(a Asset, roles []string) []AssetRoleInput {
	in := make([]AssetRoleInput, 0, len(roles))
	for _, role := range roles {
		published := role == ROLE_HERO_MAIN || a.RolePublished(role)
		ri := AssetRoleInput{Role: role, IsPublished: &published}
		for _, r := range a.Roles {
			if r.Role == role {
				ri.Scope = r.Scope
				break
			}
		}
		in = append(in, ri)
	}
	return in
}

func roleKeys(a Asset) []string {
	keys := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		keys = append(keys, r.Role)
	}
	return keys
}

func (u Usecase) SetAssetRoles(ctx context.Context, id string, roles []AssetRoleInput) (Asset, error) {
	a, err := u.site.SetAssetRoles(ctx, id, roles)
	if err != nil {
		return Asset{}, err
	}
	u.invalidateAssets(ctx)
	return a, nil
}

// ToggleAssetRole adds role to the asset or removes it when present.
func (u Usecase) ToggleAssetRole(ctx context.Context, id, role string) (Asset, error) {
	a, err := u.site.GetAsset(ctx, id)
	if err != nil {
		return Asset{}, err
	}

	var next []string
	if a.HasRole(role) {
		for _, k := range roleKeys(a) {
			if k != role {
				next = append(next, k)
			}
		}
	} else {
		next = append(roleKeys(a), role)
	}

	return u.SetAssetRoles(ctx, id, BuildRolePayload(a, next))
}

// SetHeroMain gives the asset the hero_main role. The site API keeps a
// single hero across the library.
func (u Usecase) SetHeroMain(ctx context.Context, id string) (Asset, error) {
	a, err := u.site.GetAsset(ctx, id)
	if err != nil {
		return Asset{}, err
	}
	if a.HasRole(ROLE_HERO_MAIN) {
		return a, nil
	}
	return u.SetAssetRoles(ctx, id, BuildRolePayload(a, append(roleKeys(a), ROLE_HERO_MAIN)))
}

func (u Usecase) SetRolePublished(ctx context.Context, id, role string, published bool) (Asset, error) {
	a, err := u.site.SetRolePublished(ctx, id, role, published)
	if err != nil {
		return Asset{}, err
	}
	u.invalidateAssets(ctx)
	return a, nil
}

func (u Usecase) ToggleRolePublished(ctx context.Context, id, role string) (Asset, error) {
	a, err := u.site.GetAsset(ctx, id)
	if err != nil {
		return Asset{}, err
	}
	if !a.HasRole(role) {
		return Asset{}, fmt.Errorf("%w: asset %s has no role %q", ErrInvalidInput, id, role)
	}
	return u.SetRolePublished(ctx, id, role, !a.RolePublished(role))
}

// SetAssetRating changes the rating and keeps the star as it is.
func (u Usecase) SetAssetRating(ctx context.Context, id string, rating int) (Asset, error) {
	if rating < 0 || rating > 5 {
		return Asset{}, fmt.Errorf("%w: rating %d out of range", ErrInvalidInput, rating)
	}
	a, err := u.site.GetAsset(ctx, id)
	if err != nil {
		return Asset{}, err
	}
	return u.setRating(ctx, id, rating, a.Starred)
}

func (u Usecase) ToggleAssetStar(ctx context.Context, id string) (Asset, error) {
	a, err := u.site.GetAsset(ctx, id)
	if err != nil {
		return Asset{}, err
	}
	return u.setRating(ctx, id, a.Rating, !a.Starred)
}

func (u Usecase) setRating(ctx context.Context, id string, rating int, starred bool) (Asset, error) {
	a, err := u.site.SetAssetRating(ctx, id, rating, starred)
	if err != nil {
		return Asset{}, err
	}
	u.invalidateAssets(ctx)
	return a, nil
}

func (u Usecase) SetFocalPoint(ctx context.Context, id string, x, y float64) (Asset, error) {
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return Asset{}, fmt.Errorf("%w: focal point must be within [0,1]", ErrInvalidInput)
	}
	a, err := u.site.SetFocalPoint(ctx, id, x, y)
	if err != nil {
		return Asset{}, err
	}
	u.invalidateAssets(ctx)
	return a, nil
}

func (u Usecase) DeleteAsset(ctx context.Context, id string) error {
	if err := u.site.DeleteAsset(ctx, id); err != nil {
		return err
	}
	u.invalidateAssets(ctx)
	return nil
}

func (u Usecase) UploadAsset(ctx context.Context, up UploadAsset) (Asset, error) {
	if up.Filename == "" {
		return Asset{}, fmt.Errorf("%w: missing file name", ErrInvalidInput)
	}
	a, err := u.site.UploadAsset(ctx, up)
	if err != nil {
		return Asset{}, err
	}
	u.invalidateAssets(ctx)
	return a, nil
}

func (u Usecase) ListTagTaxonomy(ctx context.Context, status string) ([]TagTaxonomy, error) {
	return u.site.ListTagTaxonomy(ctx, status)
}

func (u Usecase) ApproveTag(ctx context.Context, tag string) (TagTaxonomy, error) {
	return u.site.UpdateTagTaxonomy(ctx, tag, TAXONOMY_STATUS_APPROVED)
}

func (u Usecase) invalidateAssets(ctx context.Context) {
	if err := u.cache.InvalidateAssets(ctx); err != nil {
		u.logger().WarnContext(ctx, "asset snapshot invalidation failed", slog.String("err", err.Error()))
	}
}
