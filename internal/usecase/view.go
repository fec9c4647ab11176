package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SavedView is a named ViewState the console can reapply later.
type SavedView struct {
	ID        uuid.UUID
	Name      string
	State     ViewState
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListSavedViewsOption struct {
	Skip  int
	Limit int
	Name  string
}

func (u Usecase) ListSavedViews(ctx context.Context, opt ListSavedViewsOption) ([]SavedView, int, error) {
	return u.repo.ListSavedViews(ctx, opt)
}

func (u Usecase) GetSavedViewByID(ctx context.Context, id uuid.UUID) (SavedView, error) {
	return u.repo.GetSavedViewByID(ctx, id)
}

func (u Usecase) CreateSavedView(ctx context.Context, v SavedView) (SavedView, error) {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return SavedView{}, fmt.Errorf("%w: view name is required", ErrInvalidInput)
	}
	state, err := normalizeViewState(v.State)
	if err != nil {
		return SavedView{}, err
	}
	v.State = state
	return u.repo.CreateSavedView(ctx, v)
}

func (u Usecase) UpdateSavedView(ctx context.Context, v SavedView) (SavedView, error) {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return SavedView{}, fmt.Errorf("%w: view name is required", ErrInvalidInput)
	}
	state, err := normalizeViewState(v.State)
	if err != nil {
		return SavedView{}, err
	}
	if _, err := u.repo.GetSavedViewByID(ctx, v.ID); err != nil {
		return SavedView{}, err
	}
	v.State = state
	return u.repo.UpdateSavedView(ctx, v)
}

func (u Usecase) DeleteSavedView(ctx context.Context, id uuid.UUID) error {
	return u.repo.DeleteSavedView(ctx, id)
}

// ApplySavedView runs the asset view pipeline with the stored state.
func (u Usecase) ApplySavedView(ctx context.Context, id uuid.UUID) (AssetView, error) {
	v, err := u.repo.GetSavedViewByID(ctx, id)
	if err != nil {
		return AssetView{}, err
	}
	return u.GetAssetView(ctx, v.State)
}

// normalizeViewState rejects unknown modes and fills unset ones with their
// defaults so a stored view always reproduces the same result.
func normalizeViewState(v ViewState) (ViewState, error) {
	if err := v.Validate(); err != nil {
		return ViewState{}, err
	}
	d := DefaultViewState()
	if v.Lane == "" {
		v.Lane = d.Lane
	}
	if v.Sort == "" {
		v.Sort = d.Sort
	}
	if v.GroupBy == "" {
		v.GroupBy = d.GroupBy
	}
	v.Search = strings.TrimSpace(v.Search)
	return v, nil
}
