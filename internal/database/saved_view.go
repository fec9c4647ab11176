package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/framecraft/framecraft/internal/usecase"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SavedView struct {
	ID        uuid.UUID       `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Name      string          `gorm:"column:name;type:varchar(255);NOT NULL;uniqueIndex:idx_saved_views_name,where:deleted_at IS NULL"`
	State     datatypes.JSON  `gorm:"column:state;NOT NULL"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
	DeletedAt *gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (SavedView) TableName() string {
	return "saved_views"
}

func (s *service) ListSavedViews(ctx context.Context, opt usecase.ListSavedViewsOption) ([]usecase.SavedView, int, error) {
	var (
		views  []SavedView
		uviews = []usecase.SavedView{}
		count  int64
	)

	db := s.db.Model([]SavedView{}).WithContext(ctx)

	if opt.Name != "" {
		db = db.Where("name ILIKE ?", "%"+opt.Name+"%")
	}

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if opt.Limit > 0 {
		db = db.Limit(opt.Limit)
	}
	if opt.Skip > 0 {
		db = db.Offset(opt.Skip)
	}

	if err := db.Order("name ASC").Find(&views).Error; err != nil {
		return nil, 0, err
	}

	for _, v := range views {
		uviews = append(uviews, v.ConvertToUsecase())
	}

	return uviews, int(count), nil
}

func (s *service) GetSavedViewByID(ctx context.Context, id uuid.UUID) (usecase.SavedView, error) {
	var v SavedView
	if err := s.db.
		WithContext(ctx).
		First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usecase.SavedView{}, fmt.Errorf("saved view %s: %w", id, usecase.ErrNotFound)
		}
		return usecase.SavedView{}, err
	}
	return v.ConvertToUsecase(), nil
}

func (s *service) CreateSavedView(ctx context.Context, view usecase.SavedView) (usecase.SavedView, error) {
	state, err := json.Marshal(view.State)
	if err != nil {
		return usecase.SavedView{}, err
	}
	v := SavedView{
		Name:  view.Name,
		State: datatypes.JSON(state),
	}
	if err := s.db.
		WithContext(ctx).
		Clauses(clause.Returning{}).
		Create(&v).Error; err != nil {
		return usecase.SavedView{}, savedViewWriteError(err, view.Name)
	}
	return v.ConvertToUsecase(), nil
}

func (s *service) UpdateSavedView(ctx context.Context, view usecase.SavedView) (usecase.SavedView, error) {
	state, err := json.Marshal(view.State)
	if err != nil {
		return usecase.SavedView{}, err
	}
	var v SavedView
	res := s.db.
		WithContext(ctx).
		Model(&v).
		Clauses(clause.Returning{}).
		Where("id = ?", view.ID).
		Updates(SavedView{
			Name:  view.Name,
			State: datatypes.JSON(state),
		})
	if res.Error != nil {
		return usecase.SavedView{}, savedViewWriteError(res.Error, view.Name)
	}
	if res.RowsAffected == 0 {
		return usecase.SavedView{}, fmt.Errorf("saved view %s: %w", view.ID, usecase.ErrNotFound)
	}
	return v.ConvertToUsecase(), nil
}

func savedViewWriteError(err error, name string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: view %q already exists", usecase.ErrInvalidInput, name)
	}
	return err
}

func (s *service) DeleteSavedView(ctx context.Context, id uuid.UUID) error {
	res := s.db.
		WithContext(ctx).
		Delete(&SavedView{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("saved view %s: %w", id, usecase.ErrNotFound)
	}
	return nil
}

// ConvertToUsecase decodes the stored state. A state that no longer
// decodes falls back to the default view.
func (v SavedView) ConvertToUsecase() usecase.SavedView {
	state := usecase.DefaultViewState()
	if len(v.State) > 0 {
		var decoded usecase.ViewState
		if err := json.Unmarshal(v.State, &decoded); err == nil {
			state = decoded
		}
	}
	return usecase.SavedView{
		ID:        v.ID,
		Name:      v.Name,
		State:     state,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}
