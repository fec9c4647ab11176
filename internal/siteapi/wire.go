package siteapi

import (
	"time"

	"github.com/framecraft/framecraft/internal/usecase"
)

// Asset is the asset document as the site API serializes it. Fields the API
// may omit are pointers or slices so ConvertToUsecase can fill defaults.
type Asset struct {
	ID               string         `json:"id"`
	OriginalPath     string         `json:"original_path"`
	OriginalFilename string         `json:"original_filename"`
	MimeType         string         `json:"mime_type"`
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	FocalX           *float64       `json:"focal_x"`
	FocalY           *float64       `json:"focal_y"`
	Rating           int            `json:"rating"`
	Starred          bool           `json:"starred"`
	UsageCount       int            `json:"usage_count"`
	LastUsedAt       *time.Time     `json:"last_used_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Tags             []AssetTag     `json:"tags"`
	Roles            []AssetRole    `json:"roles"`
	Variants         []AssetVariant `json:"variants"`
}

type AssetTag struct {
	Tag        string   `json:"tag"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type AssetRole struct {
	Role        string  `json:"role"`
	Scope       *string `json:"scope,omitempty"`
	IsPublished *bool   `json:"is_published,omitempty"`
}

type AssetVariant struct {
	Ratio   string `json:"ratio"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"`
	Path    string `json:"path"`
	Version int    `json:"version"`
}

type AutoTagJob struct {
	AssetID      string     `json:"asset_id"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

type TagTaxonomy struct {
	Tag        string     `json:"tag"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ApprovedAt *time.Time `json:"approved_at"`
}

const defaultFocal = 0.5

func (a Asset) ConvertToUsecase() usecase.Asset {
	out := usecase.Asset{
		ID:               a.ID,
		OriginalFilename: a.OriginalFilename,
		OriginalPath:     a.OriginalPath,
		MimeType:         a.MimeType,
		Width:            a.Width,
		Height:           a.Height,
		FocalX:           defaultFocal,
		FocalY:           defaultFocal,
		Rating:           a.Rating,
		Starred:          a.Starred,
		UsageCount:       a.UsageCount,
		LastUsedAt:       a.LastUsedAt,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
		Tags:             make([]usecase.AssetTag, 0, len(a.Tags)),
		Roles:            make([]usecase.AssetRole, 0, len(a.Roles)),
		Variants:         make([]usecase.AssetVariant, 0, len(a.Variants)),
	}
	if a.FocalX != nil {
		out.FocalX = *a.FocalX
	}
	if a.FocalY != nil {
		out.FocalY = *a.FocalY
	}
	for _, t := range a.Tags {
		out.Tags = append(out.Tags, usecase.AssetTag{
			Tag:        t.Tag,
			Source:     t.Source,
			Confidence: t.Confidence,
		})
	}
	for _, r := range a.Roles {
		out.Roles = append(out.Roles, usecase.AssetRole{
			Role:        r.Role,
			Scope:       r.Scope,
			IsPublished: r.IsPublished != nil && *r.IsPublished,
		})
	}
	for _, v := range a.Variants {
		out.Variants = append(out.Variants, usecase.AssetVariant(v))
	}
	return out
}

func (j AutoTagJob) ConvertToUsecase() usecase.AutoTagJob {
	out := usecase.AutoTagJob{
		AssetID:     j.AssetID,
		Status:      j.Status,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
	if j.ErrorMessage != nil {
		out.ErrorMessage = *j.ErrorMessage
	}
	return out
}

func (t TagTaxonomy) ConvertToUsecase() usecase.TagTaxonomy {
	return usecase.TagTaxonomy(t)
}
