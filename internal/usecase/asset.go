package usecase

import (
	"io"
	"strconv"
	"time"
)

type Asset struct {
	ID               string
	OriginalFilename string
	OriginalPath     string
	MimeType         string
	Width            int
	Height           int
	FocalX           float64
	FocalY           float64
	Rating           int
	Starred          bool
	UsageCount       int
	Tags             []AssetTag
	Roles            []AssetRole
	Variants         []AssetVariant
	LastUsedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type AssetTag struct {
	Tag        string
	Source     string
	Confidence *float64
}

type AssetRole struct {
	Role        string
	Scope       *string
	IsPublished bool
}

// AssetVariant is a rendition produced by the site's image pipeline.
type AssetVariant struct {
	Ratio   string
	Width   int
	Height  int
	Format  string
	Path    string
	Version int
}

// AssetRoleInput is the role payload accepted by the site API. A nil
// IsPublished leaves the decision to the API.
type AssetRoleInput struct {
	Role        string
	Scope       *string
	IsPublished *bool
}

type AssetTagInput struct {
	Tag        string
	Source     string
	Confidence *float64
}

type UploadAsset struct {
	Filename            string
	ContentType         string
	Body                io.Reader
	GenerateDerivatives bool
	Tags                string
}

type TagTaxonomy struct {
	Tag        string
	Status     string
	CreatedAt  time.Time
	ApprovedAt *time.Time
}

const (
	TAG_SOURCE_MANUAL = "manual"

	TAXONOMY_STATUS_PENDING  = "pending"
	TAXONOMY_STATUS_APPROVED = "approved"

	ROLE_HERO_MAIN = "hero_main"
	ROLE_LOGO      = "logo"
	ROLE_GALLERY   = "gallery"
	ROLE_SHOWCASE  = "showcase"
	ROLE_SOCIAL    = "social"
)

type RoleOption struct {
	Key         string
	Label       string
	Description string
}

// BuiltinRoles are the roles the public site knows how to place.
var BuiltinRoles = []RoleOption{
	{Key: ROLE_LOGO, Label: "Logo", Description: "Use as a logo image."},
	{Key: ROLE_HERO_MAIN, Label: "Hero main", Description: "Main image for the site."},
	{Key: ROLE_GALLERY, Label: "Gallery", Description: "Add this image to a gallery as example work."},
	{Key: ROLE_SHOWCASE, Label: "Showcase", Description: "Showcase this image on a service or other page."},
	{Key: ROLE_SOCIAL, Label: "Social", Description: "Use this image for blogs and other social media posts."},
}

// PublishableRoles carry an independent published flag in the console.
var PublishableRoles = map[string]bool{
	ROLE_LOGO:      true,
	ROLE_SHOWCASE:  true,
	ROLE_HERO_MAIN: true,
}

func RoleLabel(key string) string {
	for _, o := range BuiltinRoles {
		if o.Key == key {
			return o.Label
		}
	}
	return key
}

func (a Asset) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

func (a Asset) RolePublished(role string) bool {
	for _, r := range a.Roles {
		if r.Role == role {
			return r.IsPublished
		}
	}
	return false
}

// RatioLabel reduces width:height by their greatest common divisor.
func RatioLabel(width, height int) string {
	factor := gcd(width, height)
	if factor == 0 {
		factor = 1
	}
	return strconv.Itoa(width/factor) + ":" + strconv.Itoa(height/factor)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}
