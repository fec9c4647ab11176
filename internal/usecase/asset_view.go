package usecase

import (
	"cmp"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Lane string

const (
	LaneAll     Lane = "all"
	LaneInbox   Lane = "inbox"
	LaneReview  Lane = "review"
	LanePublish Lane = "publish"
)

type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
	OrientationSquare    Orientation = "square"
)

type SortMode string

const (
	SortNewest SortMode = "newest"
	SortOldest SortMode = "oldest"
	SortRating SortMode = "rating"
)

type GroupBy string

const (
	GroupNone   GroupBy = "none"
	GroupStatus GroupBy = "status"
	GroupRole   GroupBy = "role"
)

const UnassignedGroup = "Unassigned"

// ViewState is everything the asset library screen filters, sorts and
// groups by. It is plain data so it can be stored as a saved view.
type ViewState struct {
	Lane         Lane          `json:"lane"`
	Search       string        `json:"search,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Roles        []string      `json:"roles,omitempty"`
	Orientations []Orientation `json:"orientations,omitempty"`
	MinRating    *int          `json:"min_rating,omitempty"`
	StarredOnly  bool          `json:"starred_only,omitempty"`
	Sort         SortMode      `json:"sort"`
	GroupBy      GroupBy       `json:"group_by"`
}

// Validate reports modes the pipeline does not know. Empty modes are
// allowed and mean the default.
func (v ViewState) Validate() error {
	if v.Lane != "" && !slices.Contains([]Lane{LaneAll, LaneInbox, LaneReview, LanePublish}, v.Lane) {
		return fmt.Errorf("%w: unknown lane %q", ErrInvalidInput, v.Lane)
	}
	if v.Sort != "" && !slices.Contains([]SortMode{SortNewest, SortOldest, SortRating}, v.Sort) {
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidInput, v.Sort)
	}
	if v.GroupBy != "" && !slices.Contains([]GroupBy{GroupNone, GroupStatus, GroupRole}, v.GroupBy) {
		return fmt.Errorf("%w: unknown group_by %q", ErrInvalidInput, v.GroupBy)
	}
	for _, o := range v.Orientations {
		if !slices.Contains([]Orientation{OrientationLandscape, OrientationPortrait, OrientationSquare}, o) {
			return fmt.Errorf("%w: unknown orientation %q", ErrInvalidInput, o)
		}
	}
	if v.MinRating != nil && (*v.MinRating < 0 || *v.MinRating > 5) {
		return fmt.Errorf("%w: min_rating %d out of range", ErrInvalidInput, *v.MinRating)
	}
	return nil
}

// DefaultViewState is what the library opens with.
func DefaultViewState() ViewState {
	return ViewState{
		Lane:    LaneInbox,
		Sort:    SortNewest,
		GroupBy: GroupStatus,
	}
}

// Query returns the parameters forwarded to the site API's asset listing.
// Lane is never forwarded; the API has no notion of it.
func (v ViewState) Query() url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(v.Search); s != "" {
		q.Set("search", s)
	}
	for _, t := range v.Tags {
		q.Add("tags", t)
	}
	for _, r := range v.Roles {
		q.Add("roles", r)
	}
	for _, o := range v.Orientations {
		q.Add("orientations", string(o))
	}
	if v.MinRating != nil {
		q.Set("min_rating", strconv.Itoa(*v.MinRating))
	}
	if v.StarredOnly {
		q.Set("starred", "true")
	}
	if v.Sort != "" {
		q.Set("sort", string(v.Sort))
	}
	return q
}

type AssetGroup struct {
	Key    string
	Label  string
	Assets []Asset
}

type LaneCounts struct {
	All     int
	Inbox   int
	Review  int
	Publish int
}

type AssetView struct {
	State       ViewState
	Groups      []AssetGroup
	Total       int
	LaneCounts  LaneCounts
	Tags        []string
	RoleOptions []RoleOption
	HasHeroMain bool
}

// ClassifyLane derives the workflow lane from tag and role counts only.
// Any role puts an asset in publish, whatever its tags.
func ClassifyLane(a Asset) Lane {
	switch {
	case len(a.Roles) > 0:
		return LanePublish
	case len(a.Tags) > 0:
		return LaneReview
	default:
		return LaneInbox
	}
}

func OrientationOf(width, height int) Orientation {
	switch {
	case width == height:
		return OrientationSquare
	case width > height:
		return OrientationLandscape
	default:
		return OrientationPortrait
	}
}

// FilterAssets keeps the assets passing every active filter. Sets match
// when any member matches. The input slice is never modified.
func FilterAssets(assets []Asset, v ViewState) []Asset {
	var (
		term         = strings.ToLower(strings.TrimSpace(v.Search))
		tags         = setOf(v.Tags)
		roles        = setOf(v.Roles)
		orientations = setOf(v.Orientations)
		out          = make([]Asset, 0, len(assets))
	)

	for _, a := range assets {
		if v.Lane != "" && v.Lane != LaneAll && ClassifyLane(a) != v.Lane {
			continue
		}
		if term != "" && !matchesSearch(a, term) {
			continue
		}
		if len(tags) > 0 && !slices.ContainsFunc(a.Tags, func(t AssetTag) bool { return tags[t.Tag] }) {
			continue
		}
		if len(roles) > 0 && !slices.ContainsFunc(a.Roles, func(r AssetRole) bool { return roles[r.Role] }) {
			continue
		}
		if len(orientations) > 0 && !orientations[OrientationOf(a.Width, a.Height)] {
			continue
		}
		if v.MinRating != nil && a.Rating < *v.MinRating {
			continue
		}
		if v.StarredOnly && !a.Starred {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchesSearch(a Asset, term string) bool {
	if strings.Contains(strings.ToLower(a.OriginalFilename), term) {
		return true
	}
	for _, t := range a.Tags {
		if strings.Contains(strings.ToLower(t.Tag), term) {
			return true
		}
	}
	return false
}

// SortAssets returns a stably sorted copy. Unknown modes keep input order.
func SortAssets(assets []Asset, mode SortMode) []Asset {
	out := slices.Clone(assets)
	switch mode {
	case SortNewest:
		slices.SortStableFunc(out, func(a, b Asset) int { return b.CreatedAt.Compare(a.CreatedAt) })
	case SortOldest:
		slices.SortStableFunc(out, func(a, b Asset) int { return a.CreatedAt.Compare(b.CreatedAt) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b Asset) int { return cmp.Compare(b.Rating, a.Rating) })
	}
	if out == nil {
		out = []Asset{}
	}
	return out
}

// GroupAssets splits an already filtered and sorted list for display.
// Status groups are always present, even when empty.
func GroupAssets(assets []Asset, by GroupBy) []AssetGroup {
	switch by {
	case GroupStatus:
		groups := []AssetGroup{
			{Key: string(LaneInbox), Label: "Inbox", Assets: []Asset{}},
			{Key: string(LaneReview), Label: "Review", Assets: []Asset{}},
			{Key: string(LanePublish), Label: "Publish", Assets: []Asset{}},
		}
		for _, a := range assets {
			switch ClassifyLane(a) {
			case LaneInbox:
				groups[0].Assets = append(groups[0].Assets, a)
			case LaneReview:
				groups[1].Assets = append(groups[1].Assets, a)
			case LanePublish:
				groups[2].Assets = append(groups[2].Assets, a)
			}
		}
		return groups

	case GroupRole:
		byRole := make(map[string][]Asset)
		for _, a := range assets {
			key := UnassignedGroup
			if len(a.Roles) > 0 {
				key = a.Roles[0].Role
			}
			byRole[key] = append(byRole[key], a)
		}
		keys := make([]string, 0, len(byRole))
		for k := range byRole {
			keys = append(keys, k)
		}
		col := collate.New(language.English)
		slices.SortFunc(keys, func(a, b string) int {
			if c := col.CompareString(a, b); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})
		groups := make([]AssetGroup, 0, len(keys))
		for _, k := range keys {
			groups = append(groups, AssetGroup{Key: k, Label: k, Assets: byRole[k]})
		}
		return groups

	default:
		list := slices.Clone(assets)
		if list == nil {
			list = []Asset{}
		}
		return []AssetGroup{{Key: string(LaneAll), Label: "All", Assets: list}}
	}
}

// BuildAssetView runs the full pipeline over a snapshot of the library.
func BuildAssetView(assets []Asset, v ViewState) AssetView {
	sorted := SortAssets(FilterAssets(assets, v), v.Sort)
	return AssetView{
		State:       v,
		Groups:      GroupAssets(sorted, v.GroupBy),
		Total:       len(sorted),
		LaneCounts:  CountLanes(assets),
		Tags:        CollectTags(assets),
		RoleOptions: RoleOptions(assets),
		HasHeroMain: HasHeroMain(assets),
	}
}

func CountLanes(assets []Asset) LaneCounts {
	c := LaneCounts{All: len(assets)}
	for _, a := range assets {
		switch ClassifyLane(a) {
		case LaneInbox:
			c.Inbox++
		case LaneReview:
			c.Review++
		case LanePublish:
			c.Publish++
		}
	}
	return c
}

// CollectTags lists every distinct tag text, sorted.
func CollectTags(assets []Asset) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, a := range assets {
		for _, t := range a.Tags {
			if !seen[t.Tag] {
				seen[t.Tag] = true
				tags = append(tags, t.Tag)
			}
		}
	}
	slices.Sort(tags)
	return tags
}

// RoleOptions returns the built-in roles followed by any custom role
// found on the assets, in first-seen order.
func RoleOptions(assets []Asset) []RoleOption {
	opts := slices.Clone(BuiltinRoles)
	seen := make(map[string]bool, len(opts))
	for _, o := range opts {
		seen[o.Key] = true
	}
	for _, a := range assets {
		for _, r := range a.Roles {
			if seen[r.Role] {
				continue
			}
			seen[r.Role] = true
			opts = append(opts, RoleOption{Key: r.Role, Label: r.Role, Description: "Custom role."})
		}
	}
	return opts
}

func HasHeroMain(assets []Asset) bool {
	return slices.ContainsFunc(assets, func(a Asset) bool { return a.HasRole(ROLE_HERO_MAIN) })
}

func setOf[T comparable](items []T) map[T]bool {
	m := make(map[T]bool, len(items))
	for _, i := range items {
		m[i] = true
	}
	return m
}
