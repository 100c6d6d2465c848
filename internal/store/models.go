package store

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by every store when the requested record is absent.
var ErrNotFound = errors.New("record not found")

const (
	TypeThemeAssets = "theme-assets"
	TypeProductCopy = "product-copy"
)

const (
	StatusPending      = "pending"
	StatusDraftApplied = "draft-applied"
	StatusMainUpdated  = "main-updated"
	StatusPublished    = "published"
)

// FileEntry describes one touched file for display purposes only; it is
// derived at normalization time and never authoritative.
type FileEntry struct {
	Key     string `json:"key"`
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

// ContentBlock is one side of a before/after copy pair for a product.
type ContentBlock struct {
	Title           string `json:"title,omitempty"`
	Description     string `json:"description,omitempty"`
	DescriptionHTML string `json:"description_html,omitempty"`
	MarketingAngle  string `json:"marketing_angle,omitempty"`
	LayoutStyle     string `json:"layout_style,omitempty"`
	ColorScheme     string `json:"color_scheme,omitempty"`
}

func (b ContentBlock) IsZero() bool {
	return b == ContentBlock{}
}

// Proposal is the canonical record of one AI-suggested change set. The store
// owns it exclusively; every mutation flows through UpdateProposal with a
// ProposalPatch.
type Proposal struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Status        string            `json:"status"`
	Files         map[string]string `json:"files,omitempty"`
	FileList      []FileEntry       `json:"fileList"`
	DiffSummaries map[string]string `json:"diffSummaries,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`

	// product-copy only
	ProductID   string       `json:"productId,omitempty"`
	TrendName   string       `json:"trendName,omitempty"`
	Original    ContentBlock `json:"original,omitempty"`
	Generated   ContentBlock `json:"generated,omitempty"`
	SectionKey  string       `json:"sectionKey,omitempty"`
	SnippetKey  string       `json:"snippetKey,omitempty"`
	SnippetName string       `json:"snippetName,omitempty"`

	DraftThemeID   int64  `json:"draftThemeId,omitempty"`
	DraftThemeName string `json:"draftThemeName,omitempty"`
	MainThemeID    int64  `json:"mainThemeId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProposalPatch is a partial-field merge update; nil fields are left alone.
type ProposalPatch struct {
	Status         *string
	DraftThemeID   *int64
	DraftThemeName *string
	MainThemeID    *int64
}

func (p *Proposal) apply(patch ProposalPatch) {
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.DraftThemeID != nil {
		p.DraftThemeID = *patch.DraftThemeID
	}
	if patch.DraftThemeName != nil {
		p.DraftThemeName = *patch.DraftThemeName
	}
	if patch.MainThemeID != nil {
		p.MainThemeID = *patch.MainThemeID
	}
	p.UpdatedAt = time.Now().UTC()
}

// Suggestion is one persisted trend recommendation from the AI pipeline.
type Suggestion struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	ProductTitle string          `json:"productTitle,omitempty"`
	TrendName    string          `json:"trendName"`
	Summary      string          `json:"summary,omitempty"`
	Score        float64         `json:"score,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}
