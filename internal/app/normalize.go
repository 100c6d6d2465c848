package app

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"trendstage/api/internal/store"
	"trendstage/api/internal/util"
)

// ProposalInput is the raw payload from the AI/trend producer. Which shape it
// carries is decided exactly once, at normalization; the resulting record is
// tagged by type and never re-inferred.
type ProposalInput struct {
	Files         map[string]any      `json:"files"`
	Assets        map[string]any      `json:"assets"`
	DiffSummaries map[string]string   `json:"diffSummaries"`
	Metadata      map[string]string   `json:"metadata"`
	ProductID     string              `json:"product_id"`
	TrendName     string              `json:"trend_name"`
	Original      *store.ContentBlock `json:"original"`
	Generated     *store.ContentBlock `json:"generated"`
}

const (
	defaultSectionKey  = "sections/main-product.liquid"
	defaultDiffSummary = "AI-proposed update."
)

func normalizeProposal(input ProposalInput, maxBytes int) (store.Proposal, error) {
	switch {
	case len(input.Files) > 0 || len(input.Assets) > 0:
		return normalizeThemeAssets(input, maxBytes)
	case input.Generated != nil || input.ProductID != "":
		return normalizeProductCopy(input)
	default:
		return store.Proposal{}, domainError(http.StatusUnprocessableEntity, "UNSUPPORTED_FORMAT",
			"payload matches neither the theme-assets nor the product-copy shape", nil)
	}
}

func normalizeThemeAssets(input ProposalInput, maxBytes int) (store.Proposal, error) {
	raw := input.Files
	if len(raw) == 0 {
		raw = input.Assets
	}

	files, err := validateAssetFiles(raw, maxBytes)
	if err != nil {
		return store.Proposal{}, err
	}

	keys := make([]string, 0, len(files))
	for key := range files {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fileList := make([]store.FileEntry, 0, len(keys))
	for _, key := range keys {
		summary := input.DiffSummaries[key]
		if summary == "" {
			summary = defaultDiffSummary
		}
		fileList = append(fileList, store.FileEntry{Key: key, Status: "changed", Summary: summary})
	}

	return store.Proposal{
		Type:          store.TypeThemeAssets,
		Files:         files,
		FileList:      fileList,
		DiffSummaries: input.DiffSummaries,
		Metadata:      input.Metadata,
	}, nil
}

func normalizeProductCopy(input ProposalInput) (store.Proposal, error) {
	var missing []string
	if input.Generated == nil {
		missing = append(missing, "generated")
	}
	if strings.TrimSpace(input.ProductID) == "" {
		missing = append(missing, "product_id")
	}
	if len(missing) > 0 {
		return store.Proposal{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"product-copy proposal requires both generated and product_id", missing)
	}

	trendSlug := util.Slug(input.TrendName, "trend")
	productSlug := util.Slug(lastPathSegment(input.ProductID), "product")
	snippetName := fmt.Sprintf("ai_%s_%s", trendSlug, productSlug)
	snippetKey := fmt.Sprintf("snippets/%s.liquid", snippetName)

	sectionKey := input.Metadata["section_key"]
	if sectionKey == "" {
		sectionKey = defaultSectionKey
	}
	// The section key names a write target, so the batch key rules apply.
	if violations := assetKeyViolations(sectionKey); len(violations) > 0 {
		return store.Proposal{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"invalid section_key", violations)
	}

	proposal := store.Proposal{
		Type:      store.TypeProductCopy,
		Metadata:  input.Metadata,
		ProductID: input.ProductID,
		TrendName: input.TrendName,
		Generated: *input.Generated,

		SectionKey:  sectionKey,
		SnippetKey:  snippetKey,
		SnippetName: snippetName,

		FileList: []store.FileEntry{
			{Key: sectionKey, Status: "changed", Summary: "Inject AI snippet render call."},
			{Key: snippetKey, Status: "new", Summary: "AI-generated product copy snippet."},
		},
	}
	if input.Original != nil {
		proposal.Original = *input.Original
	}
	return proposal, nil
}

func lastPathSegment(id string) string {
	trimmed := strings.Trim(id, "/")
	if trimmed == "" {
		return ""
	}
	segments := strings.Split(trimmed, "/")
	return segments[len(segments)-1]
}
