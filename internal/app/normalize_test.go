package app

import (
	"errors"
	"testing"

	"trendstage/api/internal/store"
)

func TestNormalizeThemeAssetsAcceptsAssetsAlias(t *testing.T) {
	proposal, err := normalizeProposal(ProposalInput{
		Assets: map[string]any{"templates/index.liquid": "<main></main>"},
	}, 0)
	if err != nil {
		t.Fatalf("normalizeProposal: %v", err)
	}
	if proposal.Type != store.TypeThemeAssets {
		t.Fatalf("expected theme-assets, got %q", proposal.Type)
	}
	if proposal.Files["templates/index.liquid"] != "<main></main>" {
		t.Fatalf("files not carried over: %v", proposal.Files)
	}
}

func TestNormalizeProductCopyDerivedKeys(t *testing.T) {
	proposal, err := normalizeProposal(ProposalInput{
		ProductID: "gid://shopify/Product/8819117719845",
		TrendName: "Quiet Luxury",
		Generated: &store.ContentBlock{Title: "Cashmere Wrap"},
	}, 0)
	if err != nil {
		t.Fatalf("normalizeProposal: %v", err)
	}
	if proposal.SnippetName != "ai_quiet_luxury_8819117719845" {
		t.Fatalf("unexpected snippet name %q", proposal.SnippetName)
	}
	if proposal.SnippetKey != "snippets/ai_quiet_luxury_8819117719845.liquid" {
		t.Fatalf("unexpected snippet key %q", proposal.SnippetKey)
	}
	if proposal.SectionKey != defaultSectionKey {
		t.Fatalf("unexpected section key %q", proposal.SectionKey)
	}
	if len(proposal.FileList) != 2 {
		t.Fatalf("expected 2 file entries, got %d", len(proposal.FileList))
	}
}

func TestNormalizeProductCopySectionKeyOverride(t *testing.T) {
	proposal, err := normalizeProposal(ProposalInput{
		ProductID: "7",
		TrendName: "Aura",
		Generated: &store.ContentBlock{Title: "Aura Tee"},
		Metadata:  map[string]string{"section_key": "sections/featured-product.liquid"},
	}, 0)
	if err != nil {
		t.Fatalf("normalizeProposal: %v", err)
	}
	if proposal.SectionKey != "sections/featured-product.liquid" {
		t.Fatalf("override ignored, got %q", proposal.SectionKey)
	}
}

func TestNormalizeProductCopyRejectsBadSectionKey(t *testing.T) {
	_, err := normalizeProposal(ProposalInput{
		ProductID: "7",
		TrendName: "Aura",
		Generated: &store.ContentBlock{Title: "Aura Tee"},
		Metadata:  map[string]string{"section_key": "../layout/theme.liquid"},
	}, 0)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestNormalizeProductCopyMissingFields(t *testing.T) {
	_, err := normalizeProposal(ProposalInput{ProductID: "7"}, 0)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	details, ok := domainErr.Details.([]string)
	if !ok || len(details) != 1 || details[0] != "generated" {
		t.Fatalf("unexpected details %v", domainErr.Details)
	}
}

func TestNormalizeEmptyTrendFallsBackToSlugToken(t *testing.T) {
	proposal, err := normalizeProposal(ProposalInput{
		ProductID: "7",
		Generated: &store.ContentBlock{Title: "Tee"},
	}, 0)
	if err != nil {
		t.Fatalf("normalizeProposal: %v", err)
	}
	if proposal.SnippetName != "ai_trend_7" {
		t.Fatalf("unexpected snippet name %q", proposal.SnippetName)
	}
}
