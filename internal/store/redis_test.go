package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return store, s
}

func TestRedisStoreRoundtrip(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	proposal := Proposal{
		ID:         "prop_r1",
		Type:       TypeProductCopy,
		Status:     StatusPending,
		ProductID:  "gid://shopify/Product/1",
		TrendName:  "Aura",
		SnippetKey: "snippets/ai_aura_1.liquid",
		SectionKey: "sections/main-product.liquid",
		Generated:  ContentBlock{Title: "Foo"},
	}
	if err := store.CreateProposal(ctx, proposal); err != nil {
		t.Fatalf("CreateProposal() error = %v", err)
	}

	got, err := store.GetProposal(ctx, "prop_r1")
	if err != nil {
		t.Fatalf("GetProposal() error = %v", err)
	}
	if got.SnippetKey != proposal.SnippetKey || got.Generated.Title != "Foo" {
		t.Fatalf("roundtrip lost fields: %+v", got)
	}
}

func TestRedisStoreUpdateMerge(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.CreateProposal(ctx, Proposal{ID: "prop_r2", Status: StatusPending}); err != nil {
		t.Fatalf("CreateProposal() error = %v", err)
	}

	draftID := int64(91)
	status := StatusDraftApplied
	updated, err := store.UpdateProposal(ctx, "prop_r2", ProposalPatch{Status: &status, DraftThemeID: &draftID})
	if err != nil {
		t.Fatalf("UpdateProposal() error = %v", err)
	}
	if updated.Status != StatusDraftApplied || updated.DraftThemeID != 91 {
		t.Fatalf("patch not merged: %+v", updated)
	}

	got, _ := store.GetProposal(ctx, "prop_r2")
	if got.Status != StatusDraftApplied || got.DraftThemeID != 91 {
		t.Fatalf("merge not persisted: %+v", got)
	}
}

func TestRedisStoreNotFound(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	if _, err := store.GetProposal(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
