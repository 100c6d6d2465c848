package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created := Proposal{
		ID:        "prop_1",
		Type:      TypeThemeAssets,
		Status:    StatusPending,
		Files:     map[string]string{"assets/style.css": "body{color:red}"},
		FileList:  []FileEntry{{Key: "assets/style.css", Status: "changed", Summary: "AI-proposed update."}},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.CreateProposal(ctx, created); err != nil {
		t.Fatalf("CreateProposal() error = %v", err)
	}

	got, err := s.GetProposal(ctx, "prop_1")
	if err != nil {
		t.Fatalf("GetProposal() error = %v", err)
	}
	if got.Status != StatusPending || got.Files["assets/style.css"] != "body{color:red}" {
		t.Fatalf("unexpected proposal %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.Files["assets/style.css"] = "tampered"
	again, _ := s.GetProposal(ctx, "prop_1")
	if again.Files["assets/style.css"] != "body{color:red}" {
		t.Fatal("store returned a live reference to its internal map")
	}
}

func TestMemoryStoreUpdateMerge(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Hour)
	if err := s.CreateProposal(ctx, Proposal{ID: "prop_1", Status: StatusPending, UpdatedAt: before}); err != nil {
		t.Fatalf("CreateProposal() error = %v", err)
	}

	draftID := int64(77)
	draftName := "AI Draft - test"
	updated, err := s.UpdateProposal(ctx, "prop_1", ProposalPatch{
		DraftThemeID:   &draftID,
		DraftThemeName: &draftName,
	})
	if err != nil {
		t.Fatalf("UpdateProposal() error = %v", err)
	}
	if updated.DraftThemeID != 77 || updated.DraftThemeName != draftName {
		t.Fatalf("patch not merged: %+v", updated)
	}
	if updated.Status != StatusPending {
		t.Fatalf("status should be untouched by a nil patch field, got %q", updated.Status)
	}
	if !updated.UpdatedAt.After(before) {
		t.Fatal("UpdatedAt not refreshed on merge")
	}

	status := StatusDraftApplied
	updated, err = s.UpdateProposal(ctx, "prop_1", ProposalPatch{Status: &status})
	if err != nil {
		t.Fatalf("UpdateProposal() error = %v", err)
	}
	if updated.Status != StatusDraftApplied || updated.DraftThemeID != 77 {
		t.Fatalf("merge lost earlier fields: %+v", updated)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetProposal(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	status := StatusDraftApplied
	if _, err := s.UpdateProposal(ctx, "missing", ProposalPatch{Status: &status}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
