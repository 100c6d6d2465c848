package store

import (
	"context"
	"sync"
)

// MemoryStore is the default proposal store: a mutex-guarded in-process map.
// Explicitly ephemeral - a restart discards every proposal.
type MemoryStore struct {
	mu        sync.RWMutex
	proposals map[string]Proposal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{proposals: make(map[string]Proposal)}
}

func (s *MemoryStore) CreateProposal(_ context.Context, proposal Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[proposal.ID] = cloneProposal(proposal)
	return nil
}

func (s *MemoryStore) GetProposal(_ context.Context, id string) (Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[id]
	if !ok {
		return Proposal{}, ErrNotFound
	}
	return cloneProposal(proposal), nil
}

func (s *MemoryStore) UpdateProposal(_ context.Context, id string, patch ProposalPatch) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, ok := s.proposals[id]
	if !ok {
		return Proposal{}, ErrNotFound
	}
	proposal.apply(patch)
	s.proposals[id] = proposal
	return cloneProposal(proposal), nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// cloneProposal keeps callers from holding a live reference into the map.
func cloneProposal(p Proposal) Proposal {
	out := p
	if p.Files != nil {
		out.Files = make(map[string]string, len(p.Files))
		for k, v := range p.Files {
			out.Files[k] = v
		}
	}
	if p.DiffSummaries != nil {
		out.DiffSummaries = make(map[string]string, len(p.DiffSummaries))
		for k, v := range p.DiffSummaries {
			out.DiffSummaries[k] = v
		}
	}
	if p.Metadata != nil {
		out.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}
	if p.FileList != nil {
		out.FileList = append([]FileEntry(nil), p.FileList...)
	}
	return out
}
