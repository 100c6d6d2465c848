// Package history keeps a git-backed audit trail of every change set applied
// to a remote theme. Theme writes are destructive and the platform offers no
// undo, so the per-proposal repo is the record of exactly what each apply
// wrote and when.
package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type Entry struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	When    time.Time `json:"when"`
}

type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// RecordApply writes every applied asset at its key path inside the
// proposal's repo and commits the tree. Re-applying identical content still
// records a commit so the audit trail mirrors the remote write sequence.
func (s *Service) RecordApply(proposalID string, themeID int64, stage string, files map[string]string) (Entry, error) {
	lock := s.proposalLock(proposalID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.ensureRepo(proposalID)
	if err != nil {
		return Entry{}, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return Entry{}, fmt.Errorf("open worktree: %w", err)
	}

	root := s.repoPath(proposalID)
	for key, value := range files {
		target := filepath.Join(root, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return Entry{}, fmt.Errorf("create asset dir for %s: %w", key, err)
		}
		if err := os.WriteFile(target, []byte(value), 0o644); err != nil {
			return Entry{}, fmt.Errorf("write asset %s: %w", key, err)
		}
		if _, err := worktree.Add(key); err != nil {
			return Entry{}, fmt.Errorf("git add %s: %w", key, err)
		}
	}

	message := fmt.Sprintf("Apply %s to theme %d", stage, themeID)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  "TrendStage",
			Email: "trendstage@local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("commit apply: %w", err)
	}

	return Entry{Hash: hash.String(), Message: message, Author: "TrendStage", When: time.Now()}, nil
}

// History lists applies for a proposal, newest first. A proposal that was
// never applied has no repo and an empty history.
func (s *Service) History(proposalID string, limit int) ([]Entry, error) {
	lock := s.proposalLock(proposalID)
	lock.Lock()
	defer lock.Unlock()

	path := s.repoPath(proposalID)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open history repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return []Entry{}, nil
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]Entry, 0, limit)
	count := 0
	err = iter.ForEach(func(commit *object.Commit) error {
		items = append(items, Entry{
			Hash:    commit.Hash.String(),
			Message: commit.Message,
			Author:  commit.Author.Name,
			When:    commit.Author.When,
		})
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

func (s *Service) ensureRepo(proposalID string) (*git.Repository, error) {
	path := s.repoPath(proposalID)
	if _, err := os.Stat(path); err == nil {
		repo, err := git.PlainOpen(path)
		if err != nil {
			return nil, fmt.Errorf("open history repo: %w", err)
		}
		return repo, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat history repo: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init history repo: %w", err)
	}
	return repo, nil
}

func (s *Service) repoPath(proposalID string) string {
	return filepath.Join(s.baseDir, proposalID)
}

func (s *Service) proposalLock(proposalID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[proposalID]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[proposalID] = lock
	return lock
}
