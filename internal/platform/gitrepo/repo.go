// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package gitrepo owns the on-disk working clone of the upstream assets repository.

It is the single mutation point for the checkout: only the refresher calls the
mutating operations (Ensure, FastForward, RewindOne), and always under its
state lock. Readers only ever touch paths of the checked-out tree that belong
to the currently published snapshot.

Operations:

  - Ensure: open the clone, or wipe the directory and clone fresh.
  - FastForward: fetch origin/master and force the checkout onto it.
  - RewindOne: hard-reset the head to its first parent.
  - WalkSince: list the commits that are new since a known head.
  - FileAtCommit: read a blob out of an arbitrary commit's tree.
*/
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNoParent is returned by RewindOne when the head commit has no parent
// left to rewind to.
var ErrNoParent = errors.New("gitrepo: head commit has no parent")

// masterRefSpec fetches the upstream master branch into the usual remote ref.
var masterRefSpec = gitconfig.RefSpec("+refs/heads/master:refs/remotes/origin/master")

// Commit is the minimal commit metadata the rest of the server needs.
type Commit struct {
	// ID is the full hex object id.
	ID string
	// Time is the commit time in UTC.
	Time time.Time
	// Message is the full commit message.
	Message string
}

// Store wraps a working clone rooted at a fixed directory.
type Store struct {
	path string
	log  *slog.Logger
	repo *git.Repository
}

// New creates a Store for the clone directory. No I/O happens until Ensure.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, log: logger}
}

// Path returns the root directory of the working clone.
func (s *Store) Path() string { return s.path }

// Repository exposes the underlying repository for history consumers
// (the credit resolver diffs trees directly). It is nil before Ensure.
func (s *Store) Repository() *git.Repository { return s.repo }

// # Checkout Mutation

// Ensure opens the existing clone, or wipes the directory and clones url.
func (s *Store) Ensure(ctx context.Context, url string) error {
	if _, err := os.Stat(filepath.Join(s.path, git.GitDirName)); err == nil {
		repo, err := git.PlainOpen(s.path)
		if err != nil {
			return fmt.Errorf("gitrepo: open %s: %w", s.path, err)
		}
		s.repo = repo
		return nil
	}

	return s.Clone(ctx, url)
}

// Clone wipes the clone directory and clones url into it.
func (s *Store) Clone(ctx context.Context, url string) error {
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("gitrepo: wipe %s: %w", s.path, err)
	}
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return fmt.Errorf("gitrepo: create %s: %w", s.path, err)
	}

	s.log.Info("cloning_assets_repo", slog.String("url", url))
	repo, err := git.PlainCloneContext(ctx, s.path, false, &git.CloneOptions{URL: url})
	if err != nil {
		return fmt.Errorf("gitrepo: clone %s: %w", url, err)
	}
	s.log.Info("cloning_assets_repo_done")

	s.repo = repo
	return nil
}

// FastForward fetches origin/master and forces the checkout onto the fetched
// head. Any failing step fails the whole operation; the caller decides
// whether to fall back to a fresh clone.
func (s *Store) FastForward(ctx context.Context) error {
	if s.repo == nil {
		return errors.New("gitrepo: repository not opened")
	}

	err := s.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{masterRefSpec},
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("gitrepo: fetch origin/master: %w", err)
	}

	ref, err := s.repo.Reference(plumbing.NewRemoteReferenceName("origin", "master"), true)
	if err != nil {
		return fmt.Errorf("gitrepo: resolve origin/master: %w", err)
	}

	return s.hardReset(ref.Hash())
}

// RewindOne hard-resets the head to its first parent and returns the new
// head id. Fails with [ErrNoParent] once history is exhausted.
func (s *Store) RewindOne() (string, error) {
	head, err := s.headCommit()
	if err != nil {
		return "", err
	}

	parent, err := head.Parent(0)
	if err != nil {
		if errors.Is(err, object.ErrParentNotFound) {
			return "", ErrNoParent
		}
		return "", fmt.Errorf("gitrepo: resolve parent of %s: %w", head.Hash, err)
	}

	if err := s.hardReset(parent.Hash); err != nil {
		return "", err
	}
	return parent.Hash.String(), nil
}

func (s *Store) hardReset(target plumbing.Hash) error {
	worktree, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitrepo: worktree: %w", err)
	}
	if err := worktree.Reset(&git.ResetOptions{Commit: target, Mode: git.HardReset}); err != nil {
		return fmt.Errorf("gitrepo: hard reset to %s: %w", target, err)
	}
	return nil
}

// # History Access

// Head returns the commit currently checked out.
func (s *Store) Head() (Commit, error) {
	head, err := s.headCommit()
	if err != nil {
		return Commit{}, err
	}
	return toCommit(head), nil
}

// WalkSince returns all commits reachable from the current head
// that are newer than prevHead, ordered oldest-first so that consumers can
// replay history forward. An empty prevHead returns the full history.
func (s *Store) WalkSince(prevHead string) ([]Commit, error) {
	head, err := s.headCommit()
	if err != nil {
		return nil, err
	}

	iter, err := s.repo.Log(&git.LogOptions{From: head.Hash})
	if err != nil {
		return nil, fmt.Errorf("gitrepo: walk from %s: %w", head.Hash, err)
	}
	defer iter.Close()

	var newestFirst []Commit
	for {
		commit, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gitrepo: walk: %w", err)
		}
		if commit.Hash.String() == prevHead {
			break
		}
		newestFirst = append(newestFirst, toCommit(commit))
	}

	// Reverse into oldest-first order.
	for i, j := 0, len(newestFirst)-1; i < j; i, j = i+1, j-1 {
		newestFirst[i], newestFirst[j] = newestFirst[j], newestFirst[i]
	}
	return newestFirst, nil
}

// FileAtCommit reads the blob at path out of the tree of the given commit.
func (s *Store) FileAtCommit(commitID, path string) ([]byte, error) {
	commit, err := s.repo.CommitObject(plumbing.NewHash(commitID))
	if err != nil {
		return nil, fmt.Errorf("gitrepo: commit %s: %w", commitID, err)
	}

	file, err := commit.File(path)
	if err != nil {
		return nil, fmt.Errorf("gitrepo: %s at %s: %w", path, commitID, err)
	}

	reader, err := file.Blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("gitrepo: read %s at %s: %w", path, commitID, err)
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (s *Store) headCommit() (*object.Commit, error) {
	if s.repo == nil {
		return nil, errors.New("gitrepo: repository not opened")
	}
	ref, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("gitrepo: head: %w", err)
	}
	commit, err := s.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("gitrepo: head commit %s: %w", ref.Hash(), err)
	}
	return commit, nil
}

func toCommit(commit *object.Commit) Commit {
	return Commit{
		ID:      commit.Hash.String(),
		Time:    commit.Committer.When.UTC(),
		Message: commit.Message,
	}
}
