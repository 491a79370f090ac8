// Copyright (c) 2026 PMDCollab. All rights reserved.

package gitrepo_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdcollab/spritecollab-srv/internal/platform/gitrepo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// seedRepo creates a repository with one commit per given file content.
func seedRepo(t *testing.T, dir string, contents []string) []string {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	var ids []string
	for i, content := range contents {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data.txt"), []byte(content), 0o644))
		_, err = worktree.Add("data.txt")
		require.NoError(t, err)

		hash, err := worktree.Commit(content, &git.CommitOptions{
			Author: &object.Signature{
				Name:  "tester",
				Email: "tester@example.org",
				When:  time.Date(2022, 1, 1+i, 0, 0, 0, 0, time.UTC),
			},
		})
		require.NoError(t, err)
		ids = append(ids, hash.String())
	}
	return ids
}

/*
TestStore_EnsureOpensExisting verifies that an existing clone is opened in
place.
*/
func TestStore_EnsureOpensExisting(t *testing.T) {
	dir := t.TempDir()
	ids := seedRepo(t, dir, []string{"one"})

	store := gitrepo.New(dir, testLogger())
	require.NoError(t, store.Ensure(context.Background(), "file:///unused"))

	head, err := store.Head()
	require.NoError(t, err)
	assert.Equal(t, ids[0], head.ID)
}

/*
TestStore_WalkSince verifies oldest-first ordering and the prev-head bound.
*/
func TestStore_WalkSince(t *testing.T) {
	dir := t.TempDir()
	ids := seedRepo(t, dir, []string{"one", "two", "three"})

	store := gitrepo.New(dir, testLogger())
	require.NoError(t, store.Ensure(context.Background(), "file:///unused"))

	commits, err := store.WalkSince(ids[0])
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, ids[1], commits[0].ID)
	assert.Equal(t, ids[2], commits[1].ID)

	// Empty prev-head walks everything
	all, err := store.WalkSince("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

/*
TestStore_RewindOne verifies the hard reset to the parent and the terminal
error at the root commit.
*/
func TestStore_RewindOne(t *testing.T) {
	dir := t.TempDir()
	ids := seedRepo(t, dir, []string{"one", "two"})

	store := gitrepo.New(dir, testLogger())
	require.NoError(t, store.Ensure(context.Background(), "file:///unused"))

	newHead, err := store.RewindOne()
	require.NoError(t, err)
	assert.Equal(t, ids[0], newHead)

	// The working tree followed the reset
	contents, err := os.ReadFile(filepath.Join(dir, "data.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(contents))

	_, err = store.RewindOne()
	assert.ErrorIs(t, err, gitrepo.ErrNoParent)
}

/*
TestStore_FileAtCommit verifies blob reads out of historical trees.
*/
func TestStore_FileAtCommit(t *testing.T) {
	dir := t.TempDir()
	ids := seedRepo(t, dir, []string{"one", "two"})

	store := gitrepo.New(dir, testLogger())
	require.NoError(t, store.Ensure(context.Background(), "file:///unused"))

	contents, err := store.FileAtCommit(ids[0], "data.txt")
	require.NoError(t, err)
	assert.Equal(t, "one", string(contents))

	contents, err = store.FileAtCommit(ids[1], "data.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(contents))

	_, err = store.FileAtCommit(ids[0], "missing.txt")
	assert.Error(t, err)
}
