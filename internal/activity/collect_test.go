// Copyright (c) 2026 PMDCollab. All rights reserved.

package activity_test

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

	"github.com/pmdcollab/spritecollab-srv/internal/activity"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/gitrepo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// commitFiles writes the given files and commits them at the given instant.
func commitFiles(t *testing.T, worktree *git.Worktree, dir string, when time.Time, files map[string]string) string {
	t.Helper()
	for name, contents := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(contents), 0o644))
		_, err := worktree.Add(filepath.ToSlash(name))
		require.NoError(t, err)
	}
	hash, err := worktree.Commit("update", &git.CommitOptions{
		Author:    &object.Signature{Name: "tester", Email: "t@example.org", When: when},
		Committer: &object.Signature{Name: "tester", Email: "t@example.org", When: when},
	})
	require.NoError(t, err)
	return hash.String()
}

/*
TestCollectSince attributes a small seeded history: portrait additions and
updates resolve through the HEAD credits file (post-cutover commits).
*/
func TestCollectSince(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	creditNames := "Discord\tName\tContact\n123\tAudino\t\n456\tEevee\t\n"

	first := commitFiles(t, worktree, dir, time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), map[string]string{
		"credit_names.txt":            creditNames,
		"tracker.json":                "{}",
		"portrait/0025/credits.txt":   "2022-05-20 00:00:00\t123\tfalse\tUnknown\tHappy\n",
		"portrait/0025/Happy.png":     "png-one",
	})
	commitFiles(t, worktree, dir, time.Date(2022, 6, 2, 0, 0, 0, 0, time.UTC), map[string]string{
		"portrait/0025/credits.txt": "2022-05-20 00:00:00\t123\tfalse\tUnknown\tHappy\n" +
			"2022-06-02 00:00:00\t456\tfalse\tPMDCollab_2\tSad\n",
		"portrait/0025/Happy.png": "png-two",
		"portrait/0025/Sad.png":   "png-sad",
	})

	store := gitrepo.New(dir, testLogger())
	require.NoError(t, store.Ensure(context.Background(), "file:///unused"))

	exported, err := activity.CollectSince(store, "", testLogger())
	require.NoError(t, err)

	type key struct {
		name   string
		action activity.ActionType
	}
	byKey := map[key]activity.Activity{}
	for _, entry := range exported {
		byKey[key{entry.Activity.Asset.Name, entry.Activity.Action.Type}] = entry.Activity
	}

	added := byKey[key{"Happy", activity.ActionAdd}]
	assert.Equal(t, int64(25), added.MonsterIdx)
	assert.Empty(t, added.PathToForm)
	assert.Equal(t, "123", added.CreditID)
	assert.False(t, added.AuthorUncertain)
	assert.NotEmpty(t, added.Asset.File.OID)

	updated := byKey[key{"Happy", activity.ActionUpdate}]
	assert.Equal(t, "123", updated.CreditID)

	sad := byKey[key{"Sad", activity.ActionAdd}]
	assert.Equal(t, "456", sad.CreditID)
	assert.False(t, sad.AuthorUncertain)

	// Non-asset files never produce activities.
	for k := range byKey {
		assert.NotContains(t, []string{"credit_names", "tracker"}, k.name)
	}

	// Walking from the first commit only replays the second.
	tail, err := activity.CollectSince(store, first, testLogger())
	require.NoError(t, err)
	for _, entry := range tail {
		assert.Equal(t, time.Date(2022, 6, 2, 0, 0, 0, 0, time.UTC), entry.Commit.Time)
	}
	assert.NotEmpty(t, tail)
}
