// Copyright (c) 2026 PMDCollab. All rights reserved.

package activity

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/gitrepo"
	"github.com/pmdcollab/spritecollab-srv/pkg/slice"
)

// Activity is one attributed asset change of a commit.
type Activity struct {
	MonsterIdx int64
	PathToForm []int
	Asset      Asset
	Action     Action
	// CreditID is empty for removals.
	CreditID string
	// AuthorUncertain marks attributions resolved through a best-guess
	// fallback. Early commits did not track which emotion or action was
	// made by whom; the latest author of the form stands in, and may be
	// wrong when several authors shared one commit.
	AuthorUncertain bool
}

// Activities is everything attributed for one commit.
type Activities struct {
	Commit      gitrepo.Commit
	CreditNames *datafiles.CreditNames
	Acts        []Activity
}

// ExportedActivity pairs one activity with its commit metadata for
// downstream consumers.
type ExportedActivity struct {
	Commit   gitrepo.Commit
	Activity Activity
}

// Export flattens the activities into per-commit export records.
func (a *Activities) Export() []ExportedActivity {
	return slice.Map(a.Acts, func(act Activity) ExportedActivity {
		return ExportedActivity{Commit: a.Commit, Activity: act}
	})
}

// CollectSince replays history forward: every commit newer than prevHead is
// attributed against the current head and flattened into export records.
// An empty prevHead replays the full history.
func CollectSince(store *gitrepo.Store, prevHead string, logger *slog.Logger) ([]ExportedActivity, error) {
	head, err := store.Head()
	if err != nil {
		return nil, err
	}
	commits, err := store.WalkSince(prevHead)
	if err != nil {
		return nil, err
	}

	var exported []ExportedActivity
	for _, commit := range commits {
		logger.Info("processing_commit",
			slog.String("commit", commit.ID),
			slog.Time("time", commit.Time),
		)
		activities, err := Collect(store, commit.ID, head.ID, logger)
		if err != nil {
			return nil, err
		}
		exported = append(exported, activities.Export()...)
	}
	return exported, nil
}

// Collect attributes every asset change of the given commit. headID is the
// current head of the repository, consulted for post-cutover attributions.
func Collect(store *gitrepo.Store, commitID, headID string, logger *slog.Logger) (*Activities, error) {
	repo := store.Repository()

	commit, err := repo.CommitObject(plumbing.NewHash(commitID))
	if err != nil {
		return nil, fmt.Errorf("activity: commit %s: %w", commitID, err)
	}

	creditsRaw, err := store.FileAtCommit(commitID, "credit_names.txt")
	if err != nil {
		return nil, err
	}
	creditNames, err := datafiles.ParseCreditNames(bytes.NewReader(creditsRaw))
	if err != nil {
		return nil, err
	}

	commitTree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("activity: tree of %s: %w", commitID, err)
	}

	// The first commit has no parent; diff against the empty tree.
	var parentTree *object.Tree
	if parent, err := commit.Parent(0); err == nil {
		if parentTree, err = parent.Tree(); err != nil {
			return nil, fmt.Errorf("activity: parent tree of %s: %w", commitID, err)
		}
	}

	changes, err := object.DiffTreeWithOptions(context.Background(), parentTree, commitTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("activity: diff of %s: %w", commitID, err)
	}

	resolver := &creditResolver{
		readAt:     store.FileAtCommit,
		commitID:   commitID,
		commitTime: commit.Committer.When.UTC(),
		headID:     headID,
	}

	blobOID := func(repoPath string) string {
		entry, err := commitTree.FindEntry(repoPath)
		if err != nil {
			return ""
		}
		return entry.Hash.String()
	}

	activities := &Activities{
		Commit: gitrepo.Commit{
			ID:      commitID,
			Time:    commit.Committer.When.UTC(),
			Message: commit.Message,
		},
		CreditNames: creditNames,
	}

	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, fmt.Errorf("activity: delta of %s: %w", commitID, err)
		}

		oldPath := change.From.Name
		if oldPath == "" {
			oldPath = change.To.Name
		}

		oldInfo, isAsset, err := classifyAssetPath(oldPath, blobOID)
		if err != nil {
			return nil, err
		}
		if !isAsset {
			if !isExpectedNonAsset(oldPath) {
				logger.Warn("unexpected_file_in_commit_skipped",
					slog.String("commit", commitID),
					slog.String("path", oldPath),
				)
			}
			continue
		}

		act, err := buildActivity(resolver, action, change, oldInfo, blobOID)
		if err != nil {
			return nil, err
		}
		activities.Acts = append(activities.Acts, act)
	}

	return activities, nil
}

// buildActivity maps one git delta onto an attributed activity.
func buildActivity(resolver *creditResolver, action merkletrie.Action, change *object.Change, oldInfo *SpritePathInfo, blobOID blobOIDFunc) (Activity, error) {
	switch action {
	case merkletrie.Delete:
		return recordActivity(Action{Type: ActionRemove}, nil, oldInfo)

	case merkletrie.Insert:
		resolved, err := resolver.resolve(oldInfo)
		if err != nil {
			return Activity{}, err
		}
		return recordActivity(Action{Type: ActionAdd}, &resolved, oldInfo)

	case merkletrie.Modify:
		// A modify with diverging names is a rename (with content update).
		if change.From.Name != "" && change.To.Name != "" && change.From.Name != change.To.Name {
			newInfo, isAsset, err := classifyAssetPath(change.To.Name, blobOID)
			if err != nil {
				return Activity{}, err
			}
			if !isAsset || newInfo.Asset.Kind != oldInfo.Asset.Kind {
				return Activity{}, &InvalidMoveError{From: change.From.Name, To: change.To.Name}
			}
			resolved, err := resolver.resolve(oldInfo)
			if err != nil {
				return Activity{}, err
			}
			return recordActivity(Action{
				Type:          ActionMoveAndUpdate,
				NewMonsterIdx: newInfo.MonsterIdx,
				NewPathToForm: newInfo.PathToForm,
			}, &resolved, oldInfo)
		}

		resolved, err := resolver.resolve(oldInfo)
		if err != nil {
			return Activity{}, err
		}
		return recordActivity(Action{Type: ActionUpdate}, &resolved, oldInfo)

	default:
		return Activity{}, fmt.Errorf("activity: can not process git delta type %v (commit %s, path %s)",
			action, resolver.commitID, change.From.Name)
	}
}

func recordActivity(action Action, resolved *certainty, info *SpritePathInfo) (Activity, error) {
	act := Activity{
		MonsterIdx: info.MonsterIdx,
		PathToForm: info.PathToForm,
		Asset:      info.Asset,
		Action:     action,
	}
	if resolved != nil {
		act.CreditID = resolved.id
		act.AuthorUncertain = !resolved.certain
	}
	return act, nil
}
