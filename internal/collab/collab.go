// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package collab maintains the in-memory snapshot of the SpriteCollab data.

A snapshot is the immutable bundle of (sprite config, tracker, credit names,
meta) parsed out of the git working tree. It is published by atomic swap:
readers grab a reference at the start of a request and keep it for the
request's lifetime; a later publication never invalidates it.

The refresh cycle is serialized by a state lock with a hard acquisition
timeout. A cycle fetches upstream, re-parses the tree and, if anything
observable changed, swaps the snapshot and wipes the derived-asset cache —
in that order, so readers of the new snapshot can never see stale cache
entries. An unparseable upstream never degrades the serving snapshot: the
worktree is rewound commit-by-commit until a parseable tree is found, which
is then published flagged as stale.
*/
package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/pmdcollab/spritecollab-srv/internal/cache"
	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/constants"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/gitrepo"
	"github.com/pmdcollab/spritecollab-srv/internal/search"
)

// Data is the parsed, immutable content of one checkout.
type Data struct {
	SpriteConfig *datafiles.SpriteConfig
	Tracker      datafiles.Tracker
	CreditNames  *datafiles.CreditNames
}

// Meta describes the checkout a snapshot was parsed from.
type Meta struct {
	// AssetsCommit is the hex id of the working tree HEAD.
	AssetsCommit string
	// AssetsUpdateDate is the UTC commit time of that commit.
	AssetsUpdateDate time.Time
	// UpdateCheckedDate is the UTC time of the last upstream scan.
	UpdateCheckedDate time.Time
	// Stale marks a snapshot published off a rewound (non-head) commit.
	Stale bool
}

// Snapshot is one published (data, meta) pair. Read-only after publication.
type Snapshot struct {
	Data *Data
	Meta Meta
}

// SpriteCollab owns the current snapshot and the refresh cycle.
type SpriteCollab struct {
	repo    *gitrepo.Store
	cache   *cache.Cache
	gitURL  string
	log     *slog.Logger
	current atomic.Pointer[Snapshot]

	// state serializes refresh cycles; see Refresh.
	state chan struct{}
}

// New builds the holder and publishes the first snapshot. If the fresh
// checkout does not parse, the worktree is rewound commit-by-commit until
// one does. It fails when the initial cache flush or checkout fails, or when
// rewinding stops (history exhausted or a git error) before a commit parses.
func New(ctx context.Context, repo *gitrepo.Store, derived *cache.Cache, gitURL string, logger *slog.Logger) (*SpriteCollab, error) {
	collab := &SpriteCollab{
		repo:   repo,
		cache:  derived,
		gitURL: gitURL,
		log:    logger,
		state:  make(chan struct{}, 1),
	}

	// The cache must not outlive a process restart.
	if err := derived.Clear(ctx); err != nil {
		return nil, fmt.Errorf("collab: initial cache flush: %w", err)
	}

	if err := collab.syncRepo(ctx); err != nil {
		return nil, fmt.Errorf("collab: initial checkout: %w", err)
	}

	snapshot, err := collab.parseWorktree(false)
	if err != nil {
		logger.Error("initial_data_unparseable_rewinding", slog.Any("error", err))
		snapshot, err = collab.rewindUntilParseable()
		if err != nil {
			return nil, fmt.Errorf("collab: no parseable commit found: %w", err)
		}
	}

	collab.current.Store(snapshot)
	return collab, nil
}

// Data returns the currently published data. The returned reference stays
// consistent for as long as the caller holds it.
func (s *SpriteCollab) Data() *Data {
	return s.current.Load().Data
}

// Snapshot returns the full current snapshot including meta.
func (s *SpriteCollab) Snapshot() *Snapshot {
	return s.current.Load()
}

// # Refresh Cycle

// Refresh runs one refresh cycle. Cycles are serialized: a concurrent call
// waits for the running one up to the state timeout and then gives up with
// a warning. Failures never degrade the published snapshot.
func (s *SpriteCollab) Refresh(ctx context.Context) {
	select {
	case s.state <- struct{}{}:
	case <-time.After(constants.RefreshStateTimeout):
		s.log.Warn("refresh_state_lock_timeout")
		return
	case <-ctx.Done():
		return
	}
	defer func() { <-s.state }()

	s.log.Debug("refreshing_data")

	if err := s.syncRepo(ctx); err != nil {
		s.log.Error("refresh_git_failed", slog.Any("error", err))
		s.touchCheckedDate()
		return
	}

	snapshot, err := s.parseWorktree(false)
	if err != nil {
		s.log.Error("refresh_data_unparseable_rewinding", slog.Any("error", err))
		snapshot, err = s.rewindUntilParseable()
		if err != nil {
			s.log.Error("refresh_gave_up", slog.Any("error", err))
			s.touchCheckedDate()
			return
		}
	}

	s.publish(ctx, snapshot)
}

// publish swaps the snapshot in and, if the data changed, flushes the
// derived cache. The flush happens after the swap so readers of the new
// snapshot only ever see an empty or freshly repopulated cache.
func (s *SpriteCollab) publish(ctx context.Context, snapshot *Snapshot) {
	previous := s.current.Load()
	changed := previous == nil || !reflect.DeepEqual(previous.Data, snapshot.Data)

	if !changed {
		// Content identical: keep the old data, only refresh the meta.
		snapshot = &Snapshot{Data: previous.Data, Meta: snapshot.Meta}
	}

	s.current.Store(snapshot)

	if changed {
		if err := s.cache.Clear(ctx); err != nil {
			s.log.Warn("cache_flush_failed", slog.Any("error", err))
		}
		s.log.Info("snapshot_published",
			slog.String("commit", snapshot.Meta.AssetsCommit),
			slog.Bool("stale", snapshot.Meta.Stale),
		)
	}
}

// touchCheckedDate records a scan attempt on the current snapshot without
// touching its data.
func (s *SpriteCollab) touchCheckedDate() {
	previous := s.current.Load()
	if previous == nil {
		return
	}
	meta := previous.Meta
	meta.UpdateCheckedDate = time.Now().UTC()
	s.current.Store(&Snapshot{Data: previous.Data, Meta: meta})
}

// syncRepo brings the working tree up to date: open-or-clone, then fetch
// and force the checkout onto origin/master. A failing update falls back to
// wiping the clone and starting over.
func (s *SpriteCollab) syncRepo(ctx context.Context) error {
	if err := s.repo.Ensure(ctx, s.gitURL); err != nil {
		return err
	}
	if err := s.repo.FastForward(ctx); err != nil {
		s.log.Warn("repo_update_failed_recloning", slog.Any("error", err))
		if err := s.repo.Clone(ctx, s.gitURL); err != nil {
			return err
		}
	}
	return nil
}

// parseWorktree parses the checked-out tree into a publishable snapshot.
func (s *SpriteCollab) parseWorktree(stale bool) (*Snapshot, error) {
	root := s.repo.Path()

	spriteConfig, err := datafiles.ReadSpriteConfig(filepath.Join(root, "sprite_config.json"))
	if err != nil {
		s.log.Error("failed_reading_sprite_config", slog.Any("error", err))
		return nil, err
	}
	tracker, err := datafiles.ReadTracker(filepath.Join(root, "tracker.json"))
	if err != nil {
		s.log.Error("failed_reading_tracker", slog.Any("error", err))
		return nil, err
	}
	creditNames, err := datafiles.ReadCreditNames(filepath.Join(root, "credit_names.txt"))
	if err != nil {
		s.log.Error("failed_reading_credit_names", slog.Any("error", err))
		return nil, err
	}

	datafiles.SortTracker(tracker, spriteConfig)

	// Validate every reachable AnimData.xml; a single bad one rejects the
	// whole snapshot.
	if err := datafiles.ValidateAnimData(tracker, root); err != nil {
		var animErrs *datafiles.AnimDataErrors
		if errors.As(err, &animErrs) {
			for _, animErr := range animErrs.Errors {
				s.log.Error("anim_data_invalid", slog.Any("error", animErr))
			}
		}
		return nil, err
	}

	head, err := s.repo.Head()
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Data: &Data{
			SpriteConfig: spriteConfig,
			Tracker:      tracker,
			CreditNames:  creditNames,
		},
		Meta: Meta{
			AssetsCommit:      head.ID,
			AssetsUpdateDate:  head.Time,
			UpdateCheckedDate: time.Now().UTC(),
			Stale:             stale,
		},
	}, nil
}

// rewindUntilParseable walks the checkout backwards one commit at a time
// until a tree parses. The resulting snapshot is flagged stale.
func (s *SpriteCollab) rewindUntilParseable() (*Snapshot, error) {
	for {
		newHead, err := s.repo.RewindOne()
		if err != nil {
			return nil, err
		}
		s.log.Warn("checked_out_old_commit", slog.String("commit", newHead))

		snapshot, err := s.parseWorktree(true)
		if err == nil {
			return snapshot, nil
		}
	}
}

// # Name Search

// FuzzyFindMonsters matches query against every monster and form name of
// the tracker and returns the matching monster ids, best first. The name
// index is built lazily through the cache.
func (s *SpriteCollab) FuzzyFindMonsters(ctx context.Context, query string) ([]int64, error) {
	data := s.Data()

	index, err := cache.Cached(ctx, s.cache, "fuzzy_find_tracker", func() cache.Behaviour[map[string][]int64] {
		names := make(map[string][]int64, len(data.Tracker)*10)
		for monsterID, monster := range data.Tracker {
			collectNames(names, int64(monsterID), monster)
		}
		return cache.Keep(names)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]search.Entry[int64], 0, len(index))
	for name, ids := range index {
		entries = append(entries, search.Entry[int64]{Key: name, IDs: ids})
	}
	return search.Find(query, entries), nil
}

func collectNames(names map[string][]int64, monsterIdx int64, group *datafiles.Group) {
	names[group.Name] = append(names[group.Name], monsterIdx)
	for _, subgroup := range group.Subgroups {
		collectNames(names, monsterIdx, subgroup)
	}
}
