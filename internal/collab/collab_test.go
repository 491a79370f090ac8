// Copyright (c) 2026 PMDCollab. All rights reserved.

package collab

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdcollab/spritecollab-srv/internal/cache"
	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
)

// countingStore tracks flushes for publish assertions.
type countingStore struct {
	data    map[string]string
	flushes int
}

func (s *countingStore) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *countingStore) Set(_ context.Context, key, value string) error {
	s.data[key] = value
	return nil
}

func (s *countingStore) FlushAll(_ context.Context) error {
	s.flushes++
	s.data = map[string]string{}
	return nil
}

func testCollab(store *countingStore) *SpriteCollab {
	return &SpriteCollab{
		cache: cache.New(store, slog.New(slog.NewTextHandler(os.Stderr, nil))),
		log:   slog.New(slog.NewTextHandler(os.Stderr, nil)),
		state: make(chan struct{}, 1),
	}
}

func snapshotWith(name string, checked time.Time) *Snapshot {
	return &Snapshot{
		Data: &Data{
			SpriteConfig: &datafiles.SpriteConfig{PortraitSize: 40},
			Tracker:      datafiles.Tracker{1: {Name: name}},
		},
		Meta: Meta{
			AssetsCommit:      "abc",
			UpdateCheckedDate: checked,
		},
	}
}

/*
TestPublish_UnchangedKeepsCacheAndData verifies that an equal parse only
refreshes the meta: the data reference is preserved and the cache survives.
*/
func TestPublish_UnchangedKeepsCacheAndData(t *testing.T) {
	store := &countingStore{data: map[string]string{"k": "v"}}
	sc := testCollab(store)

	first := snapshotWith("Pikachu", time.Unix(100, 0))
	sc.current.Store(first)

	second := snapshotWith("Pikachu", time.Unix(200, 0))
	sc.publish(context.Background(), second)

	// Data identity holds, meta moved forward, cache untouched
	assert.Same(t, first.Data, sc.Data())
	assert.Equal(t, time.Unix(200, 0), sc.Snapshot().Meta.UpdateCheckedDate)
	assert.Zero(t, store.flushes)
	assert.Contains(t, store.data, "k")
}

/*
TestPublish_ChangedSwapsAndFlushes verifies that changed content swaps the
snapshot and wipes the cache, in that order of observability: the new
snapshot never coexists with old cache entries.
*/
func TestPublish_ChangedSwapsAndFlushes(t *testing.T) {
	store := &countingStore{data: map[string]string{"k": "v"}}
	sc := testCollab(store)

	sc.current.Store(snapshotWith("Pikachu", time.Unix(100, 0)))
	changed := snapshotWith("Raichu", time.Unix(200, 0))
	sc.publish(context.Background(), changed)

	assert.Same(t, changed.Data, sc.Data())
	assert.Equal(t, 1, store.flushes)
	assert.Empty(t, store.data)
}

/*
TestTouchCheckedDate verifies the failure path meta update.
*/
func TestTouchCheckedDate(t *testing.T) {
	sc := testCollab(&countingStore{data: map[string]string{}})
	first := snapshotWith("Pikachu", time.Unix(100, 0))
	sc.current.Store(first)

	sc.touchCheckedDate()

	assert.Same(t, first.Data, sc.Data())
	assert.True(t, sc.Snapshot().Meta.UpdateCheckedDate.After(time.Unix(100, 0)))
}

/*
TestFuzzyFindMonsters verifies the cached name index over nested forms.
*/
func TestFuzzyFindMonsters(t *testing.T) {
	store := &countingStore{data: map[string]string{}}
	sc := testCollab(store)

	sc.current.Store(&Snapshot{
		Data: &Data{
			Tracker: datafiles.Tracker{
				25: {Name: "Pikachu", Subgroups: map[datafiles.GroupID]*datafiles.Group{
					1: {Name: "Shiny Pikachu"},
				}},
				133: {Name: "Eevee"},
			},
		},
	})

	ids, err := sc.FuzzyFindMonsters(context.Background(), "pikachu")
	require.NoError(t, err)
	require.NotEmpty(t, ids)
	assert.Equal(t, int64(25), ids[0])
	assert.NotContains(t, ids, int64(133))

	// The index itself was cached
	assert.Contains(t, store.data, "fuzzy_find_tracker")
}

/*
TestRefresh_SerializedByStateLock verifies that a held state lock makes a
concurrent refresh wait rather than run.
*/
func TestRefresh_SerializedByStateLock(t *testing.T) {
	sc := testCollab(&countingStore{data: map[string]string{}})
	sc.current.Store(snapshotWith("Pikachu", time.Unix(100, 0)))

	// Hold the state lock
	sc.state <- struct{}{}

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(done)
		sc.Refresh(ctx)
	}()

	// The refresh must not proceed while the lock is held
	select {
	case <-done:
		t.Fatal("refresh ran despite held state lock")
	case <-time.After(50 * time.Millisecond):
	}

	// Cancelling releases the waiter
	cancel()
	<-done
}
