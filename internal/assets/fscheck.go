// Copyright (c) 2026 PMDCollab. All rights reserved.

// Existence checks for sprite and portrait files: the tracker lists what a
// form should have, this file double-checks what is actually on disk. The
// per-form lookups are cached since they hit the filesystem once per entry.

package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmdcollab/spritecollab-srv/internal/cache"
	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
)

// fileLookup resolves tracker entries against the checked-out tree.
type fileLookup struct {
	repoRoot   string
	monsterIdx int64
	formPath   []int
	sprite     bool
}

func (l *fileLookup) path(item string) string {
	joined := JoinMonsterAndForm(l.monsterIdx, l.formPath, '/')
	if l.sprite {
		return filepath.Join(l.repoRoot, filepath.FromSlash(fmt.Sprintf("sprite/%s/%s-Anim.png", joined, item)))
	}
	return filepath.Join(l.repoRoot, filepath.FromSlash(fmt.Sprintf("portrait/%s/%s.png", joined, item)))
}

// existing returns the subset of names whose backing file exists on disk.
func (l *fileLookup) existing(names []string) []string {
	var found []string
	for _, name := range names {
		if _, err := os.Stat(l.path(name)); err == nil {
			found = append(found, name)
		}
	}
	return found
}

func (l *fileLookup) cached(ctx context.Context, c *cache.Cache, names []string) (map[string]struct{}, error) {
	kind := "prt_files"
	if l.sprite {
		kind = "spr_files"
	}
	key := fmt.Sprintf("%s|%d/%v", kind, l.monsterIdx, l.formPath)

	found, err := cache.Cached(ctx, c, key, func() cache.Behaviour[[]string] {
		return cache.Keep(l.existing(names))
	})
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(found))
	for _, name := range found {
		set[name] = struct{}{}
	}
	return set, nil
}

// # Sprite Lookups

// ExistingSpriteFiles filters the form's action map down to the actions
// whose Anim sheet exists on disk.
func ExistingSpriteFiles(ctx context.Context, c *cache.Cache, files datafiles.FileFlags, repoRoot string, monsterIdx int64, formPath []int) ([]datafiles.FileFlag, error) {
	lookup := &fileLookup{repoRoot: repoRoot, monsterIdx: monsterIdx, formPath: formPath, sprite: true}
	existing, err := lookup.cached(ctx, c, files.Names())
	if err != nil {
		return nil, err
	}

	var kept []datafiles.FileFlag
	for _, flag := range files {
		if _, ok := existing[flag.Name]; ok {
			kept = append(kept, flag)
		}
	}
	return kept, nil
}

// ExistingSpriteFile returns the locked flag of one action, present only if
// both the tracker lists it and its sheet exists.
func ExistingSpriteFile(ctx context.Context, c *cache.Cache, files datafiles.FileFlags, action, repoRoot string, monsterIdx int64, formPath []int) (locked, ok bool, err error) {
	lookup := &fileLookup{repoRoot: repoRoot, monsterIdx: monsterIdx, formPath: formPath, sprite: true}
	existing, err := lookup.cached(ctx, c, files.Names())
	if err != nil {
		return false, false, err
	}
	locked, listed := files.Get(action)
	if !listed {
		return false, false, nil
	}
	_, onDisk := existing[action]
	return locked, onDisk, nil
}

// # Portrait Lookups

// ExistingPortraitFiles filters the form's emotion map down to the emotions
// whose image exists on disk. Flipped portraits (names ending in '^') are
// selected or excluded depending on the flipped flag.
func ExistingPortraitFiles(ctx context.Context, c *cache.Cache, files datafiles.FileFlags, flipped bool, repoRoot string, monsterIdx int64, formPath []int) ([]datafiles.FileFlag, error) {
	lookup := &fileLookup{repoRoot: repoRoot, monsterIdx: monsterIdx, formPath: formPath}
	existing, err := lookup.cached(ctx, c, files.Names())
	if err != nil {
		return nil, err
	}

	var kept []datafiles.FileFlag
	for _, flag := range files {
		if strings.HasSuffix(flag.Name, "^") != flipped {
			continue
		}
		if _, ok := existing[flag.Name]; ok {
			kept = append(kept, flag)
		}
	}
	return kept, nil
}

// ExistingPortraitFile returns the locked flag of one emotion, present only
// if both the tracker lists it and its image exists.
func ExistingPortraitFile(ctx context.Context, c *cache.Cache, files datafiles.FileFlags, emotion string, flipped bool, repoRoot string, monsterIdx int64, formPath []int) (locked, ok bool, err error) {
	lookup := &fileLookup{repoRoot: repoRoot, monsterIdx: monsterIdx, formPath: formPath}
	existing, err := lookup.cached(ctx, c, files.Names())
	if err != nil {
		return false, false, err
	}

	name := emotion
	if flipped {
		name += "^"
	}
	locked, listed := files.Get(name)
	if !listed {
		return false, false, nil
	}
	_, onDisk := existing[name]
	return locked, onDisk, nil
}
