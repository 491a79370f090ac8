// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package activity attributes repository commits to credited authors.

For a commit, every affected sprite or portrait asset is classified
(added / removed / updated / moved) and resolved to the credit id of the
author who made it, using the form-local credits.txt files.

Attribution is dual-mode around a fixed cutover instant: for commits after
it the credits file at the repository HEAD is authoritative (read up to the
commit time); for older commits the credits file as it existed in the commit
itself is used, with a legacy-format fallback. The fallback chain is encoded
as explicit steps, each tagged with whether its answer is certain.
*/
package activity

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
)

// creditConsistencyTime is the cutover: from this instant on, the HEAD
// credits files are consistent enough to be authoritative for attribution.
var creditConsistencyTime = time.Date(2022, 5, 7, 19, 29, 49, 0, time.UTC)

// # Errors

// MissingCreditsError means every attribution fallback was exhausted.
type MissingCreditsError struct {
	Commit string
	Info   *SpritePathInfo
}

func (e *MissingCreditsError) Error() string {
	return fmt.Sprintf("no credits found for an asset: %s/%v (%s) at commit %s",
		joinPath(e.Info.MonsterIdx, e.Info.PathToForm), e.Info.PathToForm, e.Info.Asset.Name, e.Commit)
}

// InvalidMoveError means an asset was renamed across asset categories.
type InvalidMoveError struct {
	From string
	To   string
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("an asset was moved in a way that makes no sense: %s -> %s", e.From, e.To)
}

// InvalidNumberInPathError means a path component that should be a monster
// or form id did not parse.
type InvalidNumberInPathError struct {
	Path string
	Err  error
}

func (e *InvalidNumberInPathError) Error() string {
	return fmt.Sprintf("expected a path containing valid monster and form ids, was unable to parse (%q): %v", e.Path, e.Err)
}

func (e *InvalidNumberInPathError) Unwrap() error { return e.Err }

func joinPath(monsterIdx int64, form []int) string {
	parts := make([]string, 0, len(form)+1)
	parts = append(parts, strconv.FormatInt(monsterIdx, 10))
	for _, element := range form {
		parts = append(parts, strconv.Itoa(element))
	}
	return strings.Join(parts, "/")
}

// # Assets

// File is one repository file backing an asset, identified by name and blob
// object id. An empty OID means the file does not exist (deleted).
type File struct {
	FileName string
	OID      string
}

// AssetKind discriminates the two asset categories.
type AssetKind int

const (
	AssetPortrait AssetKind = iota
	AssetSprite
)

// Asset is one portrait emotion or sprite action affected by a commit. A
// portrait is a single image; a sprite is the Anim/Shadow/Offsets triplet
// plus the shared AnimData.xml.
type Asset struct {
	Kind AssetKind
	Name string

	// Portrait file (Kind == AssetPortrait).
	File File

	// Sprite files (Kind == AssetSprite).
	AnimSprite    File
	ShadowSprite  File
	OffsetsSprite File
	AnimXML       File
}

// Files lists the repository files of the asset.
func (a *Asset) Files() []File {
	if a.Kind == AssetPortrait {
		return []File{a.File}
	}
	return []File{a.AnimSprite, a.ShadowSprite, a.OffsetsSprite, a.AnimXML}
}

// # Actions

// ActionType enumerates what happened to an asset in a commit.
type ActionType int

const (
	ActionAdd ActionType = iota
	ActionRemove
	ActionUpdate
	ActionMoveAndUpdate
)

// Action describes the change; move actions carry the new location.
type Action struct {
	Type          ActionType
	NewMonsterIdx int64
	NewPathToForm []int
}

// HasContent reports whether the action leaves an asset behind.
func (a Action) HasContent() bool {
	return a.Type != ActionRemove
}

// # Path Classification

// SpritePathInfo locates an affected asset: which monster, which form,
// which asset, and the directory its credits.txt lives in.
type SpritePathInfo struct {
	MonsterIdx int64
	PathToForm []int
	Asset      Asset
	BasePath   string
}

// expectedNonAssetNames are repository files that legitimately appear in
// commits without being assets; anything else unrecognized is logged.
var expectedNonAssetNames = map[string]struct{}{
	"credit_names.txt": {},
	"tracker.json":     {},
	"credits.txt":      {},
	"AnimData.xml":     {},
	"Animations.xml":   {},
	"animations.xml":   {},
	"FrameData.xml":    {},
	"sheet.png":        {},
	"LICENSE":          {},
	"README.md":        {},
}

// isExpectedNonAsset reports whether a skipped path is one of the known
// non-asset files (including the sprite side files handled via the Anim
// sheet).
func isExpectedNonAsset(filePath string) bool {
	name := path.Base(filePath)
	if _, ok := expectedNonAssetNames[name]; ok {
		return true
	}
	return strings.HasSuffix(name, "-Shadow.png") || strings.HasSuffix(name, "-Offsets.png")
}

// blobOIDFunc resolves a repository path to its blob object id in some
// tree; "" means the path does not exist there.
type blobOIDFunc func(repoPath string) string

// classifyAssetPath decides whether filePath is a sprite action or portrait
// emotion and, if so, returns its info. Side files of a sprite (shadow,
// offsets) return ok=false so a commit yields one activity per action.
func classifyAssetPath(filePath string, blobOID blobOIDFunc) (*SpritePathInfo, bool, error) {
	parts := strings.Split(path.Clean(filePath), "/")
	if len(parts) < 2 {
		return nil, false, nil
	}
	basePath := path.Dir(filePath)
	fileName := parts[len(parts)-1]
	middle := parts[1 : len(parts)-1]

	var asset Asset
	switch parts[0] {
	case "portrait":
		emotion, ok := strings.CutSuffix(fileName, ".png")
		if !ok {
			return nil, false, nil
		}
		asset = Asset{
			Kind: AssetPortrait,
			Name: emotion,
			File: File{FileName: fileName, OID: blobOID(filePath)},
		}

	case "sprite":
		// Sprites are split into three files: Anim, Shadow and Offsets.
		// Only the Anim sheet produces an activity; the side files would
		// duplicate it.
		action, ok := strings.CutSuffix(fileName, "-Anim.png")
		if !ok {
			return nil, false, nil
		}
		asset = Asset{
			Kind:       AssetSprite,
			Name:       action,
			AnimSprite: File{FileName: fileName, OID: blobOID(filePath)},
			ShadowSprite: File{
				FileName: action + "-Shadow.png",
				OID:      blobOID(path.Join(basePath, action+"-Shadow.png")),
			},
			OffsetsSprite: File{
				FileName: action + "-Offsets.png",
				OID:      blobOID(path.Join(basePath, action+"-Offsets.png")),
			},
			AnimXML: File{
				FileName: "AnimData.xml",
				OID:      blobOID(path.Join(basePath, "AnimData.xml")),
			},
		}

	default:
		return nil, false, nil
	}

	if len(middle) == 0 {
		return nil, false, nil
	}
	monsterIdx, err := strconv.ParseInt(middle[0], 10, 64)
	if err != nil {
		return nil, false, &InvalidNumberInPathError{Path: filePath, Err: err}
	}
	pathToForm := make([]int, 0, len(middle)-1)
	for _, component := range middle[1:] {
		element, err := strconv.Atoi(component)
		if err != nil {
			return nil, false, &InvalidNumberInPathError{Path: filePath, Err: err}
		}
		pathToForm = append(pathToForm, element)
	}

	return &SpritePathInfo{
		MonsterIdx: monsterIdx,
		PathToForm: pathToForm,
		Asset:      asset,
		BasePath:   basePath,
	}, true, nil
}

// # Credit Resolution

// certainty is a resolved credit id tagged with how reliable it is. Early
// submissions were not tracked per item, so some answers are only a best
// guess (the latest author of the form).
type certainty struct {
	id      string
	certain bool
}

// fileAtFunc reads a repository file out of the tree of a commit.
type fileAtFunc func(commitID, repoPath string) ([]byte, error)

// creditResolver resolves the credited author of one commit's assets.
type creditResolver struct {
	readAt     fileAtFunc
	commitID   string
	commitTime time.Time
	headID     string
}

// resolve finds the credit for one affected asset, choosing the flow by the
// commit time relative to the cutover.
func (r *creditResolver) resolve(info *SpritePathInfo) (certainty, error) {
	if r.commitTime.After(creditConsistencyTime) {
		return r.newCreditLookup(info)
	}
	return r.oldCreditLookup(info)
}

// newCreditLookup is the post-cutover flow. The fallback chain:
//
//  1. newest author in current HEAD at the commit time
//     -> if the file does not exist at HEAD, fall back to the old flow
//  2. "?" newest author at the commit time
//  3. the old flow
//  4. newest author in current HEAD right now (uncertain)
//  5. "?" newest author in current HEAD right now (uncertain)
//  6. fail
func (r *creditResolver) newCreditLookup(info *SpritePathInfo) (certainty, error) {
	creditsPath := path.Join(info.BasePath, "credits.txt")

	headData, err := r.readAt(r.headID, creditsPath)
	if err != nil {
		// The entry was removed or moved in HEAD. Fall back to old flow.
		return r.oldCreditLookup(info)
	}

	current, err := datafiles.CreditsUntil(headData, r.commitTime)
	if err != nil {
		return certainty{}, &MissingCreditsError{Commit: r.commitID, Info: info}
	}

	if id, ok := current[info.Asset.Name]; ok {
		return certainty{id: id, certain: true}, nil
	}
	if id, ok := current["?"]; ok {
		return certainty{id: id}, nil
	}

	if resolved, err := r.oldCreditLookup(info); err == nil {
		return resolved, nil
	}

	// Last resort: the latest HEAD entries without a time bound.
	latest, err := datafiles.LatestCredits(headData)
	if err != nil {
		return certainty{}, &MissingCreditsError{Commit: r.commitID, Info: info}
	}
	if id, ok := latest[info.Asset.Name]; ok {
		return certainty{id: id}, nil
	}
	if id, ok := latest["?"]; ok {
		return certainty{id: id}, nil
	}
	return certainty{}, &MissingCreditsError{Commit: r.commitID, Info: info}
}

// oldCreditLookup is the pre-cutover flow: the credits file as committed is
// read, taking the latest author per item; a structurally legacy file falls
// back to its final row.
func (r *creditResolver) oldCreditLookup(info *SpritePathInfo) (certainty, error) {
	// Exceptions. This commit contains portraits that should have been
	// included in one commit later.
	if r.commitID == "99a41c3c379300aefa42f95568b658c3b9986057" &&
		info.MonsterIdx == 222 && slices.Equal(info.PathToForm, []int{1}) {
		return certainty{id: "356635814668664832", certain: true}, nil
	}
	if r.commitID == "366d2dbceb2736bd5316c9e492ddfa6c7cdc8fab" &&
		info.MonsterIdx == 150 && slices.Equal(info.PathToForm, []int{2, 1}) {
		return certainty{id: "593113130213572610", certain: true}, nil
	}

	creditsPath := path.Join(info.BasePath, "credits.txt")
	data, err := r.readAt(r.commitID, creditsPath)
	if err != nil {
		return certainty{}, err
	}

	latest, err := datafiles.LatestCredits(data)
	if err != nil {
		var formatErr *datafiles.FormatError
		if !errors.As(err, &formatErr) {
			return certainty{}, err
		}
		// Structural mismatch: try reading in the older format.
		last, err := datafiles.LastCreditOldFormat(data)
		if err != nil {
			return certainty{}, err
		}
		if last == "" {
			return certainty{}, &MissingCreditsError{Commit: r.commitID, Info: info}
		}
		return certainty{id: last}, nil
	}

	if id, ok := latest[info.Asset.Name]; ok {
		return certainty{id: id, certain: true}, nil
	}
	if id, ok := latest["?"]; ok {
		return certainty{id: id}, nil
	}
	return certainty{}, &MissingCreditsError{Commit: r.commitID, Info: info}
}
