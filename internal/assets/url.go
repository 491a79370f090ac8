// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package assets builds and serves the derived binary assets of the server.

It owns the canonical routing between asset URLs and filesystem paths
(MatchURL/GetURL), the portrait sheet and sprite recolor sheet builders, the
sprite ZIP packer and the cached on-disk existence checks. Everything
expensive runs through the read-through cache keyed by asset fingerprint.
*/
package assets

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// AssetKind identifies what an asset URL points at. Emotion/action-specific
// kinds carry the emotion or action name.
type AssetKind struct {
	Type AssetType
	// Item is the emotion or action name for the per-item kinds.
	Item string
}

// AssetType enumerates the asset categories.
type AssetType int

const (
	PortraitCreditsTxt AssetType = iota
	SpriteCreditsTxt
	PortraitSheet
	PortraitRecolorSheet
	Portrait
	PortraitFlipped
	SpriteAnimDataXml
	SpriteZip
	SpriteRecolorSheet
	SpriteAnim
	SpriteOffsets
	SpriteShadows
)

// # Form Path Helpers

// JoinForm renders a form path as zero-padded components joined by sep,
// optionally with a leading separator.
func JoinForm(formPath []int, withLeadingSep bool, sep byte) string {
	if len(formPath) == 0 {
		return ""
	}
	parts := make([]string, len(formPath))
	for i, element := range formPath {
		parts[i] = fmt.Sprintf("%04d", element)
	}
	joined := strings.Join(parts, string(sep))
	if withLeadingSep {
		return string(sep) + joined
	}
	return joined
}

// JoinMonsterAndForm renders "0025" or "0025/0001/0002" style identifiers.
func JoinMonsterAndForm(monsterIdx int64, formPath []int, sep byte) string {
	return fmt.Sprintf("%04d%s", monsterIdx, JoinForm(formPath, true, sep))
}

// ForceNonShinyGroup canonicalizes a form path onto its non-shiny variant:
// the shiny toggle is forced to 0 and trailing zeros are stripped. Portrait
// recolor sheets read their source images from this form.
func ForceNonShinyGroup(formPath []int) []int {
	collected := append([]int(nil), formPath...)
	if len(collected) >= 2 {
		collected[1] = 0
	}
	for len(collected) > 0 && collected[len(collected)-1] == 0 {
		collected = collected[:len(collected)-1]
	}
	return collected
}

// ForceShinyGroup canonicalizes a form path onto its shiny variant: the
// shiny toggle is forced to 1, padding the path to length 2 if needed.
// Recolor sheet URLs are rendered against this form, matching SpriteBot.
func ForceShinyGroup(formPath []int) []int {
	collected := append([]int(nil), formPath...)
	switch {
	case len(collected) >= 2:
		collected[1] = 1
	case len(collected) == 1:
		collected = append(collected, 1)
	default:
		collected = []int{0, 1}
	}
	return collected
}

// # URL Generation

// GetURL renders the URL of an asset. Server-built assets point at this
// server (srvURL); raw repository files point at the public assets URL
// (assetsURL).
func GetURL(kind AssetKind, srvURL, assetsURL string, monsterIdx int64, formPath []int) string {
	dashed := JoinMonsterAndForm(monsterIdx, formPath, '-')
	slashed := JoinMonsterAndForm(monsterIdx, formPath, '/')

	switch kind.Type {
	case PortraitCreditsTxt:
		return fmt.Sprintf("%s/assets/portrait-credits-%s.txt", srvURL, dashed)
	case SpriteCreditsTxt:
		return fmt.Sprintf("%s/assets/sprite-credits-%s.txt", srvURL, dashed)
	case PortraitSheet:
		return fmt.Sprintf("%s/assets/portrait-%s.png", srvURL, dashed)
	case PortraitRecolorSheet:
		shiny := JoinMonsterAndForm(monsterIdx, ForceShinyGroup(formPath), '-')
		return fmt.Sprintf("%s/assets/portrait_recolor-%s.png", srvURL, shiny)
	case Portrait, PortraitFlipped:
		return fmt.Sprintf("%s/portrait/%s/%s.png", assetsURL, slashed, up(kind.Item))
	case SpriteAnimDataXml:
		return fmt.Sprintf("%s/sprite/%s/AnimData.xml", assetsURL, slashed)
	case SpriteZip:
		return fmt.Sprintf("%s/assets/%s/sprites.zip", srvURL, slashed)
	case SpriteRecolorSheet:
		shiny := JoinMonsterAndForm(monsterIdx, ForceShinyGroup(formPath), '-')
		return fmt.Sprintf("%s/assets/sprite_recolor-%s.png", srvURL, shiny)
	case SpriteAnim:
		return fmt.Sprintf("%s/sprite/%s/%s-Anim.png", assetsURL, slashed, up(kind.Item))
	case SpriteOffsets:
		return fmt.Sprintf("%s/sprite/%s/%s-Offsets.png", assetsURL, slashed, up(kind.Item))
	case SpriteShadows:
		return fmt.Sprintf("%s/sprite/%s/%s-Shadow.png", assetsURL, slashed, up(kind.Item))
	default:
		return ""
	}
}

// up title-cases an action/emotion name the way the repository files are
// named. "teary-eyed" is the one multi-word emotion and keeps both capitals.
func up(s string) string {
	if s == "teary-eyed" {
		return "Teary-Eyed"
	}
	runes := []rune(s)
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// # URL Matching

// MatchURL recognizes a request path and returns the monster id, the form
// path and the asset kind it addresses. Dashes are folded into slashes
// before matching so SpriteBot-style file names ("sprite-0025-0000.png")
// resolve like their slashed counterparts. ok is false for unknown shapes
// and non-numeric form paths.
func MatchURL(path string) (monsterIdx int64, formPath []int, kind AssetKind, ok bool) {
	normalized := strings.ReplaceAll(path, "-", "/")

	type pattern struct {
		prefix string
		suffix string
		kind   AssetType
	}

	// Ordered most-specific first; the credits routes must win over the
	// plain sheet routes sharing their prefix.
	patterns := []pattern{
		{"/assets/portrait/credits/", ".txt", PortraitCreditsTxt},
		{"/assets/sprite/credits/", ".txt", SpriteCreditsTxt},
		{"/assets/portrait_recolor/", ".png", PortraitRecolorSheet},
		{"/assets/sprite_recolor/", ".png", SpriteRecolorSheet},
		{"/assets/portrait/", ".png", PortraitSheet},
		{"/assets/", "/sprites.zip", SpriteZip},
	}

	for _, p := range patterns {
		rest, found := strings.CutPrefix(normalized, p.prefix)
		if !found {
			continue
		}
		rest, found = strings.CutSuffix(rest, p.suffix)
		if !found {
			continue
		}
		monsterIdx, formPath, ok = parseFormPath(rest)
		if !ok {
			return 0, nil, AssetKind{}, false
		}
		return monsterIdx, formPath, AssetKind{Type: p.kind}, true
	}
	return 0, nil, AssetKind{}, false
}

// parseFormPath splits "0025/0000/0001" into the monster id and form path.
// Leading zeros are accepted on every component.
func parseFormPath(joined string) (int64, []int, bool) {
	if joined == "" {
		return 0, nil, false
	}
	parts := strings.Split(joined, "/")

	monsterIdx, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, nil, false
	}

	var formPath []int
	for _, part := range parts[1:] {
		element, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, nil, false
		}
		formPath = append(formPath, element)
	}
	return monsterIdx, formPath, true
}
