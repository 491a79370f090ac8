// Copyright (c) 2026 PMDCollab. All rights reserved.

package assets_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdcollab/spritecollab-srv/internal/assets"
)

const (
	srvURL    = "https://sprites.example.org"
	assetsURL = "https://raw.example.org/spritecollab"
)

/*
TestMatchURL_AllKinds verifies recognition of every servable route.
*/
func TestMatchURL_AllKinds(t *testing.T) {
	cases := []struct {
		path string
		want assets.AssetType
		idx  int64
		form []int
	}{
		{"/assets/portrait/credits/0025/0001.txt", assets.PortraitCreditsTxt, 25, []int{1}},
		{"/assets/sprite/credits/0025.txt", assets.SpriteCreditsTxt, 25, nil},
		{"/assets/portrait/0025/0000/0002.png", assets.PortraitSheet, 25, []int{0, 2}},
		{"/assets/portrait_recolor/0025/0001.png", assets.PortraitRecolorSheet, 25, []int{1}},
		{"/assets/0025/0001/sprites.zip", assets.SpriteZip, 25, []int{1}},
		{"/assets/sprite_recolor/0025/0001.png", assets.SpriteRecolorSheet, 25, []int{1}},
	}

	for _, testCase := range cases {
		monsterIdx, formPath, kind, ok := assets.MatchURL(testCase.path)
		require.True(t, ok, testCase.path)
		assert.Equal(t, testCase.want, kind.Type, testCase.path)
		assert.Equal(t, testCase.idx, monsterIdx, testCase.path)
		assert.Equal(t, testCase.form, formPath, testCase.path)
	}
}

/*
TestMatchURL_DashNormalization verifies that SpriteBot-style dashed file
names resolve like their slashed counterparts.
*/
func TestMatchURL_DashNormalization(t *testing.T) {
	monsterIdx, formPath, kind, ok := assets.MatchURL("/assets/portrait-0025-0001.png")
	require.True(t, ok)
	assert.Equal(t, assets.PortraitSheet, kind.Type)
	assert.Equal(t, int64(25), monsterIdx)
	assert.Equal(t, []int{1}, formPath)
}

/*
TestMatchURL_LeadingZeros verifies arbitrary leading zeros in ids.
*/
func TestMatchURL_LeadingZeros(t *testing.T) {
	monsterIdx, formPath, _, ok := assets.MatchURL("/assets/portrait/00000150/000000.png")
	require.True(t, ok)
	assert.Equal(t, int64(150), monsterIdx)
	assert.Equal(t, []int{0}, formPath)
}

/*
TestMatchURL_Rejects verifies unknown shapes and non-numeric paths.
*/
func TestMatchURL_Rejects(t *testing.T) {
	for _, path := range []string{
		"/",
		"/graphql",
		"/assets/portrait/abc.png",
		"/assets/portrait/.png",
		"/assets/sprites.zip",
		"/assets/portrait/0025.jpg",
	} {
		_, _, _, ok := assets.MatchURL(path)
		assert.False(t, ok, path)
	}
}

/*
TestURL_RoundTrip verifies match_url(get_url(...)) for every servable kind
on canonical form paths.
*/
func TestURL_RoundTrip(t *testing.T) {
	cases := []struct {
		kind assets.AssetType
		form []int
	}{
		{assets.PortraitCreditsTxt, []int{1}},
		{assets.SpriteCreditsTxt, []int{1}},
		{assets.PortraitSheet, []int{1}},
		{assets.PortraitRecolorSheet, []int{0, 1}},
		{assets.SpriteZip, []int{1}},
		{assets.SpriteRecolorSheet, []int{0, 1}},
	}

	for _, testCase := range cases {
		url := assets.GetURL(assets.AssetKind{Type: testCase.kind}, srvURL, assetsURL, 25, testCase.form)
		path := strings.TrimPrefix(url, srvURL)

		monsterIdx, formPath, kind, ok := assets.MatchURL(path)
		require.True(t, ok, url)
		assert.Equal(t, testCase.kind, kind.Type, url)
		assert.Equal(t, int64(25), monsterIdx, url)
		assert.Equal(t, testCase.form, formPath, url)
	}
}

/*
TestGetURL_RawAssets verifies the upstream-pointing URLs including the
SpriteBot capitalisation rules.
*/
func TestGetURL_RawAssets(t *testing.T) {
	url := assets.GetURL(assets.AssetKind{Type: assets.Portrait, Item: "teary-eyed"}, srvURL, assetsURL, 25, []int{1})
	assert.Equal(t, assetsURL+"/portrait/0025/0001/Teary-Eyed.png", url)

	url = assets.GetURL(assets.AssetKind{Type: assets.SpriteAnim, Item: "idle"}, srvURL, assetsURL, 25, nil)
	assert.Equal(t, assetsURL+"/sprite/0025/Idle-Anim.png", url)

	url = assets.GetURL(assets.AssetKind{Type: assets.SpriteAnimDataXml}, srvURL, assetsURL, 25, nil)
	assert.Equal(t, assetsURL+"/sprite/0025/AnimData.xml", url)
}

/*
TestForceGroups verifies the canonical recolor form rules.
*/
func TestForceGroups(t *testing.T) {
	// Non-shiny: toggle cleared, trailing zeros stripped
	assert.Equal(t, []int{}, assets.ForceNonShinyGroup([]int{0, 1}))
	assert.Equal(t, []int{2}, assets.ForceNonShinyGroup([]int{2, 1}))
	assert.Equal(t, []int{2, 0, 3}, assets.ForceNonShinyGroup([]int{2, 1, 3}))

	// Shiny: toggle set, padded to length >= 2
	assert.Equal(t, []int{0, 1}, assets.ForceShinyGroup(nil))
	assert.Equal(t, []int{2, 1}, assets.ForceShinyGroup([]int{2}))
	assert.Equal(t, []int{2, 1, 3}, assets.ForceShinyGroup([]int{2, 0, 3}))
}
