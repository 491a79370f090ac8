// Copyright (c) 2026 PMDCollab. All rights reserved.

package assets_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdcollab/spritecollab-srv/internal/assets"
	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
)

// writePNG saves a uniformly colored square image.
func writePNG(t *testing.T, path string, size int, fill color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	savePNG(t, path, img)
}

func savePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
}

func decodePNG(t *testing.T, data []byte) *image.NRGBA {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	rgba := image.NewNRGBA(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}

func fileFlags(t *testing.T, raw string) datafiles.FileFlags {
	t.Helper()
	var flags datafiles.FileFlags
	require.NoError(t, json.Unmarshal([]byte(raw), &flags))
	return flags
}

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

/*
TestMakePortraitSheet verifies the grid layout: declared emotions land in
their cells, missing images and undeclared emotions are skipped.
*/
func TestMakePortraitSheet(t *testing.T) {
	dir := t.TempDir()
	const size = 4

	writePNG(t, filepath.Join(dir, "Normal.png"), size, red)
	writePNG(t, filepath.Join(dir, "Sad.png"), size, blue)
	// Happy.png deliberately absent; Angry.png is not declared.
	writePNG(t, filepath.Join(dir, "Angry.png"), size, red)

	group := &datafiles.Group{
		PortraitFiles: fileFlags(t, `{"Normal": false, "Happy": false, "Sad": false, "Angry": false}`),
	}
	layout := assets.NewPortraitSheetEmotions([]string{"Normal", "Happy", "Sad"}, 2)

	behaviour, err := assets.MakePortraitSheet(group, layout, dir, size)
	require.NoError(t, err)

	img := decodePNG(t, behaviour.Value())
	// 2 columns x 2 rows of 4px portraits
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	// Normal at (0,0), Sad at (0,1); Happy's cell stays transparent
	assert.Equal(t, red, img.NRGBAAt(0, 0))
	assert.Equal(t, blue, img.NRGBAAt(0, size))
	assert.Equal(t, uint8(0), img.NRGBAAt(size, 0).A)
}

/*
TestMakePortraitRecolorSheet verifies the palette row: one extra top row
holding every unique color.
*/
func TestMakePortraitRecolorSheet(t *testing.T) {
	dir := t.TempDir()
	const size = 4

	writePNG(t, filepath.Join(dir, "Normal.png"), size, red)

	group := &datafiles.Group{
		PortraitFiles: fileFlags(t, `{"Normal": false}`),
	}
	layout := assets.NewPortraitSheetEmotions([]string{"Normal"}, 2)

	behaviour, err := assets.MakePortraitRecolorSheet(group, layout, dir, size)
	require.NoError(t, err)

	img := decodePNG(t, behaviour.Value())
	assert.Equal(t, size, img.Bounds().Dx())
	assert.Equal(t, size+1, img.Bounds().Dy())

	// Palette: the single unique color sits at (0,0); the rest of the
	// palette row stays transparent
	assert.Equal(t, red, img.NRGBAAt(0, 0))
	assert.Equal(t, uint8(0), img.NRGBAAt(1, 0).A)

	// The portrait itself starts one row down
	assert.Equal(t, red, img.NRGBAAt(0, 1))
}
