// Copyright (c) 2026 PMDCollab. All rights reserved.

package assets

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/pmdcollab/spritecollab-srv/internal/cache"
	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
)

// PortraitSheetEmotions maps the config-declared emotions to grid positions.
// All positions, widths and heights use portraits as units, so they must be
// multiplied by the portrait size for pixel coordinates.
type PortraitSheetEmotions struct {
	positions map[string]image.Point
	maxWidth  int
	maxHeight int
}

// NewPortraitSheetEmotions lays the declared emotion list out on a grid
// tileX portraits wide, row by row.
func NewPortraitSheetEmotions(emotions []string, tileX int) PortraitSheetEmotions {
	layout := PortraitSheetEmotions{positions: make(map[string]image.Point, len(emotions))}
	for idx, emotion := range emotions {
		col := idx % tileX
		row := idx / tileX
		layout.positions[emotion] = image.Point{X: col, Y: row}
		if col+1 > layout.maxWidth {
			layout.maxWidth = col + 1
		}
		if row+1 > layout.maxHeight {
			layout.maxHeight = row + 1
		}
	}
	return layout
}

// MakePortraitSheet composes the portrait grid of a form into PNG bytes.
// Declared emotions the form doesn't have, and emotion images missing on
// disk, are silently skipped.
func MakePortraitSheet(group *datafiles.Group, emotions PortraitSheetEmotions, portraitBasePath string, portraitSize int) (cache.Behaviour[[]byte], error) {
	img, err := composePortraitSheet(0, group, emotions, portraitBasePath, portraitSize)
	if err != nil {
		return cache.Behaviour[[]byte]{}, err
	}
	data, err := encodePNG(img)
	if err != nil {
		return cache.Behaviour[[]byte]{}, err
	}
	return cache.Keep(data), nil
}

// MakePortraitRecolorSheet is the recolor variant: one extra row is reserved
// at the top and filled with the palette of unique colors.
func MakePortraitRecolorSheet(group *datafiles.Group, emotions PortraitSheetEmotions, portraitBasePath string, portraitSize int) (cache.Behaviour[[]byte], error) {
	img, err := composePortraitSheet(1, group, emotions, portraitBasePath, portraitSize)
	if err != nil {
		return cache.Behaviour[[]byte]{}, err
	}
	addPaletteTo(img)
	data, err := encodePNG(img)
	if err != nil {
		return cache.Behaviour[[]byte]{}, err
	}
	return cache.Keep(data), nil
}

func composePortraitSheet(paddingTop int, group *datafiles.Group, emotions PortraitSheetEmotions, portraitBasePath string, portraitSize int) (*image.NRGBA, error) {
	canvas := imaging.New(
		emotions.maxWidth*portraitSize,
		emotions.maxHeight*portraitSize+paddingTop,
		color.Transparent,
	)

	for _, emotion := range group.PortraitFiles.Names() {
		position, declared := emotions.positions[emotion]
		if !declared {
			continue
		}
		portrait, err := openImage(filepath.Join(portraitBasePath, fmt.Sprintf("%s.png", emotion)))
		if err != nil {
			// Tracker entries can be ahead of the files on disk.
			continue
		}
		canvas = imaging.Paste(canvas, portrait, image.Point{
			X: position.X * portraitSize,
			Y: position.Y*portraitSize + paddingTop,
		})
	}
	return canvas, nil
}
