// Copyright (c) 2026 PMDCollab. All rights reserved.

package assets

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/pmdcollab/spritecollab-srv/internal/cache"
	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
)

// InvalidAnimError reports an AnimData.xml animation that carries its own
// sheet but lacks the frame dimensions needed to slice it.
type InvalidAnimError struct {
	Anim string
}

func (e *InvalidAnimError) Error() string {
	return fmt.Sprintf("the AnimData.xml for this sprite is invalid: FrameWidth or FrameHeight missing for %s", e.Anim)
}

// DuplicateAnchorError reports more than one anchor pixel of the same color
// inside a single offsets cell. The whole build is aborted.
type DuplicateAnchorError struct {
	Color string
}

func (e *DuplicateAnchorError) Error() string {
	return fmt.Sprintf("multiple %s pixels found when searching for offsets", e.Color)
}

// spriteOffsets are the four anchor points of a frame: head, left hand,
// right hand and center.
type spriteOffsets struct {
	headX, headY     int
	lhandX, lhandY   int
	rhandX, rhandY   int
	centerX, centerY int
}

func (o *spriteOffsets) addLoc(dx, dy int) {
	o.headX += dx
	o.headY += dy
	o.lhandX += dx
	o.lhandY += dy
	o.rhandX += dx
	o.rhandY += dy
	o.centerX += dx
	o.centerY += dy
}

// bounds returns the rectangle covering all four anchors (each anchor is a
// 1x1 box).
func (o *spriteOffsets) bounds() image.Rectangle {
	rect := image.Rect(o.headX, o.headY, o.headX+1, o.headY+1)
	rect = rect.Union(image.Rect(o.lhandX, o.lhandY, o.lhandX+1, o.lhandY+1))
	rect = rect.Union(image.Rect(o.rhandX, o.rhandY, o.rhandX+1, o.rhandY+1))
	rect = rect.Union(image.Rect(o.centerX, o.centerY, o.centerX+1, o.centerY+1))
	return rect
}

// centeredBounds expands the anchor bounds symmetrically around (cx, cy) so
// that the center stays the midpoint.
func (o *spriteOffsets) centeredBounds(cx, cy int) image.Rectangle {
	rect := o.bounds()
	minX := min(rect.Min.X-cx, cx-rect.Max.X)
	minY := min(rect.Min.Y-cy, cy-rect.Max.Y)
	maxX := max(cx-rect.Min.X, rect.Max.X-cx)
	maxY := max(cy-rect.Min.Y, rect.Max.Y-cy)
	return image.Rect(minX+cx, minY+cy, maxX+cx, maxY+cy)
}

// spriteFrame is one deduplicated frame with its frame-local anchors.
type spriteFrame struct {
	tex     *image.NRGBA
	offsets spriteOffsets
}

// MakeSpriteRecolorSheet builds the recolor atlas for a form's sprite
// directory: all unique frames (modulo horizontal flip) of every
// non-aliased animation, centered in even-sized tiles of a square grid,
// with the palette row injected at the top.
func MakeSpriteRecolorSheet(spriteBasePath string) (cache.Behaviour[[]byte], error) {
	frames, err := collectSpriteFrames(spriteBasePath)
	if err != nil {
		return cache.Behaviour[[]byte]{}, err
	}

	tileW, tileH := spriteFrameSize(frames)

	side := int(math.Ceil(math.Sqrt(float64(len(frames)))))
	combined := imaging.New(max(side*tileW, 1), max(side*tileH, 1), color.Transparent)

	for idx, frame := range frames {
		frameBounds := frame.tex.Bounds()
		diffX := tileW/2 - frameBounds.Dx()/2
		diffY := tileH/2 - frameBounds.Dy()/2
		tileX := (idx % side) * tileW
		tileY := (idx / side) * tileH
		combined = imaging.Paste(combined, frame.tex, image.Point{X: tileX + diffX, Y: tileY + diffY})
	}

	addPaletteTo(combined)

	data, err := encodePNG(combined)
	if err != nil {
		return cache.Behaviour[[]byte]{}, err
	}
	return cache.Keep(data), nil
}

// collectSpriteFrames extracts, crops and deduplicates the frames of every
// animation that has both its sheet and its offsets image on disk.
func collectSpriteFrames(spriteBasePath string) ([]spriteFrame, error) {
	animData, err := datafiles.OpenAnimData(filepath.Join(spriteBasePath, "AnimData.xml"))
	if err != nil {
		return nil, err
	}

	// Collect the dimensions of every animation that owns a sheet,
	// preserving AnimData.xml order.
	type animDims struct {
		name   string
		width  int
		height int
	}
	var dims []animDims
	for _, anim := range animData.Anims {
		if anim.CopyOf != "" {
			continue
		}
		if anim.FrameWidth == nil || anim.FrameHeight == nil {
			return nil, &InvalidAnimError{Anim: anim.Name}
		}
		dims = append(dims, animDims{
			name:   anim.Name,
			width:  int(*anim.FrameWidth),
			height: int(*anim.FrameHeight),
		})
	}

	var frames []spriteFrame

	for _, anim := range dims {
		sheet, err := openImage(filepath.Join(spriteBasePath, fmt.Sprintf("%s-Anim.png", anim.name)))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		offsetsImg, err := openImage(filepath.Join(spriteBasePath, fmt.Sprintf("%s-Offsets.png", anim.name)))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}

		sheetBounds := sheet.Bounds()
		rows := sheetBounds.Dy() / anim.height
		cols := sheetBounds.Dx() / anim.width

		for baseRow := 0; baseRow < rows; baseRow++ {
			// Directions are standardized to clockwise order.
			yy := (((8 - baseRow) % 8 + 8) % 8) * anim.height

			for col := 0; col < cols; col++ {
				xx := col * anim.width
				cell := image.Rect(xx, yy, xx+anim.width, yy+anim.height)

				frame, ok, err := extractFrame(sheet, offsetsImg, cell)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}

				if isDuplicateFrame(frames, frame) {
					continue
				}
				frames = append(frames, frame)
			}
		}
	}

	return frames, nil
}

// extractFrame reads one cell: the tight content bbox off the sheet and the
// anchor pixels off the offsets image. ok is false for missing frames
// (no opaque pixel and no head anchor).
func extractFrame(sheet, offsetsImg *image.NRGBA, cell image.Rectangle) (spriteFrame, bool, error) {
	content := coveredBounds(sheet, cell)

	missingTex := false
	if content.Min.X >= content.Max.X {
		// No opaque pixel: pretend a 1x1 box at the cell center so the
		// anchors still resolve, and remember the texture was missing.
		halfW, halfH := cell.Dx()/2, cell.Dy()/2
		content = image.Rect(halfW, halfH, halfW+1, halfH+1)
		missingTex = true
	}

	anchors, err := anchorsFromOffsets(offsetsImg, cell)
	if err != nil {
		return spriteFrame{}, false, err
	}

	var offsets spriteOffsets
	if anchors.center != nil {
		offsets.centerX, offsets.centerY = anchors.center.X, anchors.center.Y
	}
	if anchors.head != nil {
		offsets.headX, offsets.headY = anchors.head.X, anchors.head.Y
		missingTex = false
	} else {
		offsets.headX, offsets.headY = offsets.centerX, offsets.centerY
	}

	// No texture and no head anchor means the frame does not exist.
	if missingTex {
		return spriteFrame{}, false, nil
	}

	if anchors.lhand != nil {
		offsets.lhandX, offsets.lhandY = anchors.lhand.X, anchors.lhand.Y
	}
	if anchors.rhand != nil {
		offsets.rhandX, offsets.rhandY = anchors.rhand.X, anchors.rhand.Y
	}

	// Make the anchors frame-local.
	offsets.addLoc(-content.Min.X, -content.Min.Y)

	absolute := content.Add(cell.Min)
	tex := imaging.Crop(sheet, absolute)

	return spriteFrame{tex: tex, offsets: offsets}, true, nil
}

// coveredBounds computes the minimum rectangle covering all pixels with
// non-zero alpha inside the cell, relative to the cell origin. An empty
// rectangle (Min.X >= Max.X) means the cell is fully transparent.
func coveredBounds(img *image.NRGBA, cell image.Rectangle) image.Rectangle {
	minX, minY := img.Bounds().Dx(), img.Bounds().Dy()
	maxX, maxY := -1, -1

	for x := cell.Min.X; x < cell.Max.X; x++ {
		for y := cell.Min.Y; y < cell.Max.Y; y++ {
			if img.NRGBAAt(x, y).A == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}

	// Deliberately not image.Rect: an empty result (minX > maxX) must stay
	// inverted so callers can detect the fully transparent cell.
	covered := image.Rectangle{
		Min: image.Point{X: minX, Y: minY},
		Max: image.Point{X: maxX + 1, Y: maxY + 1},
	}
	return covered.Sub(cell.Min)
}

// frameAnchors are the raw anchor positions found in one offsets cell,
// relative to the cell origin. Nil means the color was absent.
type frameAnchors struct {
	head   *image.Point // black
	lhand  *image.Point // red
	center *image.Point // green
	rhand  *image.Point // blue
}

// anchorsFromOffsets scans the offsets cell for the color-coded anchor
// pixels. Exactly one pixel per color is allowed; duplicates abort the
// whole build.
func anchorsFromOffsets(img *image.NRGBA, cell image.Rectangle) (frameAnchors, error) {
	var anchors frameAnchors

	for x := cell.Min.X; x < cell.Max.X; x++ {
		for y := cell.Min.Y; y < cell.Max.Y; y++ {
			pixel := img.NRGBAAt(x, y)
			if pixel.A != 255 {
				continue
			}
			local := image.Point{X: x - cell.Min.X, Y: y - cell.Min.Y}

			if pixel.R == 0 && pixel.G == 0 && pixel.B == 0 {
				if anchors.head != nil {
					return frameAnchors{}, &DuplicateAnchorError{Color: "black"}
				}
				point := local
				anchors.head = &point
			}
			if pixel.R == 255 {
				if anchors.lhand != nil {
					return frameAnchors{}, &DuplicateAnchorError{Color: "red"}
				}
				point := local
				anchors.lhand = &point
			}
			if pixel.G == 255 {
				if anchors.center != nil {
					return frameAnchors{}, &DuplicateAnchorError{Color: "green"}
				}
				point := local
				anchors.center = &point
			}
			if pixel.B == 255 {
				if anchors.rhand != nil {
					return frameAnchors{}, &DuplicateAnchorError{Color: "blue"}
				}
				point := local
				anchors.rhand = &point
			}
		}
	}

	return anchors, nil
}

// # Frame Deduplication

// isDuplicateFrame reports whether candidate matches any accumulated frame,
// either as-is or mirrored horizontally (pixels and anchors both).
func isDuplicateFrame(frames []spriteFrame, candidate spriteFrame) bool {
	width := candidate.tex.Bounds().Dx()
	for i := range frames {
		if imgsEqual(frames[i].tex, candidate.tex, false) &&
			offsetsEqual(&frames[i].offsets, &candidate.offsets, width, false) {
			return true
		}
		if imgsEqual(frames[i].tex, candidate.tex, true) &&
			offsetsEqual(&frames[i].offsets, &candidate.offsets, width, true) {
			return true
		}
	}
	return false
}

// imgsEqual compares two frames pixel-for-pixel; with flip set, the second
// image is read mirrored horizontally.
func imgsEqual(img1, img2 *image.NRGBA, flip bool) bool {
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return false
	}
	width, height := b1.Dx(), b1.Dy()

	for x := 0; x < width; x++ {
		x2 := x
		if flip {
			x2 = width - 1 - x
		}
		for y := 0; y < height; y++ {
			p1 := img1.NRGBAAt(b1.Min.X+x, b1.Min.Y+y)
			p2 := img2.NRGBAAt(b2.Min.X+x2, b2.Min.Y+y)
			if p1 != p2 {
				return false
			}
		}
	}
	return true
}

// offsetsEqual compares anchor sets; with flip set, the second set is
// reflected horizontally (x' = width-1-x) before comparing.
func offsetsEqual(offsets1, offsets2 *spriteOffsets, imgWidth int, flip bool) bool {
	mirrored := *offsets2
	if flip {
		mirrored.centerX = imgWidth - offsets2.centerX - 1
		mirrored.headX = imgWidth - offsets2.headX - 1
		mirrored.lhandX = imgWidth - offsets2.lhandX - 1
		mirrored.rhandX = imgWidth - offsets2.rhandX - 1
	}
	return *offsets1 == mirrored
}

// # Canvas Sizing

// spriteFrameSize computes the tile size: the largest frame extent or
// centered-anchor extent across all frames, rounded up to even numbers.
func spriteFrameSize(frames []spriteFrame) (int, int) {
	maxWidth, maxHeight := 0, 0

	for i := range frames {
		bounds := frames[i].tex.Bounds()
		maxWidth = max(maxWidth, bounds.Dx())
		maxHeight = max(maxHeight, bounds.Dy())

		centered := frames[i].offsets.centeredBounds(bounds.Dx()/2, bounds.Dy()/2)
		maxWidth = max(maxWidth, centered.Dx())
		maxHeight = max(maxHeight, centered.Dy())
	}

	return roundUpToMult(maxWidth, 2), roundUpToMult(maxHeight, 2)
}

func roundUpToMult(num, mult int) int {
	if num <= 0 {
		return mult
	}
	return ((num-1)/mult + 1) * mult
}
