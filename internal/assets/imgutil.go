// Copyright (c) 2026 PMDCollab. All rights reserved.

package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
)

// encodePNG renders an image into PNG bytes.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// openImage decodes an image file into RGBA.
func openImage(path string) (*image.NRGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return imaging.Clone(img), nil
}

// addPaletteTo writes the palette row: every unique non-transparent color of
// the image, in raster scan order, laid out left-to-right at y=0. The first
// row must have been left blank by the caller.
func addPaletteTo(img *image.NRGBA) {
	bounds := img.Bounds()
	var palette []color.NRGBA
	seen := map[color.NRGBA]struct{}{}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixel := img.NRGBAAt(x, y)
			if pixel.A == 0 {
				continue
			}
			if _, dup := seen[pixel]; dup {
				continue
			}
			seen[pixel] = struct{}{}
			palette = append(palette, pixel)
		}
	}

	for x, pixel := range palette {
		img.SetNRGBA(x, 0, pixel)
	}
}
