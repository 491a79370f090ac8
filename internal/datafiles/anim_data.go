// Copyright (c) 2026 PMDCollab. All rights reserved.

package datafiles

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AnimData mirrors a form's AnimData.xml: the shadow size plus the ordered
// animation list.
type AnimData struct {
	XMLName    xml.Name `xml:"AnimData"`
	ShadowSize int64    `xml:"ShadowSize"`
	Anims      []Anim   `xml:"Anims>Anim"`
}

// Anim is a single animation entry. An entry with CopyOf set aliases another
// animation and carries no sheet of its own; it must not be used to read
// pixel data.
type Anim struct {
	Name        string  `xml:"Name"`
	Index       int64   `xml:"Index"`
	FrameWidth  *int64  `xml:"FrameWidth"`
	FrameHeight *int64  `xml:"FrameHeight"`
	Durations   []int64 `xml:"Durations>Duration"`
	RushFrame   *int64  `xml:"RushFrame"`
	HitFrame    *int64  `xml:"HitFrame"`
	ReturnFrame *int64  `xml:"ReturnFrame"`
	CopyOf      string  `xml:"CopyOf"`
}

// ParseAnimData decodes an AnimData.xml document.
func ParseAnimData(r io.Reader) (*AnimData, error) {
	data := &AnimData{}
	if err := xml.NewDecoder(r).Decode(data); err != nil {
		return nil, fmt.Errorf("decode AnimData.xml: %w", err)
	}
	return data, nil
}

// OpenAnimData reads and decodes the AnimData.xml at path.
func OpenAnimData(path string) (*AnimData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open AnimData.xml: %w", err)
	}
	defer file.Close()
	return ParseAnimData(file)
}

// ActionCopies maps every aliased animation name to the animation it copies.
func (a *AnimData) ActionCopies() map[string]string {
	copies := map[string]string{}
	for _, anim := range a.Anims {
		if anim.CopyOf != "" {
			copies[anim.Name] = anim.CopyOf
		}
	}
	return copies
}

// ValidateAnimData attempts to open the AnimData.xml of every form whose
// sprite set exists at all (sprite_complete >= 1). All failures are
// collected; a non-empty result means the tracker must not be published.
func ValidateAnimData(tracker Tracker, repoRoot string) error {
	var failed []*AnimDataError

	for monsterID, group := range tracker {
		collector := &FormCollector{root: group}
		for _, entry := range collector.Forms() {
			if entry.Group.SpriteComplete == PhaseIncomplete {
				continue
			}
			path := filepath.Join(repoRoot, "sprite", formDir(int64(monsterID), entry.Path), "AnimData.xml")
			if _, err := OpenAnimData(path); err != nil {
				failed = append(failed, &AnimDataError{
					Monster: int64(monsterID),
					Form:    entry.Path,
					Err:     err,
				})
			}
		}
	}

	if len(failed) > 0 {
		return &AnimDataErrors{Errors: failed}
	}
	return nil
}

// formDir renders "0025/0001/0002" style directory paths.
func formDir(monsterIdx int64, formPath []int) string {
	dir := fmt.Sprintf("%04d", monsterIdx)
	for _, element := range formPath {
		dir += fmt.Sprintf("/%04d", element)
	}
	return filepath.FromSlash(dir)
}
