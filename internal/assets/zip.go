// Copyright (c) 2026 PMDCollab. All rights reserved.

package assets

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmdcollab/spritecollab-srv/internal/cache"
)

// MakeSpriteZip packs every regular file of the form's sprite directory
// except credits.txt into a deflate-compressed archive. Directory entries
// are not recursed into.
func MakeSpriteZip(spriteBasePath string) (cache.Behaviour[[]byte], error) {
	entries, err := os.ReadDir(spriteBasePath)
	if err != nil {
		return cache.Behaviour[[]byte]{}, fmt.Errorf("read sprite dir: %w", err)
	}

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == "credits.txt" {
			continue
		}

		contents, err := os.ReadFile(filepath.Join(spriteBasePath, entry.Name()))
		if err != nil {
			return cache.Behaviour[[]byte]{}, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		file, err := archive.CreateHeader(&zip.FileHeader{
			Name:   entry.Name(),
			Method: zip.Deflate,
		})
		if err != nil {
			return cache.Behaviour[[]byte]{}, fmt.Errorf("add %s: %w", entry.Name(), err)
		}
		if _, err := file.Write(contents); err != nil {
			return cache.Behaviour[[]byte]{}, fmt.Errorf("write %s: %w", entry.Name(), err)
		}
	}

	if err := archive.Close(); err != nil {
		return cache.Behaviour[[]byte]{}, fmt.Errorf("finish archive: %w", err)
	}
	return cache.Keep(buf.Bytes()), nil
}
