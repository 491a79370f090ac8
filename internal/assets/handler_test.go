// Copyright (c) 2026 PMDCollab. All rights reserved.

package assets_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdcollab/spritecollab-srv/internal/assets"
	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
)

// handlerFixture wires a handler over a throwaway repository tree with one
// monster (25) that has a Normal portrait and a sprite file.
func handlerFixture(t *testing.T) *assets.Handler {
	t.Helper()
	root := t.TempDir()

	writePNG(t, filepath.Join(root, "portrait", "0025", "Normal.png"), 4, red)
	spriteDir := filepath.Join(root, "sprite", "0025")
	require.NoError(t, os.MkdirAll(spriteDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(spriteDir, "AnimData.xml"), []byte("<AnimData/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(spriteDir, "credits.txt"), []byte("2022-01-01 00:00:00\t1\n"), 0o644))

	config := &datafiles.SpriteConfig{
		PortraitSize:  4,
		PortraitTileX: 2,
		Emotions:      []string{"Normal", "Happy"},
	}
	tracker := datafiles.Tracker{
		25: {
			Name:          "Pikachu",
			PortraitFiles: fileFlags(t, `{"Normal": false}`),
		},
	}

	return assets.NewHandler(func() (*datafiles.SpriteConfig, datafiles.Tracker) {
		return config, tracker
	}, newTestCache(), root)
}

func serveAsset(t *testing.T, handler *assets.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_PortraitSheet verifies the happy path media type.
*/
func TestHandler_PortraitSheet(t *testing.T) {
	handler := handlerFixture(t)

	response := serveAsset(t, handler, "/assets/portrait/0025.png")
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "image/png", response.Header().Get("Content-Type"))
	assert.NotEmpty(t, response.Body.Bytes())
}

/*
TestHandler_SpriteZip verifies that the archive route answers 200 with the
application/zip media type.
*/
func TestHandler_SpriteZip(t *testing.T) {
	handler := handlerFixture(t)

	response := serveAsset(t, handler, "/assets/0025/sprites.zip")
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "application/zip", response.Header().Get("Content-Type"))
}

/*
TestHandler_CreditsTxt verifies the plain-text credits route.
*/
func TestHandler_CreditsTxt(t *testing.T) {
	handler := handlerFixture(t)

	response := serveAsset(t, handler, "/assets/sprite/credits/0025.txt")
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "text/plain; charset=utf-8", response.Header().Get("Content-Type"))
	assert.Contains(t, response.Body.String(), "2022-01-01")
}

/*
TestHandler_NotFound verifies unknown monsters and unknown shapes.
*/
func TestHandler_NotFound(t *testing.T) {
	handler := handlerFixture(t)

	assert.Equal(t, http.StatusNotFound, serveAsset(t, handler, "/assets/portrait/9999.png").Code)
	assert.Equal(t, http.StatusNotFound, serveAsset(t, handler, "/assets/portrait/0025/0007.png").Code)
	assert.Equal(t, http.StatusNotFound, serveAsset(t, handler, "/assets/bogus").Code)
}

/*
TestHandler_PortraitRecolorForcesNonShiny verifies that the shiny-form URL
resolves through the non-shiny variant.
*/
func TestHandler_PortraitRecolorForcesNonShiny(t *testing.T) {
	handler := handlerFixture(t)

	// Monster 25 has no shiny form; the recolor route folds [0,1] to the root.
	response := serveAsset(t, handler, "/assets/portrait_recolor/0025/0000/0001.png")
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "image/png", response.Header().Get("Content-Type"))
}
