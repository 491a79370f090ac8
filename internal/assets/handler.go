// Copyright (c) 2026 PMDCollab. All rights reserved.

package assets

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/pmdcollab/spritecollab-srv/internal/cache"
	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/apperr"
	"github.com/pmdcollab/spritecollab-srv/internal/platform/respond"
	"github.com/pmdcollab/spritecollab-srv/pkg/slice"
)

// SnapshotFunc hands the handler the currently published snapshot pieces it
// needs. The reference obtained at the start of a request stays valid for
// the whole request even if a new snapshot is published meanwhile.
type SnapshotFunc func() (*datafiles.SpriteConfig, datafiles.Tracker)

// Handler serves the derived-asset routes.
//
// It translates matched asset URLs into form lookups, runs the builders
// through the read-through cache and renders the bytes with the right media
// type.
type Handler struct {
	snapshot SnapshotFunc
	cache    *cache.Cache
	repoRoot string
}

// NewHandler constructs the asset [Handler].
func NewHandler(snapshot SnapshotFunc, c *cache.Cache, repoRoot string) *Handler {
	return &Handler{snapshot: snapshot, cache: c, repoRoot: repoRoot}
}

// Routes returns a [chi.Router] that serves every asset URL shape under a
// single wildcard; the real routing happens in [MatchURL].
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/*", handler.serveAsset)
	return router
}

/*
GET /assets/...

Description: Serves the derived binary assets (portrait sheets, recolor
sheets, sprite archives, credits files) addressed by a matched asset URL.

Response:
  - 200: image/png, application/zip or text/plain body
  - 404: unknown URL shape or unresolvable monster/form
  - 500: plain-text description of a failed build
*/
func (handler *Handler) serveAsset(writer http.ResponseWriter, request *http.Request) {
	monsterIdx, formPath, kind, ok := MatchURL(request.URL.Path)
	if !ok {
		respond.AssetError(writer, request, apperr.NotFound("Asset"))
		return
	}

	// Recolor routes address a canonical variant regardless of the form
	// spelled out in the URL.
	switch kind.Type {
	case PortraitRecolorSheet:
		formPath = ForceNonShinyGroup(formPath)
	case SpriteRecolorSheet:
		formPath = ForceShinyGroup(formPath)
	}

	config, tracker := handler.snapshot()

	collector, ok := datafiles.CollectForm(tracker, monsterIdx)
	if !ok {
		respond.AssetError(writer, request, apperr.NotFound("Monster"))
		return
	}
	resolvedPath, _, group, ok := collector.FindForm(slice.Map(formPath, datafiles.Exact))
	if !ok {
		respond.AssetError(writer, request, apperr.NotFound("Monster form"))
		return
	}

	joined := JoinMonsterAndForm(monsterIdx, resolvedPath, '/')
	portraitBase := filepath.Join(handler.repoRoot, "portrait", filepath.FromSlash(joined))
	spriteBase := filepath.Join(handler.repoRoot, "sprite", filepath.FromSlash(joined))

	ctx := request.Context()

	switch kind.Type {
	case PortraitSheet:
		key := fmt.Sprintf("portrait_sheet|%d/%v", monsterIdx, resolvedPath)
		data, err := cache.CachedMayFail(ctx, handler.cache, key, func() (cache.Behaviour[[]byte], error) {
			layout := NewPortraitSheetEmotions(config.Emotions, config.PortraitTileX)
			return MakePortraitSheet(group, layout, portraitBase, config.PortraitSize)
		})
		if err != nil {
			respond.AssetError(writer, request, apperr.Internal(err))
			return
		}
		respond.PNG(writer, data)

	case PortraitRecolorSheet:
		key := fmt.Sprintf("portrait_recolor_sheet|%d/%v", monsterIdx, resolvedPath)
		data, err := cache.CachedMayFail(ctx, handler.cache, key, func() (cache.Behaviour[[]byte], error) {
			layout := NewPortraitSheetEmotions(config.Emotions, config.PortraitTileX)
			return MakePortraitRecolorSheet(group, layout, portraitBase, config.PortraitSize)
		})
		if err != nil {
			respond.AssetError(writer, request, apperr.Internal(err))
			return
		}
		respond.PNG(writer, data)

	case SpriteZip:
		key := fmt.Sprintf("sprite_zip|%d/%v", monsterIdx, resolvedPath)
		data, err := cache.CachedMayFail(ctx, handler.cache, key, func() (cache.Behaviour[[]byte], error) {
			return MakeSpriteZip(spriteBase)
		})
		if err != nil {
			respond.AssetError(writer, request, apperr.Internal(err))
			return
		}
		respond.Zip(writer, data, "sprite.zip")

	case SpriteRecolorSheet:
		key := fmt.Sprintf("sprite_recolor_sheet|%d/%v", monsterIdx, resolvedPath)
		data, err := cache.CachedMayFail(ctx, handler.cache, key, func() (cache.Behaviour[[]byte], error) {
			return MakeSpriteRecolorSheet(spriteBase)
		})
		if err != nil {
			respond.AssetError(writer, request, apperr.Internal(err))
			return
		}
		respond.PNG(writer, data)

	case PortraitCreditsTxt:
		handler.serveCredits(writer, request, portraitBase)

	case SpriteCreditsTxt:
		handler.serveCredits(writer, request, spriteBase)

	default:
		respond.AssetError(writer, request, apperr.NotFound("Asset"))
	}
}

// serveCredits streams the form-local credits.txt verbatim.
func (handler *Handler) serveCredits(writer http.ResponseWriter, request *http.Request, base string) {
	contents, err := os.ReadFile(filepath.Join(base, "credits.txt"))
	if err != nil {
		if os.IsNotExist(err) {
			respond.AssetError(writer, request, apperr.NotFound("Credits file"))
			return
		}
		respond.AssetError(writer, request, apperr.Internal(err))
		return
	}
	respond.Text(writer, http.StatusOK, string(contents))
}
