// Copyright (c) 2026 PMDCollab. All rights reserved.

package datafiles

import (
	"encoding/json"
	"fmt"
	"os"
)

// SpriteConfig mirrors sprite_config.json: portrait sheet geometry, the
// declared emotion/action orders and the per-phase completion requirements.
type SpriteConfig struct {
	PortraitSize  int `json:"portrait_size"`
	PortraitTileX int `json:"portrait_tile_x"`
	PortraitTileY int `json:"portrait_tile_y"`

	// CompletionEmotions lists, per phase, the emotion indexes required for
	// that phase to count as reached. Same for CompletionActions.
	CompletionEmotions [][]int  `json:"completion_emotions"`
	Emotions           []string `json:"emotions"`
	CompletionActions  [][]int  `json:"completion_actions"`
	Actions            []string `json:"actions"`

	// ActionMap maps action indexes to action names.
	ActionMap map[int]string `json:"action_map"`
}

// ReadSpriteConfig loads and decodes sprite_config.json from path.
func ReadSpriteConfig(path string) (*SpriteConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sprite config: %w", err)
	}
	cfg := &SpriteConfig{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode sprite config: %w", err)
	}
	return cfg, nil
}
