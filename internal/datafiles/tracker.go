// Copyright (c) 2026 PMDCollab. All rights reserved.

package datafiles

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Tracker is the nested monsters/forms tree keyed by numeric group id.
// Top-level keys are the root monsters.
type Tracker map[GroupID]*Group

// ReadTracker loads and decodes tracker.json from path.
func ReadTracker(path string) (Tracker, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tracker: %w", err)
	}
	tracker := Tracker{}
	if err := json.Unmarshal(raw, &tracker); err != nil {
		return nil, fmt.Errorf("decode tracker: %w", err)
	}
	return tracker, nil
}

// # Phases

// Phase is the completion tier of a sprite or portrait set. Values other
// than the three known tiers are preserved and surface as Unknown.
type Phase int64

const (
	PhaseIncomplete Phase = 0
	PhaseExists     Phase = 1
	PhaseFull       Phase = 2
)

// Known reports whether the phase is one of the three defined tiers.
func (p Phase) Known() bool {
	return p == PhaseIncomplete || p == PhaseExists || p == PhaseFull
}

func (p Phase) String() string {
	switch p {
	case PhaseIncomplete:
		return "INCOMPLETE"
	case PhaseExists:
		return "EXISTS"
	case PhaseFull:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// # Value Types

// Credit is the primary author of an asset set plus the ordered secondaries.
type Credit struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary"`
	Total     int64    `json:"total"`
}

// Timestamp wraps the tracker's "YYYY-MM-DD HH:MM:SS[.fff]" timestamps.
// An empty string decodes into the zero value.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON decodes the tracker timestamp format as UTC.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	// The layout omits the fraction; time.Parse accepts an optional
	// fractional second after the seconds field regardless.
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", raw, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON encodes back into the tracker timestamp format.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format("2006-01-02 15:04:05"))
}

// # Ordered File Maps

// FileFlag is one action or emotion entry with its locked state.
type FileFlag struct {
	Name   string
	Locked bool
}

// FileFlags is an insertion-ordered action/emotion map. The JSON object
// order is preserved on decode so that the config-declared sort step has a
// deterministic input.
type FileFlags []FileFlag

// UnmarshalJSON decodes a JSON object into FileFlags preserving key order.
func (f *FileFlags) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object for file flags, got %v", token)
	}

	flags := FileFlags{}
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return err
		}
		name, ok := keyToken.(string)
		if !ok {
			return fmt.Errorf("expected string key in file flags, got %v", keyToken)
		}
		var locked bool
		if err := decoder.Decode(&locked); err != nil {
			return fmt.Errorf("file flag %q: %w", name, err)
		}
		flags = append(flags, FileFlag{Name: name, Locked: locked})
	}

	*f = flags
	return nil
}

// MarshalJSON encodes FileFlags back into an object in iteration order.
func (f FileFlags) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, flag := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(flag.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if flag.Locked {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the locked flag for name.
func (f FileFlags) Get(name string) (locked, ok bool) {
	for _, flag := range f {
		if flag.Name == name {
			return flag.Locked, true
		}
	}
	return false, false
}

// Names returns the entry names in iteration order.
func (f FileFlags) Names() []string {
	names := make([]string, len(f))
	for i, flag := range f {
		names[i] = flag.Name
	}
	return names
}

// sortByDeclared reorders the entries so that names present in the declared
// list appear in declared order; unknown names follow, sorted by name.
func (f FileFlags) sortByDeclared(declared []string) {
	indexes := make(map[string]int, len(declared))
	for i, name := range declared {
		indexes[name] = i
	}
	sort.SliceStable(f, func(a, b int) bool {
		ia, oka := indexes[f[a].Name]
		ib, okb := indexes[f[b].Name]
		switch {
		case oka && okb:
			return ia < ib
		case oka:
			return true
		case okb:
			return false
		default:
			return f[a].Name < f[b].Name
		}
	})
}

// # Groups

// Group is one monster or form node of the tracker tree.
type Group struct {
	Canon    bool   `json:"canon"`
	Modreward bool  `json:"modreward"`
	Name     string `json:"name"`

	PortraitBounty      map[Phase]int64 `json:"portrait_bounty"`
	PortraitComplete    Phase           `json:"portrait_complete"`
	PortraitCredit      Credit          `json:"portrait_credit"`
	PortraitFiles       FileFlags       `json:"portrait_files"`
	PortraitLink        string          `json:"portrait_link"`
	PortraitModified    Timestamp       `json:"portrait_modified"`
	PortraitPending     json.RawMessage `json:"portrait_pending"`
	PortraitRecolorLink string          `json:"portrait_recolor_link"`
	PortraitRequired    bool            `json:"portrait_required"`

	SpriteBounty      map[Phase]int64 `json:"sprite_bounty"`
	SpriteComplete    Phase           `json:"sprite_complete"`
	SpriteCredit      Credit          `json:"sprite_credit"`
	SpriteFiles       FileFlags       `json:"sprite_files"`
	SpriteLink        string          `json:"sprite_link"`
	SpriteModified    Timestamp       `json:"sprite_modified"`
	SpritePending     json.RawMessage `json:"sprite_pending"`
	SpriteRecolorLink string          `json:"sprite_recolor_link"`
	SpriteRequired    bool            `json:"sprite_required"`

	Subgroups map[GroupID]*Group `json:"subgroups"`
}

// SortTracker rewrites every group's sprite_files/portrait_files so that
// known actions/emotions appear in the config-declared order, recursively
// over all subgroups.
func SortTracker(tracker Tracker, cfg *SpriteConfig) {
	sortGroups(tracker, cfg)
}

func sortGroups(groups map[GroupID]*Group, cfg *SpriteConfig) {
	for _, group := range groups {
		group.SpriteFiles.sortByDeclared(cfg.Actions)
		group.PortraitFiles.sortByDeclared(cfg.Emotions)
		sortGroups(group.Subgroups, cfg)
	}
}
