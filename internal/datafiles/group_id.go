// Copyright (c) 2026 PMDCollab. All rights reserved.

package datafiles

import (
	"fmt"
	"strconv"
	"strings"
)

// GroupID is a numeric group key of the tracker. The JSON serialization is a
// decimal string that may carry arbitrarily many leading zeros ("0000").
type GroupID int64

// UnmarshalText decodes a tracker object key into a GroupID.
func (g *GroupID) UnmarshalText(text []byte) error {
	trimmed := strings.TrimLeft(string(text), "0")
	if trimmed == "" {
		*g = 0
		return nil
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid group id %q: %w", string(text), err)
	}
	*g = GroupID(value)
	return nil
}

// MarshalText encodes the GroupID back into its decimal form.
func (g GroupID) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(g), 10)), nil
}

func (g GroupID) String() string {
	return strconv.FormatInt(int64(g), 10)
}
