// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package search provides the fuzzy match helper behind name lookups.

An index is a set of (key, record ids) entries; keys are matched
case-insensitively against the query with a Smith-Waterman-like scorer. Every
key that scores above zero contributes all of its ids at that score; results
are ordered best-first and deduplicated keeping the first occurrence.
*/
package search

import (
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/pmdcollab/spritecollab-srv/pkg/fold"
)

// MaxQueryLen bounds search query strings; longer queries are truncated
// before matching.
const MaxQueryLen = 75

// Entry is one index key with the record ids filed under it.
type Entry[ID comparable] struct {
	Key string
	IDs []ID
}

// Find matches query against the entry keys and returns the ids of all
// entries scoring above zero, sorted by descending score, deduplicated
// preserving the first occurrence.
func Find[ID comparable](query string, entries []Entry[ID]) []ID {
	if len(query) > MaxQueryLen {
		query = query[:MaxQueryLen]
	}

	keys := make([]string, len(entries))
	for i, entry := range entries {
		keys[i] = fold.Key(entry.Key)
	}

	matches := fuzzy.Find(fold.Key(query), keys)

	type scored struct {
		score int
		id    ID
	}
	var results []scored
	for _, match := range matches {
		if match.Score <= 0 {
			continue
		}
		for _, id := range entries[match.Index].IDs {
			results = append(results, scored{score: match.Score, id: id})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].score > results[b].score
	})

	seen := make(map[ID]struct{}, len(results))
	ids := make([]ID, 0, len(results))
	for _, result := range results {
		if _, dup := seen[result.id]; dup {
			continue
		}
		seen[result.id] = struct{}{}
		ids = append(ids, result.id)
	}
	return ids
}
