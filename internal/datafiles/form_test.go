// Copyright (c) 2026 PMDCollab. All rights reserved.

package datafiles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
)

// formTree builds a small monster: root 25 with subgroup 1 (which has a
// subgroup 0) and subgroup 2/2.
func formTree() datafiles.Tracker {
	return datafiles.Tracker{
		25: {
			Name: "Pikachu",
			Subgroups: map[datafiles.GroupID]*datafiles.Group{
				1: {
					Name: "Shiny",
					Subgroups: map[datafiles.GroupID]*datafiles.Group{
						0: {Name: ""},
					},
				},
				2: {
					Name: "Alt",
					Subgroups: map[datafiles.GroupID]*datafiles.Group{
						2: {Name: "Female"},
					},
				},
			},
		},
	}
}

/*
TestFindForm_ExactTraversal verifies straightforward resolution and the
breadcrumb names.
*/
func TestFindForm_ExactTraversal(t *testing.T) {
	collector, ok := datafiles.CollectForm(formTree(), 25)
	require.True(t, ok)

	path, names, group, ok := collector.FindForm([]datafiles.FormMatch{
		datafiles.Exact(2), datafiles.Exact(2),
	})
	require.True(t, ok)
	assert.Equal(t, []int{2, 2}, path)
	assert.Equal(t, []string{"Alt", "Female"}, names)
	assert.Equal(t, "Female", group.Name)
}

/*
TestFindForm_FallbackCollapses replays the fallback scenario: subgroup 1 has
no subgroup 2, so Fallback(2) degrades to 0 which collapses away, resolving
to path [1].
*/
func TestFindForm_FallbackCollapses(t *testing.T) {
	collector, ok := datafiles.CollectForm(formTree(), 25)
	require.True(t, ok)

	path, _, group, ok := collector.FindForm([]datafiles.FormMatch{
		datafiles.Exact(1), datafiles.Fallback(2),
	})
	require.True(t, ok)
	assert.Equal(t, []int{1}, path)
	assert.Equal(t, "Shiny", group.Name)
}

/*
TestFindForm_TrailingZerosEquivalent verifies that appended zeros resolve
to the same group as the truncated path, as long as no explicit 0 subgroup
sits at the target depth.
*/
func TestFindForm_TrailingZerosEquivalent(t *testing.T) {
	collector, ok := datafiles.CollectForm(formTree(), 25)
	require.True(t, ok)

	needle := func(path ...int) []datafiles.FormMatch {
		matches := make([]datafiles.FormMatch, len(path))
		for i, id := range path {
			matches[i] = datafiles.Exact(id)
		}
		return matches
	}

	pathShort, _, groupShort, ok := collector.FindForm(needle(2))
	require.True(t, ok)
	pathPadded, _, groupPadded, ok := collector.FindForm(needle(2, 0, 0))
	require.True(t, ok)

	assert.Equal(t, pathShort, pathPadded)
	assert.Same(t, groupShort, groupPadded)
}

/*
TestFindForm_ExplicitZeroSubgroup verifies that the trailing-zero collapse
runs before traversal: [1, 0] resolves to group 1 itself even though group 1
has an explicit 0 subgroup.
*/
func TestFindForm_ExplicitZeroSubgroup(t *testing.T) {
	collector, ok := datafiles.CollectForm(formTree(), 25)
	require.True(t, ok)

	path, _, group, ok := collector.FindForm([]datafiles.FormMatch{
		datafiles.Exact(1), datafiles.Exact(0),
	})
	require.True(t, ok)
	// [1, 0] collapses to [1] first; 1 has an explicit 0 subgroup but the
	// collapse already happened during combination generation.
	assert.Equal(t, []int{1}, path)
	assert.Equal(t, "Shiny", group.Name)
}

/*
TestFindForm_RootPath verifies that a pure-zero needle resolves to the root.
*/
func TestFindForm_RootPath(t *testing.T) {
	collector, ok := datafiles.CollectForm(formTree(), 25)
	require.True(t, ok)

	path, names, group, ok := collector.FindForm([]datafiles.FormMatch{datafiles.Exact(0)})
	require.True(t, ok)
	assert.Empty(t, path)
	assert.Empty(t, names)
	assert.Equal(t, "Pikachu", group.Name)
}

/*
TestFindForm_Missing verifies that unresolvable needles report failure.
*/
func TestFindForm_Missing(t *testing.T) {
	collector, ok := datafiles.CollectForm(formTree(), 25)
	require.True(t, ok)

	_, _, _, ok = collector.FindForm([]datafiles.FormMatch{datafiles.Exact(9)})
	assert.False(t, ok)

	_, ok = datafiles.CollectForm(formTree(), 999)
	assert.False(t, ok)
}

/*
TestFormPredicates verifies the shiny and female path conventions.
*/
func TestFormPredicates(t *testing.T) {
	assert.True(t, datafiles.IsShiny([]int{3, 1}))
	assert.True(t, datafiles.IsShiny([]int{3, 1, 2}))
	assert.False(t, datafiles.IsShiny([]int{3}))
	assert.False(t, datafiles.IsShiny([]int{3, 0, 1}))

	assert.True(t, datafiles.IsFemale([]int{3, 1, 2}))
	assert.False(t, datafiles.IsFemale([]int{3, 1}))
	assert.False(t, datafiles.IsFemale([]int{3, 1, 1}))
}

/*
TestForms_Iteration verifies the breadth-first walk: the root comes first,
0-id forms are skipped but their children are visited.
*/
func TestForms_Iteration(t *testing.T) {
	tracker := datafiles.Tracker{
		7: {
			Name: "Root",
			Subgroups: map[datafiles.GroupID]*datafiles.Group{
				0: {
					Name: "Alias",
					Subgroups: map[datafiles.GroupID]*datafiles.Group{
						1: {Name: "Deep"},
					},
				},
				2: {Name: "Side"},
			},
		},
	}

	collector, ok := datafiles.CollectForm(tracker, 7)
	require.True(t, ok)

	var paths [][]int
	for _, entry := range collector.Forms() {
		paths = append(paths, entry.Path)
	}

	// Root (nil path) and Side and Deep; the 0-id alias itself is skipped.
	assert.Len(t, paths, 3)
	assert.Contains(t, paths, []int{2})
	assert.Contains(t, paths, []int{0, 1})
	assert.NotContains(t, paths, []int{0})
}
