// Copyright (c) 2026 PMDCollab. All rights reserved.

package datafiles

import "slices"

// # Form Matching

// FormMatch is one element of a form-resolution needle.
type FormMatch struct {
	ID int
	// Fallback marks the element as "this id, or 0 if it doesn't exist".
	Fallback bool
}

// Exact matches exactly the given form id.
func Exact(id int) FormMatch { return FormMatch{ID: id} }

// Fallback matches the given form id, falling back to 0 if it doesn't exist.
func Fallback(id int) FormMatch { return FormMatch{ID: id, Fallback: true} }

// formMatchCombinations expands a needle into every concrete path it can
// stand for. Fallback elements branch into {id, 0}; branches keep generation
// order so that the id-preferring combination is tried first.
func formMatchCombinations(needle []FormMatch) [][]int {
	combinations := [][]int{{}}
	for _, match := range needle {
		if !match.Fallback {
			for i := range combinations {
				combinations[i] = append(combinations[i], match.ID)
			}
			continue
		}

		// Generate the 0-fallback combinations.
		zeroBranch := make([][]int, len(combinations))
		for i, combination := range combinations {
			zeroBranch[i] = append(slices.Clone(combination), 0)
		}
		for i := range combinations {
			combinations[i] = append(combinations[i], match.ID)
		}
		combinations = append(combinations, zeroBranch...)
	}
	return combinations
}

// collapseTrailingZeros drops the zero suffix off a form path, keeping at
// least one element (which may be 0).
func collapseTrailingZeros(path []int) []int {
	end := len(path)
	for end > 0 && path[end-1] == 0 {
		end--
	}
	if end == 0 {
		return []int{0}
	}
	return path[:end]
}

// # Utility Predicates

// IsShiny reports whether the form path addresses a shiny variant
// (second path element is 1).
func IsShiny(path []int) bool {
	return len(path) > 1 && path[1] == 1
}

// IsFemale reports whether the form path addresses a female variant
// (third path element is 2).
func IsFemale(path []int) bool {
	return len(path) > 2 && path[2] == 2
}

// # Form Collection

// FormCollector navigates the form tree of a single monster.
type FormCollector struct {
	root *Group
}

// CollectForm looks the monster up in the tracker and returns a collector
// over its form tree.
func CollectForm(tracker Tracker, monsterIdx int64) (*FormCollector, bool) {
	group, ok := tracker[GroupID(monsterIdx)]
	if !ok {
		return nil, false
	}
	return &FormCollector{root: group}, true
}

// FindForm resolves a needle against the form tree.
//
// Combinations are tried in generation order, each collapsed of its trailing
// zeros first; the first combination that traverses successfully wins. The
// returned path is the canonical (collapsed) one and names collects the
// non-empty group names along it.
func (c *FormCollector) FindForm(needle []FormMatch) (path []int, names []string, group *Group, ok bool) {
	for _, possibility := range formMatchCombinations(needle) {
		collapsed := collapseTrailingZeros(possibility)
		if path, names, group, ok = findFormStep(c.root, collapsed, nil, nil); ok {
			return path, names, group, true
		}
	}
	return nil, nil, nil, false
}

func findFormStep(current *Group, needle []int, collected []int, collectedNames []string) ([]int, []string, *Group, bool) {
	if len(needle) == 0 {
		return nil, nil, nil, false
	}
	head, rest := needle[0], needle[1:]

	if len(rest) > 0 {
		// Not at the leaf yet; the element must map to an existing subgroup.
		subgroup, ok := current.Subgroups[GroupID(head)]
		if !ok {
			return nil, nil, nil, false
		}
		collected = append(collected, head)
		if subgroup.Name != "" {
			collectedNames = append(collectedNames, subgroup.Name)
		}
		return findFormStep(subgroup, rest, collected, collectedNames)
	}

	if head == 0 {
		if _, exists := current.Subgroups[GroupID(0)]; !exists {
			// No explicit 0 subgroup: the current group is the result.
			return collected, collectedNames, current, true
		}
	}
	subgroup, ok := current.Subgroups[GroupID(head)]
	if !ok {
		return nil, nil, nil, false
	}
	collected = append(collected, head)
	if subgroup.Name != "" {
		collectedNames = append(collectedNames, subgroup.Name)
	}
	return collected, collectedNames, subgroup, true
}

// FormEntry is one form yielded by a tree walk: the path from the monster
// root, the non-empty names along it, and the group itself.
type FormEntry struct {
	Path  []int
	Names []string
	Group *Group
}

// Forms walks the whole form tree breadth-first. The monster root is
// yielded first with an empty path; forms whose own id is 0 are skipped
// (they alias their parent) while their children are still visited.
func (c *FormCollector) Forms() []FormEntry {
	entries := []FormEntry{{Path: nil, Names: []string{c.root.Name}, Group: c.root}}

	queue := enqueueSubgroups(nil, nil, nil, c.root)

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		queue = enqueueSubgroups(queue, item.path, item.names, item.group)

		// A trailing 0 id aliases the parent form; don't yield it.
		if item.path[len(item.path)-1] == 0 {
			continue
		}
		entries = append(entries, FormEntry{Path: item.path, Names: item.names, Group: item.group})
	}
	return entries
}

type pendingForm struct {
	path  []int
	names []string
	group *Group
}

func enqueueSubgroups(queue []pendingForm, path []int, names []string, group *Group) []pendingForm {
	ids := make([]GroupID, 0, len(group.Subgroups))
	for id := range group.Subgroups {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		subgroup := group.Subgroups[id]
		subPath := append(slices.Clone(path), int(id))
		subNames := slices.Clone(names)
		if subgroup.Name != "" {
			subNames = append(subNames, subgroup.Name)
		}
		queue = append(queue, pendingForm{path: subPath, names: subNames, group: subgroup})
	}
	return queue
}
