// Package sections manages the visible sections of large arrays: half-open
// index ranges that decide which array items are revealed.
package sections

import "sort"

// Size is the window size. The default section is [0, Size) and sections
// grow in multiples of Size.
const Size = 100

// Section is a half-open index range [Start, End).
type Section struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Default returns the sections used when an array has none recorded.
func Default() []Section {
	return []Section{{Start: 0, End: Size}}
}

// Merge sorts sections by start and coalesces overlapping or touching ones.
// The input is not modified.
func Merge(sections []Section) []Section {
	if len(sections) == 0 {
		return nil
	}
	sorted := make([]Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := []Section{sorted[0]}
	for _, s := range sorted[1:] {
		prev := &merged[len(merged)-1]
		if s.Start <= prev.End {
			prev.End = max(prev.End, s.End)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// InVisibleSection reports whether index falls inside any section.
func InVisibleSection(sections []Section, index int) bool {
	for _, s := range sections {
		if index >= s.Start && index < s.End {
			return true
		}
	}
	return false
}

// CurrentRoundNumber rounds index down to a multiple of Size.
func CurrentRoundNumber(index int) int {
	return (index / Size) * Size
}

// NextRoundNumber returns the multiple of Size following index.
func NextRoundNumber(index int) int {
	return CurrentRoundNumber(index) + Size
}

// ExpandItemsSections offers up to three sections for revealing the hidden
// range [start, end): the head, a middle sample and the tail.
func ExpandItemsSections(start, end int) []Section {
	head := Section{Start: start, End: min(NextRoundNumber(start), end)}

	middleStart := max(CurrentRoundNumber((start+end)/2), start)
	middle := Section{Start: middleStart, End: min(NextRoundNumber(middleStart), end)}

	tailStart := start
	if end > 0 {
		tailStart = max(CurrentRoundNumber(end-1), start)
	}
	tail := Section{Start: tailStart, End: end}

	out := []Section{head}
	last := head
	if middle.Start >= head.End && middle.End <= tail.Start {
		out = append(out, middle)
		last = middle
	}
	if tail.Start >= last.End && tail.Start < tail.End {
		out = append(out, tail)
	}
	return out
}

// Shift adjusts sections after an item was inserted (offset 1) or removed
// (offset -1) at index. Boundaries after index move by offset; an end that
// equals index moves too while a start that equals index stays put. Empty
// sections are dropped and the result is merged.
func Shift(sections []Section, index, offset int) []Section {
	if len(sections) == 0 {
		return sections
	}
	shifted := make([]Section, 0, len(sections))
	for _, s := range sections {
		start, end := s.Start, s.End
		if start > index {
			start += offset
		}
		if end >= index {
			end += offset
		}
		if start < 0 {
			start = 0
		}
		if end > start {
			shifted = append(shifted, Section{Start: start, End: end})
		}
	}
	return Merge(shifted)
}

// ForEachIndex calls fn for every visible index below length, in order.
// A nil sections slice means Default().
func ForEachIndex(sections []Section, length int, fn func(index int) bool) {
	if sections == nil {
		sections = Default()
	}
	for _, s := range sections {
		for i := s.Start; i < s.End && i < length; i++ {
			if !fn(i) {
				return
			}
		}
	}
}

// Indices returns the visible indices below length.
func Indices(sections []Section, length int) []int {
	var out []int
	ForEachIndex(sections, length, func(i int) bool {
		out = append(out, i)
		return true
	})
	return out
}

// Equal reports whether two section lists are identical.
func Equal(a, b []Section) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
