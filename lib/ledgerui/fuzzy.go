// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledgerui

import (
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

func init() {
	algo.Init("default")
}

// FuzzyResult is the outcome of matching one entry against the filter
// pattern. Positions are rune indices into the matched text, used for
// match highlighting in the list.
type FuzzyResult struct {
	Matched   bool
	Score     int
	Positions []int
}

// newSlab allocates the scratch memory fzf's matcher reuses across
// calls. One slab per model; the matcher is only ever called from the
// bubbletea update loop, so no locking is needed.
func newSlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}

// fuzzyMatch runs fzf's V2 matcher over text. Case sensitivity is
// smart-case: a pattern with any uppercase rune matches exactly, an
// all-lowercase pattern matches case-insensitively. An empty pattern
// matches everything with score zero.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{Matched: true}
	}

	caseSensitive := false
	for _, r := range pattern {
		if unicode.IsUpper(r) {
			caseSensitive = true
			break
		}
	}
	if !caseSensitive {
		lowered := make([]rune, len(pattern))
		for i, r := range pattern {
			lowered[i] = unicode.ToLower(r)
		}
		pattern = lowered
	}

	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(caseSensitive, true, true, &chars, pattern, true, slab)
	if result.Start < 0 {
		return FuzzyResult{}
	}

	var matched []int
	if positions != nil {
		matched = *positions
	}
	return FuzzyResult{Matched: true, Score: result.Score, Positions: matched}
}
