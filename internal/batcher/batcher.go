// Package batcher splits a TextBundle into batches that fit a token ceiling
// for LLM prompts. A file is never split: its blocks always travel together,
// so the ceiling is advisory for files that exceed it on their own.
package batcher

import (
	"github.com/valpere/rpgtl/internal"
)

// TokenCounter returns the token count of one string.
type TokenCounter func(s string) int

// EstimateTokens approximates a tokenizer at four bytes per token.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + 3) / 4
}

// FileTokens sums count over every string of every block of f.
func FileTokens(f internal.File, count TokenCounter) int {
	total := 0
	for _, blk := range f.Blocks {
		for _, s := range blk.Strings {
			total += count(s)
		}
	}
	return total
}

// Plan groups the files of bundle, in order, into batches whose token total
// stays within ceiling. A file that does not fit closes the current batch
// and opens the next one. Empty batches are never produced. If count is nil
// EstimateTokens is used; a ceiling <= 0 yields a single batch.
//
// Concatenating the result in order reproduces bundle.
func Plan(bundle internal.TextBundle, count TokenCounter, ceiling int) []internal.TextBundle {
	if len(bundle.Files) == 0 {
		return nil
	}
	if count == nil {
		count = EstimateTokens
	}
	if ceiling <= 0 {
		return []internal.TextBundle{{Files: append([]internal.File(nil), bundle.Files...)}}
	}

	var (
		batches []internal.TextBundle
		current internal.TextBundle
		running int
	)
	for _, f := range bundle.Files {
		total := FileTokens(f, count)
		if len(current.Files) > 0 && running+total > ceiling {
			batches = append(batches, current)
			current = internal.TextBundle{}
			running = 0
		}
		current.Files = append(current.Files, f)
		running += total
	}
	return append(batches, current)
}
