// Package placeholder shields RPG Maker control codes (\C[2], \N[1], \{, %1
// and plugin tags) from machine translation engines by replacing them with
// numbered markers ([PH0], [PH1], …). Restore puts the originals back.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// escape codes: \C[2], \FS[24], \name<Harold>, \G, \{, \., \#
	reControlCode = regexp.MustCompile(`\\[A-Za-z]+\[[^\]]*\]|\\[A-Za-z]+<[^>]*>|\\[A-Za-z]+|\\[{}$.|!><^#\\]`)

	// positional format arguments in system messages: %1, %2
	reFormatArg = regexp.MustCompile(`%\d+`)

	// plugin tags: <WordWrap>, <br>, </b>
	reTag = regexp.MustCompile(`<[^<>\s][^<>]*>`)

	// placeholder reference in translated text
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces control codes, format arguments and plugin tags with
// numbered placeholders in the order they appear in text. It returns the
// modified text and the captured originals for Restore.
func Protect(text string) (string, []string) {
	var markers []string

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(markers))
		markers = append(markers, match)
		return id
	}

	// Control codes first so \name<...> is not split by the tag pattern.
	text = reControlCode.ReplaceAllStringFunc(text, replace)
	text = reFormatArg.ReplaceAllStringFunc(text, replace)
	text = reTag.ReplaceAllStringFunc(text, replace)

	return text, markers
}

// Restore substitutes [PHn] markers in text back with the originals captured
// by Protect. Unrecognised indices leave the placeholder as-is.
func Restore(text string, markers []string) string {
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// Validate returns the indices of markers that are no longer present in text.
func Validate(text string, markers []string) []int {
	var missing []int
	for i := range markers {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}

// RestoreAll restores text and appends, in order, any marker the engine
// dropped so no control code is lost.
func RestoreAll(text string, markers []string) string {
	missing := Validate(text, markers)
	out := Restore(text, markers)
	for _, idx := range missing {
		out += markers[idx]
	}
	return out
}

// InstructionHint is appended to chat prompts so models keep control codes.
func InstructionHint() string {
	return `Keep RPG Maker control codes such as \C[2], \N[1], \V[3], \{ and \#, format arguments such as %1, and tags such as <br> exactly as they appear.`
}
