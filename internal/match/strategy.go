package match

import (
	"strings"

	"github.com/valpere/rpgtl/internal/tokenizer"
)

// Strategies is the built-in Searcher: exact token runs, ordered
// subsequences, and fuzzy windows.
type Strategies struct{}

func (Strategies) Search(p Pair, opts Options) []Result {
	if len(p.Needle) == 0 || len(p.Haystack) == 0 {
		return nil
	}
	switch opts.Mode {
	case Subsequence:
		return searchSubsequence(p.Haystack, p.Needle, opts.Permissive)
	case Fuzzy:
		return searchFuzzy(p.Haystack, p.Needle, opts.Permissive, opts.threshold())
	default:
		return searchExact(p.Haystack, p.Needle, opts.Permissive)
	}
}

func tokenEq(hay, needle string, permissive bool) bool {
	if hay == needle {
		return true
	}
	return permissive && strings.HasPrefix(hay, needle)
}

func searchExact(hay, needle []tokenizer.Token, permissive bool) []Result {
	var out []Result
	for i := 0; i+len(needle) <= len(hay); {
		ok := true
		for k := range needle {
			if !tokenEq(hay[i+k].Key, needle[k].Key, permissive) {
				ok = false
				break
			}
		}
		if !ok {
			i++
			continue
		}
		out = append(out, Result{Start: i, End: i + len(needle), Score: 1, Mode: Exact})
		i += len(needle)
	}
	return out
}

// searchSubsequence finds the needle tokens in order with gaps allowed. The
// score is the needle length over the span length.
func searchSubsequence(hay, needle []tokenizer.Token, permissive bool) []Result {
	var out []Result
	i := 0
	for i < len(hay) {
		start := -1
		for j := i; j < len(hay); j++ {
			if tokenEq(hay[j].Key, needle[0].Key, permissive) {
				start = j
				break
			}
		}
		if start < 0 {
			break
		}

		last := start
		k := 1
		for j := start + 1; j < len(hay) && k < len(needle); j++ {
			if tokenEq(hay[j].Key, needle[k].Key, permissive) {
				last = j
				k++
			}
		}
		if k < len(needle) {
			break
		}

		span := last - start + 1
		out = append(out, Result{
			Start: start,
			End:   last + 1,
			Score: float64(len(needle)) / float64(span),
			Mode:  Subsequence,
		})
		i = last + 1
	}
	return out
}

// searchFuzzy slides a needle-sized window over the haystack. The window
// score is the mean token similarity, so more overlap never scores lower.
func searchFuzzy(hay, needle []tokenizer.Token, permissive bool, threshold float64) []Result {
	m := len(needle)
	windowScore := func(i int) float64 {
		sum := 0.0
		for k := 0; k < m && i+k < len(hay); k++ {
			h, n := hay[i+k].Key, needle[k].Key
			if tokenEq(h, n, permissive) {
				sum++
				continue
			}
			sum += Similarity(h, n)
		}
		return sum / float64(m)
	}

	if len(hay) < m {
		if score := windowScore(0); score >= threshold {
			return []Result{{Start: 0, End: len(hay), Score: score, Mode: Fuzzy}}
		}
		return nil
	}

	var out []Result
	for i := 0; i+m <= len(hay); {
		score := windowScore(i)
		if score < threshold {
			i++
			continue
		}
		out = append(out, Result{Start: i, End: i + m, Score: score, Mode: Fuzzy})
		i += m
	}
	return out
}
