// Package match locates a needle inside a haystack for both a source string
// and its translation. The translation side is only searched when the source
// side matched.
package match

import (
	"fmt"
	"strings"

	"github.com/valpere/rpgtl/internal/tokenizer"
)

// Mode selects the search strategy.
type Mode int

const (
	Exact Mode = iota
	Subsequence
	Fuzzy
)

// DefaultThreshold applies to Fuzzy when Options.Threshold is not positive.
const DefaultThreshold = 0.8

func (m Mode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Subsequence:
		return "subsequence"
	case Fuzzy:
		return "fuzzy"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode resolves "exact", "subsequence" or "fuzzy".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact", "":
		return Exact, nil
	case "subsequence":
		return Subsequence, nil
	case "fuzzy":
		return Fuzzy, nil
	}
	return 0, fmt.Errorf("unknown match mode %q", s)
}

// Options configures one side of a search. CaseSensitive is applied when the
// side is tokenized; Permissive relaxes token equality to prefix equality.
type Options struct {
	Mode          Mode
	Threshold     float64
	CaseSensitive bool
	Permissive    bool
}

func (o Options) threshold() float64 {
	if o.Threshold <= 0 {
		return DefaultThreshold
	}
	if o.Threshold > 1 {
		return 1
	}
	return o.Threshold
}

// Result is a token span [Start, End) with its score.
type Result struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
	Mode  Mode    `json:"mode"`
}

// Pair is a tokenized haystack and needle.
type Pair struct {
	Haystack []tokenizer.Token
	Needle   []tokenizer.Token
}

// MatchPair holds the first match on each side.
type MatchPair struct {
	Source      Result
	Translation Result
}

// AllMatches holds every match on each side.
type AllMatches struct {
	Source      []Result
	Translation []Result
}

// Searcher returns non-overlapping matches in haystack order.
type Searcher interface {
	Search(p Pair, opts Options) []Result
}

// Engine runs searches over source/translation pairs.
type Engine struct {
	searcher Searcher
}

// NewEngine returns an Engine using the built-in strategies.
func NewEngine() *Engine {
	return &Engine{searcher: Strategies{}}
}

// NewEngineWithSearcher returns an Engine using s.
func NewEngineWithSearcher(s Searcher) *Engine {
	return &Engine{searcher: s}
}

// FindMatch returns the first match of each side. The translation pair is
// searched only when the source pair matched.
func (e *Engine) FindMatch(src, tr Pair, opts Options) (MatchPair, bool) {
	m, ok, _ := e.findMatch(src, pairOf(tr), opts)
	return m, ok
}

// FindAllMatches returns every match of each side with independent options.
// ok is false when the source side has no match; the translation slice may be
// empty when ok is true.
func (e *Engine) FindAllMatches(src Pair, srcOpts Options, tr Pair, trOpts Options) (AllMatches, bool) {
	m, ok, _ := e.findAllMatches(src, srcOpts, pairOf(tr), trOpts)
	return m, ok
}

func pairOf(p Pair) func() (Pair, error) {
	return func() (Pair, error) { return p, nil }
}

// findMatch resolves the translation pair only after the source side matched.
func (e *Engine) findMatch(src Pair, tr func() (Pair, error), opts Options) (MatchPair, bool, error) {
	srcResults := e.searcher.Search(src, opts)
	if len(srcResults) == 0 {
		return MatchPair{}, false, nil
	}
	trPair, err := tr()
	if err != nil {
		return MatchPair{}, false, err
	}
	trResults := e.searcher.Search(trPair, opts)
	if len(trResults) == 0 {
		return MatchPair{}, false, nil
	}
	return MatchPair{Source: srcResults[0], Translation: trResults[0]}, true, nil
}

func (e *Engine) findAllMatches(src Pair, srcOpts Options, tr func() (Pair, error), trOpts Options) (AllMatches, bool, error) {
	srcResults := e.searcher.Search(src, srcOpts)
	if len(srcResults) == 0 {
		return AllMatches{}, false, nil
	}
	trPair, err := tr()
	if err != nil {
		return AllMatches{}, false, err
	}
	return AllMatches{Source: srcResults, Translation: e.searcher.Search(trPair, trOpts)}, true, nil
}

// Side is an untokenized haystack/needle pair with its tokenizer algorithm.
type Side struct {
	Haystack  string
	Needle    string
	Algorithm tokenizer.Algorithm
}

func (s Side) tokenize(caseSensitive bool) (Pair, error) {
	hay, err := tokenizer.Tokenize(s.Haystack, s.Algorithm, caseSensitive)
	if err != nil {
		return Pair{}, err
	}
	needle, err := tokenizer.Tokenize(s.Needle, s.Algorithm, caseSensitive)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Haystack: hay, Needle: needle}, nil
}

// MatchStrings tokenizes and runs FindMatch. The translation side is not
// tokenized unless the source side matched.
func (e *Engine) MatchStrings(src, tr Side, opts Options) (MatchPair, bool, error) {
	srcPair, err := src.tokenize(opts.CaseSensitive)
	if err != nil {
		return MatchPair{}, false, err
	}
	return e.findMatch(srcPair, func() (Pair, error) { return tr.tokenize(opts.CaseSensitive) }, opts)
}

// MatchAllStrings tokenizes and runs FindAllMatches.
func (e *Engine) MatchAllStrings(src Side, srcOpts Options, tr Side, trOpts Options) (AllMatches, bool, error) {
	srcPair, err := src.tokenize(srcOpts.CaseSensitive)
	if err != nil {
		return AllMatches{}, false, err
	}
	return e.findAllMatches(srcPair, srcOpts, func() (Pair, error) { return tr.tokenize(trOpts.CaseSensitive) }, trOpts)
}
