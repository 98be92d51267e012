/*
Package segment splits words into subwords of a learned vocabulary.

Every decomposition of a word into known subwords is scored by summing
rank / (length^maxLen * tableSize) over its subwords. The K lowest-scoring
decompositions are kept and one of them is drawn at random, weighting
candidate i by sigmoid(1/score_i)^alpha. With K = 1 the choice is the single
best decomposition and segmentation is deterministic.

	seg, err := segment.New(model, segment.Options{TopK: 5, Alpha: 0.1}, segment.NewSource(1), nil)
	seg.Segment("segmentation") // "seg ment ation"

Words longer than Options.LongWordThreshold characters are cut at their
midpoint and each half is segmented on its own. Enumeration is exponential in
word length, so the threshold bounds the work per word.
*/
package segment

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/lzwseg/pkg/vocab"
)

// DefaultLongWordThreshold is the word length above which words are bisected.
const DefaultLongWordThreshold = 16

var (
	ErrInvalidTopK      = errors.New("segment: top-k must be at least 1")
	ErrInvalidAlpha     = errors.New("segment: alpha must not be negative")
	ErrInvalidThreshold = errors.New("segment: long word threshold must be at least 1")
	ErrNoModel          = errors.New("segment: no vocabulary model")
)

// Options controls candidate selection.
type Options struct {
	TopK              int
	Alpha             float64
	LongWordThreshold int
}

// Validate rejects configurations that cannot be used.
// A zero LongWordThreshold means DefaultLongWordThreshold.
func (o Options) Validate() error {
	if o.TopK < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidTopK, o.TopK)
	}
	if o.Alpha < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidAlpha, o.Alpha)
	}
	if o.LongWordThreshold < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, o.LongWordThreshold)
	}
	return nil
}

// Segmenter samples segmentations for words. It is not safe for concurrent use.
type Segmenter struct {
	model *vocab.Model
	opts  Options
	src   Source
	cache *Cache
}

// New creates a segmenter. A nil cache gets a fresh one; a nil source gets a
// PCG source with seed 0.
func New(model *vocab.Model, opts Options, src Source, cache *Cache) (*Segmenter, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.LongWordThreshold == 0 {
		opts.LongWordThreshold = DefaultLongWordThreshold
	}
	if !model.Frozen() {
		model.Freeze()
	}
	if src == nil {
		src = NewSource(0)
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Segmenter{model: model, opts: opts, src: src, cache: cache}, nil
}

// Options returns the effective options.
func (s *Segmenter) Options() Options {
	return s.opts
}

// Model returns the vocabulary in use.
func (s *Segmenter) Model() *vocab.Model {
	return s.model
}

// Cache returns the memoization cache.
func (s *Segmenter) Cache() *Cache {
	return s.cache
}

// Segment returns the chosen subwords of word joined by spaces.
func (s *Segmenter) Segment(word string) string {
	return strings.Join(s.Subwords(word), " ")
}

// Subwords returns the chosen subwords of word. Concatenated they always
// equal word. A word with no decomposition is returned whole.
// The result may share memory with the cache and must not be modified.
func (s *Segmenter) Subwords(word string) []string {
	if word == "" {
		return nil
	}
	if n := utf8.RuneCountInString(word); n > s.opts.LongWordThreshold {
		return s.bisect(word, n)
	}
	cands := s.Candidates(word)
	if len(cands) == 0 {
		return []string{word}
	}
	if len(cands) == 1 || s.opts.TopK <= 1 {
		return cands[0].Subwords
	}
	scores := make([]float64, len(cands))
	for i, c := range cands {
		scores[i] = c.Score
	}
	return cands[Sample(scores, s.opts.Alpha, s.src)].Subwords
}

// Candidates returns the retained top-K candidates for word, computing and
// caching them on first use. Words above the long word threshold are scored
// as a whole here, so callers should only pass short words.
func (s *Segmenter) Candidates(word string) []Candidate {
	if cands, ok := s.cache.topK[word]; ok {
		return cands
	}
	cands := Score(s.model, word, s.cache)
	if len(cands) == 0 {
		log.Debugf("No decomposition for %q, keeping it whole", word)
	}
	k := min(s.opts.TopK, len(cands))
	s.cache.topK[word] = cands[:k:k]
	return s.cache.topK[word]
}

// bisect segments both halves of a long word independently.
func (s *Segmenter) bisect(word string, n int) []string {
	cut := runeOffset(word, n/2)
	left := s.Subwords(word[:cut])
	right := s.Subwords(word[cut:])
	return append(left[:len(left):len(left)], right...)
}

// runeOffset returns the byte offset of the n-th rune of s.
func runeOffset(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}
