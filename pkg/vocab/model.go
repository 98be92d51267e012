/*
Package vocab learns and stores LZW-style subword vocabularies.

A vocabulary is a set of count tables built in one sequential scan over
tokenized text: one table per subword length (1..MaxLen) and one table per
position class inside a word (start, middle, end). Once learning finishes the
tables are optionally pruned to a target number of multi-character symbols and
every table is rank-transformed, giving each subword a (count, rank) pair.

	model, err := vocab.Learn(ctx, file, vocab.Options{MaxLen: 6, Symbols: 10000})
	err = vocab.Save(model, "words.vocab")

A frozen Model is read-only and safe for concurrent readers. The segmenter
queries it through Matches, which walks a patricia trie of every length-table
subword to find the in-vocabulary prefixes of a string.
*/
package vocab

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tchap/go-patricia/v2/patricia"
)

// MaxSubwordLen bounds the maximum subword length of a model.
const MaxSubwordLen = 256

var (
	// ErrInvalidMaxLen is returned when the maximum subword length is outside 1..MaxSubwordLen.
	ErrInvalidMaxLen = errors.New("vocab: max subword length out of range")
	// ErrCorruptVocabulary is returned when a vocabulary file fails validation.
	ErrCorruptVocabulary = errors.New("vocab: corrupt vocabulary")
)

// Position is the class of a character's position within a word.
type Position int

const (
	PositionStart  Position = iota // PositionStart covers the first two characters.
	PositionMiddle                 // PositionMiddle covers interior characters.
	PositionEnd                    // PositionEnd is the final character.
)

// NumPositions is the number of position classes.
const NumPositions = 3

func (p Position) String() string {
	switch p {
	case PositionStart:
		return "start"
	case PositionMiddle:
		return "middle"
	case PositionEnd:
		return "end"
	}
	return fmt.Sprintf("position(%d)", int(p))
}

// ParsePosition is the inverse of Position.String.
func ParsePosition(s string) (Position, error) {
	switch s {
	case "start":
		return PositionStart, nil
	case "middle":
		return PositionMiddle, nil
	case "end":
		return PositionEnd, nil
	}
	return 0, fmt.Errorf("unknown position class %q", s)
}

// Match is an in-vocabulary prefix found by Model.Matches.
type Match struct {
	Subword   string
	Length    int // in characters
	Rank      int
	TableSize int
}

// Model is a learned vocabulary: length tables indexed by length-1 and
// the three position tables.
type Model struct {
	MaxLen    int
	Lengths   []*Table
	Positions [NumPositions]*Table

	trie *patricia.Trie
}

// Stats summarises table sizes.
type Stats struct {
	MaxLen    int
	Lengths   []int
	Positions [NumPositions]int
}

// NewModel creates a model with empty tables for the given maximum length.
func NewModel(maxLen int) (*Model, error) {
	if maxLen <= 0 || maxLen > MaxSubwordLen {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxLen, maxLen)
	}
	m := &Model{MaxLen: maxLen, Lengths: make([]*Table, maxLen)}
	for i := range m.Lengths {
		m.Lengths[i] = NewTable()
	}
	for i := range m.Positions {
		m.Positions[i] = NewTable()
	}
	return m, nil
}

// Length returns the table for subwords of n characters, or nil if out of range.
func (m *Model) Length(n int) *Table {
	if n < 1 || n > m.MaxLen {
		return nil
	}
	return m.Lengths[n-1]
}

// Position returns the table for a position class.
func (m *Model) Position(p Position) *Table {
	return m.Positions[p]
}

// Lookup finds subword in the length table matching its character count.
func (m *Model) Lookup(subword string) (Entry, bool) {
	t := m.Length(utf8.RuneCountInString(subword))
	if t == nil {
		return Entry{}, false
	}
	return t.Get(subword)
}

// MultiCharCount returns the number of entries across length tables 2..MaxLen.
func (m *Model) MultiCharCount() int {
	n := 0
	for _, t := range m.Lengths[1:] {
		n += t.Len()
	}
	return n
}

// Stats returns the per-table entry counts.
func (m *Model) Stats() Stats {
	s := Stats{MaxLen: m.MaxLen, Lengths: make([]int, m.MaxLen)}
	for i, t := range m.Lengths {
		s.Lengths[i] = t.Len()
	}
	for i, t := range m.Positions {
		s.Positions[i] = t.Len()
	}
	return s
}

// Matches returns every length-table subword that is a prefix of s,
// shortest first. The model must be frozen.
func (m *Model) Matches(s string) []Match {
	if m.trie == nil || s == "" {
		return nil
	}
	var matches []Match
	_ = m.trie.VisitPrefixes(patricia.Prefix(s), func(p patricia.Prefix, item patricia.Item) error {
		matches = append(matches, item.(Match))
		return nil
	})
	return matches
}

// Freeze builds the prefix index. Entries must not change afterwards.
func (m *Model) Freeze() {
	trie := patricia.NewTrie()
	for i, t := range m.Lengths {
		size := t.Len()
		for _, e := range t.entries {
			trie.Insert(patricia.Prefix(e.Subword), Match{
				Subword:   e.Subword,
				Length:    i + 1,
				Rank:      e.Rank,
				TableSize: size,
			})
		}
	}
	m.trie = trie
}

// Frozen reports whether the prefix index has been built.
func (m *Model) Frozen() bool {
	return m.trie != nil
}

// Validate checks the structural invariants of a ranked model.
func (m *Model) Validate() error {
	if m.MaxLen <= 0 || m.MaxLen > MaxSubwordLen {
		return fmt.Errorf("%w: max_len %d", ErrCorruptVocabulary, m.MaxLen)
	}
	if len(m.Lengths) != m.MaxLen {
		return fmt.Errorf("%w: %d length tables for max_len %d", ErrCorruptVocabulary, len(m.Lengths), m.MaxLen)
	}
	for i, t := range m.Lengths {
		if t == nil {
			return fmt.Errorf("%w: missing length table %d", ErrCorruptVocabulary, i+1)
		}
		for _, e := range t.entries {
			if n := utf8.RuneCountInString(e.Subword); n != i+1 {
				return fmt.Errorf("%w: subword %q has length %d in length table %d", ErrCorruptVocabulary, e.Subword, n, i+1)
			}
		}
		if err := validateRanks(t); err != nil {
			return fmt.Errorf("length table %d: %w", i+1, err)
		}
	}
	for i, t := range m.Positions {
		if t == nil {
			return fmt.Errorf("%w: missing position table %s", ErrCorruptVocabulary, Position(i))
		}
		if err := validateRanks(t); err != nil {
			return fmt.Errorf("position table %s: %w", Position(i), err)
		}
	}
	return nil
}

// validateRanks checks counts are positive and ranks form 1..Len.
func validateRanks(t *Table) error {
	seen := make([]bool, t.Len()+1)
	for _, e := range t.entries {
		if e.Subword == "" || !utf8.ValidString(e.Subword) {
			return fmt.Errorf("%w: invalid subword %q", ErrCorruptVocabulary, e.Subword)
		}
		if e.Count < 1 {
			return fmt.Errorf("%w: subword %q has count %d", ErrCorruptVocabulary, e.Subword, e.Count)
		}
		if e.Rank < 1 || e.Rank > t.Len() || seen[e.Rank] {
			return fmt.Errorf("%w: subword %q has rank %d", ErrCorruptVocabulary, e.Subword, e.Rank)
		}
		seen[e.Rank] = true
	}
	return nil
}
