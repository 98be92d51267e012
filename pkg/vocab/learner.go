package vocab

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"
)

// Options configures a learning pass.
type Options struct {
	// MaxLen is the maximum subword length in characters.
	MaxLen int
	// Symbols is the target number of multi-character subwords kept after
	// pruning. Zero or negative disables pruning.
	Symbols int
	// Normalize applies Unicode NFC to each line before learning.
	Normalize bool
	// ProgressEvery logs a progress line every N input lines (0 disables).
	ProgressEvery int
}

// Learner accumulates LZW-style subword counts from words.
// It is not safe for concurrent use.
type Learner struct {
	model *Model
	words int
	lines int
}

// NewLearner creates a learner for subwords of at most maxLen characters.
func NewLearner(maxLen int) (*Learner, error) {
	m, err := NewModel(maxLen)
	if err != nil {
		return nil, err
	}
	return &Learner{model: m}, nil
}

// positionOf classifies character i of a word with n characters.
// The first two characters count as start, the last as end.
func positionOf(i, n int) Position {
	switch {
	case i == n-1:
		return PositionEnd
	case i <= 1:
		return PositionStart
	default:
		return PositionMiddle
	}
}

// Observe learns from a single word.
//
// A run w is extended one character at a time. When the extension wc is
// already known its count grows and the run continues from wc; otherwise wc
// is recorded and the run restarts at the current character. Runs longer than
// MaxLen restart at the current character before the lookup.
func (l *Learner) Observe(word string) {
	if word == "" {
		return
	}
	m := l.model
	n := utf8.RuneCountInString(word)
	single := m.Lengths[0]

	w := ""
	i := 0
	for _, r := range word {
		c := string(r)
		wc := w + c
		size := utf8.RuneCountInString(wc)
		if size > m.MaxLen {
			wc = c
			size = 1
		}
		pos := positionOf(i, n)

		// every character gets a length-1 entry so any word stays segmentable
		if size > 1 && !single.Contains(c) {
			single.Add(c)
		}

		if m.Lengths[size-1].Add(wc) {
			w = wc
		} else {
			w = c
		}
		m.Positions[pos].Add(wc)
		i++
	}
	l.words++
}

// ObserveLine splits a line on whitespace and learns from every word.
func (l *Learner) ObserveLine(line string) {
	for _, word := range strings.Fields(line) {
		l.Observe(word)
	}
	l.lines++
}

// Words returns the number of words observed so far.
func (l *Learner) Words() int {
	return l.words
}

// Lines returns the number of lines observed so far.
func (l *Learner) Lines() int {
	return l.lines
}

// Read learns from every line of r.
func (l *Learner) Read(ctx context.Context, r io.Reader, opts Options) error {
	scanner := bufio.NewScanner(r)
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if opts.Normalize {
			line = norm.NFC.String(line)
		}
		l.ObserveLine(line)
		if opts.ProgressEvery > 0 && l.lines%opts.ProgressEvery == 0 {
			log.Debugf("Learning LZW tables: %d lines, %d words", l.lines, l.words)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read training text: %w", err)
	}
	return nil
}

// Model prunes to symbols multi-character entries (when symbols > 0),
// ranks every table and freezes the result. The learner must not be used
// afterwards.
func (l *Learner) Model(symbols int) *Model {
	m := l.model
	if symbols > 0 {
		prune(m, symbols)
	}
	for _, t := range m.Lengths {
		t.Rank()
	}
	for _, t := range m.Positions {
		t.Rank()
	}
	m.Freeze()
	l.model = nil
	return m
}

// Learn runs a complete learning pass over r.
func Learn(ctx context.Context, r io.Reader, opts Options) (*Model, error) {
	l, err := NewLearner(opts.MaxLen)
	if err != nil {
		return nil, err
	}
	if err := l.Read(ctx, r, opts); err != nil {
		return nil, err
	}
	log.Debugf("Learned from %d lines, %d words", l.lines, l.words)
	return l.Model(opts.Symbols), nil
}
