// Package pipeline segments text line by line with a segment.Segmenter.
//
// Each word of a line is segmented on its own and the first subword of every
// word carries a '|' marker, so word boundaries survive segmentation:
//
//	"the cats" -> "|the |ca ts"
//
// Large inputs can be split into shards of consecutive lines that are
// segmented concurrently. Output is always written in input order.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/stream"

	"github.com/bastiangx/lzwseg/pkg/segment"
)

// WordMarker is prefixed to the first subword of every word.
const WordMarker = "|"

// DefaultShardSize is the number of lines per shard.
const DefaultShardSize = 1000

var (
	ErrInvalidWorkers   = errors.New("pipeline: workers must not be negative")
	ErrInvalidShardSize = errors.New("pipeline: shard size must not be negative")
	ErrNoSegmenter      = errors.New("pipeline: segmenter factory returned nil")
)

// SegmentLine segments every whitespace-separated word of line.
// A blank line yields "".
func SegmentLine(seg *segment.Segmenter, line string) string {
	return FormatWords(SegmentWords(seg, line))
}

// SegmentWords returns the chosen subwords of each word of line.
func SegmentWords(seg *segment.Segmenter, line string) [][]string {
	fields := strings.Fields(line)
	words := make([][]string, len(fields))
	for i, word := range fields {
		words[i] = seg.Subwords(word)
	}
	return words
}

// FormatWords renders segmented words as one output line.
func FormatWords(words [][]string) string {
	var b strings.Builder
	for i, subwords := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(WordMarker)
		for j, sw := range subwords {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(sw)
		}
	}
	return b.String()
}

// Factory builds the segmenter for a shard. Each call must return a
// segmenter with its own cache and random source.
type Factory func(shard int) *segment.Segmenter

// Driver streams lines from a reader to a writer.
type Driver struct {
	// Workers is the number of shards segmented at once. 0 or 1 runs
	// sequentially with a single segmenter.
	Workers int
	// ShardSize is the number of lines per shard. 0 means DefaultShardSize.
	ShardSize int
	// Encoding names the text encoding of input and output. Empty is UTF-8.
	Encoding string
	// Normalize applies Unicode NFC to each input line.
	Normalize bool
}

// Validate checks the driver settings.
func (d Driver) Validate() error {
	if d.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, d.Workers)
	}
	if d.ShardSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidShardSize, d.ShardSize)
	}
	if _, err := LookupEncoding(d.Encoding); err != nil {
		return err
	}
	return nil
}

// Run segments every line of r and writes one output line per input line.
func (d Driver) Run(ctx context.Context, r io.Reader, w io.Writer, factory Factory) error {
	if err := d.Validate(); err != nil {
		return err
	}
	enc, _ := LookupEncoding(d.Encoding)

	scanner := bufio.NewScanner(DecodeReader(r, enc))
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	out := EncodeWriter(w, enc)
	bw := bufio.NewWriter(out)

	var err error
	if d.Workers <= 1 {
		err = d.runSequential(ctx, scanner, bw, factory)
	} else {
		err = d.runSharded(ctx, scanner, bw, factory)
	}
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (d Driver) line(scanner *bufio.Scanner) string {
	if d.Normalize {
		return NormalizeLine(scanner.Text())
	}
	return scanner.Text()
}

func (d Driver) runSequential(ctx context.Context, scanner *bufio.Scanner, w *bufio.Writer, factory Factory) error {
	seg := factory(0)
	if seg == nil {
		return ErrNoSegmenter
	}
	lines := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, SegmentLine(seg, d.line(scanner))); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		lines++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	log.Debugf("Segmented %d lines", lines)
	return nil
}

func (d Driver) runSharded(ctx context.Context, scanner *bufio.Scanner, w *bufio.Writer, factory Factory) error {
	size := d.ShardSize
	if size == 0 {
		size = DefaultShardSize
	}

	s := stream.New().WithMaxGoroutines(d.Workers)
	var writeErr error
	shard := 0

	submit := func(lines []string) {
		id := shard
		shard++
		s.Go(func() stream.Callback {
			seg := factory(id)
			if seg == nil {
				return func() {
					if writeErr == nil {
						writeErr = fmt.Errorf("shard %d: %w", id, ErrNoSegmenter)
					}
				}
			}
			for i, line := range lines {
				lines[i] = SegmentLine(seg, line)
			}
			log.Debugf("Segmented shard %d (%d lines)", id, len(lines))
			return func() {
				if writeErr != nil {
					return
				}
				for _, line := range lines {
					if _, err := fmt.Fprintln(w, line); err != nil {
						writeErr = fmt.Errorf("write output: %w", err)
						return
					}
				}
			}
		})
	}

	lines := make([]string, 0, size)
	var readErr error
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			readErr = err
			break
		}
		lines = append(lines, d.line(scanner))
		if len(lines) == size {
			submit(lines)
			lines = make([]string, 0, size)
		}
	}
	if readErr == nil && len(lines) > 0 {
		submit(lines)
	}
	s.Wait()

	if readErr != nil {
		return readErr
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return writeErr
}
