package vocab

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// textMagic starts the header line of the text format:
//
//	# lzwseg vocabulary v1 max_len=6
//	[length 1]
//	e 5120 1
//	...
//	[position end]
//	s 204 1
const textMagic = "# lzwseg vocabulary v1"

func parseTextHeader(line string) (int, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), textMagic)
	if !ok {
		return 0, fmt.Errorf("%w: missing text header", ErrCorruptVocabulary)
	}
	value, ok := strings.CutPrefix(strings.TrimSpace(rest), "max_len=")
	if !ok {
		return 0, fmt.Errorf("%w: header has no max_len", ErrCorruptVocabulary)
	}
	maxLen, err := strconv.Atoi(value)
	if err != nil || maxLen <= 0 || maxLen > MaxSubwordLen {
		return 0, fmt.Errorf("%w: bad max_len %q", ErrCorruptVocabulary, value)
	}
	return maxLen, nil
}

// EncodeText writes m as human readable sections of "subword count rank" lines.
func EncodeText(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s max_len=%d\n", textMagic, m.MaxLen)
	for i, t := range m.Lengths {
		fmt.Fprintf(bw, "[length %d]\n", i+1)
		writeTextEntries(bw, t)
	}
	for i, t := range m.Positions {
		fmt.Fprintf(bw, "[position %s]\n", Position(i))
		writeTextEntries(bw, t)
	}
	return bw.Flush()
}

func writeTextEntries(w *bufio.Writer, t *Table) {
	for _, e := range t.entries {
		fmt.Fprintf(w, "%s %d %d\n", e.Subword, e.Count, e.Rank)
	}
}

// DecodeText reads a model written by EncodeText, validates and freezes it.
func DecodeText(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read text vocabulary: %w", err)
		}
		return nil, fmt.Errorf("%w: empty text vocabulary", ErrCorruptVocabulary)
	}
	maxLen, err := parseTextHeader(scanner.Text())
	if err != nil {
		return nil, err
	}

	m := &Model{MaxLen: maxLen, Lengths: make([]*Table, maxLen)}
	lengthSeen := make([]bool, maxLen)
	var positionSeen [NumPositions]bool
	var current *Table
	lineNo := 1

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		switch len(fields) {
		case 0:
			continue
		case 2:
			t, err := m.textSection(fields, lengthSeen, &positionSeen)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current = t
		case 3:
			if current == nil {
				return nil, fmt.Errorf("%w: line %d: entry before any section", ErrCorruptVocabulary, lineNo)
			}
			count, err1 := strconv.Atoi(fields[1])
			rank, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("%w: line %d: bad count or rank", ErrCorruptVocabulary, lineNo)
			}
			if current.Contains(fields[0]) {
				return nil, fmt.Errorf("%w: line %d: duplicate subword %q", ErrCorruptVocabulary, lineNo, fields[0])
			}
			current.Put(Entry{Subword: fields[0], Count: count, Rank: rank})
		default:
			return nil, fmt.Errorf("%w: line %d: expected \"subword count rank\"", ErrCorruptVocabulary, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text vocabulary: %w", err)
	}

	for i, seen := range lengthSeen {
		if !seen {
			return nil, fmt.Errorf("%w: missing [length %d] section", ErrCorruptVocabulary, i+1)
		}
	}
	for i, seen := range positionSeen {
		if !seen {
			return nil, fmt.Errorf("%w: missing [position %s] section", ErrCorruptVocabulary, Position(i))
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.Freeze()
	return m, nil
}

// textSection opens the table named by a "[length N]" or "[position P]" line.
func (m *Model) textSection(fields []string, lengthSeen []bool, positionSeen *[NumPositions]bool) (*Table, error) {
	kind, ok1 := strings.CutPrefix(fields[0], "[")
	name, ok2 := strings.CutSuffix(fields[1], "]")
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: bad section header %q", ErrCorruptVocabulary, strings.Join(fields, " "))
	}
	t := NewTable()
	switch kind {
	case "length":
		n, err := strconv.Atoi(name)
		if err != nil || n < 1 || n > m.MaxLen || lengthSeen[n-1] {
			return nil, fmt.Errorf("%w: bad length section %q", ErrCorruptVocabulary, name)
		}
		lengthSeen[n-1] = true
		m.Lengths[n-1] = t
	case "position":
		p, err := ParsePosition(name)
		if err != nil || positionSeen[p] {
			return nil, fmt.Errorf("%w: bad position section %q", ErrCorruptVocabulary, name)
		}
		positionSeen[p] = true
		m.Positions[p] = t
	default:
		return nil, fmt.Errorf("%w: unknown section %q", ErrCorruptVocabulary, kind)
	}
	return t, nil
}
