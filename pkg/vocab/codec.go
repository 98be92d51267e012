package vocab

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	fileMagic   = "LZWV"
	fileVersion = 1
)

// fileHeader is the first msgpack value of a vocabulary file.
type fileHeader struct {
	Magic   string `msgpack:"magic"`
	Version int    `msgpack:"version"`
	MaxLen  int    `msgpack:"max_len"`
}

func (h fileHeader) check() error {
	if h.Magic != fileMagic {
		return fmt.Errorf("%w: bad magic %q", ErrCorruptVocabulary, h.Magic)
	}
	if h.Version != fileVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptVocabulary, h.Version)
	}
	if h.MaxLen <= 0 || h.MaxLen > MaxSubwordLen {
		return fmt.Errorf("%w: max_len %d", ErrCorruptVocabulary, h.MaxLen)
	}
	return nil
}

// fileEntry is one (subword, count, rank) triple.
type fileEntry struct {
	_msgpack struct{} `msgpack:",as_array"`
	Subword  string
	Count    int
	Rank     int
}

// fileBody follows the header.
type fileBody struct {
	Lengths   [][]fileEntry `msgpack:"lengths"`
	Positions [][]fileEntry `msgpack:"positions"`
}

func toFileEntries(t *Table) []fileEntry {
	out := make([]fileEntry, 0, t.Len())
	for _, e := range t.entries {
		out = append(out, fileEntry{Subword: e.Subword, Count: e.Count, Rank: e.Rank})
	}
	return out
}

func fromFileEntries(entries []fileEntry) *Table {
	t := NewTable()
	for _, e := range entries {
		t.Put(Entry{Subword: e.Subword, Count: e.Count, Rank: e.Rank})
	}
	return t
}

// EncodeMsgpack writes m as a header value followed by the tables.
func EncodeMsgpack(w io.Writer, m *Model) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(fileHeader{Magic: fileMagic, Version: fileVersion, MaxLen: m.MaxLen}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	body := fileBody{
		Lengths:   make([][]fileEntry, len(m.Lengths)),
		Positions: make([][]fileEntry, len(m.Positions)),
	}
	for i, t := range m.Lengths {
		body.Lengths[i] = toFileEntries(t)
	}
	for i, t := range m.Positions {
		body.Positions[i] = toFileEntries(t)
	}
	if err := enc.Encode(body); err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}
	return nil
}

// DecodeMsgpack reads a model written by EncodeMsgpack, validates and freezes it.
func DecodeMsgpack(r io.Reader) (*Model, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))

	var hdr fileHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorruptVocabulary, err)
	}
	if err := hdr.check(); err != nil {
		return nil, err
	}

	var body fileBody
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: read tables: %v", ErrCorruptVocabulary, err)
	}
	if len(body.Lengths) != hdr.MaxLen {
		return nil, fmt.Errorf("%w: %d length tables for max_len %d", ErrCorruptVocabulary, len(body.Lengths), hdr.MaxLen)
	}
	if len(body.Positions) != NumPositions {
		return nil, fmt.Errorf("%w: %d position tables", ErrCorruptVocabulary, len(body.Positions))
	}

	m := &Model{MaxLen: hdr.MaxLen, Lengths: make([]*Table, hdr.MaxLen)}
	for i, entries := range body.Lengths {
		m.Lengths[i] = fromFileEntries(entries)
	}
	for i, entries := range body.Positions {
		m.Positions[i] = fromFileEntries(entries)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.Freeze()
	return m, nil
}

// Encode writes m in the given format.
func Encode(w io.Writer, m *Model, format FileFormat) error {
	switch format {
	case FormatMsgpack:
		return EncodeMsgpack(w, m)
	case FormatText:
		return EncodeText(w, m)
	}
	return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
}

// Decode reads a model in the given format.
func Decode(r io.Reader, format FileFormat) (*Model, error) {
	switch format {
	case FormatMsgpack:
		return DecodeMsgpack(r)
	case FormatText:
		return DecodeText(r)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
}

// Save writes m to path, choosing the format from the extension.
func Save(m *Model, path string) error {
	format := FormatFromPath(path)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vocabulary file: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := Encode(w, m, format); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write vocabulary file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close vocabulary file: %w", err)
	}
	log.Debugf("Saved %s to %s", format, path)
	return nil
}

// Load reads a vocabulary file, detecting its format.
func Load(path string) (*Model, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary file: %w", err)
	}
	defer file.Close()

	m, err := Decode(file, format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Debugf("Loaded %s from %s: max_len %d", format, path, m.MaxLen)
	return m, nil
}
