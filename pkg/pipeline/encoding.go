package pipeline

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownEncoding is returned for encoding names htmlindex does not know.
var ErrUnknownEncoding = errors.New("pipeline: unknown text encoding")

// LookupEncoding resolves a WHATWG encoding label such as "latin1" or
// "windows-1252". An empty name and any UTF-8 label return nil, meaning
// the text passes through untouched.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

// DecodeReader wraps r so it yields UTF-8. A nil enc returns r as is.
func DecodeReader(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		return r
	}
	return transform.NewReader(r, enc.NewDecoder())
}

// EncodeWriter wraps w so UTF-8 written to it lands in enc. Characters enc
// cannot represent are replaced. The returned closer flushes pending bytes.
func EncodeWriter(w io.Writer, enc encoding.Encoding) io.WriteCloser {
	if enc == nil {
		return nopCloser{w}
	}
	return transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder()))
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// NormalizeLine applies Unicode NFC, matching what learning does with
// vocab.Options.Normalize.
func NormalizeLine(line string) string {
	return norm.NFC.String(line)
}
