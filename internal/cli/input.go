// Package cli handles cmd line input for inspecting segmentations of a vocabulary interactively.
package cli

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/lzwseg/internal/logger"
	"github.com/bastiangx/lzwseg/pkg/pipeline"
	"github.com/bastiangx/lzwseg/pkg/segment"
)

var (
	wordStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	subwordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// InputHandler reads lines, prints the retained candidates of each word
// with their scores and then the sampled segmentation of the whole line.
type InputHandler struct {
	seg          *segment.Segmenter
	reader       *bufio.Reader
	out          *log.Logger
	normalize    bool
	requestCount int
}

// NewInputHandler handles initialization of the InputHandler.
func NewInputHandler(seg *segment.Segmenter, r io.Reader, w io.Writer) *InputHandler {
	return &InputHandler{
		seg:    seg,
		reader: bufio.NewReader(r),
		out:    logger.NewWithConfig(w, "", log.InfoLevel, false, false, log.TextFormatter),
	}
}

// SetNormalize turns Unicode NFC of input lines on or off.
func (h *InputHandler) SetNormalize(on bool) {
	h.normalize = on
}

// Start begins the interface loop. It ends cleanly when input runs out.
func (h *InputHandler) Start() error {
	h.out.Print("lzwseg CLI")
	h.out.Printf("top-k %d, alpha %g. type words and press Enter (Ctrl+D to exit):", h.seg.Options().TopK, h.seg.Options().Alpha)

	for {
		h.out.Print("> ")
		line, err := h.reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if h.normalize {
			line = pipeline.NormalizeLine(line)
		}
		if line != "" {
			h.handleInput(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// handleInput shows candidates for each word of line.
func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	start := time.Now()

	for _, word := range strings.Fields(line) {
		if utf8.RuneCountInString(word) > h.seg.Options().LongWordThreshold {
			h.out.Printf("%s is longer than %d characters and is bisected", wordStyle.Render(word), h.seg.Options().LongWordThreshold)
			continue
		}
		cands := h.seg.Candidates(word)
		if len(cands) == 0 {
			h.out.Warnf("No decomposition for '%s', it is kept whole", word)
			continue
		}
		h.out.Printf("%d candidates for %s:", len(cands), wordStyle.Render(word))
		for i, c := range cands {
			h.out.Printf("%2d. %-40s (score: %.6f)", i+1, subwordStyle.Render(c.String()), c.Score)
		}
	}

	segmented := pipeline.SegmentLine(h.seg, line)
	log.Debugf("Took [ %v ] for request %d", time.Since(start), h.requestCount)
	h.out.Print(segmented)
}
