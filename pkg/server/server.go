package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/lzwseg/internal/logger"
	"github.com/bastiangx/lzwseg/pkg/pipeline"
	"github.com/bastiangx/lzwseg/pkg/segment"
	"github.com/bastiangx/lzwseg/pkg/vocab"
)

const (
	DefaultMaxTextLength = 4096
	DefaultMaxTopK       = 64
)

// Options bounds what a single request may ask for. Normalize applies
// Unicode NFC to request text, matching a vocabulary learned with it.
type Options struct {
	MaxTextLength int
	MaxTopK       int
	Normalize     bool
}

// Server handles the IPC for segmentation.
type Server struct {
	model  *vocab.Model
	base   segment.Options
	src    segment.Source
	limits Options

	// one segmenter per top-K in use, each with its own cache
	segmenters map[int]*segment.Segmenter

	dec    *msgpack.Decoder
	writer *bufio.Writer
	enc    *msgpack.Encoder
	logger *log.Logger

	requestCount int
}

// NewServer creates a segmentation server reading requests from r and
// writing responses to w. Zero limits take the defaults.
func NewServer(seg *segment.Segmenter, src segment.Source, limits Options, r io.Reader, w io.Writer) *Server {
	if limits.MaxTextLength <= 0 {
		limits.MaxTextLength = DefaultMaxTextLength
	}
	if limits.MaxTopK <= 0 {
		limits.MaxTopK = DefaultMaxTopK
	}
	base := seg.Options()
	bw := bufio.NewWriter(w)
	return &Server{
		model:      seg.Model(),
		base:       base,
		src:        src,
		limits:     limits,
		segmenters: map[int]*segment.Segmenter{base.TopK: seg},
		dec:        msgpack.NewDecoder(bufio.NewReader(r)),
		writer:     bw,
		enc:        msgpack.NewEncoder(bw),
		logger:     logger.New("server"),
	}
}

// Start signals readiness and serves requests until the input ends.
func (s *Server) Start() error {
	s.logger.Debug("Starting Server.")

	if err := s.send(map[string]string{"status": "ready"}); err != nil {
		return err
	}

	for {
		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debugf("Input closed after %d requests", s.requestCount)
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}
		s.requestCount++
		if err := s.handleRequest(raw); err != nil {
			return err
		}
	}
}

// handleRequest routes one raw message by its action field.
func (s *Server) handleRequest(raw msgpack.RawMessage) error {
	var req request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.logger.Errorf("Unmarshaling request: %v", err)
		return s.sendError("", "invalid msgpack request", 400)
	}

	switch req.Action {
	case "":
		var sr SegmentRequest
		if err := msgpack.Unmarshal(raw, &sr); err != nil {
			s.logger.Errorf("Unmarshaling segment request: %v", err)
			return s.sendError(req.ID, "invalid segment request", 400)
		}
		return s.handleSegment(sr)
	case "get_info":
		return s.handleInfo(req.ID)
	default:
		return s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleSegment(req SegmentRequest) error {
	if len(req.Text) > s.limits.MaxTextLength {
		s.logger.Debugf("Text too long in request %s", req.ID)
		return s.sendError(req.ID, fmt.Sprintf("text exceeds maximum length of %d bytes", s.limits.MaxTextLength), 400)
	}
	k := req.TopK
	if k == 0 {
		k = s.base.TopK
	}
	if k < 1 || k > s.limits.MaxTopK {
		return s.sendError(req.ID, fmt.Sprintf("top-k must be between 1 and %d", s.limits.MaxTopK), 400)
	}
	seg, err := s.segmenter(k)
	if err != nil {
		s.logger.Errorf("Creating segmenter for k=%d: %v", k, err)
		return s.sendError(req.ID, "internal server error", 500)
	}

	text := req.Text
	if s.limits.Normalize {
		text = pipeline.NormalizeLine(text)
	}
	start := time.Now()
	words := pipeline.SegmentWords(seg, text)
	elapsed := time.Since(start)

	return s.send(SegmentResponse{
		ID:        req.ID,
		Segmented: pipeline.FormatWords(words),
		Words:     words,
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleInfo(id string) error {
	stats := s.model.Stats()
	cached := 0
	for _, seg := range s.segmenters {
		_, n := seg.Cache().Len()
		cached += n
	}
	return s.send(InfoResponse{
		ID:        id,
		Status:    "ok",
		MaxLen:    stats.MaxLen,
		Lengths:   stats.Lengths,
		Positions: stats.Positions[:],
		Cached:    cached,
	})
}

// segmenter returns the segmenter for top-K k, creating it on first use.
func (s *Server) segmenter(k int) (*segment.Segmenter, error) {
	if seg, ok := s.segmenters[k]; ok {
		return seg, nil
	}
	opts := s.base
	opts.TopK = k
	seg, err := segment.New(s.model, opts, s.src, nil)
	if err != nil {
		return nil, err
	}
	s.segmenters[k] = seg
	return seg, nil
}

// send encodes one response and flushes it.
func (s *Server) send(response any) error {
	if err := s.enc.Encode(response); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) error {
	return s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
