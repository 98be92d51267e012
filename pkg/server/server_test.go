package server

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/lzwseg/pkg/segment"
	"github.com/bastiangx/lzwseg/pkg/vocab"
)

func newTestServer(t *testing.T, requests ...any) (*Server, *bytes.Buffer) {
	t.Helper()
	m, err := vocab.Learn(context.Background(), strings.NewReader("cat cats catalog"), vocab.Options{MaxLen: 3})
	if err != nil {
		t.Fatalf("Learn() error = %v", err)
	}
	src := segment.NewSource(1)
	seg, err := segment.New(m, segment.Options{TopK: 1}, src, nil)
	if err != nil {
		t.Fatalf("segment.New() error = %v", err)
	}

	var in bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, req := range requests {
		if err := enc.Encode(req); err != nil {
			t.Fatalf("Encode(%v) error = %v", req, err)
		}
	}
	var out bytes.Buffer
	return NewServer(seg, src, Options{MaxTextLength: 32, MaxTopK: 8}, &in, &out), &out
}

func readReady(t *testing.T, dec *msgpack.Decoder) {
	t.Helper()
	var ready map[string]string
	if err := dec.Decode(&ready); err != nil {
		t.Fatalf("decode ready message: %v", err)
	}
	if ready["status"] != "ready" {
		t.Fatalf("first message = %v, want ready status", ready)
	}
}

func TestServer_Segment(t *testing.T) {
	srv, out := newTestServer(t,
		SegmentRequest{ID: "req_001", Text: "cats cat"},
		SegmentRequest{ID: "req_002", Text: "  "},
	)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	dec := msgpack.NewDecoder(out)
	readReady(t, dec)

	var resp SegmentResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "req_001" || resp.Segmented != "|ca ts |cat" {
		t.Errorf("response = %+v, want id req_001 and %q", resp, "|ca ts |cat")
	}
	if want := [][]string{{"ca", "ts"}, {"cat"}}; !reflect.DeepEqual(resp.Words, want) {
		t.Errorf("words = %v, want %v", resp.Words, want)
	}

	var blank SegmentResponse
	if err := dec.Decode(&blank); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if blank.ID != "req_002" || blank.Segmented != "" || len(blank.Words) != 0 {
		t.Errorf("blank response = %+v, want empty segmentation", blank)
	}
}

func TestServer_Errors(t *testing.T) {
	srv, out := newTestServer(t,
		SegmentRequest{ID: "long", Text: strings.Repeat("cat ", 20)},
		SegmentRequest{ID: "k", Text: "cats", TopK: 99},
		InfoRequest{ID: "bad", Action: "reload"},
		"not a map",
	)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	dec := msgpack.NewDecoder(out)
	readReady(t, dec)

	tests := []struct {
		id          string
		description string
	}{
		{"long", "text over the limit"},
		{"k", "top-k over the limit"},
		{"bad", "unknown action"},
		{"", "undecodable request"},
	}
	for _, tt := range tests {
		var resp ErrorResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("%s: decode error response: %v", tt.description, err)
		}
		if resp.ID != tt.id || resp.Code != 400 || resp.Error == "" {
			t.Errorf("%s: response = %+v, want a 400 for %q", tt.description, resp, tt.id)
		}
	}
}

func TestServer_InfoAndTopKOverride(t *testing.T) {
	srv, out := newTestServer(t,
		SegmentRequest{ID: "a", Text: "cats"},
		SegmentRequest{ID: "b", Text: "catalog", TopK: 3},
		InfoRequest{ID: "info", Action: "get_info"},
	)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	dec := msgpack.NewDecoder(out)
	readReady(t, dec)
	for i := 0; i < 2; i++ {
		var resp SegmentResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decode response %d: %v", i, err)
		}
	}

	var info InfoResponse
	if err := dec.Decode(&info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	want := InfoResponse{
		ID:        "info",
		Status:    "ok",
		MaxLen:    3,
		Lengths:   []int{7, 6, 1},
		Positions: []int{2, 4, 3},
		Cached:    2,
	}
	if !reflect.DeepEqual(info, want) {
		t.Errorf("info = %+v, want %+v", info, want)
	}
	if len(srv.segmenters) != 2 {
		t.Errorf("server holds %d segmenters, want 2", len(srv.segmenters))
	}
}

func TestServer_Normalize(t *testing.T) {
	m, err := vocab.Learn(context.Background(), strings.NewReader("caf\u00e9 caf\u00e9s"), vocab.Options{MaxLen: 3})
	if err != nil {
		t.Fatalf("Learn() error = %v", err)
	}
	tests := []struct {
		normalize   bool
		want        []string
		description string
	}{
		{true, []string{"caf\u00e9s"}, "decomposed input matches composed vocabulary"},
		{false, []string{"cafe\u0301s"}, "decomposed input falls back whole"},
	}
	for _, tt := range tests {
		seg, err := segment.New(m, segment.Options{TopK: 1}, nil, nil)
		if err != nil {
			t.Fatalf("segment.New() error = %v", err)
		}
		var in, out bytes.Buffer
		if err := msgpack.NewEncoder(&in).Encode(SegmentRequest{ID: "n", Text: "cafe\u0301s"}); err != nil {
			t.Fatal(err)
		}
		srv := NewServer(seg, nil, Options{Normalize: tt.normalize}, &in, &out)
		if err := srv.Start(); err != nil {
			t.Fatalf("%s: Start() error = %v", tt.description, err)
		}
		dec := msgpack.NewDecoder(&out)
		readReady(t, dec)
		var resp SegmentResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("%s: decode response: %v", tt.description, err)
		}
		if len(resp.Words) != 1 {
			t.Fatalf("%s: words = %v", tt.description, resp.Words)
		}
		joined := strings.Join(resp.Words[0], "")
		if joined != tt.want[0] {
			t.Errorf("%s: subwords %v join to %q, want %q", tt.description, resp.Words[0], joined, tt.want[0])
		}
		if tt.normalize && len(resp.Words[0]) < 2 {
			t.Errorf("%s: %v was not segmented", tt.description, resp.Words[0])
		}
	}
}
