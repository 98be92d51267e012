/*
Package server implements msgpack IPC for subword segmentation.

The server reads msgpack messages from stdin and writes msgpack responses to stdout.
A client such as a tokenizer front end keeps one process alive and sends text as it needs it,
instead of paying the vocabulary load for every call.

# IPC

The server operates on a request response model. Each message carries an ID field
and the other fields depend on the operation.

Segmentation requests look like:

	{"id": "req_001", "t": "the cats sat"}

The server answers with the segmented line and the subwords of every word:

	{"id": "req_001", "s": "|the |ca ts |sat", "w": [["the"], ["ca", "ts"], ["sat"]], "t": 87}

An optional "k" overrides the configured top-K for one request:

	{"id": "req_002", "t": "segmentation", "k": 1}

Vocabulary information is requested with an action:

	{"id": "info_001", "action": "get_info"}

Failures are reported with an error message and a code:

	{"id": "req_003", "e": "text exceeds maximum length of 4096 bytes", "c": 400}

Messages are processed synchronously. Timing is reported in microseconds.
Requests with the same top-K share one segmentation cache for the lifetime
of the process; each top-K in use gets its own.
*/
package server

// SegmentRequest asks for the segmentation of a line of text.
type SegmentRequest struct {
	ID   string `msgpack:"id"`
	Text string `msgpack:"t"`
	TopK int    `msgpack:"k,omitempty"`
}

// SegmentResponse carries the segmented line.
type SegmentResponse struct {
	ID        string     `msgpack:"id"`
	Segmented string     `msgpack:"s"`
	Words     [][]string `msgpack:"w"`
	TimeTaken int64      `msgpack:"t"`
}

// InfoRequest asks for vocabulary information.
type InfoRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"` // "get_info"
}

// InfoResponse describes the loaded vocabulary.
type InfoResponse struct {
	ID        string `msgpack:"id"`
	Status    string `msgpack:"status"`
	MaxLen    int    `msgpack:"max_len"`
	Lengths   []int  `msgpack:"lengths"`
	Positions []int  `msgpack:"positions"`
	Cached    int    `msgpack:"cached"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// request is decoded first to route a message.
type request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
}
