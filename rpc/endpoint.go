// Package rpc implements the JSON-RPC 2.0 framing and dispatch state
// machine that sits underneath the Language Server Protocol handshake. It
// is driven one byte at a time by a caller-owned byte pump (conventionally
// reading os.Stdin) and never blocks or reads from the transport itself.
package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/rockerboo/opencl-language-server/logger"
)

// Phase is the framing state machine's current region.
type Phase int

const (
	ReadingHeaders Phase = iota
	ReadingBody
)

// headerLineRe matches a single "Name: Value" header line, per spec.md
// §4.1. It is pinned as a package constant because the spec treats it as
// part of the contract.
var headerLineRe = regexp.MustCompile(`^([^:]+):\s*(.+?)\s*$`)

// Message is the generic envelope of a parsed JSON-RPC body. ID is kept as
// raw JSON because it may legally be a number, a string, or absent.
type Message struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// IsResponse reports whether the message carries no method, i.e. it is a
// response to a request this endpoint previously sent.
func (m *Message) IsResponse() bool {
	return m.Method == ""
}

// MethodHandler processes a dispatched request or notification.
type MethodHandler func(msg *Message)

// ResponseHandler processes an inbound response to a server-initiated
// request. There is a single sink for all such responses; demuxing by ID
// is the glue layer's responsibility (see DESIGN.md, "Response routing").
type ResponseHandler func(msg *Message)

// OutputSink receives fully framed outbound bytes (headers and body).
type OutputSink func(p []byte) error

// Endpoint is the JSON-RPC/LSP framing and dispatch core (component C).
// It is a plain value: multiple Endpoints can coexist, there is no global
// state, and busy is instance-local.
type Endpoint struct {
	mu sync.Mutex

	// outMu guards outputSink and serializes the bytes written through it.
	// It is deliberately separate from mu: a method handler invoked
	// synchronously from Consume (while mu is held) is allowed to call
	// Write or LogTrace per spec.md §4.1, and sync.Mutex is not
	// reentrant. Keeping the output path on its own lock means that call
	// never contends with the lock Consume is already holding.
	outMu sync.Mutex

	initialized    bool
	tracing        bool
	verboseTracing bool

	phase         Phase
	headerLine    []byte
	headers       map[string]string
	contentLength int
	body          []byte

	busy bool

	methodHandlers  map[string]MethodHandler
	responseHandler ResponseHandler
	outputSink      OutputSink
}

// NewEndpoint constructs an Endpoint ready to consume bytes.
func NewEndpoint() *Endpoint {
	return &Endpoint{
		phase:          ReadingHeaders,
		headers:        make(map[string]string),
		methodHandlers: make(map[string]MethodHandler),
	}
}

// RegisterMethod installs or replaces a handler for a method name.
func (e *Endpoint) RegisterMethod(name string, handler MethodHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.methodHandlers[name] = handler
}

// RegisterResponseHandler installs the sink for inbound responses.
func (e *Endpoint) RegisterResponseHandler(handler ResponseHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.responseHandler = handler
}

// RegisterOutput installs the outbound byte sink.
func (e *Endpoint) RegisterOutput(sink OutputSink) {
	e.outMu.Lock()
	defer e.outMu.Unlock()

	e.outputSink = sink
}

// IsReady reports whether the endpoint is ready for the next message.
func (e *Endpoint) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return !e.busy
}

// Reset clears per-message framing state while preserving lifecycle flags
// (initialized, tracing, verboseTracing) and handler registrations. Per
// spec.md §4.1 it marks the endpoint busy: Reset is called the instant a
// full message body has been parsed and dispatch is about to begin.
func (e *Endpoint) Reset() {
	e.headerLine = e.headerLine[:0]
	e.headers = make(map[string]string)
	e.contentLength = 0
	e.body = nil
	e.phase = ReadingHeaders
	e.busy = true
}

// resetFraming clears only the buffer/content-length/phase, used when a
// malformed header or body is discarded before any dispatch began. busy is
// untouched because no message ever reached dispatch.
func (e *Endpoint) resetFraming() {
	e.headerLine = e.headerLine[:0]
	e.headers = make(map[string]string)
	e.contentLength = 0
	e.body = nil
	e.phase = ReadingHeaders
}

// Consume feeds one byte into the framing state machine. It never blocks
// and never panics across the boundary; internal failures become JSON-RPC
// error responses.
func (e *Endpoint) Consume(b byte) {
	e.mu.Lock()

	switch e.phase {
	case ReadingHeaders:
		e.consumeHeaderByte(b)
	case ReadingBody:
		e.consumeBodyByte(b)
	}

	e.mu.Unlock()
}

func (e *Endpoint) consumeHeaderByte(b byte) {
	e.headerLine = append(e.headerLine, b)

	if !bytes.HasSuffix(e.headerLine, []byte("\r\n")) {
		return
	}

	line := e.headerLine[:len(e.headerLine)-2]
	e.headerLine = e.headerLine[:0]

	if len(line) == 0 {
		e.onHeadersComplete()
		return
	}

	e.parseHeaderLine(line)
}

func (e *Endpoint) parseHeaderLine(line []byte) {
	m := headerLineRe.FindSubmatch(line)
	if m == nil {
		// Unrecognized line shape; ignored rather than failing the whole
		// message, matching "unknown headers are stored but have no
		// semantic effect" - a line we can't even parse as Name: Value is
		// simply dropped.
		return
	}

	name := string(m[1])
	value := string(m[2])
	e.headers[name] = value

	if name == "Content-Length" {
		n, err := strconv.Atoi(value)
		if err != nil {
			// Leave contentLength at 0; the blank-line transition check
			// below will reject it as invalid.
			e.contentLength = 0
			return
		}

		e.contentLength = n
	}
}

func (e *Endpoint) onHeadersComplete() {
	if e.contentLength > 0 {
		e.phase = ReadingBody
		e.body = make([]byte, 0, e.contentLength)
		return
	}

	e.emitErrorLocked(nil, jsonrpc2.CodeInvalidRequest, "Invalid content length")
	e.resetFraming()
}

func (e *Endpoint) consumeBodyByte(b byte) {
	e.body = append(e.body, b)

	if len(e.body) != e.contentLength {
		return
	}

	body := e.body

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		e.emitErrorLocked(nil, jsonrpc2.CodeParseError, "Parse error")
		e.resetFraming()
		return
	}

	e.Reset()
	e.dispatchLocked(&msg)
}

// dispatchLocked runs the dispatch algorithm of spec.md §4.1. It is called
// with mu held (matching Consume's synchronous, re-entrant-unsafe
// contract: a handler invoked here must not call Consume on this
// Endpoint). It may freely call Write/LogTrace — those take outMu, not
// mu, so they never contend with the lock dispatch is running under.
func (e *Endpoint) dispatchLocked(msg *Message) {
	defer func() { e.busy = false }()

	if msg.Method == "" {
		if e.responseHandler != nil {
			e.invokeSafely(func() { e.responseHandler(msg) })
		}

		return
	}

	switch {
	case msg.Method == "initialize":
		e.applyInitialize(msg)
	case !e.initialized:
		e.emitErrorLocked(msg.ID, CodeNotInitialized, "Server not initialized")
		return
	case msg.Method == "$/setTrace":
		e.applySetTrace(msg)
	}

	handler, ok := e.methodHandlers[msg.Method]
	if !ok {
		hasID := len(msg.ID) > 0 && string(msg.ID) != "null"
		requiresResponse := hasID || !strings.HasPrefix(msg.Method, "$/")
		if requiresResponse {
			e.emitErrorLocked(msg.ID, jsonrpc2.CodeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
		}

		return
	}

	e.invokeSafely(func() { handler(msg) })
}

func (e *Endpoint) invokeSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("rpc: handler panic recovered: %v", r))
		}
	}()

	fn()
}

func (e *Endpoint) applyInitialize(msg *Message) {
	trace := parseTraceParam(msg.Params)
	e.tracing = trace != "" && trace != "off"
	e.verboseTracing = trace == "verbose"
	e.initialized = true
}

func (e *Endpoint) applySetTrace(msg *Message) {
	var params struct {
		Value string `json:"value"`
	}

	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return
	}

	e.tracing = params.Value != "" && params.Value != "off"
	e.verboseTracing = params.Value == "verbose"
}

func parseTraceParam(params json.RawMessage) string {
	if len(params) == 0 {
		return "off"
	}

	var p struct {
		Trace string `json:"trace"`
	}

	if err := json.Unmarshal(params, &p); err != nil {
		return "off"
	}

	if p.Trace == "" {
		return "off"
	}

	return p.Trace
}

// emitErrorLocked writes a JSON-RPC error response. Called with mu held;
// Write only ever takes outMu, so this never contends with mu.
func (e *Endpoint) emitErrorLocked(id json.RawMessage, code jsonrpc2.Code, message string) {
	resp := map[string]any{
		"error": &jsonrpc2.Error{Code: code, Message: message},
	}

	if len(id) > 0 {
		resp["id"] = id
	} else {
		resp["id"] = nil
	}

	if err := e.Write(resp); err != nil {
		logger.Error(fmt.Sprintf("rpc: failed to write error response: %v", err))
	}
}

// Write serializes v with "jsonrpc":"2.0" merged in, frames it with
// Content-Length/Content-Type headers, and sends it to the output sink.
// It takes only outMu, never mu, so a method handler invoked synchronously
// from Consume is free to call it (spec.md §4.1).
func (e *Endpoint) Write(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("rpc: marshal body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("rpc: body is not a JSON object: %w", err)
	}

	fields["jsonrpc"] = json.RawMessage(`"2.0"`)

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("rpc: marshal framed body: %w", err)
	}

	e.outMu.Lock()
	defer e.outMu.Unlock()

	if e.outputSink == nil {
		return fmt.Errorf("rpc: no output sink registered")
	}

	header := fmt.Sprintf("Content-Length: %d\r\nContent-Type: application/vscode-jsonrpc;charset=utf-8\r\n\r\n", len(body))

	if err := e.outputSink([]byte(header)); err != nil {
		return fmt.Errorf("rpc: write header: %w", err)
	}

	if err := e.outputSink(body); err != nil {
		return fmt.Errorf("rpc: write body: %w", err)
	}

	return nil
}

// LogTrace emits a $/logTrace notification when tracing is enabled. The
// verbose field is included only when verbose tracing is on. It reads the
// tracing flags without taking mu, so a handler running inside Consume's
// dispatch can call it; the flags change only during dispatch, so calls
// from the goroutine that drives Consume see their current values.
func (e *Endpoint) LogTrace(message, verbose string) {
	tracing := e.tracing
	verboseTracing := e.verboseTracing

	if !tracing {
		return
	}

	params := map[string]any{"message": message}
	if verboseTracing {
		params["verbose"] = verbose
	}

	if err := e.Write(map[string]any{
		"method": "$/logTrace",
		"params": params,
	}); err != nil {
		logger.Error(fmt.Sprintf("rpc: failed to write $/logTrace: %v", err))
	}
}

// Initialized reports whether the initialize request has been received.
func (e *Endpoint) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.initialized
}
