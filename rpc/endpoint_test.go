package rpc

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame encodes a JSON body with an LSP Content-Length header, mirroring
// what Endpoint.Write produces and what a real client would send.
func frame(t *testing.T, body any) []byte {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	return []byte(fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(raw), raw))
}

func feed(e *Endpoint, data []byte) {
	for _, b := range data {
		e.Consume(b)
	}
}

type outputRecorder struct {
	chunks [][]byte
}

func (r *outputRecorder) sink(p []byte) error {
	cp := make([]byte, len(p))
	copy(cp, p)
	r.chunks = append(r.chunks, cp)
	return nil
}

func (r *outputRecorder) lastJSON(t *testing.T) map[string]any {
	t.Helper()
	require.GreaterOrEqual(t, len(r.chunks), 2)

	body := r.chunks[len(r.chunks)-1]

	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))

	return m
}

func initializedEndpoint(t *testing.T) (*Endpoint, *outputRecorder) {
	t.Helper()

	e := NewEndpoint()
	rec := &outputRecorder{}
	e.RegisterOutput(rec.sink)

	feed(e, frame(t, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params":  map[string]any{"trace": "off"},
	}))

	require.True(t, e.Initialized())

	return e, rec
}

// P1: framing round-trip.
func TestFramingRoundTrip(t *testing.T) {
	e, _ := initializedEndpoint(t)

	var got *Message
	e.RegisterMethod("textDocument/didOpen", func(msg *Message) {
		got = msg
	})

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/didOpen",
		"params":  map[string]any{"textDocument": map[string]any{"uri": "file:///a.cl"}},
	}
	feed(e, frame(t, payload))

	require.NotNil(t, got)
	assert.Equal(t, "textDocument/didOpen", got.Method)

	var params map[string]any
	require.NoError(t, json.Unmarshal(got.Params, &params))
	assert.Equal(t, "file:///a.cl", params["textDocument"].(map[string]any)["uri"])
}

// P2: lifecycle gate.
func TestLifecycleGateRejectsBeforeInitialize(t *testing.T) {
	e := NewEndpoint()
	rec := &outputRecorder{}
	e.RegisterOutput(rec.sink)

	invoked := false
	e.RegisterMethod("textDocument/didOpen", func(msg *Message) { invoked = true })

	feed(e, frame(t, map[string]any{
		"jsonrpc": "2.0",
		"id":      0,
		"method":  "textDocument/didOpen",
		"params":  map[string]any{},
	}))

	assert.False(t, invoked)

	resp := rec.lastJSON(t)
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(-32002), errObj["code"])
}

// P3: notification silence.
func TestUnknownDollarNotificationIsSilent(t *testing.T) {
	e, rec := initializedEndpoint(t)

	before := len(rec.chunks)

	feed(e, frame(t, map[string]any{
		"jsonrpc": "2.0",
		"method":  "$/some.unregistered.notification",
		"params":  map[string]any{},
	}))

	assert.Equal(t, before, len(rec.chunks))
}

// P4: byte equivalence — feeding one byte at a time or as one big chunk.
func TestByteEquivalence(t *testing.T) {
	e1, rec1 := initializedEndpoint(t)
	e2 := NewEndpoint()
	rec2 := &outputRecorder{}
	e2.RegisterOutput(rec2.sink)
	feed(e2, frame(t, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params":  map[string]any{"trace": "off"},
	}))

	var got1, got2 *Message
	e1.RegisterMethod("$/ping", func(msg *Message) { got1 = msg })
	e2.RegisterMethod("$/ping", func(msg *Message) { got2 = msg })

	payload := frame(t, map[string]any{"jsonrpc": "2.0", "method": "$/ping"})

	for _, b := range payload {
		e1.Consume(b)
	}

	for i := 0; i < len(payload); i += 3 {
		end := i + 3
		if end > len(payload) {
			end = len(payload)
		}
		for _, b := range payload[i:end] {
			e2.Consume(b)
		}
	}

	require.NotNil(t, got1)
	require.NotNil(t, got2)
	assert.Equal(t, got1.Method, got2.Method)
	_ = rec1
}

func TestParseErrorScenario(t *testing.T) {
	e := NewEndpoint()
	rec := &outputRecorder{}
	e.RegisterOutput(rec.sink)

	bad := "{not valid json............................"
	data := []byte(fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(bad), bad))
	feed(e, data)

	resp := rec.lastJSON(t)
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(-32700), errObj["code"])
}

func TestInitializeThenSetTraceThenLogTrace(t *testing.T) {
	e := NewEndpoint()
	rec := &outputRecorder{}
	e.RegisterOutput(rec.sink)

	feed(e, frame(t, map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "initialize",
		"params": map[string]any{"trace": "off"},
	}))

	feed(e, frame(t, map[string]any{
		"jsonrpc": "2.0", "method": "$/setTrace",
		"params": map[string]any{"value": "verbose"},
	}))

	before := len(rec.chunks)
	e.LogTrace("hi", "detail")

	assert.Equal(t, before+2, len(rec.chunks))

	resp := rec.lastJSON(t)
	assert.Equal(t, "$/logTrace", resp["method"])

	params := resp["params"].(map[string]any)
	assert.Equal(t, "hi", params["message"])
	assert.Equal(t, "detail", params["verbose"])
}

func TestUnknownMethodAfterInitialize(t *testing.T) {
	e, rec := initializedEndpoint(t)

	feed(e, frame(t, map[string]any{
		"jsonrpc": "2.0", "id": 7, "method": "textDocument/foo",
		"params": map[string]any{},
	}))

	resp := rec.lastJSON(t)
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(-32601), errObj["code"])
	assert.Equal(t, float64(7), resp["id"])
}

func TestHandlerPanicLeavesEndpointReady(t *testing.T) {
	e, _ := initializedEndpoint(t)

	e.RegisterMethod("textDocument/didOpen", func(msg *Message) {
		panic("boom")
	})

	feed(e, frame(t, map[string]any{
		"jsonrpc": "2.0", "method": "textDocument/didOpen",
		"params": map[string]any{},
	}))

	assert.True(t, e.IsReady())
}

// TestHandlerWriteFromDispatchDoesNotDeadlock guards against a regression
// where Consume held the same mutex across the entire dispatch, so a
// handler calling Write (or LogTrace) from inside its own invocation would
// self-deadlock — exactly what every real LSP Glue handler does (reply,
// publishDiagnostics). This must return promptly.
func TestHandlerWriteFromDispatchDoesNotDeadlock(t *testing.T) {
	e, rec := initializedEndpoint(t)

	e.RegisterMethod("textDocument/didOpen", func(msg *Message) {
		require.NoError(t, e.Write(map[string]any{
			"method": "textDocument/publishDiagnostics",
			"params": map[string]any{"uri": "file:///a.cl", "diagnostics": []any{}},
		}))
		e.LogTrace("handled didOpen", "")
	})

	done := make(chan struct{})
	go func() {
		feed(e, frame(t, map[string]any{
			"jsonrpc": "2.0", "method": "textDocument/didOpen",
			"params": map[string]any{},
		}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not return: handler's Write call deadlocked")
	}

	resp := rec.lastJSON(t)
	assert.Equal(t, "textDocument/publishDiagnostics", resp["method"])
}

func TestInvalidContentLength(t *testing.T) {
	e := NewEndpoint()
	rec := &outputRecorder{}
	e.RegisterOutput(rec.sink)

	feed(e, []byte("Content-Length: 0\r\n\r\n"))

	resp := rec.lastJSON(t)
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, float64(-32600), errObj["code"])
	assert.Equal(t, ReadingHeaders, e.phase)
}
