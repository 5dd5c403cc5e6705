// Package protocol defines the slice of Language Server Protocol wire types
// this server actually produces or consumes. It intentionally does not try
// to be a complete LSP type library; only the shapes that cross the wire in
// this implementation are modeled.
package protocol

import "encoding/json"

// Position is a zero-based line/character offset, per the LSP spec.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a start/end pair of Positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// DiagnosticSeverity mirrors the LSP DiagnosticSeverity enum.
type DiagnosticSeverity int

const (
	SeverityError       DiagnosticSeverity = 1
	SeverityWarning     DiagnosticSeverity = 2
	SeverityInformation DiagnosticSeverity = 3
	SeverityHint        DiagnosticSeverity = 4
)

// Diagnostic is the LSP Diagnostic record produced by the diagnostics engine.
type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity"`
	Source   string             `json:"source"`
	Message  string             `json:"message"`
}

// TraceValue is the LSP $/setTrace / initialize.trace enum.
type TraceValue string

const (
	TraceOff     TraceValue = "off"
	TraceMessage TraceValue = "messages"
	TraceVerbose TraceValue = "verbose"
)

// TextDocumentItem is the payload of textDocument/didOpen.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int32  `json:"version"`
	Text       string `json:"text"`
}

// VersionedTextDocumentIdentifier identifies a document revision.
type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int32  `json:"version"`
}

// TextDocumentIdentifier identifies a document without a version.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentContentChangeEvent is one entry of a didChange notification.
// Only full-document sync is modeled (Range/RangeLength are absent), which
// is what the diagnostics engine needs: the complete current text.
type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

// DidOpenTextDocumentParams is the params of textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// DidChangeTextDocumentParams is the params of textDocument/didChange.
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidCloseTextDocumentParams is the params of textDocument/didClose.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// PublishDiagnosticsParams is the params of textDocument/publishDiagnostics.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// InitializationOptions is the server-specific subset of initialize params,
// per spec.md §6: buildOptions, maxNumberOfProblems, deviceID. Every field
// is optional; absence leaves the engine's current value untouched.
// InitializationOptions is decoded with BuildOptions left as raw JSON: the
// diagnostics engine validates each array entry individually (a single
// non-string entry aborts only the build-options update, per spec.md
// §4.2), which a typed []string field would prevent by failing the whole
// initialize params decode instead.
type InitializationOptions struct {
	BuildOptions        json.RawMessage `json:"buildOptions,omitempty"`
	MaxNumberOfProblems *int            `json:"maxNumberOfProblems,omitempty"`
	DeviceID            *uint32         `json:"deviceID,omitempty"`
}

// InitializeParams is the params of the initialize request. Only the
// fields this server reads are modeled; unknown fields are ignored by
// encoding/json.
type InitializeParams struct {
	ProcessID             *int                    `json:"processId,omitempty"`
	Trace                 *TraceValue             `json:"trace,omitempty"`
	InitializationOptions *InitializationOptions  `json:"initializationOptions,omitempty"`
}

// ServerCapabilities is the minimal capabilities set this server advertises.
type ServerCapabilities struct {
	TextDocumentSync int  `json:"textDocumentSync"`
}

// InitializeResult is the result of the initialize request.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

// SetTraceParams is the params of $/setTrace.
type SetTraceParams struct {
	Value TraceValue `json:"value"`
}

// LogTraceParams is the params of $/logTrace.
type LogTraceParams struct {
	Message string `json:"message"`
	Verbose string `json:"verbose,omitempty"`
}

// DeviceDescriptor is the wire shape for the supplemental
// $/opencl.listDevices request — see SPEC_FULL.md §10.
type DeviceDescriptor struct {
	StableID    uint32 `json:"stableId"`
	Description string `json:"description"`
	PowerIndex  uint64 `json:"powerIndex"`
}
