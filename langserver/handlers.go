// Package langserver is the LSP Glue (component D): it registers method
// handlers on a rpc.Endpoint that bridge LSP methods into the diagnostics
// engine and a document store, per spec.md §4.4. It is a collaborator,
// not part of the core, and is specified only through the interfaces the
// core exposes.
package langserver

import (
	"encoding/json"
	"fmt"

	"github.com/rockerboo/opencl-language-server/device"
	"github.com/rockerboo/opencl-language-server/diagnostics"
	"github.com/rockerboo/opencl-language-server/logger"
	"github.com/rockerboo/opencl-language-server/protocol"
	"github.com/rockerboo/opencl-language-server/rpc"
	"github.com/rockerboo/opencl-language-server/utils"
)

// Endpoint is the slice of rpc.Endpoint that the glue layer depends on.
type Endpoint interface {
	RegisterMethod(name string, handler rpc.MethodHandler)
	Write(v any) error
}

// Server wires the diagnostics engine and document store into an RPC
// endpoint's method handlers.
type Server struct {
	endpoint Endpoint
	engine   *diagnostics.Engine
	driver   device.Driver
	docs     *DocumentStore

	shutdownReceived bool
	done              chan int
}

// NewServer builds and registers every handler listed in spec.md §6's
// method surface, plus the supplemental $/opencl.listDevices request from
// SPEC_FULL.md §10.
func NewServer(endpoint Endpoint, engine *diagnostics.Engine, driver device.Driver) *Server {
	s := &Server{
		endpoint: endpoint,
		engine:   engine,
		driver:   driver,
		docs:     NewDocumentStore(),
		done:     make(chan int, 1),
	}

	s.register()

	return s
}

// Done yields the process exit code exactly once, at the moment an "exit"
// notification is handled. main.go's byte pump selects on it to know when
// to stop reading and terminate.
func (s *Server) Done() <-chan int {
	return s.done
}

func (s *Server) register() {
	s.endpoint.RegisterMethod("initialize", s.handleInitialize)
	s.endpoint.RegisterMethod("initialized", s.handleInitialized)
	s.endpoint.RegisterMethod("textDocument/didOpen", s.handleDidOpen)
	s.endpoint.RegisterMethod("textDocument/didChange", s.handleDidChange)
	s.endpoint.RegisterMethod("textDocument/didClose", s.handleDidClose)
	s.endpoint.RegisterMethod("shutdown", s.handleShutdown)
	s.endpoint.RegisterMethod("exit", s.handleExit)
	s.endpoint.RegisterMethod("$/opencl.listDevices", s.handleListDevices)
	s.endpoint.RegisterMethod("$/opencl.revalidate", s.handleRevalidate)
}

func (s *Server) handleInitialize(msg *rpc.Message) {
	var params protocol.InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			logger.Error(fmt.Sprintf("langserver: invalid initialize params: %v", err))
		}
	}

	var deviceID uint32

	if opts := params.InitializationOptions; opts != nil {
		s.applyInitializationOptions(opts)

		if opts.DeviceID != nil {
			deviceID = *opts.DeviceID
		}
	}

	if err := s.engine.SetDevice(deviceID); err != nil {
		logger.Error(fmt.Sprintf("langserver: initial device selection failed: %v", err))
	}

	s.reply(msg, protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{TextDocumentSync: 1},
	})
}

func (s *Server) applyInitializationOptions(opts *protocol.InitializationOptions) {
	if len(opts.BuildOptions) > 0 {
		var items []any
		if err := json.Unmarshal(opts.BuildOptions, &items); err != nil {
			logger.Error(fmt.Sprintf("langserver: invalid buildOptions: %v", err))
		} else if err := s.engine.SetBuildOptions(items); err != nil {
			logger.Error(fmt.Sprintf("langserver: %v", err))
		}
	}

	if opts.MaxNumberOfProblems != nil {
		s.engine.SetMaxProblems(*opts.MaxNumberOfProblems)
	}
}

func (s *Server) handleInitialized(msg *rpc.Message) {
	logger.Debug("langserver: client reports initialized")
}

func (s *Server) handleDidOpen(msg *rpc.Message) {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		logger.Error(fmt.Sprintf("langserver: invalid didOpen params: %v", err))
		return
	}

	s.docs.Open(params.TextDocument.URI, params.TextDocument.Text)
	s.validate(params.TextDocument.URI)
}

func (s *Server) handleDidChange(msg *rpc.Message) {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		logger.Error(fmt.Sprintf("langserver: invalid didChange params: %v", err))
		return
	}

	if len(params.ContentChanges) == 0 {
		return
	}

	// Full-document sync: the last content change carries the complete
	// current text (see protocol.ServerCapabilities.TextDocumentSync).
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	s.docs.Update(params.TextDocument.URI, text)
	s.validate(params.TextDocument.URI)
}

func (s *Server) handleDidClose(msg *rpc.Message) {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		logger.Error(fmt.Sprintf("langserver: invalid didClose params: %v", err))
		return
	}

	s.docs.Close(params.TextDocument.URI)
	s.publishDiagnostics(params.TextDocument.URI, nil)
}

func (s *Server) handleShutdown(msg *rpc.Message) {
	s.shutdownReceived = true
	s.reply(msg, nil)
}

func (s *Server) handleExit(msg *rpc.Message) {
	code := 1
	if s.shutdownReceived {
		code = 0
	}

	select {
	case s.done <- code:
	default:
	}
}

func (s *Server) handleListDevices(msg *rpc.Message) {
	records, err := device.Enumerate(s.driver)
	if err != nil {
		logger.Error(fmt.Sprintf("langserver: $/opencl.listDevices failed: %v", err))
		s.reply(msg, []protocol.DeviceDescriptor{})

		return
	}

	descriptors := make([]protocol.DeviceDescriptor, len(records))
	for i, r := range records {
		descriptors[i] = protocol.DeviceDescriptor{
			StableID:    r.StableID,
			Description: r.Description,
			PowerIndex:  r.PowerIndex,
		}
	}

	s.reply(msg, descriptors)
}

// handleRevalidate is the custom method referenced by spec.md §4.4: a
// client-triggered re-run of the Diagnostics Engine over every currently
// open document, optionally updating build options/device selection
// first (the same shape of params as initialize's initializationOptions).
// It is a notification: a client fires it after changing build settings
// through some out-of-band mechanism and expects a fresh batch of
// publishDiagnostics notifications, not a reply.
func (s *Server) handleRevalidate(msg *rpc.Message) {
	if len(msg.Params) > 0 {
		var opts protocol.InitializationOptions
		if err := json.Unmarshal(msg.Params, &opts); err != nil {
			logger.Error(fmt.Sprintf("langserver: invalid revalidate params: %v", err))
		} else {
			s.applyInitializationOptions(&opts)

			if opts.DeviceID != nil {
				if err := s.engine.SetDevice(*opts.DeviceID); err != nil {
					logger.Error(fmt.Sprintf("langserver: device selection failed: %v", err))
				}
			}
		}
	}

	for _, uri := range s.docs.URIs() {
		s.validate(uri)
	}
}

// validate re-compiles a document's current text and publishes the
// resulting diagnostics. A diagnostics failure publishes an empty array
// instead of propagating an error, per spec.md §7: publishDiagnostics is a
// notification and has no error channel.
func (s *Server) validate(uri string) {
	text, ok := s.docs.Get(uri)
	if !ok {
		return
	}

	diags, err := s.engine.Get(diagnostics.SourceJob{
		Text:     text,
		FilePath: utils.URIToFilePath(uri),
	})
	if err != nil {
		logger.Error(fmt.Sprintf("langserver: diagnostics failed for %s: %v", uri, err))
		diags = nil
	}

	s.publishDiagnostics(uri, diags)
}

func (s *Server) publishDiagnostics(uri string, diags []protocol.Diagnostic) {
	if diags == nil {
		diags = []protocol.Diagnostic{}
	}

	params := protocol.PublishDiagnosticsParams{URI: uri, Diagnostics: diags}

	if err := s.endpoint.Write(map[string]any{
		"method": "textDocument/publishDiagnostics",
		"params": params,
	}); err != nil {
		logger.Error(fmt.Sprintf("langserver: failed to publish diagnostics: %v", err))
	}
}

func (s *Server) reply(msg *rpc.Message, result any) {
	if len(msg.ID) == 0 {
		return
	}

	if err := s.endpoint.Write(map[string]any{
		"id":     msg.ID,
		"result": result,
	}); err != nil {
		logger.Error(fmt.Sprintf("langserver: failed to write response: %v", err))
	}
}
