package rpc

import "github.com/sourcegraph/jsonrpc2"

// CodeNotInitialized is the LSP-specific JSON-RPC error code emitted when a
// message other than "initialize" arrives before the handshake completes.
// sourcegraph/jsonrpc2 only defines the generic JSON-RPC 2.0 codes
// (ParseError, InvalidRequest, MethodNotFound, InvalidParams,
// InternalError); -32002 is an LSP extension, so it is defined here in the
// same jsonrpc2.Code vocabulary.
const CodeNotInitialized jsonrpc2.Code = -32002
