package diagnostics

import "errors"

// ErrNoDevice is returned by Get when no device has been selected, either
// because SetDevice was never called or enumeration found zero devices.
var ErrNoDevice = errors.New("diagnostics: no device selected")

// ErrCompilerUnavailable is returned by SetDevice when the underlying
// platform query itself failed, per spec.md §4.2.
var ErrCompilerUnavailable = errors.New("diagnostics: compiler unavailable")
