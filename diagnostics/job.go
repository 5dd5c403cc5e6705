package diagnostics

// SourceJob is the transient input to a single compile-and-diagnose pass.
// FilePath is used only to derive a display "source" field; it is never
// read from disk here — the text always comes from the client's in-memory
// document (see langserver.DocumentStore).
type SourceJob struct {
	Text     string
	FilePath string
}
