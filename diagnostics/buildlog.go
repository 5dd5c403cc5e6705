package diagnostics

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rockerboo/opencl-language-server/protocol"
)

// buildLogLineRe matches one diagnostic line of an OpenCL build log, per
// spec.md §4.2. It is pinned as a package constant because the spec treats
// it as part of the contract.
var buildLogLineRe = regexp.MustCompile(`^(.*):(\d+):(\d+): ((fatal )?error|warning): (.*)$`)

// parseBuildLog converts a raw OpenCL build log into LSP Diagnostics,
// capping the result at maxProblems and skipping any line whose severity
// phrase is neither "error", "fatal error", nor "warning".
func parseBuildLog(buildLog string, job SourceJob, maxProblems int) []protocol.Diagnostic {
	buildLog = strings.TrimSuffix(buildLog, "\x00")

	var diagnostics []protocol.Diagnostic

	for _, line := range strings.Split(buildLog, "\n") {
		if len(diagnostics) >= maxProblems {
			break
		}

		if line == "" {
			continue
		}

		m := buildLogLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		lineNum, err := strconv.Atoi(m[2])
		if err != nil || lineNum < 1 {
			continue
		}

		column, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}

		severity, ok := severityFromPhrase(m[4])
		if !ok {
			continue
		}

		source := m[1]
		if job.FilePath != "" {
			source = filepath.Base(job.FilePath)
		}

		pos := protocol.Position{Line: uint32(lineNum - 1), Character: uint32(column)}

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    protocol.Range{Start: pos, End: pos},
			Severity: severity,
			Source:   source,
			Message:  m[6],
		})
	}

	return diagnostics
}

func severityFromPhrase(phrase string) (protocol.DiagnosticSeverity, bool) {
	switch phrase {
	case "error", "fatal error":
		return protocol.SeverityError, true
	case "warning":
		return protocol.SeverityWarning, true
	default:
		return 0, false
	}
}
