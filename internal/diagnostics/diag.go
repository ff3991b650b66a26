package diagnostics

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Diagnostic is a structured event pushed to /diag subscribers. Code keys
// the event class; Detail carries the wrapped error text when there is one.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Summary  string   `json:"summary"`
	Detail   string   `json:"detail,omitempty"`
}

// Well-known codes.
const (
	CodeConfigInvalid = "CONFIG.INVALID"
	CodeScanFault     = "SCAN.WRITE_FAIL"
	CodeIngestCulled  = "INGEST.CULLED"
	CodePatternDone   = "PATTERN.DONE"
)
