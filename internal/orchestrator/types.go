package orchestrator

// Status values used across CheckResult and the health endpoints.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ProbeResult is returned by every connector's Probe and aggregated by
// Health.RunDeepHealth.
type ProbeResult struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// CheckResult is the outcome of a one-shot dependency check: the role the
// check was run for and a probe per backend.
type CheckResult struct {
	Status   string                 `json:"status"`
	Service  string                 `json:"service"`
	Backends map[string]ProbeResult `json:"backends"`
}
