package history

import "time"

// Status is the outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Run is one recorded extraction.
type Run struct {
	ID             int64     `json:"id"`
	RunID          string    `json:"run_id"`
	Machine        string    `json:"machine"`
	Manufacturer   string    `json:"manufacturer,omitempty"`
	LeafDefinition string    `json:"leaf_definition,omitempty"`
	ChainLength    int       `json:"chain_length"`
	SettingsCount  int       `json:"settings_count"`
	Diagnostics    int       `json:"diagnostics"`
	OutputPath     string    `json:"output_path,omitempty"`
	Status         Status    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
