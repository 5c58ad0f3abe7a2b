package state

import "time"

// SchemaVersion is the newest state file layout this build understands.
const SchemaVersion = 1

// Status is the recorded result of one boost attempt.
type Status string

const (
	StatusPending Status = "pending"
	StatusSkipped Status = "skipped"
	StatusApplied Status = "applied"
	StatusFailed  Status = "failed"
)

// BoostRecord is one attempt of one boost against a project. Records are
// appended and never edited.
type BoostRecord struct {
	Boost      string    `json:"boost"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Checkpoint *string   `json:"checkpoint"`
	RunID      string    `json:"run_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// PipelineState is the persisted boost history for a single project.
type PipelineState struct {
	SchemaVersion int           `json:"schema_version"`
	Identity      Identity      `json:"identity"`
	RepoPath      string        `json:"repo_path,omitempty"`
	Branch        string        `json:"branch,omitempty"`
	Records       []BoostRecord `json:"records"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Meta carries the project details stamped onto the state on every append.
type Meta struct {
	RepoPath string
	Branch   string
}

// Latest returns the most recent record for the named boost.
func (ps *PipelineState) Latest(boost string) (BoostRecord, bool) {
	for i := len(ps.Records) - 1; i >= 0; i-- {
		if ps.Records[i].Boost == boost {
			return ps.Records[i], true
		}
	}
	return BoostRecord{}, false
}

// Satisfied reports whether the boost's latest record is applied.
func (ps *PipelineState) Satisfied(boost string) bool {
	rec, ok := ps.Latest(boost)
	return ok && rec.Status == StatusApplied
}

// History returns every record for the named boost, oldest first.
func (ps *PipelineState) History(boost string) []BoostRecord {
	var out []BoostRecord
	for _, r := range ps.Records {
		if r.Boost == boost {
			out = append(out, r)
		}
	}
	return out
}

// Boosts returns the distinct boost names in order of first appearance.
func (ps *PipelineState) Boosts() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range ps.Records {
		if !seen[r.Boost] {
			seen[r.Boost] = true
			names = append(names, r.Boost)
		}
	}
	return names
}
