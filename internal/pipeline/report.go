package pipeline

import (
	"time"

	"github.com/EternisAI/netharvest/internal/provisioner"
)

type Outcome string

const (
	OutcomeFullSuccess Outcome = "full-success"
	OutcomeNoDelta     Outcome = "no-delta"
	OutcomeLocalOnly   Outcome = "local-only"
	OutcomePartial     Outcome = "partial-success"
	OutcomeFailed      Outcome = "failed"
	OutcomeNoInput     Outcome = "no-input"
	OutcomeNoInterface Outcome = "no-interface"
	OutcomeError       Outcome = "error"
)

// ExitCode maps an outcome to the process exit status.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeFullSuccess, OutcomeNoDelta, OutcomeLocalOnly:
		return 0
	case OutcomeNoInput:
		return 2
	case OutcomePartial:
		return 3
	case OutcomeFailed:
		return 4
	case OutcomeNoInterface:
		return 5
	default:
		return 1
	}
}

// Report is the structured result of one run.
type Report struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Phases    string        `json:"phases" yaml:"phases"`
	Outcome   Outcome       `json:"outcome" yaml:"outcome"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`

	RemoteEnabled bool     `json:"remote_enabled" yaml:"remote_enabled"`
	RemoteFailed  bool     `json:"remote_failed" yaml:"remote_failed"`
	FetchError    string   `json:"fetch_error,omitempty" yaml:"fetch_error,omitempty"`
	Fetched       int      `json:"fetched" yaml:"fetched"`
	Local         int      `json:"local" yaml:"local"`
	LocalErrors   []string `json:"local_errors,omitempty" yaml:"local_errors,omitempty"`
	Merged        int      `json:"merged" yaml:"merged"`

	Delta       int                      `json:"delta" yaml:"delta"`
	Interface   string                   `json:"interface,omitempty" yaml:"interface,omitempty"`
	Provisioned int                      `json:"provisioned" yaml:"provisioned"`
	Added       int                      `json:"added" yaml:"added"`
	Updated     int                      `json:"updated" yaml:"updated"`
	Failed      int                      `json:"failed" yaml:"failed"`
	Rejected    int                      `json:"rejected" yaml:"rejected"`
	Items       []provisioner.ItemResult `json:"items,omitempty" yaml:"items,omitempty"`
}

func (r *Report) applyResult(result *provisioner.Result) {
	r.Interface = result.Interface
	r.Added = result.Added
	r.Updated = result.Updated
	r.Provisioned = result.Added + result.Updated
	r.Failed = result.Failed
	r.Rejected = result.Rejected
	r.Items = result.Items
}

// decideOutcome picks the outcome of a run that reached its end without a
// fatal error. Rejected credentials count as unsuccessful items.
func (r *Report) decideOutcome(provisioned bool) Outcome {
	unsuccessful := r.Failed + r.Rejected
	switch {
	case unsuccessful > 0 && r.Provisioned == 0:
		return OutcomeFailed
	case unsuccessful > 0:
		return OutcomePartial
	case r.RemoteFailed:
		return OutcomeLocalOnly
	case provisioned && r.Delta == 0:
		return OutcomeNoDelta
	default:
		return OutcomeFullSuccess
	}
}
