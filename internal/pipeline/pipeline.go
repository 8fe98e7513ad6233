// Package pipeline runs the harvest, merge, diff and provision sequence as a
// single locked batch and reports what happened.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EternisAI/netharvest/internal/credential"
	"github.com/EternisAI/netharvest/internal/merger"
	"github.com/EternisAI/netharvest/internal/provisioner"
	"github.com/EternisAI/netharvest/internal/tracker"
	"github.com/google/uuid"
)

const lockFileName = ".netharvest.lock"

type Phase int

const (
	PhaseHarvest Phase = 1 << iota
	PhaseProvision

	PhaseAll = PhaseHarvest | PhaseProvision
)

func (p Phase) String() string {
	var names []string
	if p&PhaseHarvest != 0 {
		names = append(names, "harvest")
	}
	if p&PhaseProvision != 0 {
		names = append(names, "provision")
	}
	return strings.Join(names, "+")
}

type Fetcher interface {
	Enabled() bool
	Fetch(ctx context.Context) (string, error)
}

type Applier interface {
	Apply(ctx context.Context, delta credential.Set) (*provisioner.Result, error)
}

type Notifier interface {
	Enabled() bool
	Send(ctx context.Context, path string) error
}

type PathsConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	LocalList string `mapstructure:"local_list"`
	Canonical string `mapstructure:"canonical"`
	Processed string `mapstructure:"processed"`
	RawCache  string `mapstructure:"raw_cache"`
}

// Resolve makes every relative path relative to DataDir.
func (c PathsConfig) Resolve() PathsConfig {
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.DataDir, p)
	}
	return PathsConfig{
		DataDir:   c.DataDir,
		LocalList: join(c.LocalList),
		Canonical: join(c.Canonical),
		Processed: join(c.Processed),
		RawCache:  join(c.RawCache),
	}
}

type Deps struct {
	Fetcher     Fetcher
	Provisioner Applier
	Notifier    Notifier
}

type Pipeline struct {
	paths       PathsConfig
	fetcher     Fetcher
	merger      *merger.Merger
	tracker     *tracker.Tracker
	provisioner Applier
	notifier    Notifier
}

func NewPipeline(paths PathsConfig, deps Deps) *Pipeline {
	paths = paths.Resolve()
	return &Pipeline{
		paths:       paths,
		fetcher:     deps.Fetcher,
		merger:      merger.NewMerger(paths.Canonical),
		tracker:     tracker.NewTracker(paths.Canonical, paths.Processed),
		provisioner: deps.Provisioner,
		notifier:    deps.Notifier,
	}
}

// Delta returns the pending credentials without provisioning anything.
func (p *Pipeline) Delta() (credential.Set, error) {
	snap, err := p.tracker.Load()
	if err != nil {
		return nil, err
	}
	return snap.Delta, nil
}

// Run executes the requested phases under the run lock. The returned report
// is never nil; err is set for every fatal outcome.
func (p *Pipeline) Run(ctx context.Context, phases Phase) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Phases:    phases.String(),
	}
	log := slog.With("run_id", report.RunID)

	finish := func(outcome Outcome, err error) (*Report, error) {
		report.Outcome = outcome
		report.Duration = time.Since(report.StartedAt)
		if err != nil {
			report.Error = err.Error()
			log.Error("Run finished", "outcome", outcome, "error", err)
		} else {
			log.Info("Run finished",
				"outcome", outcome,
				"merged", report.Merged,
				"delta", report.Delta,
				"provisioned", report.Provisioned,
				"failed", report.Failed)
		}
		return report, err
	}

	lock, err := acquireLock(filepath.Join(p.paths.DataDir, lockFileName))
	if err != nil {
		return finish(OutcomeError, err)
	}
	defer func() {
		if err := lock.release(); err != nil {
			log.Warn("Failed to release run lock", "error", err)
		}
	}()

	log.Info("Run started", "phases", report.Phases)

	if phases&PhaseHarvest != 0 {
		if err := p.harvest(ctx, log, report); err != nil {
			return finish(OutcomeError, err)
		}
	}

	if phases&PhaseProvision == 0 {
		return finish(report.decideOutcome(false), nil)
	}

	snap, err := p.tracker.Load()
	if err != nil {
		if errors.Is(err, tracker.ErrNoCanonical) {
			return finish(OutcomeNoInput, err)
		}
		return finish(OutcomeError, err)
	}
	report.Delta = snap.Delta.Len()

	if snap.Empty() {
		log.Info("No new credentials to provision")
		return finish(report.decideOutcome(true), nil)
	}

	result, applyErr := p.provisioner.Apply(ctx, snap.Delta)
	if result == nil {
		if errors.Is(applyErr, provisioner.ErrNoInterface) {
			return finish(OutcomeNoInterface, applyErr)
		}
		return finish(OutcomeError, applyErr)
	}
	report.applyResult(result)

	if result.Succeeded.Len() > 0 {
		if _, err := p.tracker.Commit(snap.Processed, result.Succeeded); err != nil {
			return finish(OutcomeError, err)
		}
	}
	if applyErr != nil {
		return finish(OutcomeError, applyErr)
	}

	return finish(report.decideOutcome(true), nil)
}

func (p *Pipeline) harvest(ctx context.Context, log *slog.Logger, report *Report) error {
	remote := credential.NewSet()
	if p.fetcher != nil && p.fetcher.Enabled() {
		report.RemoteEnabled = true
		text, err := p.fetcher.Fetch(ctx)
		if err != nil {
			report.RemoteFailed = true
			report.FetchError = err.Error()
			log.Warn("Remote source unavailable, continuing with local sources only", "error", err)
		} else {
			remote = credential.ParseRemoteDump(text)
		}
	}
	report.Fetched = remote.Len()

	local, err := p.readLocal(log, report)
	if err != nil {
		return err
	}
	report.Local = local.Len()

	merged, err := p.merger.MergeAndWrite(remote, local)
	if err != nil {
		return err
	}
	report.Merged = merged.Len()

	if p.notifier != nil && p.notifier.Enabled() {
		if err := p.notifier.Send(ctx, p.merger.Path()); err != nil {
			log.Warn("Failed to notify sink", "error", err)
		}
	}
	return nil
}

func (p *Pipeline) readLocal(log *slog.Logger, report *Report) (credential.Set, error) {
	if p.paths.LocalList == "" {
		return credential.NewSet(), nil
	}

	f, err := os.Open(p.paths.LocalList)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("Local credential list not found, continuing without it", "path", p.paths.LocalList)
			return credential.NewSet(), nil
		}
		return nil, fmt.Errorf("failed to open local list: %w", err)
	}
	defer f.Close()

	local, parseErrs, err := credential.ParseLocalList(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read local list: %w", err)
	}
	for _, pe := range parseErrs {
		log.Warn("Skipped malformed local credential", "path", p.paths.LocalList, "error", pe)
		report.LocalErrors = append(report.LocalErrors, pe.Error())
	}
	return local, nil
}
