package tracker

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/EternisAI/netharvest/internal/credential"
	"github.com/EternisAI/netharvest/internal/store"
)

// ErrNoCanonical means there is nothing to compare against this run.
var ErrNoCanonical = errors.New("canonical set file not found")

// Diff returns the credentials in canonical that have not been provisioned.
func Diff(canonical, processed credential.Set) credential.Set {
	return canonical.Difference(processed)
}

type Snapshot struct {
	Canonical credential.Set
	Processed credential.Set
	Delta     credential.Set
}

// Empty reports the no-op case where provisioning must not run.
func (s *Snapshot) Empty() bool {
	return s.Delta.Len() == 0
}

type Tracker struct {
	canonicalPath string
	processedPath string
}

func NewTracker(canonicalPath, processedPath string) *Tracker {
	return &Tracker{
		canonicalPath: canonicalPath,
		processedPath: processedPath,
	}
}

// Load reads both persisted sets and computes the delta.
func (t *Tracker) Load() (*Snapshot, error) {
	canonical, err := store.ReadSet(t.canonicalPath)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCanonical, t.canonicalPath)
		}
		return nil, err
	}

	processed, err := store.ReadSetOrEmpty(t.processedPath)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Canonical: canonical,
		Processed: processed,
		Delta:     Diff(canonical, processed),
	}

	slog.Debug("Computed provisioning delta",
		"canonical", canonical.Len(),
		"processed", processed.Len(),
		"delta", snap.Delta.Len())

	return snap, nil
}

// Commit records succeeded credentials as provisioned, keeping everything
// prior already held. Credentials that failed are left out so the next run
// retries them.
func (t *Tracker) Commit(prior, succeeded credential.Set) (credential.Set, error) {
	next := prior.Union(succeeded)
	if err := store.WriteSet(t.processedPath, next); err != nil {
		return nil, fmt.Errorf("failed to write processed set: %w", err)
	}

	slog.Info("Processed set updated",
		"path", t.processedPath,
		"added", next.Len()-prior.Len(),
		"total", next.Len())

	return next, nil
}
