package merger

import (
	"fmt"
	"log/slog"

	"github.com/EternisAI/netharvest/internal/credential"
	"github.com/EternisAI/netharvest/internal/store"
)

// Merge returns the union of every source.
func Merge(sources ...credential.Set) credential.Set {
	return credential.NewSet().Union(sources...)
}

type Merger struct {
	canonicalPath string
}

func NewMerger(canonicalPath string) *Merger {
	return &Merger{canonicalPath: canonicalPath}
}

func (m *Merger) Path() string {
	return m.canonicalPath
}

// MergeAndWrite unions remote and local records and replaces the canonical
// file with the result.
func (m *Merger) MergeAndWrite(remote, local credential.Set) (credential.Set, error) {
	merged := Merge(remote, local)
	if err := store.WriteSet(m.canonicalPath, merged); err != nil {
		return nil, fmt.Errorf("failed to write canonical set: %w", err)
	}

	slog.Info("Canonical set written",
		"path", m.canonicalPath,
		"remote", remote.Len(),
		"local", local.Len(),
		"merged", merged.Len())

	return merged, nil
}
