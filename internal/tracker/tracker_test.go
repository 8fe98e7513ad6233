package tracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/EternisAI/netharvest/internal/credential"
	"github.com/EternisAI/netharvest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Tracker, string, string) {
	t.Helper()
	dir := t.TempDir()
	canonical := filepath.Join(dir, "networks")
	processed := filepath.Join(dir, "networks_done")
	return NewTracker(canonical, processed), canonical, processed
}

func TestLoadFirstRun(t *testing.T) {
	tr, canonical, _ := setup(t)
	require.NoError(t, store.WriteSet(canonical, credential.NewSet("alice:pw1", "bob:pw2")))

	snap, err := tr.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Processed.Len())
	assert.Equal(t, []string{"alice:pw1", "bob:pw2"}, snap.Delta.Sorted())
	assert.False(t, snap.Empty())
}

func TestLoadMissingCanonical(t *testing.T) {
	tr, _, _ := setup(t)

	_, err := tr.Load()
	assert.ErrorIs(t, err, ErrNoCanonical)
}

func TestLoadNoDelta(t *testing.T) {
	tr, canonical, processed := setup(t)
	s := credential.NewSet("alice:pw1")
	require.NoError(t, store.WriteSet(canonical, s))
	require.NoError(t, store.WriteSet(processed, s))

	snap, err := tr.Load()
	require.NoError(t, err)
	assert.True(t, snap.Empty())
}

func TestCommitOnlyRecordsSucceeded(t *testing.T) {
	tr, canonical, processed := setup(t)
	require.NoError(t, store.WriteSet(canonical, credential.NewSet("alice:pw1", "bob:pw2", "old:password")))
	require.NoError(t, store.WriteSet(processed, credential.NewSet("old:password")))

	snap, err := tr.Load()
	require.NoError(t, err)

	// bob:pw2 failed to provision this run.
	next, err := tr.Commit(snap.Processed, credential.NewSet("alice:pw1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice:pw1", "old:password"}, next.Sorted())

	raw, err := os.ReadFile(processed)
	require.NoError(t, err)
	assert.Equal(t, "alice:pw1\nold:password\n", string(raw))

	again, err := tr.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob:pw2"}, again.Delta.Sorted())
	assert.True(t, snap.Processed.IsSubsetOf(again.Processed))
	assert.True(t, again.Processed.IsSubsetOf(again.Canonical))
}

func TestDiff(t *testing.T) {
	delta := Diff(credential.NewSet("a:1", "b:2"), credential.NewSet("b:2", "c:3"))
	assert.Equal(t, []string{"a:1"}, delta.Sorted())
}
