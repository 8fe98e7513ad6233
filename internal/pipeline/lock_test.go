package pipeline

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLockRecordsPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), lockFileName)

	lock, err := acquireLock(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))

	_, err = acquireLock(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, lock.release())

	again, err := acquireLock(path)
	require.NoError(t, err)
	require.NoError(t, again.release())
}
