package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAlgebra(t *testing.T) {
	canonical := NewSet("alice:pw1", "bob:pw2", "cafe:guestpass")
	processed := NewSet("alice:pw1")

	delta := canonical.Difference(processed)
	assert.Equal(t, []string{"bob:pw2", "cafe:guestpass"}, delta.Sorted())

	merged := processed.Union(delta)
	assert.True(t, processed.IsSubsetOf(merged))
	assert.True(t, merged.IsSubsetOf(canonical))
	assert.Equal(t, canonical.Sorted(), merged.Sorted())

	// Union does not alias its receiver.
	assert.Equal(t, 1, processed.Len())
}

func TestSortedIsByteOrder(t *testing.T) {
	s := NewSet("b:x", "B:x", "a:x", "A:x")
	assert.Equal(t, []string{"A:x", "B:x", "a:x", "b:x"}, s.Sorted())
}

func TestEncodeDecode(t *testing.T) {
	s := NewSet("cafe:guestpass", "alice:pw1", "bob:pw2")
	encoded := string(s.Encode())
	assert.Equal(t, "alice:pw1\nbob:pw2\ncafe:guestpass\n", encoded)

	decoded, err := DecodeSet(strings.NewReader("\n  bob:pw2 \n\nalice:pw1\nalice:pw1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice:pw1", "bob:pw2"}, decoded.Sorted())
}

func TestEncodeEmpty(t *testing.T) {
	assert.Empty(t, NewSet().Encode())
}
