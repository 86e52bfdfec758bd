package transcoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderCacheBuildsOncePrefix(t *testing.T) {
	var h HeaderCache

	first, err := h.Get(1, 48_000, DefaultSerial)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	assert.Equal(t, []byte("OggS"), first[0:4])

	second, err := h.Get(1, 48_000, DefaultSerial)
	require.NoError(t, err)
	assert.Same(t, &first[0], &second[0], "Get must return the same backing array on repeat calls")
}

func TestHeaderCacheIgnoresArgsAfterFirstBuild(t *testing.T) {
	var h HeaderCache

	first, err := h.Get(1, 48_000, DefaultSerial)
	require.NoError(t, err)

	// A later call with different parameters must not rebuild — sync.Once
	// memoizes on the first call only, by design (§4.3).
	second, err := h.Get(2, 44_100, 0xDEADBEEF)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHeaderCacheLenMatchesGetLength(t *testing.T) {
	var h HeaderCache

	data, err := h.Get(1, 48_000, DefaultSerial)
	require.NoError(t, err)

	n, err := h.Len(1, 48_000, DefaultSerial)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)), n)
}
