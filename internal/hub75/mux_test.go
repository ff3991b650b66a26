package hub75

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMuxAddressSequence(t *testing.T) {
	m, err := NewMux(64, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 32, m.Field())

	seq := m.Addresses()
	require.Len(t, seq, 32)
	seen := map[int]bool{}
	for i, a := range seq {
		assert.Equal(t, i, a, "addresses ascend from 0")
		assert.False(t, seen[a], "address %d repeated", a)
		seen[a] = true
	}
	// Deterministic wrap: the sequence is identical every refresh.
	assert.Equal(t, seq, m.Addresses())
}

func TestMuxRowPairs(t *testing.T) {
	m, err := NewMux(64, 2, 5)
	require.NoError(t, err)
	up, lo := m.Rows(0)
	assert.Equal(t, 0, up)
	assert.Equal(t, 32, lo)
	up, lo = m.Rows(31)
	assert.Equal(t, 31, up)
	assert.Equal(t, 63, lo)
}

func TestMuxRejectsDepthBeyondWiredLines(t *testing.T) {
	// 32 address codes need 5 lines; 3 or 4 wired must be refused, not
	// truncated.
	_, err := NewMux(64, 2, 3)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewMux(64, 2, 4)
	assert.ErrorIs(t, err, ErrConfig)

	m, err := NewMux(16, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, m.Field())
}

func TestMuxRejectsBadTopology(t *testing.T) {
	_, err := NewMux(64, 4, 5)
	assert.ErrorIs(t, err, ErrConfig, "only dual-row chains are drivable")
	_, err = NewMux(63, 2, 5)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewMux(0, 2, 5)
	assert.ErrorIs(t, err, ErrConfig)
}
