package hub75

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPinMapValidates(t *testing.T) {
	pm := DefaultPinMap()
	require.NoError(t, pm.Validate())
	assert.Len(t, pm.Pins(), 20) // 2 chains x 6 + 5 addr + 3 control
}

func TestBitGroupsPartitionPinSet(t *testing.T) {
	pm := DefaultPinMap()

	groups := []uint32{
		pm.Chains[0].Mask(),
		pm.Chains[1].Mask(),
		pm.AddrMask(),
		pm.BlankMask(),
		pm.ClockMask(),
		pm.StrobeMask(),
	}
	var union uint32
	for i, g := range groups {
		for j := i + 1; j < len(groups); j++ {
			assert.Zero(t, g&groups[j], "groups %d and %d overlap", i, j)
		}
		union |= g
	}
	assert.Equal(t, pm.Mask(), union, "group union must equal the enumerated pin set")
	assert.Equal(t, pm.ColorMask(), pm.Chains[0].Mask()|pm.Chains[1].Mask())

	// One bit per enumerated pin.
	var fromPins uint32
	for _, p := range pm.Pins() {
		fromPins |= 1 << uint(p)
	}
	assert.Equal(t, union, fromPins)
}

func TestValidateRejectsSharedPin(t *testing.T) {
	pm := DefaultPinMap()
	pm.Clock = pm.Strobe
	err := pm.Validate()
	assert.ErrorIs(t, err, ErrConfig)
}

func TestValidateRejectsOutOfWordPin(t *testing.T) {
	pm := DefaultPinMap()
	pm.Blank = 33
	assert.ErrorIs(t, pm.Validate(), ErrConfig)
	pm.Blank = -1
	assert.ErrorIs(t, pm.Validate(), ErrConfig)
}

func TestValidateRejectsEmptyTopology(t *testing.T) {
	pm := DefaultPinMap()
	pm.Chains = nil
	assert.ErrorIs(t, pm.Validate(), ErrConfig)

	pm = DefaultPinMap()
	pm.Addr = nil
	assert.ErrorIs(t, pm.Validate(), ErrConfig)
}

func TestAddrWordScatter(t *testing.T) {
	pm := DefaultPinMap() // addr lines 7,8,9,10,21, LSB first
	assert.Zero(t, pm.AddrWord(0))
	assert.Equal(t, uint32(1<<7), pm.AddrWord(1))
	assert.Equal(t, uint32(1<<8|1<<7), pm.AddrWord(3))
	assert.Equal(t, uint32(1<<21|1<<10|1<<9|1<<8|1<<7), pm.AddrWord(31))
	// Out-of-range high bits have no lines to land on.
	assert.Equal(t, pm.AddrWord(31), pm.AddrWord(63))
}
