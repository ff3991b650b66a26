package geom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-vortex/internal/geom"
)

// stockMapper mirrors the shipped hardware: two 128x64 panels, the outer
// one mounted 13.5 pitches off axis, the inner one at 0.375.
func stockMapper(t *testing.T) *geom.Mapper {
	t.Helper()
	m, err := geom.NewMapper(128, 64, 128, 0, []geom.Panel{
		{Eccentricity: 13.5},
		{Eccentricity: 0.375},
	})
	require.NoError(t, err)
	return m
}

func TestOriginMapsToInnerPanelOnly(t *testing.T) {
	m := stockMapper(t)
	px := m.Map(0, 0, 0, 0)
	require.Len(t, px, 1)
	assert.Equal(t, geom.Pixel{Panel: 1, Row: 0, Col: 0}, px[0])
}

func TestBandMembership(t *testing.T) {
	m := stockMapper(t)

	// Inside both bands: visible on both panels.
	px := m.Map(64, 0, 10, 0)
	require.Len(t, px, 2)
	assert.Equal(t, geom.Pixel{Panel: 0, Row: 10, Col: 51}, px[0]) // 64-13.5 -> 50.5 -> 51
	assert.Equal(t, geom.Pixel{Panel: 1, Row: 10, Col: 64}, px[1]) // 64-0.375 -> 64

	// Beyond the inner panel's band but inside the outer one.
	px = m.Map(130, 0, 0, 0)
	require.Len(t, px, 1)
	assert.Equal(t, 0, px[0].Panel)

	// Beyond both bands.
	assert.Empty(t, m.Map(142, 0, 0, 0)) // 142-13.5 = 128.5 -> col 129
}

func TestMapIsDeterministic(t *testing.T) {
	m := stockMapper(t)
	a := m.Map(40, 5, 22, 5)
	b := m.Map(40, 5, 22, 5)
	assert.Equal(t, a, b)
	require.NotEmpty(t, a)
}

func TestAzimuthSelection(t *testing.T) {
	m, err := geom.NewMapper(8, 4, 16, 0, []geom.Panel{{Eccentricity: 0}})
	require.NoError(t, err)

	// Only the active slice projects.
	assert.NotEmpty(t, m.Map(2, 5, 0, 5))
	assert.Empty(t, m.Map(2, 5, 0, 6))
	// Rotor wraps.
	assert.Equal(t, 5, m.ActiveSlice(21))
	assert.Equal(t, 5, m.ActiveSlice(-11))
}

func TestRotationZeroOffset(t *testing.T) {
	// 90 degrees over 128 steps is 32 steps.
	m, err := geom.NewMapper(8, 4, 128, 90, []geom.Panel{{Eccentricity: 0}})
	require.NoError(t, err)
	assert.Equal(t, 32, m.ActiveSlice(0))
	assert.NotEmpty(t, m.Map(0, 32, 0, 0))
	assert.Empty(t, m.Map(0, 0, 0, 0))
}

func TestEdgeTieBreakPrefersSmallerEccentricity(t *testing.T) {
	// Width 8; panel A band [4.5,12.5), panel B band [0.5,8.5). x=4 sits
	// exactly on A's inner edge (off = -0.5) and inside B; x=12 sits exactly
	// on A's outer edge and outside B.
	m, err := geom.NewMapper(8, 4, 4, 0, []geom.Panel{
		{Eccentricity: 4.5},
		{Eccentricity: 0.5},
	})
	require.NoError(t, err)

	px := m.Map(4, 0, 0, 0)
	require.Len(t, px, 1)
	assert.Equal(t, 1, px[0].Panel, "edge voxel goes to the smaller eccentricity")

	// Off-edge overlap still reports both.
	px = m.Map(5, 0, 0, 0)
	assert.Len(t, px, 2)

	// Outer edge is exclusive.
	for _, p := range m.Map(12, 0, 0, 0) {
		assert.NotEqual(t, 0, p.Panel)
	}
}

func TestColumnOrders(t *testing.T) {
	rev, err := geom.OrderByName("reverse", 8)
	require.NoError(t, err)
	assert.Equal(t, 7, rev(0))
	assert.Equal(t, 0, rev(7))

	il, err := geom.OrderByName("interleave", 8)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4, 1, 5, 2, 6, 3, 7},
		[]int{il(0), il(1), il(2), il(3), il(4), il(5), il(6), il(7)})

	_, err = geom.OrderByName("zigzag", 8)
	assert.Error(t, err)
}

func TestReverseOrderMapping(t *testing.T) {
	rev, err := geom.OrderByName("reverse", 8)
	require.NoError(t, err)
	m, err := geom.NewMapper(8, 4, 4, 0, []geom.Panel{{Eccentricity: 0, Order: rev}})
	require.NoError(t, err)

	px := m.Map(2, 0, 1, 0)
	require.Len(t, px, 1)
	assert.Equal(t, 5, px[0].Col)

	x, y, z, ok := m.VoxelAt(0, 1, 5, 0)
	require.True(t, ok)
	assert.Equal(t, [3]int{2, 0, 1}, [3]int{x, y, z})
}

func TestVoxelAtRoundTrip(t *testing.T) {
	m := stockMapper(t)
	for _, panel := range []int{0, 1} {
		for _, col := range []int{0, 1, 63, 127} {
			x, y, z, ok := m.VoxelAt(panel, 7, col, 3)
			if !ok {
				continue // band-edge pixel assigned to the other panel
			}
			if x >= 128 {
				continue // outside the volume, culled by scan-out
			}
			px := m.Map(x, y, z, 3)
			found := false
			for _, p := range px {
				if p == (geom.Pixel{Panel: panel, Row: 7, Col: col}) {
					found = true
				}
			}
			assert.True(t, found, "panel %d col %d -> voxel (%d,%d,%d) did not map back", panel, col, x, y, z)
		}
	}
}

func TestVoxelAtHonorsEdgeAssignment(t *testing.T) {
	m := stockMapper(t)

	// Outer panel column 0 reverse-projects to x=13, exactly on its inner
	// band edge. Map assigns that voxel to the inner panel only, so the
	// outer panel serves the pixel dark instead of doubling the voxel.
	_, _, _, ok := m.VoxelAt(0, 7, 0, 3)
	assert.False(t, ok, "losing edge pixel must come back dark")

	// The inner panel keeps the voxel, and the round trip closes.
	x, y, z, ok := m.VoxelAt(1, 7, 13, 3)
	require.True(t, ok)
	assert.Equal(t, 13, x)
	px := m.Map(x, y, z, 3)
	require.Len(t, px, 1)
	assert.Equal(t, geom.Pixel{Panel: 1, Row: 7, Col: 13}, px[0])
}

func TestVoxelAtRejectsOutOfRange(t *testing.T) {
	m := stockMapper(t)
	_, _, _, ok := m.VoxelAt(2, 0, 0, 0)
	assert.False(t, ok)
	_, _, _, ok = m.VoxelAt(0, 64, 0, 0)
	assert.False(t, ok)
	_, _, _, ok = m.VoxelAt(0, 0, 128, 0)
	assert.False(t, ok)
}
