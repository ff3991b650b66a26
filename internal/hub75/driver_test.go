package hub75

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-vortex/internal/voxel"
)

// stubSource serves fixed row data regardless of address, and counts
// refresh snapshots.
type stubSource struct {
	rows      [][2][]byte
	refreshes int
}

func (s *stubSource) NextRefresh() { s.refreshes++ }
func (s *stubSource) FillRows(rows [][2][]byte, addr int) {
	for c := range rows {
		copy(rows[c][0], s.rows[c][0])
		copy(rows[c][1], s.rows[c][1])
	}
}

func newTestDriver(t *testing.T, port Port, src SliceSource, width, height, planes, settle, display int) *Driver {
	t.Helper()
	pm := DefaultPinMap()
	mux, err := NewMux(height, 2, len(pm.Addr))
	require.NoError(t, err)
	enc, err := NewEncoder(pm, width, planes)
	require.NoError(t, err)
	d, err := NewDriver(port, pm, mux, enc, src, width, settle, display)
	require.NoError(t, err)
	return d
}

func TestRefreshEmptySpaceStaysDark(t *testing.T) {
	pm := DefaultPinMap()
	rec := &Recorder{}
	src := &stubSource{rows: testRows(8)}
	d := newTestDriver(t, rec, src, 8, 8, 2, 0, 1)

	require.NoError(t, d.Refresh(context.Background()))
	require.NotEmpty(t, rec.Words)

	for i, w := range rec.Words {
		assert.Zero(t, w&pm.ColorMask(), "word %d carries color bits for an empty space", i)
		if w&pm.BlankMask() == 0 {
			// Display window: nothing but address bits may be driven.
			assert.Zero(t, w&^pm.AddrMask(), "display word %d drives non-address lines", i)
		}
	}
	assert.Equal(t, 1, src.refreshes)
}

func TestRefreshWordBudget(t *testing.T) {
	rec := &Recorder{}
	src := &stubSource{rows: testRows(8)}
	d := newTestDriver(t, rec, src, 8, 8, 2, 0, 1)
	require.NoError(t, d.Refresh(context.Background()))

	// Per (plane, addr): 8 cols x 2 clock words + 2 latch + 1 address +
	// weight displays + 1 re-blank. 2 planes x 4 addrs, weights 1 and 2.
	want := 4*(8*2+2+1+1+1) + 4*(8*2+2+1+2+1)
	assert.Equal(t, want, len(rec.Words))
}

func TestSettleHoldsRepeatWords(t *testing.T) {
	recA := &Recorder{}
	recB := &Recorder{}
	src := &stubSource{rows: testRows(8)}

	require.NoError(t, newTestDriver(t, recA, src, 8, 8, 1, 0, 1).Refresh(context.Background()))
	require.NoError(t, newTestDriver(t, recB, src, 8, 8, 1, 3, 1).Refresh(context.Background()))

	// Every transition is held 1+settle cycles; display holds are not
	// settle-scaled. Per (plane,addr): transitions = 8*2+2+1+1 = 20,
	// display = 1.
	assert.Equal(t, 4*(20+1), len(recA.Words))
	assert.Equal(t, 4*(20*4+1), len(recB.Words))
}

func TestDisplayWindowForSingleRedPixel(t *testing.T) {
	pm := DefaultPinMap()
	rows := testRows(8)
	rows[0][0][3] = voxel.FromRGB(255, 0, 0)
	rec := &Recorder{}
	d := newTestDriver(t, rec, &stubSource{rows: rows}, 8, 8, 2, 0, 1)
	require.NoError(t, d.Refresh(context.Background()))

	r1 := uint32(1) << uint(pm.Chains[0].R1)
	litRed := 0
	for _, w := range rec.Words {
		if w&pm.ColorMask() != 0 {
			assert.Equal(t, r1, w&pm.ColorMask(), "only chain 0 R1 may light")
			assert.NotZero(t, w&pm.BlankMask(), "color bits only move under blank")
			litRed++
		}
	}
	// One column word plus its clock toggle, on every plane and address
	// (the stub serves the same row at every address).
	assert.Equal(t, 2*2*4, litRed)
}

func TestWriteFailureForcesBlankAndSurfaces(t *testing.T) {
	pm := DefaultPinMap()
	rec := &Recorder{FailAt: 10}
	d := newTestDriver(t, rec, &stubSource{rows: testRows(8)}, 8, 8, 2, 0, 1)

	err := d.Refresh(context.Background())
	require.ErrorIs(t, err, ErrWrite)

	// The forced safe state is the last successful write.
	require.NotEmpty(t, rec.Words)
	last := rec.Words[len(rec.Words)-1]
	assert.Equal(t, pm.BlankMask(), last, "failure must force the blanked state")
}

func TestRunStopsBetweenAddressesOnCancel(t *testing.T) {
	pm := DefaultPinMap()
	rec := &Recorder{Limit: 1 << 20}
	d := newTestDriver(t, rec, &stubSource{rows: testRows(8)}, 8, 8, 2, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	last := rec.Words[len(rec.Words)-1]
	assert.Equal(t, pm.BlankMask(), last, "cancellation must leave blank asserted")
}

func TestNewDriverValidation(t *testing.T) {
	pm := DefaultPinMap()
	mux, err := NewMux(8, 2, len(pm.Addr))
	require.NoError(t, err)
	enc, err := NewEncoder(pm, 8, 2)
	require.NoError(t, err)
	src := &stubSource{rows: testRows(8)}

	_, err = NewDriver(nil, pm, mux, enc, src, 8, 0, 1)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewDriver(&Recorder{}, pm, mux, enc, src, 8, -1, 1)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewDriver(&Recorder{}, pm, mux, enc, src, 8, 0, 0)
	assert.ErrorIs(t, err, ErrConfig)
}
