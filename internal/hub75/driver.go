package hub75

import (
	"context"
	"fmt"
	"runtime"
)

// SliceSource supplies pixel rows for the refresh in progress. The scan
// loop is the only caller; implementations must not block.
type SliceSource interface {
	// NextRefresh snapshots one front-buffer generation and advances the
	// rotor one azimuth step. Called once per refresh; every FillRows call
	// until the next NextRefresh reads that same generation.
	NextRefresh()
	// FillRows writes the RGB332 row data for address code addr into rows,
	// one [upper, lower] pair per chain, each sized to the panel width.
	FillRows(rows [][2][]byte, addr int)
}

// Driver executes the timed scan-out sequence against a Port:
//
//	LOAD_ROW -> LATCH -> ADDRESS -> DISPLAY -> next
//
// It runs continuously until the context is cancelled; cancellation is
// observed between address transitions, never mid-pulse, and always leaves
// blank asserted.
type Driver struct {
	port Port
	pm   PinMap
	mux  *Mux
	enc  *Encoder
	src  SliceSource

	width   int
	settle  int // extra holds per signal transition
	display int // display cycles per unit of plane weight

	addrSeq  []int
	addrWord uint32
	rows     [][2][]byte
}

// NewDriver wires the scan-out pipeline. settle is the per-transition
// timing margin in extra port writes; display is the blank-deasserted hold,
// in port writes, granted per unit of bit-plane weight.
func NewDriver(port Port, pm PinMap, mux *Mux, enc *Encoder, src SliceSource, width, settle, display int) (*Driver, error) {
	if port == nil || mux == nil || enc == nil || src == nil {
		return nil, fmt.Errorf("%w: nil scan-out component", ErrConfig)
	}
	if width <= 0 || settle < 0 || display <= 0 {
		return nil, fmt.Errorf("%w: width=%d settle=%d display=%d", ErrConfig, width, settle, display)
	}
	d := &Driver{
		port:    port,
		pm:      pm,
		mux:     mux,
		enc:     enc,
		src:     src,
		width:   width,
		settle:  settle,
		display: display,
		addrSeq: mux.Addresses(),
		rows:    make([][2][]byte, len(pm.Chains)),
	}
	for i := range d.rows {
		d.rows[i][0] = make([]byte, width)
		d.rows[i][1] = make([]byte, width)
	}
	return d, nil
}

// Run scans refreshes until ctx is cancelled or a write fails. The loop is
// pinned to its OS thread; it never blocks and never allocates. On any
// exit, blank is forced so the panels show nothing.
func (d *Driver) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer d.forceBlank()

	for {
		if err := d.Refresh(ctx); err != nil {
			return err
		}
	}
}

// Refresh executes one full scan pass: every bit-plane over every address
// code over every column, with the display window after each latch. The
// address sequence wraps deterministically to 0 for the next refresh.
// Exported for the offline simulator and tests; Run is the production loop.
func (d *Driver) Refresh(ctx context.Context) error {
	d.src.NextRefresh()
	blank := d.pm.BlankMask()
	clock := d.pm.ClockMask()
	strobe := d.pm.StrobeMask()

	for plane := 0; plane < d.enc.Planes(); plane++ {
		for _, addr := range d.addrSeq {
			// The stop flag is honored only here, between address
			// transitions; a pulse in flight is never cut short.
			if err := ctx.Err(); err != nil {
				return err
			}

			d.src.FillRows(d.rows, addr)

			// LOAD_ROW: shift the column words in under blank. The
			// address lines keep holding the previous code; with blank
			// asserted they are dark anyway.
			for col := 0; col < d.width; col++ {
				w := d.enc.Encode(d.rows, col, plane) | d.addrWord
				if err := d.emit(w); err != nil {
					return err
				}
				if err := d.emit(w | clock); err != nil {
					return err
				}
			}

			// LATCH: strobe pulse commits the shifted row to the output
			// drivers.
			if err := d.emit(blank | d.addrWord | strobe); err != nil {
				return err
			}
			if err := d.emit(blank | d.addrWord); err != nil {
				return err
			}

			// ADDRESS: switch the row-address bits while blank stays
			// asserted, so the transition is never visible.
			d.addrWord = d.pm.AddrWord(addr)
			if err := d.emit(blank | d.addrWord); err != nil {
				return err
			}

			// DISPLAY: deassert blank for a hold proportional to the
			// plane's weight, then re-assert it before the next load.
			lit := d.addrWord
			hold := d.display * d.enc.Weight(plane)
			for i := 0; i < hold; i++ {
				if err := d.write(lit); err != nil {
					return err
				}
			}
			if err := d.emit(blank | d.addrWord); err != nil {
				return err
			}
		}
	}
	return nil
}

// emit drives one signal transition and holds the level for the configured
// settle margin.
func (d *Driver) emit(w uint32) error {
	for i := 0; i <= d.settle; i++ {
		if err := d.write(w); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) write(w uint32) error {
	if err := d.port.Write(w); err != nil {
		d.forceBlank()
		return fmt.Errorf("scan-out aborted: %w", err)
	}
	return nil
}

// forceBlank drives the safe all-dark state: blank asserted, everything
// else low. Best effort; a port that just failed may fail again.
func (d *Driver) forceBlank() {
	_ = d.port.Write(d.pm.BlankMask())
}
