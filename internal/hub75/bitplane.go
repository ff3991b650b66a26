package hub75

import (
	"fmt"

	"github.com/coreman2200/funtimes-vortex/internal/voxel"
)

// Encoder packs one column's pixel bits and control state into a GPIO word
// for the currently active bit-plane. Brightness beyond on/off comes from
// binary-coded modulation: each plane tests one bit of the 8-bit channel
// intensity and is displayed for a duration proportional to Weight.
type Encoder struct {
	pm     PinMap
	width  int
	planes int
	shift  uint // bit index of plane 0 within the 8-bit channel
}

// NewEncoder builds an encoder for the given pin map. planes is the
// configured bit-plane count, 1..8; plane p tests channel bit 8-planes+p
// so the heaviest plane always tests the MSB.
func NewEncoder(pm PinMap, width, planes int) (*Encoder, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: panel width %d", ErrConfig, width)
	}
	if planes < 1 || planes > 8 {
		return nil, fmt.Errorf("%w: %d bit-planes (want 1..8)", ErrConfig, planes)
	}
	return &Encoder{pm: pm, width: width, planes: planes, shift: uint(8 - planes)}, nil
}

// Planes returns the configured bit-plane count.
func (e *Encoder) Planes() int { return e.planes }

// Weight returns plane p's display duration weight: 1, 2, 4, ...
func (e *Encoder) Weight(plane int) int { return 1 << uint(plane) }

// Encode produces the shift word for one column: the 6 color bits per
// chain set from the rows' RGB332 pixels at the given bit-plane, blank
// asserted (output disabled while shifting), latch deasserted, clock low.
// rows holds one [upper, lower] row pair per chain, each at least width
// bytes. The caller toggles the clock and merges the held address bits.
func (e *Encoder) Encode(rows [][2][]byte, col, plane int) uint32 {
	w := e.pm.BlankMask()
	bit := e.shift + uint(plane)
	for ci := range e.pm.Chains {
		if ci >= len(rows) {
			break
		}
		ch := &e.pm.Chains[ci]
		r, g, b := voxel.Channels(rows[ci][0][col])
		if r>>bit&1 == 1 {
			w |= 1 << uint(ch.R1)
		}
		if g>>bit&1 == 1 {
			w |= 1 << uint(ch.G1)
		}
		if b>>bit&1 == 1 {
			w |= 1 << uint(ch.B1)
		}
		r, g, b = voxel.Channels(rows[ci][1][col])
		if r>>bit&1 == 1 {
			w |= 1 << uint(ch.R2)
		}
		if g>>bit&1 == 1 {
			w |= 1 << uint(ch.G2)
		}
		if b>>bit&1 == 1 {
			w |= 1 << uint(ch.B2)
		}
	}
	return w
}
