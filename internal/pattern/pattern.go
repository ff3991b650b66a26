// Package pattern generates built-in voxel test content: calibration and
// smoke patterns written through the same back-buffer/swap path an external
// sender would use. The daemon runs one when no stream is connected; the
// offline simulator uses them as deterministic input.
package pattern

import (
	"fmt"

	"github.com/coreman2200/funtimes-vortex/internal/voxel"
)

type Kind string

const (
	None Kind = ""
	// RGBTest floods the whole volume with one channel per step.
	RGBTest Kind = "rgb_channels"
	// SliceSweep lights one horizontal layer per step, bottom to top.
	SliceSweep Kind = "slice_sweep"
	// SpinMarker lights a single radial spoke at a fixed azimuth, the
	// quickest way to verify rotation alignment against the chassis.
	SpinMarker Kind = "spin_marker"
)

// Kinds lists the selectable patterns.
func Kinds() []Kind { return []Kind{RGBTest, SliceSweep, SpinMarker} }

// Runner steps a pattern into a voxel space. Cyclic patterns never
// complete; bounded ones report completion through Step.
type Runner struct {
	kind Kind
	step int
}

func NewRunner(kind Kind) (*Runner, error) {
	switch kind {
	case RGBTest, SliceSweep, SpinMarker:
		return &Runner{kind: kind}, nil
	default:
		return nil, fmt.Errorf("pattern: unknown kind %q", kind)
	}
}

func (r *Runner) Kind() Kind { return r.kind }

// Step writes the next frame into the back buffer and swaps. Returns false
// once a bounded pattern has completed.
func (r *Runner) Step(sp *voxel.Space) bool {
	sp.ClearBack()
	b := sp.Bounds()

	switch r.kind {
	case RGBTest:
		var c byte
		switch r.step % 3 {
		case 0:
			c = voxel.Pack332(7, 0, 0)
		case 1:
			c = voxel.Pack332(0, 3, 0)
		case 2:
			c = voxel.Pack332(0, 0, 3)
		}
		back := sp.Back()
		for i := range back {
			back[i] = c
		}

	case SliceSweep:
		z := r.step
		if z >= b.Z {
			return false
		}
		for y := 0; y < b.Y; y++ {
			for x := 0; x < b.X; x++ {
				_ = sp.Set(x, y, z, voxel.Pack332(0, 3, 3))
			}
		}

	case SpinMarker:
		for x := 0; x < b.X; x++ {
			for z := 0; z < b.Z; z++ {
				_ = sp.Set(x, 0, z, voxel.Pack332(7, 3, 3))
			}
		}

	default:
		return false
	}

	r.step++
	sp.Swap()
	return true
}
