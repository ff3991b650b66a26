// Package voxel holds the cylindrical voxel volume the display renders.
//
// The volume is addressed as (x, y, z) where x is the radial coordinate
// (column pitches from the rotor axis), y the azimuth step and z the height.
// Each voxel is one RGB332 byte. Storage is a pair of flat buffers with a
// page flip between them: the scan-out side only ever reads the front page,
// content generation only ever writes the back page, and Swap is the single
// synchronization point between the two.
package voxel

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrOutOfRange reports a coordinate outside the volume bounds.
var ErrOutOfRange = errors.New("voxel: coordinate out of range")

// Bounds are the volume dimensions.
type Bounds struct {
	X, Y, Z int
}

// Space is a double-buffered voxel volume.
//
// Flat layout: z has stride 1, x stride Z, y stride X*Z. With the stock
// 128x128x64 volume that is index = z + x*64 + y*8192.
type Space struct {
	b       Bounds
	strideX int
	strideY int

	bufs [2][]byte
	page atomic.Uint32 // index of the front buffer
}

// NewSpace allocates a zeroed (all dark) volume.
func NewSpace(b Bounds) (*Space, error) {
	if b.X <= 0 || b.Y <= 0 || b.Z <= 0 {
		return nil, fmt.Errorf("voxel: invalid bounds %dx%dx%d", b.X, b.Y, b.Z)
	}
	n := b.X * b.Y * b.Z
	s := &Space{
		b:       b,
		strideX: b.Z,
		strideY: b.X * b.Z,
	}
	s.bufs[0] = make([]byte, n)
	s.bufs[1] = make([]byte, n)
	return s, nil
}

// Bounds returns the volume dimensions.
func (s *Space) Bounds() Bounds { return s.b }

// Count returns the total voxel count.
func (s *Space) Count() int { return s.b.X * s.b.Y * s.b.Z }

// Index returns the flat index for (x, y, z), or false when out of bounds.
func (s *Space) Index(x, y, z int) (int, bool) {
	if x < 0 || x >= s.b.X || y < 0 || y >= s.b.Y || z < 0 || z >= s.b.Z {
		return 0, false
	}
	return z + x*s.strideX + y*s.strideY, true
}

// At reads a voxel from the front buffer.
func (s *Space) At(x, y, z int) (byte, error) {
	i, ok := s.Index(x, y, z)
	if !ok {
		return 0, fmt.Errorf("%w: (%d,%d,%d)", ErrOutOfRange, x, y, z)
	}
	return s.Front()[i], nil
}

// Set writes a voxel into the back buffer.
func (s *Space) Set(x, y, z int, c byte) error {
	i, ok := s.Index(x, y, z)
	if !ok {
		return fmt.Errorf("%w: (%d,%d,%d)", ErrOutOfRange, x, y, z)
	}
	s.Back()[i] = c
	return nil
}

// Front returns the buffer the scan-out side reads. Callers that need a
// consistent view across a whole refresh must hold on to the returned slice
// rather than calling Front again mid-refresh.
func (s *Space) Front() []byte { return s.bufs[s.page.Load()&1] }

// Back returns the buffer the content side writes.
func (s *Space) Back() []byte { return s.bufs[1-s.page.Load()&1] }

// Swap flips front and back. It is atomic and non-blocking; a reader that
// snapshotted Front keeps a stable, fully written buffer.
func (s *Space) Swap() { s.page.Store(1 - s.page.Load()&1) }

// ClearBack zeroes the back buffer.
func (s *Space) ClearBack() {
	b := s.Back()
	for i := range b {
		b[i] = 0
	}
}

// SliceY walks one azimuth slice of the front buffer.
func (s *Space) SliceY(y int, fn func(x, z int, c byte)) error {
	if y < 0 || y >= s.b.Y {
		return fmt.Errorf("%w: y=%d", ErrOutOfRange, y)
	}
	front := s.Front()
	base := y * s.strideY
	for x := 0; x < s.b.X; x++ {
		row := base + x*s.strideX
		for z := 0; z < s.b.Z; z++ {
			fn(x, z, front[row+z])
		}
	}
	return nil
}

// SliceZ walks one horizontal slice of the front buffer, for renderers that
// only need a partial view per tick.
func (s *Space) SliceZ(z int, fn func(x, y int, c byte)) error {
	if z < 0 || z >= s.b.Z {
		return fmt.Errorf("%w: z=%d", ErrOutOfRange, z)
	}
	front := s.Front()
	for y := 0; y < s.b.Y; y++ {
		base := y*s.strideY + z
		for x := 0; x < s.b.X; x++ {
			fn(x, y, front[base+x*s.strideX])
		}
	}
	return nil
}
