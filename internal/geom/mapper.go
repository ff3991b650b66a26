// Package geom projects voxel coordinates onto the rotor-mounted panels.
//
// Both panels ride the rotor facing outward at the same azimuth, mounted at
// different radial offsets from the axis. The offset, in column pitches, is
// the panel's eccentricity: panel p images the radial band
// [ecc(p), ecc(p)+width). A voxel at radius x therefore lands on zero, one
// or two panels depending on which bands contain it. The azimuth coordinate
// selects which y-slice of the volume a panel shows at a given rotor step.
package geom

import (
	"fmt"
	"math"
)

// Pixel addresses one physical panel pixel.
type Pixel struct {
	Panel int
	Row   int
	Col   int
}

// Order permutes a column index to match a panel's pixel wiring.
type Order func(col int) int

// OrderByName resolves a configured order function. Supported names:
// "identity" (or empty), "reverse", "interleave" (even columns first).
func OrderByName(name string, width int) (Order, error) {
	switch name {
	case "", "identity":
		return func(c int) int { return c }, nil
	case "reverse":
		return func(c int) int { return width - 1 - c }, nil
	case "interleave":
		half := (width + 1) / 2
		return func(c int) int {
			if c%2 == 0 {
				return c / 2
			}
			return half + c/2
		}, nil
	default:
		return nil, fmt.Errorf("geom: unknown column order %q", name)
	}
}

// Panel is the static per-panel projection configuration.
type Panel struct {
	Eccentricity float64
	Order        Order // nil means identity
}

// Mapper is a pure projection from voxel space onto panel pixels. It holds
// no mutable state; identical inputs always produce identical results.
type Mapper struct {
	width  int
	height int
	ySteps int
	zero   int // azimuth-step offset from the configured rotation zero
	panels []Panel
	inv    [][]int // per panel: shifted column -> raw column
}

// NewMapper builds a mapper. rotationZeroDeg is the whole-display angular
// offset in degrees, converted once to azimuth steps.
func NewMapper(width, height, ySteps int, rotationZeroDeg float64, panels []Panel) (*Mapper, error) {
	if width <= 0 || height <= 0 || ySteps <= 0 {
		return nil, fmt.Errorf("geom: invalid panel geometry %dx%d over %d azimuth steps", width, height, ySteps)
	}
	if len(panels) == 0 {
		return nil, fmt.Errorf("geom: no panels configured")
	}
	zero := int(math.Round(rotationZeroDeg*float64(ySteps)/360.0)) % ySteps
	if zero < 0 {
		zero += ySteps
	}
	m := &Mapper{
		width:  width,
		height: height,
		ySteps: ySteps,
		zero:   zero,
		panels: make([]Panel, len(panels)),
		inv:    make([][]int, len(panels)),
	}
	copy(m.panels, panels)
	for i := range m.panels {
		if m.panels[i].Order == nil {
			m.panels[i].Order = func(c int) int { return c }
		}
		inv := make([]int, width)
		for c := range inv {
			inv[c] = -1
		}
		for c := 0; c < width; c++ {
			oc := m.panels[i].Order(c)
			if oc < 0 || oc >= width || inv[oc] != -1 {
				return nil, fmt.Errorf("geom: panel %d column order is not a bijection on [0,%d)", i, width)
			}
			inv[oc] = c
		}
		m.inv[i] = inv
	}
	return m, nil
}

// ActiveSlice returns the azimuth index the panels face at rotor step rot.
func (m *Mapper) ActiveSlice(rot int) int {
	a := (rot + m.zero) % m.ySteps
	if a < 0 {
		a += m.ySteps
	}
	return a
}

// colFor maps a radial coordinate into panel p's band, returning the raw
// (pre-order) column and whether the voxel sits exactly on a band edge.
func (m *Mapper) colFor(p int, x int) (col int, onEdge, ok bool) {
	off := float64(x) - m.panels[p].Eccentricity
	col = int(math.Floor(off + 0.5))
	if col < 0 || col >= m.width {
		return 0, false, false
	}
	// The outer edge rounds up past the last column, so only the inner
	// band edge can be hit exactly.
	onEdge = off == -0.5
	return col, onEdge, true
}

// Map projects voxel (x, y, z) at rotor step rot onto zero, one or two
// panel pixels. A voxel exactly on an eccentricity band edge is assigned
// only to the claiming panel with the smallest eccentricity.
func (m *Mapper) Map(x, y, z, rot int) []Pixel {
	if z < 0 || z >= m.height || y < 0 || y >= m.ySteps || x < 0 {
		return nil
	}
	if y != m.ActiveSlice(rot) {
		return nil
	}
	var out []Pixel
	edge := false
	for p := range m.panels {
		col, onEdge, ok := m.colFor(p, x)
		if !ok {
			continue
		}
		edge = edge || onEdge
		out = append(out, Pixel{Panel: p, Row: z, Col: m.panels[p].Order(col)})
	}
	if edge && len(out) > 1 {
		best := 0
		for i := 1; i < len(out); i++ {
			if m.panels[out[i].Panel].Eccentricity < m.panels[out[best].Panel].Eccentricity {
				best = i
			}
		}
		out = out[best : best+1]
	}
	return out
}

// VoxelAt is the reverse projection used by scan-out: the voxel shown by
// panel pixel (panel, row, col) at rotor step rot. col is the physical
// (post-order) column; the order permutation is inverted via a table built
// at construction. The radial inverse matches Map's rounding exactly,
// including the band-edge assignment: a pixel whose voxel Map gives to a
// smaller-eccentricity panel reports ok=false and is served dark.
func (m *Mapper) VoxelAt(panel, row, col, rot int) (x, y, z int, ok bool) {
	if panel < 0 || panel >= len(m.panels) || row < 0 || row >= m.height || col < 0 || col >= m.width {
		return 0, 0, 0, false
	}
	raw := m.inv[panel][col]
	x = raw + int(math.Ceil(m.panels[panel].Eccentricity-0.5))
	if !m.owns(panel, x) {
		return 0, 0, 0, false
	}
	y = m.ActiveSlice(rot)
	z = row
	return x, y, z, true
}

// owns reports whether panel keeps radius x under Map's edge rule: when x
// sits exactly on any claiming panel's band edge, only the claimant with
// the smallest eccentricity shows it.
func (m *Mapper) owns(panel int, x int) bool {
	edge, best := false, -1
	for p := range m.panels {
		_, onEdge, ok := m.colFor(p, x)
		if !ok {
			continue
		}
		edge = edge || onEdge
		if best == -1 || m.panels[p].Eccentricity < m.panels[best].Eccentricity {
			best = p
		}
	}
	return !edge || best == panel
}
