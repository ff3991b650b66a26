package hub75

import "fmt"

// Mux sequences the panels' time-multiplexed row addressing. Panels of
// height H driven at multiplex factor 2 load two rows per address: code a
// selects rows (a, a+H/2) into the upper and lower shift-register halves.
type Mux struct {
	field int // rows per half, also the number of address codes
}

// NewMux validates the multiplex topology. The HUB75 word carries exactly
// two row groups per chain, so only multiplex factor 2 is drivable; other
// factors are a chain topology mismatch. A field deeper than the wired
// address lines can express must be rejected here, never truncated.
func NewMux(panelHeight, multiplex, addrLines int) (*Mux, error) {
	if multiplex != 2 {
		return nil, fmt.Errorf("%w: multiplex factor %d not drivable on dual-row chains", ErrConfig, multiplex)
	}
	if panelHeight <= 0 || panelHeight%multiplex != 0 {
		return nil, fmt.Errorf("%w: panel height %d not divisible by multiplex %d", ErrConfig, panelHeight, multiplex)
	}
	field := panelHeight / multiplex
	if addrLines <= 0 || field > 1<<uint(addrLines) {
		return nil, fmt.Errorf("%w: %d address codes exceed %d wired address lines (next line not wired)",
			ErrConfig, field, addrLines)
	}
	return &Mux{field: field}, nil
}

// Field returns the number of address codes (rows per half).
func (m *Mux) Field() int { return m.field }

// Rows returns the two logical rows loaded at address code a: the upper
// half's row and the lower half's row.
func (m *Mux) Rows(a int) (upper, lower int) { return a, a + m.field }

// Addresses returns the refresh address sequence: 0..Field-1 exactly once,
// after which the caller wraps back to 0.
func (m *Mux) Addresses() []int {
	out := make([]int, m.field)
	for i := range out {
		out[i] = i
	}
	return out
}
