// Package hub75 implements the multiplexed bit-serial scan-out protocol for
// HUB75-style RGB matrix panels: the GPIO pin table and bit masks, the
// row-address multiplexer, the bit-plane encoder and the timed scan-out
// state machine. Everything wire-level lives here; geometry does not.
package hub75

import (
	"errors"
	"fmt"
)

// ErrConfig reports an invalid wiring or topology configuration. All such
// errors are startup-fatal; scan-out refuses to run on a config that does
// not validate.
var ErrConfig = errors.New("hub75: invalid configuration")

// wordBits is the GPIO word width. All pins must be BCM 0..31 so a single
// uint32 word carries the whole pin state.
const wordBits = 32

// Chain holds the six color pins of one HUB75 chain: the upper half's
// R1/G1/B1 and the lower half's R2/G2/B2 shift-register inputs.
type Chain struct {
	R1, G1, B1 int
	R2, G2, B2 int
}

func (c Chain) pins() []int { return []int{c.R1, c.G1, c.B1, c.R2, c.G2, c.B2} }

// Mask returns the chain's six color bits as a word mask.
func (c Chain) Mask() uint32 {
	var m uint32
	for _, p := range c.pins() {
		m |= 1 << uint(p)
	}
	return m
}

// PinMap is the single wire-level pin assignment table. It must match the
// physical wiring exactly; Validate checks it once at startup.
type PinMap struct {
	Chains []Chain
	Addr   []int // parallel row-address lines, LSB first
	Blank  int   // output enable, asserted high = panel dark
	Clock  int   // shift clock
	Strobe int   // latch
}

// DefaultPinMap is the shipped rotor wiring: chain 0 on the standard
// single-chain pin set, chain 1 on the custom second-chain assignment,
// five address lines A..E.
func DefaultPinMap() PinMap {
	return PinMap{
		Chains: []Chain{
			{R1: 17, G1: 18, B1: 22, R2: 23, G2: 24, B2: 25},
			{R1: 12, G1: 5, B1: 6, R2: 19, G2: 13, B2: 20},
		},
		Addr:   []int{7, 8, 9, 10, 21},
		Blank:  27,
		Clock:  11,
		Strobe: 4,
	}
}

// Pins enumerates every assigned pin, in chain, address, control order.
func (p PinMap) Pins() []int {
	var out []int
	for _, c := range p.Chains {
		out = append(out, c.pins()...)
	}
	out = append(out, p.Addr...)
	out = append(out, p.Blank, p.Clock, p.Strobe)
	return out
}

// Validate checks that every pin fits the word, that no two signals share a
// pin, and that at least one chain and one address line are wired.
func (p PinMap) Validate() error {
	if len(p.Chains) == 0 {
		return fmt.Errorf("%w: no chains wired", ErrConfig)
	}
	if len(p.Addr) == 0 {
		return fmt.Errorf("%w: no address lines wired", ErrConfig)
	}
	var seen uint32
	for _, pin := range p.Pins() {
		if pin < 0 || pin >= wordBits {
			return fmt.Errorf("%w: pin %d outside GPIO word", ErrConfig, pin)
		}
		bit := uint32(1) << uint(pin)
		if seen&bit != 0 {
			return fmt.Errorf("%w: pin %d assigned twice", ErrConfig, pin)
		}
		seen |= bit
	}
	return nil
}

// Mask returns the union of all assigned pin bits.
func (p PinMap) Mask() uint32 {
	var m uint32
	for _, pin := range p.Pins() {
		m |= 1 << uint(pin)
	}
	return m
}

// ColorMask returns the union of all chains' color bits.
func (p PinMap) ColorMask() uint32 {
	var m uint32
	for _, c := range p.Chains {
		m |= c.Mask()
	}
	return m
}

// AddrMask returns the union of the address line bits.
func (p PinMap) AddrMask() uint32 {
	var m uint32
	for _, pin := range p.Addr {
		m |= 1 << uint(pin)
	}
	return m
}

// BlankMask returns the blank/output-enable bit.
func (p PinMap) BlankMask() uint32 { return 1 << uint(p.Blank) }

// ClockMask returns the shift-clock bit.
func (p PinMap) ClockMask() uint32 { return 1 << uint(p.Clock) }

// StrobeMask returns the latch/strobe bit.
func (p PinMap) StrobeMask() uint32 { return 1 << uint(p.Strobe) }

// AddrWord scatters a row-address code across the address lines.
func (p PinMap) AddrWord(addr int) uint32 {
	var w uint32
	for i, pin := range p.Addr {
		if addr>>uint(i)&1 == 1 {
			w |= 1 << uint(pin)
		}
	}
	return w
}
