//go:build linux

package hub75

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// gpioPort drives the pin map through periph.io pin handles. Writes only
// touch pins whose level actually changes, which keeps the per-word cost
// down to the toggled signal lines.
type gpioPort struct {
	pins  [wordBits]gpio.PinOut
	mask  uint32
	blank uint32
	last  uint32
	live  bool
}

// OpenGPIO resolves every mapped pin by BCM name and drives the whole set
// low except blank, which starts asserted. periph's host must already be
// initialized.
func OpenGPIO(pm PinMap) (Port, error) {
	return newGPIOPort(pm, func(n int) gpio.PinOut {
		return gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	})
}

func newGPIOPort(pm PinMap, resolve func(n int) gpio.PinOut) (Port, error) {
	if err := pm.Validate(); err != nil {
		return nil, err
	}
	p := &gpioPort{mask: pm.Mask(), blank: pm.BlankMask()}
	for _, n := range pm.Pins() {
		pin := resolve(n)
		if pin == nil {
			return nil, fmt.Errorf("%w: GPIO%d not present", ErrConfig, n)
		}
		p.pins[n] = pin
	}
	if err := p.Write(pm.BlankMask()); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *gpioPort) Write(w uint32) error {
	w &= p.mask
	diff := w ^ p.last
	if p.live && diff == 0 {
		// Re-drive one line anyway so settle holds still consume a GPIO
		// cycle instead of collapsing to nothing.
		diff = p.mask & -p.mask
	}
	for bit := 0; bit < wordBits; bit++ {
		if diff>>uint(bit)&1 == 0 {
			continue
		}
		lvl := gpio.Level(w>>uint(bit)&1 == 1)
		if err := p.pins[bit].Out(lvl); err != nil {
			return fmt.Errorf("%w: GPIO%d: %v", ErrWrite, bit, err)
		}
	}
	p.last = w
	p.live = true
	return nil
}

func (p *gpioPort) Close() error {
	// Leave the panel dark: blank is the only line held high.
	for bit, pin := range p.pins {
		if pin == nil {
			continue
		}
		lvl := gpio.Low
		if p.blank>>uint(bit)&1 == 1 {
			lvl = gpio.High
		}
		if err := pin.Out(lvl); err != nil {
			return fmt.Errorf("%w: GPIO%d: %v", ErrWrite, bit, err)
		}
	}
	return nil
}
