//go:build !linux

package hub75

import "fmt"

// OpenGPIO is only available on linux hosts; elsewhere the sim port is the
// only option.
func OpenGPIO(pm PinMap) (Port, error) {
	return nil, fmt.Errorf("%w: gpio port requires linux", ErrConfig)
}
