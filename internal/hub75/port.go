package hub75

import "errors"

// ErrWrite reports a failed GPIO transition. A write failure is fatal to
// the current refresh: the driver forces blank and surfaces the error
// rather than retrying, since a retry would desynchronize the multiplex
// addressing from the displayed content.
var ErrWrite = errors.New("hub75: gpio write failed")

// Port drives the full mapped pin set to the levels encoded in a word.
// Implementations must be callable from a single goroutine without
// blocking; scan-out timing depends on it.
type Port interface {
	// Write drives every mapped pin to its bit's level in w.
	Write(w uint32) error
	// Close releases the pins, leaving blank asserted.
	Close() error
}

// Recorder is a Port that captures every written word. One bounded capture
// of a single refresh is the frame's scan script, in emission order.
type Recorder struct {
	Words []uint32
	// Limit, when non-zero, caps the capture; further words are counted
	// but not stored.
	Limit   int
	Dropped int

	// FailAt, when non-zero, fails the FailAt'th write (1-based) with
	// ErrWrite. Drives the fault-path tests.
	FailAt int
	writes int
}

func (r *Recorder) Write(w uint32) error {
	r.writes++
	if r.FailAt != 0 && r.writes == r.FailAt {
		return ErrWrite
	}
	if r.Limit != 0 && len(r.Words) >= r.Limit {
		r.Dropped++
		return nil
	}
	r.Words = append(r.Words, w)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Reset clears the capture without resetting fault injection counters.
func (r *Recorder) Reset() {
	r.Words = r.Words[:0]
	r.Dropped = 0
}
