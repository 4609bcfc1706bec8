// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral selector interface for IO multiplexing.

package reactor

// FDEventType is a bit set of readiness conditions.
type FDEventType uint8

const (
	EventRead FDEventType = 1 << iota
	EventWrite
	EventError
)

// Has reports whether all bits of want are set.
func (t FDEventType) Has(want FDEventType) bool {
	return t&want == want
}

// Interest asks the selector to watch FD for Events.
type Interest struct {
	FD     int
	Events FDEventType
}

// Ready reports the conditions observed on FD.
type Ready struct {
	FD     int
	Events FDEventType
}

// Selector performs one blocking multiplexed wait per call.
//
// A Selector is used by a single loop goroutine; only Wakeup may be called
// from other goroutines.
type Selector interface {
	// Wait blocks with no timeout until at least one interest is ready or
	// Wakeup is called. It returns an empty slice when woken or interrupted.
	Wait(interest []Interest) ([]Ready, error)

	// Wakeup interrupts a pending or the next Wait.
	Wakeup() error

	// Close releases the selector's descriptors.
	Close() error
}
