package broker

import (
	"errors"
	"time"
)

// Channel is an addressed, multi-frame message endpoint of the messaging substrate.
type Channel interface {
	// Receives one complete message. Only called after a multiplexer reported the
	// channel as ready.
	RecvMessageBytes() ([][]byte, error)
	SendMessageBytes(frames [][]byte) error
}

// Multiplexer waits until one of a fixed set of channels has input.
// A negative timeout waits indefinitely, a zero timeout never blocks.
type Multiplexer interface {
	Poll(timeout time.Duration) ([]Channel, error)
}

// Returned (possibly wrapped) by the substrate when a blocking operation was
// aborted because the process is shutting down.
var ErrInterrupted = errors.New("broker: interrupted")

// The channels a broker routes between. Backends must report LocalBackend and
// CloudBackend, Frontends LocalFrontend and CloudFrontend.
type Channels struct {
	LocalFrontend, LocalBackend Channel
	CloudFrontend, CloudBackend Channel

	Backends, Frontends Multiplexer
}

func (c *Channels) validate() error {
	if c.LocalFrontend == nil || c.LocalBackend == nil || c.CloudFrontend == nil || c.CloudBackend == nil {
		return errors.New("broker: all four channels are required")
	}
	if c.Backends == nil || c.Frontends == nil {
		return errors.New("broker: both multiplexers are required")
	}
	return nil
}

func isReady(polled []Channel, ch Channel) bool {
	for _, p := range polled {
		if p == ch {
			return true
		}
	}
	return false
}
