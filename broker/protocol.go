package broker

import (
	"bytes"
	"errors"
	"fmt"
)

// Support types for dealing with router-style messages: [address, "", payload...].
// Every message on the four channels carries this framing.

// Sent by a worker to announce that it is idle. Never forwarded.
var ReadySignal = []byte("READY")

var errMalformed = errors.New("malformed message")

type envelope struct {
	address []byte
	frames  [][]byte
}

func newEnvelope(address []byte, frames [][]byte) envelope {
	return envelope{address: address, frames: frames}
}

// Strips the address and the empty delimiter.
func parseEnvelope(msg [][]byte) (envelope, error) {
	if len(msg) < 2 {
		return envelope{}, fmt.Errorf("%w: %d frames", errMalformed, len(msg))
	}
	if len(msg[1]) != 0 {
		return envelope{}, fmt.Errorf("%w: no empty delimiter after address %q", errMalformed, msg[0])
	}
	return envelope{address: msg[0], frames: msg[2:]}, nil
}

func (e envelope) serialize() [][]byte {
	frames := make([][]byte, 2, 2+len(e.frames))
	frames[0] = e.address
	frames[1] = []byte{}
	return append(frames, e.frames...)
}

// A message whose last frame is READY only registers the worker.
func (e envelope) isReady() bool {
	return len(e.frames) > 0 && bytes.Equal(e.frames[len(e.frames)-1], ReadySignal)
}
