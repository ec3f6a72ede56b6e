package broker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// In-memory stand-ins for the messaging substrate.

type fakeChannel struct {
	name    string
	inbox   [][][]byte
	sent    [][][]byte
	recvErr error
	sendErr error
}

func (c *fakeChannel) RecvMessageBytes() ([][]byte, error) {
	if c.recvErr != nil {
		return nil, c.recvErr
	}
	if len(c.inbox) == 0 {
		return nil, errors.New(c.name + ": nothing to receive")
	}
	msg := c.inbox[0]
	c.inbox = c.inbox[1:]
	return msg, nil
}

func (c *fakeChannel) SendMessageBytes(frames [][]byte) error {
	c.sent = append(c.sent, frames)
	return c.sendErr
}

func (c *fakeChannel) deliver(frames ...string) {
	msg := make([][]byte, len(frames))
	for i, f := range frames {
		msg[i] = []byte(f)
	}
	c.inbox = append(c.inbox, msg)
}

// fakeMux reports the channels with pending input. Once nothing is pending and the
// caller is willing to wait, nothing will ever arrive again, so it behaves as if the
// process were being shut down.
type fakeMux struct {
	channels []*fakeChannel
	timeouts []time.Duration
	// called before every poll
	before func(timeout time.Duration)
	err    error
}

func (m *fakeMux) Poll(timeout time.Duration) ([]Channel, error) {
	m.timeouts = append(m.timeouts, timeout)
	if m.before != nil {
		m.before(timeout)
	}
	if m.err != nil {
		return nil, m.err
	}

	var ready []Channel
	for _, c := range m.channels {
		if len(c.inbox) > 0 {
			ready = append(ready, c)
		}
	}
	if len(ready) == 0 && timeout != 0 {
		return nil, ErrInterrupted
	}
	return ready, nil
}

type fixture struct {
	localFE, localBE, cloudFE, cloudBE *fakeChannel
	backends, frontends                *fakeMux
	broker                             *Broker
}

func newFixture(t *testing.T, policy OffloadPolicy, peers ...string) *fixture {
	f := &fixture{
		localFE: &fakeChannel{name: "localfe"},
		localBE: &fakeChannel{name: "localbe"},
		cloudFE: &fakeChannel{name: "cloudfe"},
		cloudBE: &fakeChannel{name: "cloudbe"},
	}
	f.backends = &fakeMux{channels: []*fakeChannel{f.localBE, f.cloudBE}}
	f.frontends = &fakeMux{channels: []*fakeChannel{f.localFE, f.cloudFE}}

	ps, err := NewPeerSet(peers...)
	require.NoError(t, err)

	options := DefaultOptions()
	options.Policy = policy

	f.broker, err = NewBroker("DC1", ps, Channels{
		LocalFrontend: f.localFE,
		LocalBackend:  f.localBE,
		CloudFrontend: f.cloudFE,
		CloudBackend:  f.cloudBE,
		Backends:      f.backends,
		Frontends:     f.frontends,
	}, options)
	require.NoError(t, err)
	return f
}

// Simulates workers: every request the broker sent to the local backend since the
// last poll comes back as a reply with the last frame replaced by "OK".
func (f *fixture) echoWorkers() {
	answered := 0
	f.backends.before = func(time.Duration) {
		for ; answered < len(f.localBE.sent); answered++ {
			rq := f.localBE.sent[answered]
			reply := make([][]byte, len(rq))
			copy(reply, rq)
			reply[len(reply)-1] = []byte("OK")
			f.localBE.inbox = append(f.localBE.inbox, reply)
		}
	}
}

// Always offloads to the first peer and counts how often it was asked.
type firstPeer struct {
	calls int
}

func (p *firstPeer) Offload(peers PeerSet) ([]byte, bool) {
	p.calls++
	return peers.At(0), true
}

func frames(fs ...string) [][]byte {
	out := make([][]byte, len(fs))
	for i, f := range fs {
		out[i] = []byte(f)
	}
	return out
}
