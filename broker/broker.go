package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dermesser/peering/broker/queue"
	"github.com/dermesser/peering/log"
	"github.com/dermesser/peering/proto"
)

// Default bound for the backend wait while workers are idle, so that frontends
// are re-checked regularly.
const DefaultPollInterval = 1000 * time.Millisecond

type Options struct {
	PollInterval time.Duration
	// nil means NewRandomOffload(nil)
	Policy OffloadPolicy
}

func DefaultOptions() *Options {
	return &Options{PollInterval: DefaultPollInterval}
}

/*
Routes requests and replies between local clients, local workers and peer brokers.

A Broker is driven by exactly one goroutine calling Run(); none of its methods
except Name(), Peers() and Snapshot() may be called concurrently with Run().
*/
type Broker struct {
	name     string
	peers    PeerSet
	channels Channels

	poll_interval time.Duration
	policy        OffloadPolicy

	// Idle workers, least recently used first.
	workers *queue.Queue[[]byte]
	stats   Stats
}

/*
Create a broker named name that routes between the given channels. peers is the set
of peer brokers; replies whose first frame is a peer identity are sent back to the
cloud. options may be nil.
*/
func NewBroker(name string, peers PeerSet, channels Channels, options *Options) (*Broker, error) {
	if name == "" {
		return nil, errors.New("broker: empty broker name")
	}
	if err := channels.validate(); err != nil {
		return nil, err
	}
	if options == nil {
		options = DefaultOptions()
	}

	b := &Broker{
		name:          name,
		peers:         peers,
		channels:      channels,
		poll_interval: options.PollInterval,
		policy:        options.Policy,
		workers:       queue.NewQueue[[]byte](16),
	}

	if b.poll_interval <= 0 {
		b.poll_interval = DefaultPollInterval
	}
	if b.policy == nil {
		b.policy = NewRandomOffload(nil)
	}
	return b, nil
}

func (b *Broker) Name() string {
	return b.name
}

func (b *Broker) Peers() PeerSet {
	return b.peers
}

// Returns the counters of this broker.
func (b *Broker) Stats() *Stats {
	return &b.stats
}

// Returns a point-in-time copy of the counters, ready to be sent to a monitor client.
func (b *Broker) Snapshot() *proto.BrokerStats {
	return b.stats.snapshot(b.name, b.peers)
}

/*
Run the event loop until the substrate is interrupted or ctx is cancelled.

Cancellation of ctx is only noticed before a message is read; to abort a wait on
the backends, the substrate has to be interrupted as well (its blocking calls then
return ErrInterrupted). Both cases return nil. Any other polling error ends the
loop and is returned.
*/
func (b *Broker) Run(ctx context.Context) error {
	log.Log(log.LOGLEVEL_INFO, "Broker", b.name, "running; peers:", b.peers.Names())

	for {
		if ctx.Err() != nil {
			return b.stopped(ctx.Err())
		}

		// Without idle workers there is nothing to do but wait for a backend.
		timeout := time.Duration(-1)
		if b.workers.Len() > 0 {
			timeout = b.poll_interval
		}

		polled, err := b.channels.Backends.Poll(timeout)

		if err != nil {
			return b.stopped(fmt.Errorf("polling backends: %w", err))
		}

		if err = b.routeReply(polled); err != nil {
			return b.stopped(err)
		}
		if err = b.routeRequests(ctx); err != nil {
			return b.stopped(err)
		}
	}
}

func (b *Broker) stopped(err error) error {
	if errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Log(log.LOGLEVEL_INFO, "Broker", b.name, "stopped:", err.Error())
		return nil
	}
	log.Log(log.LOGLEVEL_ERRORS, "Broker", b.name, "failed:", err.Error())
	return fmt.Errorf("broker %s: %w", b.name, err)
}
