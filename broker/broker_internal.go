package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/dermesser/peering/log"
)

/*
This file has the routing rules; broker.go remains uncluttered and with only the
public functions and the outer loop.
*/

// Handles at most one message from the backends, local backend first. Only
// returns an error if the substrate was interrupted.
func (b *Broker) routeReply(polled []Channel) error {
	var reply [][]byte

	if isReady(polled, b.channels.LocalBackend) {
		// [worker identity, "", payload...]
		msgs, err := b.channels.LocalBackend.RecvMessageBytes()

		if err != nil {
			return b.recvFailed("local backend", err)
		}

		message, err := parseEnvelope(msgs)

		if err != nil {
			b.drop("local backend", err)
			return nil
		}

		// A worker that answers (or says READY) is idle again.
		b.workers.Push(message.address)
		b.stats.IdleWorkers.Store(int64(b.workers.Len()))

		if message.isReady() {
			b.stats.ReadySignals.Add(1)

			if log.IsLoggingEnabled(log.LOGLEVEL_DEBUG) {
				log.Log(log.LOGLEVEL_DEBUG, fmt.Sprintf("[%s] Worker %q is ready (%d idle)", b.name, message.address, b.workers.Len()))
			}
			return nil
		}
		reply = message.frames

	} else if isReady(polled, b.channels.CloudBackend) {
		// [peer identity, "", payload...]; the peer's identity is not needed, peer
		// capacity is not tracked.
		msgs, err := b.channels.CloudBackend.RecvMessageBytes()

		if err != nil {
			return b.recvFailed("cloud backend", err)
		}

		message, err := parseEnvelope(msgs)

		if err != nil {
			b.drop("cloud backend", err)
			return nil
		}
		reply = message.frames

	} else {
		return nil
	}

	b.forwardReply(reply)
	return nil
}

// Sends a reply to a peer if its first frame names one, otherwise to a local client.
func (b *Broker) forwardReply(reply [][]byte) {
	if len(reply) == 0 {
		b.drop("backend", fmt.Errorf("%w: empty reply", errMalformed))
		return
	}

	if b.peers.Contains(reply[0]) {
		b.stats.RepliesCloud.Add(1)
		b.send(b.channels.CloudFrontend, "cloud frontend", reply)
	} else {
		b.stats.RepliesLocal.Add(1)
		b.send(b.channels.LocalFrontend, "local frontend", reply)
	}
}

// Routes as many frontend requests as there are idle workers, without waiting for
// any. Peer requests go first so that peers don't starve.
func (b *Broker) routeRequests(ctx context.Context) error {
	for b.workers.Len() > 0 {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		polled, err := b.channels.Frontends.Poll(0)

		if err != nil {
			return fmt.Errorf("polling frontends: %w", err)
		}

		var msgs [][]byte
		var reroutable bool

		if isReady(polled, b.channels.CloudFrontend) {
			msgs, err = b.channels.CloudFrontend.RecvMessageBytes()

			if err != nil {
				return b.recvFailed("cloud frontend", err)
			}
			b.stats.RequestsFromPeers.Add(1)

		} else if isReady(polled, b.channels.LocalFrontend) {
			msgs, err = b.channels.LocalFrontend.RecvMessageBytes()

			if err != nil {
				return b.recvFailed("local frontend", err)
			}
			reroutable = true

		} else {
			return nil
		}

		b.routeRequest(msgs, reroutable)
	}
	return nil
}

// Sends one request either to a peer (no worker is used) or to the least recently
// used idle worker. The caller guarantees that a worker is idle.
func (b *Broker) routeRequest(msgs [][]byte, reroutable bool) {
	if reroutable && b.peers.Len() > 0 {
		if peer, ok := b.policy.Offload(b.peers); ok {
			b.stats.RequestsCloud.Add(1)

			if log.IsLoggingEnabled(log.LOGLEVEL_DEBUG) {
				log.Log(log.LOGLEVEL_DEBUG, fmt.Sprintf("[%s] Offloading request to peer %q", b.name, peer))
			}
			b.send(b.channels.CloudBackend, "cloud backend", newEnvelope(peer, msgs).serialize())
			return
		}
	}

	worker, ok := b.workers.Pop()

	if !ok {
		// routeRequests only calls us with capacity left
		panic("broker: routing request without idle worker")
	}
	b.stats.IdleWorkers.Store(int64(b.workers.Len()))
	b.stats.RequestsLocal.Add(1)

	if log.IsLoggingEnabled(log.LOGLEVEL_DEBUG) {
		log.Log(log.LOGLEVEL_DEBUG, fmt.Sprintf("[%s] Routing request to worker %q", b.name, worker))
	}
	b.send(b.channels.LocalBackend, "local backend", newEnvelope(worker, msgs).serialize())
}

// Forwarding is best effort: a failed send is logged, never retried.
func (b *Broker) send(ch Channel, name string, frames [][]byte) {
	if err := ch.SendMessageBytes(frames); err != nil {
		b.stats.Dropped.Add(1)
		log.Log(log.LOGLEVEL_WARNINGS, fmt.Sprintf("[%s] Could not send to %s (address %q): %s", b.name, name, frames[0], err.Error()))
	}
}

// Interruptions are passed on, everything else is logged and the message skipped.
func (b *Broker) recvFailed(name string, err error) error {
	if errors.Is(err, ErrInterrupted) {
		return err
	}
	log.Log(log.LOGLEVEL_ERRORS, fmt.Sprintf("[%s] Error when receiving from %s: %s", b.name, name, err.Error()))
	return nil
}

func (b *Broker) drop(name string, err error) {
	b.stats.Dropped.Add(1)
	log.Log(log.LOGLEVEL_WARNINGS, fmt.Sprintf("[%s] Dropped message from %s: %s", b.name, name, err.Error()))
}
