/*
Package harness simulates the workers and clients of a broker. Every worker and
client is an independent goroutine with its own REQ socket; they only talk to the
broker through its local frontend and backend, never through shared memory.

All tasks end when the transport context is terminated.
*/
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/dermesser/peering/broker"
	"github.com/dermesser/peering/log"
	"github.com/dermesser/peering/transport"

	zmq "github.com/pebbe/zmq4"
	"golang.org/x/sync/errgroup"
)

// Payloads used by the simulation.
var (
	Request = []byte("HELLO")
	Reply   = []byte("OK")
)

func WorkerIdentity(name string, i int) string {
	return fmt.Sprintf("Worker-%s-%d", name, i)
}

func ClientIdentity(name string, i int) string {
	return fmt.Sprintf("Client-%s-%d", name, i)
}

func newReq(zctx *transport.Context, identity string, addr transport.Address) (*zmq.Socket, error) {
	sock, err := zctx.NewSocket(zmq.REQ)

	if err != nil {
		return nil, err
	}

	if err = sock.SetIdentity(identity); err != nil {
		sock.Close()
		return nil, err
	}

	if err = sock.Connect(addr.ToUrl()); err != nil {
		sock.Close()
		return nil, err
	}
	return sock, nil
}

// Returns nil for a termination of the context, which is how tasks are stopped.
func stopped(err error) error {
	if transport.IsInterrupted(err) {
		return nil
	}
	return err
}

/*
Runs worker i of broker name: announces itself with READY, then answers every
request by replacing its last frame with OK.
*/
func Worker(ctx context.Context, zctx *transport.Context, name string, i int) error {
	identity := WorkerIdentity(name, i)
	logger := log.Component("worker").With().Str("identity", identity).Logger()

	sock, err := newReq(zctx, identity, zctx.Address(name, transport.SuffixLocalBackend))

	if err != nil {
		return fmt.Errorf("worker %s: %w", identity, err)
	}
	defer sock.Close()

	if _, err = sock.SendBytes(broker.ReadySignal, 0); err != nil {
		return stopped(err)
	}

	for ctx.Err() == nil {
		msg, err := sock.RecvMessageBytes(0)

		if err != nil {
			return stopped(err)
		}
		logger.Info().Strs("request", framesToStrings(msg)).Msg("Worker received request")

		msg[len(msg)-1] = Reply

		if _, err = sock.SendMessage(msg); err != nil {
			return stopped(err)
		}
	}
	return nil
}

type ClientOptions struct {
	// Pause between a reply and the next request.
	Interval time.Duration
	// Number of requests to send; 0 means until stopped.
	Requests int
	// Called with every reply, if not nil.
	OnReply func(reply []byte)
}

func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{Interval: time.Second}
}

// Runs client i of broker name: sends HELLO and waits for the reply, over and over.
func Client(ctx context.Context, zctx *transport.Context, name string, i int, options *ClientOptions) error {
	if options == nil {
		options = DefaultClientOptions()
	}
	identity := ClientIdentity(name, i)
	logger := log.Component("client").With().Str("identity", identity).Logger()

	sock, err := newReq(zctx, identity, zctx.Address(name, transport.SuffixLocalFrontend))

	if err != nil {
		return fmt.Errorf("client %s: %w", identity, err)
	}
	defer sock.Close()

	for n := 0; options.Requests == 0 || n < options.Requests; n++ {
		if ctx.Err() != nil {
			return nil
		}

		token := log.GetLogToken()
		logger.Debug().Str("token", token).Msg("Sending request")

		if _, err = sock.SendBytes(Request, 0); err != nil {
			return stopped(err)
		}

		reply, err := sock.RecvBytes(0)

		if err != nil {
			return stopped(err)
		}
		logger.Info().Str("token", token).Bytes("reply", reply).Msg("Client received reply")

		if options.OnReply != nil {
			options.OnReply(reply)
		}

		if options.Interval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(options.Interval):
			}
		}
	}
	return nil
}

// Runs workers and clients for broker name until all of them are done.
func Run(ctx context.Context, zctx *transport.Context, name string, workers, clients int, options *ClientOptions) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error { return Worker(ctx, zctx, name, i) })
	}
	for i := 0; i < clients; i++ {
		i := i
		g.Go(func() error { return Client(ctx, zctx, name, i, options) })
	}
	return g.Wait()
}

func framesToStrings(frames [][]byte) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = string(f)
	}
	return out
}
