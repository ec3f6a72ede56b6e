package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/dermesser/peering/log"

	zmq "github.com/pebbe/zmq4"
)

// A ZeroMQ context plus the addressing convention of the sockets created in it.
// Terminating it interrupts every blocking call on its sockets.
type Context struct {
	ctx    *zmq.Context
	scheme Scheme
	dir    string
}

func NewContext(scheme Scheme, dir string) (*Context, error) {
	if scheme != IPC && scheme != Inproc {
		return nil, fmt.Errorf("transport: unsupported scheme %q", scheme)
	}

	zctx, err := zmq.NewContext()

	if err != nil {
		log.Log(log.LOGLEVEL_ERRORS, "Error when creating ZeroMQ context:", err.Error())
		return nil, err
	}
	// A signal must not be mistaken for shutdown; shutdown is Term().
	zctx.SetRetryAfterEINTR(true)

	return &Context{ctx: zctx, scheme: scheme, dir: dir}, nil
}

func (c *Context) Address(name, suffix string) Address {
	return BrokerAddress(c.scheme, c.dir, name, suffix)
}

// Creates a socket that discards unsent messages on Close().
func (c *Context) NewSocket(t zmq.Type) (*zmq.Socket, error) {
	sock, err := c.ctx.NewSocket(t)

	if err != nil {
		return nil, err
	}

	if err = sock.SetLinger(0); err != nil {
		sock.Close()
		return nil, err
	}
	return sock, nil
}

// Terminates the context. Blocks until every socket of the context is closed.
func (c *Context) Term() error {
	return c.ctx.Term()
}

/*
Terminates the context once ctx is done. The returned channel is closed when
termination has completed, i.e. after all sockets were closed by their owners
(which notice the termination as ErrInterrupted).
*/
func (c *Context) TermOnDone(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()

		start := time.Now()
		if err := c.ctx.Term(); err != nil {
			log.Log(log.LOGLEVEL_WARNINGS, "Error when terminating ZeroMQ context:", err.Error())
		}
		log.Log(log.LOGLEVEL_DEBUG, "ZeroMQ context terminated after", time.Since(start))
	}()
	return done
}
