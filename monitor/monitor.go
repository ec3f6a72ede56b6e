/*
Package monitor serves a broker's routing counters on the broker's monitor endpoint
(name-monitor), encoded as a proto.BrokerStats message. Any request receives the
current snapshot.

The monitor runs in its own goroutine and only reads the broker's atomic counters;
it never touches the routing state.
*/
package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/dermesser/peering/log"
	"github.com/dermesser/peering/proto"
	"github.com/dermesser/peering/transport"

	pb "github.com/gogo/protobuf/proto"
	zmq "github.com/pebbe/zmq4"
)

// Anything that can report its counters; *broker.Broker implements it.
type Source interface {
	Snapshot() *proto.BrokerStats
}

type Server struct {
	sock   *zmq.Socket
	source Source
	addr   transport.Address
}

// Binds the monitor endpoint of the broker name.
func NewServer(zctx *transport.Context, name string, source Source) (*Server, error) {
	sock, err := zctx.NewSocket(zmq.REP)

	if err != nil {
		return nil, err
	}

	addr := zctx.Address(name, transport.SuffixMonitor)

	if err = sock.Bind(addr.ToUrl()); err != nil {
		log.Log(log.LOGLEVEL_ERRORS, "Error when binding monitor socket:", err.Error())
		sock.Close()
		return nil, err
	}
	return &Server{sock: sock, source: source, addr: addr}, nil
}

/*
Answers requests until the context of the socket is terminated, then closes the
socket and returns nil. Other errors are logged, the request is skipped.
*/
func (srv *Server) Serve() error {
	defer srv.sock.Close()
	log.Log(log.LOGLEVEL_INFO, "Serving stats at", srv.addr.ToUrl())

	for {
		_, err := srv.sock.RecvMessageBytes(0)

		if err != nil {
			if transport.IsInterrupted(err) {
				return nil
			}
			log.Log(log.LOGLEVEL_WARNINGS, "Error when receiving monitor request:", err.Error())
			continue
		}

		buf, err := pb.Marshal(srv.source.Snapshot())

		if err != nil {
			// Let the client time out. We can't do anything (although this isn't supposed to happen)
			log.Log(log.LOGLEVEL_ERRORS, "Error when serializing stats:", err.Error())
			buf = []byte{}
		}

		if _, err = srv.sock.SendBytes(buf, 0); err != nil {
			if transport.IsInterrupted(err) {
				return nil
			}
			log.Log(log.LOGLEVEL_WARNINGS, "Error when sending stats:", err.Error())
		}
	}
}

var ErrTimeout = errors.New("monitor: no answer from broker")

// Asks the broker name for its counters, waiting at most timeout.
func Query(zctx *transport.Context, name string, timeout time.Duration) (*proto.BrokerStats, error) {
	sock, err := zctx.NewSocket(zmq.REQ)

	if err != nil {
		return nil, err
	}
	defer sock.Close()
	sock.SetSndtimeo(timeout)

	if err = sock.Connect(zctx.Address(name, transport.SuffixMonitor).ToUrl()); err != nil {
		return nil, err
	}

	if _, err = sock.Send("STATS", 0); err != nil {
		return nil, fmt.Errorf("monitor: sending request: %w", err)
	}

	poller := zmq.NewPoller()
	poller.Add(sock, zmq.POLLIN)
	polled, err := poller.Poll(timeout)

	if err != nil {
		return nil, fmt.Errorf("monitor: waiting for answer: %w", err)
	}
	if len(polled) == 0 {
		return nil, ErrTimeout
	}

	buf, err := sock.RecvBytes(0)

	if err != nil {
		return nil, fmt.Errorf("monitor: receiving answer: %w", err)
	}

	stats := new(proto.BrokerStats)

	if err = pb.Unmarshal(buf, stats); err != nil {
		return nil, fmt.Errorf("monitor: decoding answer: %w", err)
	}
	return stats, nil
}
