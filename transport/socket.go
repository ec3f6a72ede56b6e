package transport

import (
	"fmt"
	"syscall"
	"time"

	"github.com/dermesser/peering/broker"

	zmq "github.com/pebbe/zmq4"
)

// Socket adapts a ZeroMQ socket to broker.Channel. Sends never block: a message
// that cannot be queued immediately fails with EAGAIN.
type Socket struct {
	sock *zmq.Socket
	name string
}

func NewSocket(sock *zmq.Socket, name string) *Socket {
	return &Socket{sock: sock, name: name}
}

func (s *Socket) RecvMessageBytes() ([][]byte, error) {
	msg, err := s.sock.RecvMessageBytes(0)
	return msg, mapError(err)
}

func (s *Socket) SendMessageBytes(frames [][]byte) error {
	_, err := s.sock.SendMessageDontwait(frames)
	return mapError(err)
}

func (s *Socket) Raw() *zmq.Socket {
	return s.sock
}

func (s *Socket) String() string {
	return s.name
}

func (s *Socket) Close() error {
	return s.sock.Close()
}

// Poller adapts zmq.Poller to broker.Multiplexer, reporting readable sockets.
type Poller struct {
	poller  *zmq.Poller
	sockets map[*zmq.Socket]*Socket
}

func NewPoller(sockets ...*Socket) *Poller {
	p := &Poller{poller: zmq.NewPoller(), sockets: make(map[*zmq.Socket]*Socket, len(sockets))}

	for _, s := range sockets {
		p.poller.Add(s.sock, zmq.POLLIN)
		p.sockets[s.sock] = s
	}
	return p
}

func (p *Poller) Poll(timeout time.Duration) ([]broker.Channel, error) {
	polled, err := p.poller.Poll(timeout)

	if err != nil {
		return nil, mapError(err)
	}

	ready := make([]broker.Channel, 0, len(polled))
	for _, s := range polled {
		if s.Events&zmq.POLLIN != 0 {
			ready = append(ready, p.sockets[s.Socket])
		}
	}
	return ready, nil
}

// Context termination (and an interrupted system call, if retrying is disabled)
// mean that the process is shutting down.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch zmq.AsErrno(err) {
	case zmq.ETERM, zmq.Errno(syscall.EINTR):
		return fmt.Errorf("%w: %s", broker.ErrInterrupted, err.Error())
	}
	return err
}

// Reports whether err means that the socket's context was terminated.
func IsInterrupted(err error) bool {
	return err != nil && (zmq.AsErrno(err) == zmq.ETERM || zmq.AsErrno(err) == zmq.Errno(syscall.EINTR))
}
