package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dermesser/peering/broker"

	zmq "github.com/pebbe/zmq4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestAddress(t *testing.T) {
	assert.Equal(t, "ipc://DC1-cloud.ipc", BrokerAddress(IPC, "", "DC1", SuffixCloud).ToUrl())
	assert.Equal(t, "ipc:///tmp/b/DC1-localfe.ipc", BrokerAddress(IPC, "/tmp/b", "DC1", SuffixLocalFrontend).ToUrl())
	assert.Equal(t, "inproc://DC2-localbe", BrokerAddress(Inproc, "", "DC2", SuffixLocalBackend).ToUrl())
	assert.Equal(t, "DC2-localbe", BrokerAddress(Inproc, "", "DC2", SuffixLocalBackend).String())
	assert.Equal(t, "", BrokerAddress("tcp", "", "DC2", SuffixCloud).ToUrl())
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("")
	require.NoError(t, err)
	assert.Equal(t, IPC, s)

	s, err = ParseScheme("inproc")
	require.NoError(t, err)
	assert.Equal(t, Inproc, s)

	_, err = ParseScheme("tcp")
	assert.Error(t, err)
}

func TestBrokerSocketsRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	zctx, err := NewContext(Inproc, "")
	require.NoError(t, err)

	bs, err := zctx.NewBrokerSockets("rt", nil)
	require.NoError(t, err)
	channels := bs.Channels()

	worker, err := zctx.NewSocket(zmq.REQ)
	require.NoError(t, err)
	require.NoError(t, worker.SetIdentity("w1"))
	require.NoError(t, worker.Connect(zctx.Address("rt", SuffixLocalBackend).ToUrl()))

	_, err = worker.SendMessage("READY")
	require.NoError(t, err)

	ready, err := channels.Backends.Poll(5 * time.Second)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, broker.Channel(bs.LocalBackend), ready[0])

	msg, err := bs.LocalBackend.RecvMessageBytes()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("w1"), {}, []byte("READY")}, msg)

	require.NoError(t, bs.LocalBackend.SendMessageBytes([][]byte{[]byte("w1"), {}, []byte("c1"), {}, []byte("HELLO")}))
	got, err := worker.RecvMessage(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "", "HELLO"}, got)

	// unknown addresses are reported, not silently dropped
	err = bs.LocalBackend.SendMessageBytes([][]byte{[]byte("nobody"), {}, []byte("x")})
	assert.Error(t, err)

	ready, err = channels.Frontends.Poll(0)
	require.NoError(t, err)
	assert.Empty(t, ready)

	worker.Close()
	bs.Close()
	require.NoError(t, zctx.Term())
}

func TestTerminationInterruptsPoll(t *testing.T) {
	defer goleak.VerifyNone(t)

	zctx, err := NewContext(Inproc, "")
	require.NoError(t, err)

	bs, err := zctx.NewBrokerSockets("term", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := zctx.TermOnDone(ctx)

	polled := make(chan error, 1)
	go func() {
		_, err := bs.Channels().Backends.Poll(-1)
		bs.Close()
		polled <- err
	}()

	cancel()

	select {
	case err = <-polled:
	case <-time.After(10 * time.Second):
		t.Fatal("poll was not interrupted")
	}
	assert.True(t, errors.Is(err, broker.ErrInterrupted), "got %v", err)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("context did not terminate")
	}
}

func TestIsInterrupted(t *testing.T) {
	assert.False(t, IsInterrupted(nil))
	assert.False(t, IsInterrupted(errors.New("boom")))
	assert.True(t, IsInterrupted(zmq.ETERM))
	assert.True(t, errors.Is(mapError(zmq.ETERM), broker.ErrInterrupted))
	assert.Nil(t, mapError(nil))
}
