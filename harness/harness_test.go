package harness

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dermesser/peering/broker"
	"github.com/dermesser/peering/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

// Starts a broker on its own sockets; the returned function waits for its loop to end.
func startBroker(t *testing.T, g *errgroup.Group, ctx context.Context, zctx *transport.Context,
	name string, peers []string, policy broker.OffloadPolicy) *broker.Broker {

	bs, err := zctx.NewBrokerSockets(name, peers)
	require.NoError(t, err)

	ps, err := broker.NewPeerSet(peers...)
	require.NoError(t, err)

	options := broker.DefaultOptions()
	options.Policy = policy
	options.PollInterval = 100 * time.Millisecond

	b, err := broker.NewBroker(name, ps, bs.Channels(), options)
	require.NoError(t, err)

	g.Go(func() error {
		defer bs.Close()
		return b.Run(ctx)
	})
	return b
}

type replies struct {
	mu  sync.Mutex
	got []string
}

func (r *replies) add(reply []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, string(reply))
}

func (r *replies) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestSingleBroker(t *testing.T) {
	defer goleak.VerifyNone(t)

	zctx, err := transport.NewContext(transport.Inproc, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	terminated := zctx.TermOnDone(ctx)

	g := new(errgroup.Group)
	b := startBroker(t, g, ctx, zctx, "DC1", nil, broker.NeverOffload)

	r := new(replies)
	options := &ClientOptions{Requests: 5, OnReply: r.add}

	g.Go(func() error { return Run(ctx, zctx, "DC1", 2, 3, options) })

	require.Eventually(t, func() bool { return r.count() == 15 }, 10*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, g.Wait())
	<-terminated

	for _, reply := range r.got {
		assert.Equal(t, "OK", reply)
	}
	assert.EqualValues(t, 15, b.Stats().RequestsLocal.Load())
	assert.EqualValues(t, 15, b.Stats().RepliesLocal.Load())
	assert.EqualValues(t, 2, b.Stats().ReadySignals.Load())
	assert.Zero(t, b.Stats().RequestsCloud.Load())
}

func TestOffloadToPeer(t *testing.T) {
	defer goleak.VerifyNone(t)

	zctx, err := transport.NewContext(transport.Inproc, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	terminated := zctx.TermOnDone(ctx)

	g := new(errgroup.Group)
	// DC1 sends every local request to DC2; DC2 keeps everything.
	dc2 := startBroker(t, g, ctx, zctx, "DC2", []string{"DC1"}, broker.NeverOffload)
	dc1 := startBroker(t, g, ctx, zctx, "DC1", []string{"DC2"}, broker.NewRandomOffload(nil).SetOdds(1))

	g.Go(func() error { return Worker(ctx, zctx, "DC2", 0) })
	g.Go(func() error { return Worker(ctx, zctx, "DC1", 0) })

	// let the cloud sockets exchange identities
	time.Sleep(200 * time.Millisecond)

	r := new(replies)
	g.Go(func() error {
		return Client(ctx, zctx, "DC1", 0, &ClientOptions{Requests: 3, OnReply: r.add})
	})

	require.Eventually(t, func() bool { return r.count() == 3 }, 10*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, g.Wait())
	<-terminated

	assert.Equal(t, []string{"OK", "OK", "OK"}, r.got)
	assert.EqualValues(t, 3, dc1.Stats().RequestsCloud.Load())
	assert.EqualValues(t, 3, dc1.Stats().RepliesLocal.Load())
	assert.Zero(t, dc1.Stats().RequestsLocal.Load())
	assert.EqualValues(t, 3, dc2.Stats().RequestsFromPeers.Load())
	assert.EqualValues(t, 3, dc2.Stats().RepliesCloud.Load())
}

func TestIdentities(t *testing.T) {
	assert.Equal(t, "Worker-DC1-2", WorkerIdentity("DC1", 2))
	assert.Equal(t, "Client-DC1-0", ClientIdentity("DC1", 0))
}
