package broker

import (
	"sync/atomic"
	"time"

	"github.com/dermesser/peering/proto"
)

// Routing counters. They are only written by the broker loop and may be read
// concurrently, e.g. by a monitor.
type Stats struct {
	IdleWorkers       atomic.Int64
	ReadySignals      atomic.Uint64
	RepliesLocal      atomic.Uint64
	RepliesCloud      atomic.Uint64
	RequestsLocal     atomic.Uint64
	RequestsCloud     atomic.Uint64
	RequestsFromPeers atomic.Uint64
	Dropped           atomic.Uint64
}

func (s *Stats) snapshot(name string, peers PeerSet) *proto.BrokerStats {
	idle := s.IdleWorkers.Load()
	if idle < 0 {
		idle = 0
	}
	return &proto.BrokerStats{
		Name:              name,
		Peers:             peers.Names(),
		IdleWorkers:       uint64(idle),
		ReadySignals:      s.ReadySignals.Load(),
		RepliesLocal:      s.RepliesLocal.Load(),
		RepliesCloud:      s.RepliesCloud.Load(),
		RequestsLocal:     s.RequestsLocal.Load(),
		RequestsCloud:     s.RequestsCloud.Load(),
		RequestsFromPeers: s.RequestsFromPeers.Load(),
		Dropped:           s.Dropped.Load(),
		Timestamp:         time.Now().UnixMicro(),
	}
}
