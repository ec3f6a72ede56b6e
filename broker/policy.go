package broker

import (
	"math/rand"
	"time"
)

// OffloadPolicy decides whether a request from a local client is sent to a peer
// broker instead of a local worker. It is only consulted for such requests, and
// only when peers is not empty.
type OffloadPolicy interface {
	// Returns the identity of the peer to send the request to, or ok == false to
	// keep the request local. peer must be one of peers.
	Offload(peers PeerSet) (peer []byte, ok bool)
}

// Adapter to use a plain function as OffloadPolicy.
type OffloadFunc func(peers PeerSet) ([]byte, bool)

func (f OffloadFunc) Offload(peers PeerSet) ([]byte, bool) {
	return f(peers)
}

// Keeps every request local.
var NeverOffload OffloadPolicy = OffloadFunc(func(PeerSet) ([]byte, bool) { return nil, false })

// One in DefaultOffloadOdds reroutable requests goes to the cloud.
const DefaultOffloadOdds = 5

// RandomOffload sends a request to a uniformly chosen peer with probability 1/odds.
// It is not safe for concurrent use; the broker only calls it from its loop.
type RandomOffload struct {
	rnd  *rand.Rand
	odds int
}

// A nil src seeds from the clock.
func NewRandomOffload(src rand.Source) *RandomOffload {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &RandomOffload{rnd: rand.New(src), odds: DefaultOffloadOdds}
}

// Changes the probability to 1/odds. odds < 1 is treated as 1 (always offload).
func (p *RandomOffload) SetOdds(odds int) *RandomOffload {
	if odds < 1 {
		odds = 1
	}
	p.odds = odds
	return p
}

func (p *RandomOffload) Offload(peers PeerSet) ([]byte, bool) {
	if peers.Len() == 0 || p.rnd.Intn(p.odds) != 0 {
		return nil, false
	}
	return peers.At(p.rnd.Intn(peers.Len())), true
}
