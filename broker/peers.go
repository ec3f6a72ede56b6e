package broker

import (
	"errors"
)

// PeerSet is the immutable set of peer broker identities, fixed at startup.
// The zero value is an empty set.
type PeerSet struct {
	names [][]byte
	index map[string]struct{}
}

// Builds a set from names, keeping the first occurrence of duplicates. An empty
// name is an error, since it cannot be told apart from a delimiter frame.
func NewPeerSet(names ...string) (PeerSet, error) {
	ps := PeerSet{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n == "" {
			return PeerSet{}, errors.New("broker: empty peer identity")
		}
		if _, ok := ps.index[n]; ok {
			continue
		}
		ps.index[n] = struct{}{}
		ps.names = append(ps.names, []byte(n))
	}
	return ps, nil
}

// Reports whether frame is exactly the identity of a configured peer.
func (ps PeerSet) Contains(frame []byte) bool {
	_, ok := ps.index[string(frame)]
	return ok
}

func (ps PeerSet) Len() int {
	return len(ps.names)
}

// Returns the i-th peer in configuration order. The slice must not be modified.
func (ps PeerSet) At(i int) []byte {
	return ps.names[i]
}

func (ps PeerSet) Names() []string {
	names := make([]string, len(ps.names))
	for i, n := range ps.names {
		names[i] = string(n)
	}
	return names
}
