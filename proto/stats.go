// Package proto contains the messages exchanged with a broker's monitor endpoint.
// The types mirror stats.proto and are (un)marshalled with gogo/protobuf.
package proto

import (
	pb "github.com/gogo/protobuf/proto"
)

type BrokerStats struct {
	Name              string   `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Peers             []string `protobuf:"bytes,2,rep,name=peers,proto3" json:"peers,omitempty"`
	IdleWorkers       uint64   `protobuf:"varint,3,opt,name=idle_workers,json=idleWorkers,proto3" json:"idle_workers,omitempty"`
	ReadySignals      uint64   `protobuf:"varint,4,opt,name=ready_signals,json=readySignals,proto3" json:"ready_signals,omitempty"`
	RepliesLocal      uint64   `protobuf:"varint,5,opt,name=replies_local,json=repliesLocal,proto3" json:"replies_local,omitempty"`
	RepliesCloud      uint64   `protobuf:"varint,6,opt,name=replies_cloud,json=repliesCloud,proto3" json:"replies_cloud,omitempty"`
	RequestsLocal     uint64   `protobuf:"varint,7,opt,name=requests_local,json=requestsLocal,proto3" json:"requests_local,omitempty"`
	RequestsCloud     uint64   `protobuf:"varint,8,opt,name=requests_cloud,json=requestsCloud,proto3" json:"requests_cloud,omitempty"`
	RequestsFromPeers uint64   `protobuf:"varint,9,opt,name=requests_from_peers,json=requestsFromPeers,proto3" json:"requests_from_peers,omitempty"`
	Dropped           uint64   `protobuf:"varint,10,opt,name=dropped,proto3" json:"dropped,omitempty"`
	Timestamp         int64    `protobuf:"varint,11,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

func (m *BrokerStats) Reset()         { *m = BrokerStats{} }
func (m *BrokerStats) String() string { return pb.CompactTextString(m) }
func (*BrokerStats) ProtoMessage()    {}

func (m *BrokerStats) GetName() string {
	if m != nil {
		return m.Name
	}
	return ""
}

func (m *BrokerStats) GetPeers() []string {
	if m != nil {
		return m.Peers
	}
	return nil
}

func (m *BrokerStats) GetIdleWorkers() uint64 {
	if m != nil {
		return m.IdleWorkers
	}
	return 0
}

func (m *BrokerStats) GetRequestsLocal() uint64 {
	if m != nil {
		return m.RequestsLocal
	}
	return 0
}

func (m *BrokerStats) GetRequestsCloud() uint64 {
	if m != nil {
		return m.RequestsCloud
	}
	return 0
}

func (m *BrokerStats) GetTimestamp() int64 {
	if m != nil {
		return m.Timestamp
	}
	return 0
}

func init() {
	pb.RegisterType((*BrokerStats)(nil), "peering.BrokerStats")
}
