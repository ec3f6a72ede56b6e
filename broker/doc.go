/*
Package broker implements the routing core of a peering broker: a single event loop
that balances requests over local workers and offloads part of them to peer brokers.

A broker owns four channels:

	local frontend   faces local clients (requests in, replies out)
	local backend    faces local workers (requests out, replies and READY in)
	cloud frontend   faces peer brokers calling us (requests in, replies out)
	cloud backend    faces peer brokers we call (requests out, replies in)

Idle workers are kept in a least-recently-used queue. A worker enters the queue when
it sends READY or a reply, and leaves it when a request is routed to it. Replies
from the local backend are handled before replies from the cloud backend; pending
peer requests are handled before local client requests, so that peers do not starve.
Local client requests are offloaded to a peer according to an OffloadPolicy
(by default one in five, to a uniformly chosen peer).

The loop is strictly single-threaded. The only blocking call is the wait on the
backend multiplexer; it blocks indefinitely while no worker is idle.
*/
package broker
