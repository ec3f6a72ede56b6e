package transport

import (
	"github.com/dermesser/peering/broker"
	"github.com/dermesser/peering/log"

	zmq "github.com/pebbe/zmq4"
)

// The four ROUTER sockets of one broker.
type BrokerSockets struct {
	CloudFrontend, CloudBackend *Socket
	LocalFrontend, LocalBackend *Socket
}

/*
Creates and binds/connects the sockets of the broker name:

	cloud frontend  ROUTER, identity name, bound at name-cloud
	cloud backend   ROUTER, identity name, connected to peer-cloud of every peer
	local frontend  ROUTER, bound at name-localfe
	local backend   ROUTER, bound at name-localbe

All sockets must be closed (Close()) before the context can terminate.
*/
func (c *Context) NewBrokerSockets(name string, peers []string) (*BrokerSockets, error) {
	bs := new(BrokerSockets)
	var err error

	bs.CloudFrontend, err = c.newRouter(name, c.Address(name, SuffixCloud), true)

	if err != nil {
		return nil, err
	}

	bs.CloudBackend, err = c.newRouter(name, Address{}, false)

	if err != nil {
		bs.Close()
		return nil, err
	}

	for _, peer := range peers {
		url := c.Address(peer, SuffixCloud).ToUrl()
		log.Log(log.LOGLEVEL_INFO, "Connecting to cloud frontend at", url)

		if err = bs.CloudBackend.sock.Connect(url); err != nil {
			log.Log(log.LOGLEVEL_ERRORS, "Error when connecting to peer", peer, ":", err.Error())
			bs.Close()
			return nil, err
		}
	}

	bs.LocalFrontend, err = c.newRouter("", c.Address(name, SuffixLocalFrontend), true)

	if err != nil {
		bs.Close()
		return nil, err
	}

	bs.LocalBackend, err = c.newRouter("", c.Address(name, SuffixLocalBackend), true)

	if err != nil {
		bs.Close()
		return nil, err
	}

	return bs, nil
}

func (c *Context) newRouter(identity string, addr Address, bind bool) (*Socket, error) {
	sock, err := c.NewSocket(zmq.ROUTER)

	if err != nil {
		log.Log(log.LOGLEVEL_ERRORS, "Error when creating Router socket:", err.Error())
		return nil, err
	}

	if identity != "" {
		if err = sock.SetIdentity(identity); err != nil {
			log.Log(log.LOGLEVEL_ERRORS, "Error when setting identity", identity, ":", err.Error())
			sock.Close()
			return nil, err
		}
	}

	// Report unroutable messages instead of dropping them silently.
	sock.SetRouterMandatory(1)

	name := identity
	if bind {
		url := addr.ToUrl()
		log.Log(log.LOGLEVEL_INFO, "Binding", addr.String(), "to", url)

		if err = sock.Bind(url); err != nil {
			log.Log(log.LOGLEVEL_ERRORS, "Error when binding Router socket:", err.Error())
			sock.Close()
			return nil, err
		}
		name = addr.String()
	}
	return NewSocket(sock, name), nil
}

// The channels and multiplexers to hand to broker.NewBroker().
func (bs *BrokerSockets) Channels() broker.Channels {
	return broker.Channels{
		LocalFrontend: bs.LocalFrontend,
		LocalBackend:  bs.LocalBackend,
		CloudFrontend: bs.CloudFrontend,
		CloudBackend:  bs.CloudBackend,
		Backends:      NewPoller(bs.LocalBackend, bs.CloudBackend),
		Frontends:     NewPoller(bs.LocalFrontend, bs.CloudFrontend),
	}
}

// Closes every socket that was created.
func (bs *BrokerSockets) Close() {
	for _, s := range []*Socket{bs.CloudFrontend, bs.CloudBackend, bs.LocalFrontend, bs.LocalBackend} {
		if s != nil {
			s.Close()
		}
	}
}
