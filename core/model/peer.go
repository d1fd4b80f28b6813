package model

import "net"

// Peer is a device that answered a discovery probe. It is only valid for the
// duration of one download attempt.
type Peer struct {
	Addr net.IP
}

func NewPeer(ip net.IP) Peer {
	return Peer{Addr: ip}
}

func (p Peer) String() string {
	return p.Addr.String()
}
