package discovery

import (
	"context"
	"net"
)

const (
	// DiscoverMessage is broadcast by a prober looking for chunk servers.
	DiscoverMessage = "DISCOVER_PEERS"
	// ResponseMessage is sent back by every responder that hears a probe.
	ResponseMessage = "PEER_RESPONSE"

	DefaultPort          = 8081
	DefaultBroadcastAddr = "255.255.255.255"

	maxDatagramSize = 1024
)

func listenUDP(ctx context.Context, addr string) (net.PacketConn, error) {
	lc := net.ListenConfig{Control: setBroadcastOpts}

	return lc.ListenPacket(ctx, "udp4", addr)
}
