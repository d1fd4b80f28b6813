package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pyropy/lanchunk/core/model"
	"go.uber.org/zap"
)

const DefaultTimeout = 1500 * time.Millisecond

type Options struct {
	Port int
	// Timeout bounds how long responses are collected after the probe is sent.
	Timeout time.Duration
	// BroadcastAddr is where the probe is sent, 255.255.255.255 by default.
	BroadcastAddr string
}

func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.BroadcastAddr == "" {
		o.BroadcastAddr = DefaultBroadcastAddr
	}

	return o
}

// DiscoverPeers broadcasts a single probe and returns the distinct addresses
// that answered before the timeout. No answers is an empty list, not an error.
func DiscoverPeers(ctx context.Context, opts Options, log *zap.SugaredLogger) ([]model.Peer, error) {
	opts = opts.withDefaults()

	conn, err := listenUDP(ctx, ":0")
	if err != nil {
		return nil, fmt.Errorf("discovery probe socket: %w", err)
	}
	defer conn.Close()

	dst, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(opts.BroadcastAddr, strconv.Itoa(opts.Port)))
	if err != nil {
		return nil, err
	}

	log.Debugw("discovery", "status", "sending broadcast packet", "to", dst.String())
	if _, err := conn.WriteTo([]byte(DiscoverMessage), dst); err != nil {
		return nil, fmt.Errorf("sending discovery probe: %w", err)
	}

	deadline := time.Now().Add(opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			// unblock ReadFrom
			conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	peers := []model.Peer{}
	seen := make(map[string]struct{})
	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			return nil, fmt.Errorf("reading discovery responses: %w", err)
		}

		if string(buf[:n]) != ResponseMessage {
			continue
		}

		udpAddr, ok := from.(*net.UDPAddr)
		if !ok {
			continue
		}

		ip := udpAddr.IP.String()
		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}

		log.Debugw("discovery", "status", "received response", "from", ip)
		peers = append(peers, model.NewPeer(udpAddr.IP))
	}

	log.Infow("discovery", "status", "discovery finished", "peers", len(peers))

	return peers, nil
}
