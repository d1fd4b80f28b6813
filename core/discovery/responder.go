package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
)

// Responder answers discovery probes on the chunk server port.
type Responder struct {
	conn net.PacketConn
	log  *zap.SugaredLogger
}

// ListenResponder binds the responder socket on addr (usually ":8081").
func ListenResponder(ctx context.Context, addr string, log *zap.SugaredLogger) (*Responder, error) {
	conn, err := listenUDP(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("discovery responder listen on %s: %w", addr, err)
	}

	return &Responder{conn: conn, log: log}, nil
}

func (r *Responder) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

// Serve replies to every DISCOVER_PEERS datagram until ctx is done or the
// responder is closed. A bad packet or a failed reply never stops the loop.
func (r *Responder) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	r.log.Infow("startup", "status", "discovery responder started", "address", r.LocalAddr().String())

	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			r.log.Errorw("discovery", "error", err, "status", "error receiving broadcast")
			continue
		}

		if string(buf[:n]) != DiscoverMessage {
			r.log.Debugw("discovery", "status", "ignoring datagram", "from", from.String(), "size", n)
			continue
		}

		if _, err := r.conn.WriteTo([]byte(ResponseMessage), from); err != nil {
			r.log.Errorw("discovery", "error", err, "status", "error responding", "to", from.String())
			continue
		}

		r.log.Debugw("discovery", "status", "responded to broadcast", "from", from.String())
	}
}

func (r *Responder) Close() error {
	return r.conn.Close()
}
