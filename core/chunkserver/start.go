package chunkserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pyropy/lanchunk/core/chunkindex"
	"github.com/pyropy/lanchunk/core/discovery"
	"go.uber.org/zap"
)

// StartChunkServer serves chunks on TCP port and answers discovery probes on
// the same UDP port. It blocks until ctx is done or the listener fails; a
// bind failure on either socket is returned right away.
func StartChunkServer(ctx context.Context, port int, index *chunkindex.Index, log *zap.SugaredLogger) error {
	return StartChunkServerOn(ctx, fmt.Sprintf(":%d", port), index, DefaultIOTimeout, log)
}

// StartChunkServerOn is StartChunkServer bound to an explicit host:port.
func StartChunkServerOn(ctx context.Context, addr string, index *chunkindex.Index, ioTimeout time.Duration, log *zap.SugaredLogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := NewChunkServer(index, log)
	srv.IOTimeout = ioTimeout

	l, err := srv.Listen(ctx, addr)
	if err != nil {
		return err
	}

	responder, err := discovery.ListenResponder(ctx, addr, log)
	if err != nil {
		l.Close()
		return err
	}

	go func() {
		if err := responder.Serve(ctx); err != nil {
			log.Errorw("discovery", "error", err, "status", "responder stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if ip, err := LocalIPv4(); err == nil {
		log.Infow("startup", "status", "chunk server reachable", "address", ip, "listen", l.Addr().String())
	}

	err = srv.Serve(l)
	if errors.Is(err, ErrServerClosed) {
		return nil
	}

	return err
}
