package chunkserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pyropy/lanchunk/core/chunkindex"
	"github.com/pyropy/lanchunk/lib/cmap"
	rpc "github.com/pyropy/lanchunk/rpc/chunkserver"
	"go.uber.org/zap"
)

const DefaultIOTimeout = 30 * time.Second

var (
	ErrServerClosed = errors.New("chunk server closed")
)

// ChunkServer answers single chunk requests against a frozen chunk index.
// Every accepted connection gets its own goroutine and carries exactly one
// request.
type ChunkServer struct {
	Index     *chunkindex.Index
	IOTimeout time.Duration

	log   *zap.SugaredLogger
	conns *cmap.Map[net.Conn, struct{}]

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	wg       sync.WaitGroup
}

func NewChunkServer(index *chunkindex.Index, log *zap.SugaredLogger) *ChunkServer {
	return &ChunkServer{
		Index:     index,
		IOTimeout: DefaultIOTimeout,
		log:       log,
		conns:     cmap.NewMap[net.Conn, struct{}](),
	}
}

// Listen binds the TCP listener. A bind failure is returned as is and never
// retried.
func (c *ChunkServer) Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("chunk server listen on %s: %w", addr, err)
	}

	return l, nil
}

// Serve accepts connections on l until the server is closed. It always
// returns a non-nil error; after Close the error is ErrServerClosed.
func (c *ChunkServer) Serve(l net.Listener) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	c.listener = l
	c.mu.Unlock()

	c.log.Infow("startup", "status", "chunk server started", "address", l.Addr().String(), "files", c.Index.Len())

	var backoff time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if c.isClosed() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			backoff = nextBackoff(backoff)
			c.log.Errorw("accept", "error", err, "retryIn", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return ErrServerClosed
		}
		c.conns.Set(conn, struct{}{})
		c.wg.Add(1)
		c.mu.Unlock()

		go func() {
			defer c.wg.Done()
			defer c.conns.Delete(conn)

			c.handleConn(conn)
		}()
	}
}

// ListenAndServe binds addr and serves until ctx is done.
func (c *ChunkServer) ListenAndServe(ctx context.Context, addr string) error {
	l, err := c.Listen(ctx, addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		c.Close()
	}()

	return c.Serve(l)
}

// Close stops the listener, closes connections still being served and waits
// for their workers to return.
func (c *ChunkServer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	l := c.listener
	c.mu.Unlock()

	var err error
	if l != nil {
		err = l.Close()
	}

	c.conns.Range(func(conn net.Conn, _ struct{}) bool {
		conn.Close()
		return true
	})
	c.wg.Wait()

	return err
}

func (c *ChunkServer) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// handleConn serves one request and closes the connection. Any failure is
// logged and only affects this connection.
func (c *ChunkServer) handleConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("chunk request", "error", r, "status", "worker panic", "from", remote)
		}
		conn.Close()
	}()

	if c.IOTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.IOTimeout)); err != nil {
			c.log.Errorw("chunk request", "error", err, "status", "setting deadline failed", "from", remote)
		}
	}

	req, err := rpc.ReadRequest(conn)
	if err != nil {
		c.log.Errorw("chunk request", "error", err, "status", "malformed request", "from", remote)
		return
	}

	c.log.Debugw("chunk request", "file", req.FileName, "chunk", req.ChunkIndex, "from", remote)

	chunk, found := c.Index.GetChunk(req.FileName, int(req.ChunkIndex))
	if !found {
		c.log.Debugw("chunk request", "status", "chunk not found", "file", req.FileName, "chunk", req.ChunkIndex)
		if err := rpc.WriteChunk(conn, nil); err != nil {
			c.log.Errorw("chunk request", "error", err, "status", "write failed", "from", remote)
		}
		return
	}

	if err := rpc.WriteChunk(conn, chunk.Data); err != nil {
		c.log.Errorw("chunk request", "error", err, "status", "write failed", "from", remote)
		return
	}

	c.log.Debugw("chunk request", "status", "served chunk", "file", req.FileName, "chunk", req.ChunkIndex, "size", len(chunk.Data), "hash", chunk.Hash)
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}

	return d
}
