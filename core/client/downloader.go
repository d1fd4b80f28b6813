package client

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pyropy/lanchunk/core/discovery"
	"github.com/pyropy/lanchunk/core/model"
	"github.com/pyropy/lanchunk/lib/checksum"
	rpc "github.com/pyropy/lanchunk/rpc/chunkserver"
	"go.uber.org/zap"
)

const (
	DefaultDialTimeout  = 3 * time.Second
	DefaultIOTimeout    = 30 * time.Second
	DefaultMaxChunkSize = 64 << 20
)

// Downloader fetches a file chunk by chunk from a set of discovered peers.
type Downloader struct {
	// Port is the chunk server port every peer listens on.
	Port         int
	DialTimeout  time.Duration
	IOTimeout    time.Duration
	MaxChunkSize int

	// History is optional. When set every download attempt is recorded.
	History *History

	log *zap.SugaredLogger
}

func NewDownloader(port int, log *zap.SugaredLogger) *Downloader {
	if port <= 0 {
		port = discovery.DefaultPort
	}

	return &Downloader{
		Port:         port,
		DialTimeout:  DefaultDialTimeout,
		IOTimeout:    DefaultIOTimeout,
		MaxChunkSize: DefaultMaxChunkSize,
		log:          log,
	}
}

// RequestChunk asks a single peer for one chunk over a fresh connection.
// It returns nil data and a nil error when the peer does not have the chunk.
func (d *Downloader) RequestChunk(ctx context.Context, peer model.Peer, fileName string, index int) ([]byte, error) {
	dialer := net.Dialer{Timeout: d.DialTimeout}
	addr := net.JoinHostPort(peer.String(), strconv.Itoa(d.Port))

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if d.IOTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(d.IOTimeout)); err != nil {
			d.log.Warnw("download", "error", err, "status", "setting deadline failed", "peer", addr)
		}
	}

	req := rpc.ChunkRequest{FileName: fileName, ChunkIndex: int32(index)}
	if err := rpc.WriteRequest(conn, req); err != nil {
		return nil, fmt.Errorf("sending request to %s: %w", addr, err)
	}

	return rpc.ReadChunk(conn, d.MaxChunkSize)
}

// DownloadFromPeers collects fileName chunk by chunk, asking peers in order
// for every index, and writes the result to destPath. It returns false with a
// nil error when no peer has the first chunk. The download ends at the first
// index no peer can serve.
func (d *Downloader) DownloadFromPeers(ctx context.Context, peers []model.Peer, fileName, destPath string) (bool, error) {
	rec := model.NewDownloadRecord(fileName, destPath, peers)

	ok, download, err := d.download(ctx, peers, fileName, destPath)
	switch {
	case err != nil:
		rec.Status = model.DownloadFailed
		rec.Error = err.Error()
	case !ok:
		rec.Status = model.DownloadNotFound
	default:
		rec.Status = model.DownloadCompleted
	}
	rec.Chunks = len(download.Collected)
	rec.Bytes = download.Bytes()
	rec.FinishedAt = time.Now()

	d.record(rec)

	return ok, err
}

func (d *Downloader) download(ctx context.Context, peers []model.Peer, fileName, destPath string) (bool, *model.PartialDownload, error) {
	download := model.NewPartialDownload(fileName)
	if len(peers) == 0 {
		return false, download, nil
	}

	d.log.Infow("download", "status", "starting", "file", fileName, "peers", len(peers))

	for {
		if err := ctx.Err(); err != nil {
			return false, download, err
		}

		index := download.NextIndex()
		data := d.fetchFromAny(ctx, peers, fileName, index)
		if data == nil {
			// peers fail once ctx is cancelled, which looks like the end of the file
			if err := ctx.Err(); err != nil {
				d.log.Infow("download", "status", "cancelled", "file", fileName, "chunks", download.NextIndex())
				return false, download, err
			}
			break
		}

		download.Add(model.Chunk{Index: index, Data: data, Hash: checksum.CalculateCheckSum(data)})
	}

	if download.NextIndex() == 0 {
		d.log.Infow("download", "status", "file not available on any peer", "file", fileName)
		return false, download, nil
	}

	if err := reassemble(destPath, download.Collected); err != nil {
		d.log.Errorw("download", "error", err, "status", "writing file failed", "file", fileName, "path", destPath)
		return false, download, err
	}

	d.log.Infow("download", "status", "completed", "file", fileName, "path", destPath, "chunks", download.NextIndex(), "bytes", download.Bytes())

	return true, download, nil
}

// fetchFromAny returns the first non-empty answer for index, or nil when no
// peer has it. Peer failures count as the peer not having the chunk.
func (d *Downloader) fetchFromAny(ctx context.Context, peers []model.Peer, fileName string, index int) []byte {
	for _, peer := range peers {
		data, err := d.RequestChunk(ctx, peer, fileName, index)
		if err != nil {
			d.log.Warnw("download", "error", err, "status", "peer failed", "peer", peer.String(), "file", fileName, "chunk", index)
			continue
		}
		if len(data) == 0 {
			continue
		}

		d.log.Debugw("download", "status", "received chunk", "peer", peer.String(), "file", fileName, "chunk", index, "size", len(data))
		return data
	}

	return nil
}

// record stores rec even when the download was cancelled.
func (d *Downloader) record(rec model.DownloadRecord) {
	if d.History == nil {
		return
	}

	if err := d.History.Put(context.Background(), rec); err != nil {
		d.log.Errorw("download", "error", err, "status", "recording history failed", "id", rec.ID)
	}
}

// reassemble writes the chunks in order to a temporary file next to path and
// renames it over path, replacing any existing file.
func reassemble(path string, chunks []model.Chunk) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".part-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	for _, c := range chunks {
		if _, err = tmp.Write(c.Data); err != nil {
			return err
		}
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
