package chunker

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pyropy/lanchunk/core/model"
	"github.com/pyropy/lanchunk/lib/checksum"
)

// DefaultChunkSize must be the same on every cooperating peer, since chunk
// indexes only mean something for a fixed size.
const DefaultChunkSize = 1024 * 1024

var (
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
)

// ChunkFile splits the file at path into chunkSize pieces.
func ChunkFile(path string, chunkSize int) ([]model.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	chunks, err := ChunkReader(f, chunkSize)
	if err != nil {
		return nil, fmt.Errorf("chunking %s: %w", path, err)
	}

	return chunks, nil
}

// ChunkReader reads src sequentially in chunkSize windows. The last chunk may
// be shorter. An empty src produces no chunks.
func ChunkReader(src io.Reader, chunkSize int) ([]model.Chunk, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}

	chunks := []model.Chunk{}
	for index := 0; ; index++ {
		buf := make([]byte, chunkSize)

		n, err := io.ReadFull(src, buf)
		if n == 0 {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("chunk %d read error: %w", index, err)
			}
			break
		}

		data := buf[:n]
		if n < chunkSize {
			// don't pin a full window for the short tail
			data = append([]byte(nil), buf[:n]...)
		}

		chunks = append(chunks, model.Chunk{
			Index: index,
			Data:  data,
			Hash:  checksum.CalculateCheckSum(data),
		})

		// short read means we hit EOF mid-window: that was the last chunk
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chunk %d read error: %w", index, err)
		}
	}

	return chunks, nil
}
