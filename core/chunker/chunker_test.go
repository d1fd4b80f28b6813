package chunker

import (
	"bytes"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func reassemble(t *testing.T, path string, chunkSize int) ([]byte, int) {
	t.Helper()

	chunks, err := ChunkFile(path, chunkSize)
	require.NoError(t, err)

	var buf bytes.Buffer
	for i, c := range chunks {
		require.Equal(t, i, c.Index)
		buf.Write(c.Data)
	}

	return buf.Bytes(), len(chunks)
}

func TestChunkFileRoundTrip(t *testing.T) {
	testcases := []struct {
		desc       string
		size       int
		chunkSize  int
		wantChunks int
	}{
		{desc: "smaller than one chunk", size: 15, chunkSize: 1024, wantChunks: 1},
		{desc: "exact boundary", size: 1024, chunkSize: 512, wantChunks: 2},
		{desc: "short tail", size: 5000, chunkSize: 1024, wantChunks: 5},
		{desc: "one byte chunks", size: 7, chunkSize: 1, wantChunks: 7},
		{desc: "empty file", size: 0, chunkSize: 1024, wantChunks: 0},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			data := make([]byte, tc.size)
			_, err := rand.Read(data)
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "file.bin")
			require.NoError(t, os.WriteFile(path, data, 0644))

			got, n := reassemble(t, path, tc.chunkSize)
			require.Equal(t, tc.wantChunks, n)
			require.True(t, bytes.Equal(data, got), "reassembled data doesn't match original")
		})
	}
}

func TestChunkSizes(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 2500)

	chunks, err := ChunkReader(bytes.NewReader(data), 1000)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	require.Len(t, chunks[0].Data, 1000)
	require.Len(t, chunks[1].Data, 1000)
	require.Len(t, chunks[2].Data, 500)
}

func TestChunkHash(t *testing.T) {
	// two identical windows hash to the same value, every run
	data := bytes.Repeat([]byte("A"), 2048)

	first, err := ChunkReader(bytes.NewReader(data), 1024)
	require.NoError(t, err)
	second, err := ChunkReader(bytes.NewReader(data), 1024)
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Equal(t, first[0].Hash, first[1].Hash)
	require.Equal(t, first[0].Hash, second[0].Hash)
	require.Len(t, first[0].Hash, 64)

	// hash covers only the chunk bytes, not a running digest
	other, err := ChunkReader(bytes.NewReader(append(bytes.Repeat([]byte("B"), 1024), data[:1024]...)), 1024)
	require.NoError(t, err)
	require.Equal(t, first[0].Hash, other[1].Hash)
}

func TestChunkInvalidSize(t *testing.T) {
	_, err := ChunkReader(bytes.NewReader([]byte("abc")), 0)
	require.ErrorIs(t, err, ErrInvalidChunkSize)
}

func TestChunkFileMissing(t *testing.T) {
	_, err := ChunkFile(filepath.Join(t.TempDir(), "nope.mp4"), DefaultChunkSize)
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

type failingReader struct {
	n int
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n == 0 {
		return 0, errors.New("disk on fire")
	}
	n := len(p)
	if n > r.n {
		n = r.n
	}
	r.n -= n

	return n, nil
}

func TestChunkReadErrorReturnsNoChunks(t *testing.T) {
	chunks, err := ChunkReader(&failingReader{n: 3000}, 1024)
	require.Error(t, err)
	require.Nil(t, chunks)
}
