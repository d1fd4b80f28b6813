package chunkindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pyropy/lanchunk/core/model"
	"github.com/pyropy/lanchunk/lib/logger"
	"github.com/stretchr/testify/require"
)

func testWriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()

	testWriteFile(t, filepath.Join(dir, "a.mp4"), []byte("0123456789"))
	testWriteFile(t, filepath.Join(dir, "b.mp4"), []byte("xyz"))
	testWriteFile(t, filepath.Join(dir, "empty.mp4"), nil)

	// nested files are not part of the index
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	testWriteFile(t, filepath.Join(dir, "nested", "c.mp4"), []byte("nested"))

	idx, err := Scan(dir, 4, logger.Nop())
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())

	a, ok := idx.GetFile("a.mp4")
	require.True(t, ok)
	require.Len(t, a.Chunks, 3)

	c, ok := idx.GetChunk("a.mp4", 2)
	require.True(t, ok)
	require.Equal(t, []byte("89"), c.Data)

	_, ok = idx.GetChunk("a.mp4", 3)
	require.False(t, ok)

	_, ok = idx.GetChunk("c.mp4", 0)
	require.False(t, ok)

	_, ok = idx.GetChunk("empty.mp4", 0)
	require.False(t, ok)

	names := []string{}
	for _, f := range idx.Files() {
		names = append(names, f.FileName)
	}
	require.Equal(t, []string{"a.mp4", "b.mp4", "empty.mp4"}, names)
}

func TestScanSkipsUnreadableFiles(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}

	dir := t.TempDir()
	testWriteFile(t, filepath.Join(dir, "ok.mp4"), []byte("fine"))
	testWriteFile(t, filepath.Join(dir, "locked.mp4"), []byte("secret"))
	require.NoError(t, os.Chmod(filepath.Join(dir, "locked.mp4"), 0))

	idx, err := Scan(dir, 4, logger.Nop())
	require.NoError(t, err)

	_, ok := idx.GetFile("ok.mp4")
	require.True(t, ok)
	_, ok = idx.GetFile("locked.mp4")
	require.False(t, ok)
}

func TestScanMissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"), 4, logger.Nop())
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	idx := New(model.ChunkedFile{
		FileName: "a.mp4",
		Chunks:   []model.Chunk{{Index: 0, Data: []byte("a")}},
	})

	c, ok := idx.GetChunk("a.mp4", 0)
	require.True(t, ok)
	require.Equal(t, []byte("a"), c.Data)
}
