package chunkindex

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pyropy/lanchunk/core/chunker"
	"github.com/pyropy/lanchunk/core/model"
	"go.uber.org/zap"
)

// Index maps file names to their chunks. It is populated once by Scan (or New)
// and never mutated afterwards, so any number of goroutines may read it
// without locking. Changes to the directory after the scan are not seen until
// the process restarts.
type Index struct {
	files map[string]*model.ChunkedFile
}

// New builds an index from already chunked files.
func New(files ...model.ChunkedFile) *Index {
	idx := &Index{files: make(map[string]*model.ChunkedFile, len(files))}
	for i := range files {
		f := files[i]
		idx.files[f.FileName] = &f
	}

	return idx
}

// Scan chunks every regular file directly inside dir. Files that fail to chunk
// are logged and left out of the index.
func Scan(dir string, chunkSize int, log *zap.SugaredLogger) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading media dir %s: %w", dir, err)
	}

	idx := &Index{files: make(map[string]*model.ChunkedFile)}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, e.Name())
		chunks, err := chunker.ChunkFile(path, chunkSize)
		if err != nil {
			log.Errorw("scan", "error", err, "file", e.Name())
			continue
		}

		idx.files[e.Name()] = &model.ChunkedFile{
			FileName: e.Name(),
			Chunks:   chunks,
		}
		log.Debugw("scan", "status", "chunked file", "file", e.Name(), "chunks", len(chunks))
	}

	log.Infow("scan", "status", "media dir indexed", "dir", dir, "files", len(idx.files))

	return idx, nil
}

// GetChunk looks up a single chunk. It reports false when the file is unknown
// or index is out of range.
func (idx *Index) GetChunk(fileName string, index int) (model.Chunk, bool) {
	f, ok := idx.files[fileName]
	if !ok {
		return model.Chunk{}, false
	}

	return f.Chunk(index)
}

func (idx *Index) GetFile(fileName string) (*model.ChunkedFile, bool) {
	f, ok := idx.files[fileName]

	return f, ok
}

// Files returns the indexed files sorted by name.
func (idx *Index) Files() []*model.ChunkedFile {
	files := make([]*model.ChunkedFile, 0, len(idx.files))
	for _, f := range idx.files {
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].FileName < files[j].FileName
	})

	return files
}

func (idx *Index) Len() int {
	return len(idx.files)
}
