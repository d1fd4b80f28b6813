package model

// Chunk is an indexed slice of a file. Hash is the lowercase hex SHA-256 of
// Data and is computed when the chunk is created.
type Chunk struct {
	Index int
	Data  []byte
	Hash  string
}

func (c Chunk) Size() int {
	return len(c.Data)
}

// ChunkedFile holds the chunks of one file ordered by index.
type ChunkedFile struct {
	FileName string
	Chunks   []Chunk
}

// Chunk returns the chunk at index, or false if index is out of range.
func (f *ChunkedFile) Chunk(index int) (Chunk, bool) {
	if index < 0 || index >= len(f.Chunks) {
		return Chunk{}, false
	}

	return f.Chunks[index], true
}

// Size is the total number of bytes across all chunks.
func (f *ChunkedFile) Size() int64 {
	var size int64
	for _, c := range f.Chunks {
		size += int64(len(c.Data))
	}

	return size
}
