package chunkserver

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Wire format, all integers big-endian:
//
//	request:  uint16 name length | name (UTF-8) | int32 chunk index
//	response: int32 length | length bytes of chunk data
//
// A response length of zero means the file or chunk is not available.

// MaxFileNameLength is the largest name the 2 byte length prefix can carry.
const MaxFileNameLength = math.MaxUint16

var (
	ErrFileNameTooLong = errors.New("file name too long")
	ErrNegativeLength  = errors.New("negative chunk length")
	ErrChunkTooLarge   = errors.New("chunk larger than allowed")
)

type ChunkRequest struct {
	FileName   string
	ChunkIndex int32
}

func WriteRequest(w io.Writer, req ChunkRequest) error {
	name := []byte(req.FileName)
	if len(name) > MaxFileNameLength {
		return ErrFileNameTooLong
	}

	buf := make([]byte, 2+len(name)+4)
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(name)))
	copy(buf[2:], name)
	binary.BigEndian.PutUint32(buf[2+len(name):], uint32(req.ChunkIndex))

	_, err := w.Write(buf)
	return err
}

func ReadRequest(r io.Reader) (ChunkRequest, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
		return ChunkRequest{}, fmt.Errorf("reading name length: %w", err)
	}

	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return ChunkRequest{}, fmt.Errorf("reading name (%d bytes): %w", nameLen, err)
	}

	var index int32
	if err := binary.Read(r, binary.BigEndian, &index); err != nil {
		return ChunkRequest{}, fmt.Errorf("reading chunk index: %w", err)
	}

	return ChunkRequest{FileName: string(name), ChunkIndex: index}, nil
}

// WriteChunk writes a chunk response. A nil or empty data is the not-found
// marker.
func WriteChunk(w io.Writer, data []byte) error {
	if len(data) > math.MaxInt32 {
		return ErrChunkTooLarge
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	_, err := w.Write(data)
	return err
}

// ReadChunk reads a chunk response. It returns nil data for the not-found
// marker. maxSize bounds the allocation, zero means no bound.
func ReadChunk(r io.Reader, maxSize int) ([]byte, error) {
	var length int32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("reading chunk length: %w", err)
	}

	if length < 0 {
		return nil, ErrNegativeLength
	}
	if length == 0 {
		return nil, nil
	}
	if maxSize > 0 && int(length) > maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrChunkTooLarge, length, maxSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("reading chunk data (%d bytes): %w", length, err)
	}

	return data, nil
}
