package model

import (
	"time"

	"github.com/google/uuid"
)

// PartialDownload accumulates chunks received during a single download call.
type PartialDownload struct {
	FileName  string
	Collected []Chunk
}

func NewPartialDownload(fileName string) *PartialDownload {
	return &PartialDownload{
		FileName:  fileName,
		Collected: []Chunk{},
	}
}

// NextIndex is the index of the next chunk to request.
func (d *PartialDownload) NextIndex() int {
	return len(d.Collected)
}

func (d *PartialDownload) Add(c Chunk) {
	d.Collected = append(d.Collected, c)
}

func (d *PartialDownload) Bytes() int64 {
	var n int64
	for _, c := range d.Collected {
		n += int64(len(c.Data))
	}

	return n
}

type DownloadStatus string

const (
	DownloadCompleted DownloadStatus = "completed"
	DownloadNotFound  DownloadStatus = "not_found"
	DownloadFailed    DownloadStatus = "failed"
)

// DownloadRecord is the persisted outcome of one download attempt.
type DownloadRecord struct {
	ID          uuid.UUID      `json:"id"`
	FileName    string         `json:"file_name"`
	Destination string         `json:"destination"`
	Status      DownloadStatus `json:"status"`
	Chunks      int            `json:"chunks"`
	Bytes       int64          `json:"bytes"`
	Peers       []string       `json:"peers"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	Error       string         `json:"error,omitempty"`
}

func NewDownloadRecord(fileName, destination string, peers []Peer) DownloadRecord {
	addrs := make([]string, 0, len(peers))
	for _, p := range peers {
		addrs = append(addrs, p.String())
	}

	return DownloadRecord{
		ID:          uuid.New(),
		FileName:    fileName,
		Destination: destination,
		Peers:       addrs,
		StartedAt:   time.Now(),
	}
}
