package client

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	ds "github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"
	dslvl "github.com/ipfs/go-ds-leveldb"
	"github.com/pyropy/lanchunk/core/model"
)

const downloadsPrefix = "/downloads"

// History keeps a record of every download attempt in a local leveldb store.
type History struct {
	Downloads *dslvl.Datastore
}

func OpenHistory(dsPath string) (*History, error) {
	store, err := dslvl.NewDatastore(dsPath, nil)
	if err != nil {
		return nil, err
	}

	return &History{
		Downloads: store,
	}, nil
}

func downloadKey(id uuid.UUID) ds.Key {
	return ds.NewKey(downloadsPrefix).ChildString(id.String())
}

func (h *History) Put(ctx context.Context, rec model.DownloadRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return h.Downloads.Put(ctx, downloadKey(rec.ID), b)
}

func (h *History) Get(ctx context.Context, id uuid.UUID) (*model.DownloadRecord, error) {
	b, err := h.Downloads.Get(ctx, downloadKey(id))
	if err != nil {
		return nil, err
	}

	var rec model.DownloadRecord
	err = json.Unmarshal(b, &rec)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// All returns every recorded attempt, oldest first.
func (h *History) All(ctx context.Context) ([]model.DownloadRecord, error) {
	q := dsq.Query{Prefix: downloadsPrefix}
	records := make([]model.DownloadRecord, 0)

	res, err := h.Downloads.Query(ctx, q)
	if err != nil {
		return records, err
	}
	defer res.Close()

	for {
		r, hasNext := res.NextSync()
		if !hasNext {
			break
		}
		if r.Error != nil {
			return records, r.Error
		}

		var rec model.DownloadRecord
		err = json.Unmarshal(r.Value, &rec)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})

	return records, nil
}

func (h *History) Close() error {
	return h.Downloads.Close()
}
