package injector

import (
	"context"
	"slices"
	"strings"

	"github.com/zeusync/vehicore/internal/core/events/bus"
	"github.com/zeusync/vehicore/internal/core/storage"
	"github.com/zeusync/vehicore/internal/core/variables"
	"github.com/zeusync/vehicore/internal/server"
)

type busReport struct {
	Metrics bus.Metrics     `json:"metrics"`
	Topics  []bus.TopicInfo `json:"topics"`
}

type storageReport struct {
	Statistics     storage.Statistics `json:"statistics"`
	StoredEntities int                `json:"stored_entities"`
}

func busStats(b *bus.Bus[variables.ChangeEvent]) server.StatsSource {
	return func(context.Context) (any, error) {
		topics := b.Topics()
		slices.SortFunc(topics, func(x, y bus.TopicInfo) int { return strings.Compare(x.Name, y.Name) })
		return busReport{Metrics: b.Metrics(), Topics: topics}, nil
	}
}

func storageStats(store storage.VariableStore) server.StatsSource {
	return func(ctx context.Context) (any, error) {
		ids, err := store.Entities(ctx)
		if err != nil {
			return nil, err
		}
		return storageReport{Statistics: store.Statistics(), StoredEntities: len(ids)}, nil
	}
}
