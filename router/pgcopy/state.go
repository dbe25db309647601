package pgcopy

import (
	"context"
	"fmt"
	"sort"

	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
)

// RowRouter maps a row to the shard it must be written to.
type RowRouter interface {
	RouteRow(row []any) (kr.ShardKey, error)
}

type CopyState struct {
	Target *distributions.TargetRelation
	Router RowRouter

	/* Columns of written rows, in row order */
	ColumnNames          []string
	PartitionColumnIndex int

	/* When set, rows go to per-shard intermediate results */
	IntermediateResultIDPrefix string

	StopOnFailure bool
	BatchSize     int
}

// IntermediateResultName is the name of the intermediate result holding
// rows of shardID for results with the given prefix.
func IntermediateResultName(prefix string, shardID string) string {
	return fmt.Sprintf("%s_%s", prefix, shardID)
}

// ShardSet is a set of shard ids. Shards are never removed from it.
type ShardSet struct {
	shards map[string]struct{}
}

func NewShardSet(ids ...string) *ShardSet {
	s := &ShardSet{shards: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether it was not present before.
func (s *ShardSet) Add(id string) bool {
	if s.shards == nil {
		s.shards = map[string]struct{}{}
	}
	if _, ok := s.shards[id]; ok {
		return false
	}
	s.shards[id] = struct{}{}
	return true
}

func (s *ShardSet) Contains(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.shards[id]
	return ok
}

func (s *ShardSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.shards)
}

// List returns the shard ids in sorted order.
func (s *ShardSet) List() []string {
	if s == nil {
		return nil
	}
	ret := make([]string, 0, len(s.shards))
	for id := range s.shards {
		ret = append(ret, id)
	}
	sort.Strings(ret)
	return ret
}

// SinkSummary describes what a DestReceiver delivered.
type SinkSummary struct {
	RowsSent      uint64
	TouchedShards *ShardSet
}

// Receiver consumes rows of a SELECT.
type Receiver interface {
	Receive(ctx context.Context, row []any) error
}
