package shardroute

import (
	"context"

	"github.com/pg-sharding/spqr-insel/pkg/meta"
	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/hashfunction"
	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
)

// Router maps projected rows of a statement to shards of the target relation.
// Key ranges are read once, so a value always maps to the same shard for the
// lifetime of a Router.
type Router struct {
	target *distributions.TargetRelation

	partitionColumnIndex int

	hf         hashfunction.HashFunctionType
	colType    string
	boundTypes []string

	krs []*kr.KeyRange
}

// NewRouter loads the shard intervals of target. partitionColumnIndex is
// the position of the partition column in routed rows, -1 if there is none.
func NewRouter(ctx context.Context, mgr meta.PartitionMetadata, target *distributions.TargetRelation, partitionColumnIndex int) (*Router, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	krs, err := mgr.ListShardIntervals(ctx, target)
	if err != nil {
		return nil, err
	}

	r := &Router{
		target:               target,
		partitionColumnIndex: partitionColumnIndex,
		krs:                  krs,
	}

	if target.Method == distributions.MethodNone {
		if len(krs) != 1 {
			return nil, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION,
				"unpartitioned relation \"%s\" must have exactly one shard, found %d key ranges", target.ID, len(krs))
		}
		return r, nil
	}

	if r.hf, err = target.KeyHashFunction(); err != nil {
		return nil, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION, "relation \"%s\": %w", target.ID, err)
	}
	bt, err := target.KeyBoundType()
	if err != nil {
		return nil, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION, "relation \"%s\": %w", target.ID, err)
	}
	r.colType = target.PartitionColumn.ColType
	r.boundTypes = []string{bt}

	spqrlog.Zero.Debug().
		Str("relation", target.ID).
		Str("method", string(target.Method)).
		Str("hash", hashfunction.ToString(r.hf)).
		Int("partition-column", partitionColumnIndex).
		Int("key-ranges-count", len(krs)).
		Msg("prepared partition router")

	return r, nil
}

func (r *Router) Target() *distributions.TargetRelation {
	return r.target
}

// RouteRow returns the shard row belongs to.
func (r *Router) RouteRow(row []any) (kr.ShardKey, error) {
	if r.target.Method == distributions.MethodNone {
		return kr.ShardKey{Name: r.krs[0].ShardID, RW: true}, nil
	}

	if r.partitionColumnIndex < 0 || r.partitionColumnIndex >= len(row) {
		return kr.ShardKey{}, spqrerror.Newf(spqrerror.SPQR_ROUTING_ERROR,
			"partition column of relation \"%s\" is not present in the inserted row", r.target.ID)
	}

	val := row[r.partitionColumnIndex]
	if val == nil {
		return kr.ShardKey{}, spqrerror.Newf(spqrerror.SPQR_ROUTING_ERROR,
			"cannot route NULL value of partition column \"%s\"", r.target.PartitionColumn.Column)
	}

	nv, err := hashfunction.NormalizeValue(val, r.colType)
	if err != nil {
		return kr.ShardKey{}, spqrerror.Newf(spqrerror.SPQR_ROUTING_ERROR, "partition column \"%s\": %w", r.target.PartitionColumn.Column, err)
	}
	key, err := hashfunction.ApplyHashFunction(nv, r.colType, r.hf)
	if err != nil {
		return kr.ShardKey{}, spqrerror.Newf(spqrerror.SPQR_ROUTING_ERROR, "partition column \"%s\": %w", r.target.PartitionColumn.Column, err)
	}

	match := meta.MatchKeyRange(kr.KeyRangeBound{key}, r.boundTypes, r.krs)
	if match == nil {
		spqrlog.Zero.Debug().Interface("key", key).Msg("failed to match key with ranges")
		return kr.ShardKey{}, spqrerror.Newf(spqrerror.SPQR_ROUTING_ERROR,
			"no shard of relation \"%s\" accepts partition value %v", r.target.ID, val)
	}
	return kr.ShardKey{Name: match.ShardID, RW: true}, nil
}
