package selectinto

import (
	"context"

	"github.com/pg-sharding/spqr-insel/pkg/datashard"
	"github.com/pg-sharding/spqr-insel/pkg/meta"
	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/plan"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/router/pgcopy"
	"github.com/pg-sharding/spqr-insel/router/shardroute"
)

// QueryExecutor runs a SELECT and hands every produced row to r.
// Execution stops at the first error returned by r.
type QueryExecutor interface {
	ExecuteInto(ctx context.Context, q *plan.SelectQuery, r pgcopy.Receiver) error
}

type ModificationMarker interface {
	MarkDataModified()
}

type Metadata interface {
	meta.PartitionMetadata
	meta.Catalog
}

// Driver runs the SELECT of an INSERT ... SELECT straight into the shards
// of the target relation.
type Driver struct {
	mgr      Metadata
	executor QueryExecutor
	provider datashard.WriterProvider
	marker   ModificationMarker

	batchSize int
}

func NewDriver(mgr Metadata, executor QueryExecutor, provider datashard.WriterProvider, marker ModificationMarker, batchSize int) *Driver {
	return &Driver{
		mgr:       mgr,
		executor:  executor,
		provider:  provider,
		marker:    marker,
		batchSize: batchSize,
	}
}

// PartitionColumnIndex returns the position in targetList of the entry
// writing the partition column of target, or -1 if no entry does.
func PartitionColumnIndex(ctx context.Context, catalog meta.Catalog, target *distributions.TargetRelation, targetList []*plan.TargetEntry) (int, error) {
	if target.PartitionColumn == nil {
		return -1, nil
	}
	partOrd, err := catalog.ColumnOrdinal(ctx, target.ID, target.PartitionColumn.Column)
	if err != nil {
		return -1, err
	}

	idx := -1
	for i, te := range targetList {
		ord, err := catalog.ColumnOrdinal(ctx, target.ID, te.ResName)
		if err != nil {
			return -1, err
		}
		if ord != partOrd {
			continue
		}
		if idx != -1 {
			return -1, spqrerror.Newf(spqrerror.SPQR_UNEXPECTED,
				"partition column \"%s\" of relation \"%s\" is written twice", target.PartitionColumn.Column, target.ID)
		}
		idx = i
	}
	return idx, nil
}

// Run executes selectQuery, writing its rows to relation targetRelationID.
// With a non-empty prefix, rows land in per-shard intermediate results
// instead of the relation itself.
func (d *Driver) Run(ctx context.Context, targetRelationID string, targetList []*plan.TargetEntry, selectQuery *plan.SelectQuery, prefix string) (*pgcopy.SinkSummary, error) {
	target, err := d.mgr.TargetRelation(ctx, targetRelationID)
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(targetList))
	for i, te := range targetList {
		columns[i] = te.ResName
	}

	partIdx, err := PartitionColumnIndex(ctx, d.mgr, target, targetList)
	if err != nil {
		return nil, err
	}

	router, err := shardroute.NewRouter(ctx, d.mgr, target, partIdx)
	if err != nil {
		return nil, err
	}

	receiver, err := pgcopy.NewDestReceiver(ctx, pgcopy.CopyState{
		Target:                     target,
		Router:                     router,
		ColumnNames:                columns,
		PartitionColumnIndex:       partIdx,
		IntermediateResultIDPrefix: prefix,
		StopOnFailure:              target.Method == distributions.MethodNone,
		BatchSize:                  d.batchSize,
	}, d.provider)
	if err != nil {
		return nil, err
	}

	if err := d.executor.ExecuteInto(ctx, selectQuery.Copy(), receiver); err != nil {
		receiver.Abort()
		return nil, err
	}

	summary, err := receiver.Close(ctx)
	if err != nil {
		return nil, err
	}
	d.marker.MarkDataModified()

	spqrlog.Zero.Debug().
		Str("relation", target.ID).
		Uint64("rows", summary.RowsSent).
		Strs("shards", summary.TouchedShards.List()).
		Msg("select into relation finished")

	return summary, nil
}
