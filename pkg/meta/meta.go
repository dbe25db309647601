package meta

import (
	"context"

	"github.com/pg-sharding/spqr-insel/pkg/models/datashards"
	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
)

// PartitionMetadata answers how a relation is partitioned.
type PartitionMetadata interface {
	PartitionMethod(ctx context.Context, relID string) (distributions.PartitionMethod, error)
	PartitionColumn(ctx context.Context, relID string) (*distributions.PartitionColumn, error)
	TargetRelation(ctx context.Context, relID string) (*distributions.TargetRelation, error)
	// ListShardIntervals returns the key ranges of the target, decoded into
	// the type partition values are compared in.
	ListShardIntervals(ctx context.Context, target *distributions.TargetRelation) ([]*kr.KeyRange, error)
}

type Catalog interface {
	// ColumnOrdinal returns the 1-based attribute number of column.
	ColumnOrdinal(ctx context.Context, relID string, column string) (int, error)
}

type LockMode int

const (
	RowExclusiveLock = LockMode(iota)
	AccessExclusiveLock
)

func (m LockMode) String() string {
	switch m {
	case RowExclusiveLock:
		return "RowExclusiveLock"
	case AccessExclusiveLock:
		return "AccessExclusiveLock"
	}
	return "UnknownLock"
}

// ReleaseFunc drops locks acquired earlier.
type ReleaseFunc func(ctx context.Context) error

type Locker interface {
	SubPartitions(ctx context.Context, relID string) ([]string, error)
	LockSubPartitions(ctx context.Context, relID string, mode LockMode) (ReleaseFunc, error)
}

type EntityMgr interface {
	kr.KeyRangeMgr
	datashards.ShardsMgr
	distributions.DistributionMgr

	PartitionMetadata
	Catalog
	Locker
}
