package meta

import (
	"context"
	"fmt"
	"math"

	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/qdb"
)

const defaultKeyRangeSuffix = "DEFAULT"

// DefaultShardManager maintains the catch-all key range of a distribution.
// Unpartitioned relations live entirely in it.
type DefaultShardManager struct {
	distribution *distributions.Distribution
	mngr         EntityMgr
}

func NewDefaultShardManager(distribution *distributions.Distribution,
	mngr EntityMgr) *DefaultShardManager {
	return &DefaultShardManager{
		distribution: distribution,
		mngr:         mngr,
	}
}

func DefaultKeyRangeId(distrib *distributions.Distribution) string {
	return distrib.Id + "." + defaultKeyRangeSuffix
}

func DefaultRangeLowerBound(colTypes []string) (kr.KeyRangeBound, error) {
	lowerBound := make(kr.KeyRangeBound, len(colTypes))
	for i, colType := range colTypes {
		switch colType {
		case qdb.ColumnTypeVarchar, qdb.ColumnTypeVarcharDeprecated, qdb.ColumnTypeUUID:
			lowerBound[i] = ""
		case qdb.ColumnTypeInteger:
			lowerBound[i] = int64(math.MinInt64)
		case qdb.ColumnTypeUinteger, qdb.ColumnTypeVarcharHashed:
			lowerBound[i] = uint64(0)
		default:
			return nil, fmt.Errorf("unsupported type '%v' for default key range", colType)
		}
	}
	return lowerBound, nil
}

func (manager *DefaultShardManager) keyRangeDefault(defaultShardId string) (*kr.KeyRange, error) {
	colTypes, err := KeyBoundTypes(manager.distribution)
	if err != nil {
		return nil, err
	}
	lowerBound, err := DefaultRangeLowerBound(colTypes)
	if err != nil {
		return nil, err
	}
	return &kr.KeyRange{
		ShardID:      defaultShardId,
		ID:           DefaultKeyRangeId(manager.distribution),
		Distribution: manager.distribution.Id,
		ColumnTypes:  colTypes,
		LowerBound:   lowerBound,
	}, nil
}

// CreateDefaultShard creates the default key range pointing to defaultShardId.
func (manager *DefaultShardManager) CreateDefaultShard(ctx context.Context, defaultShardId string) error {
	keyRange, err := manager.keyRangeDefault(defaultShardId)
	if err != nil {
		return err
	}
	spqrlog.Zero.Debug().
		Str("distribution", manager.distribution.Id).
		Str("shard", defaultShardId).
		Msg("creating default key range")
	return manager.mngr.CreateKeyRange(ctx, keyRange)
}
