package meta

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pg-sharding/spqr-insel/pkg/models/datashards"
	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/qdb"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
)

const (
	lockRetries = 5
	lockBackoff = 100 * time.Millisecond
)

// QdbEntityMgr implements EntityMgr on top of the coordinator metadata storage.
type QdbEntityMgr struct {
	db qdb.QDB

	// holder identifies this coordinator in relation locks.
	holder string
}

var _ EntityMgr = &QdbEntityMgr{}

func NewQdbEntityMgr(db qdb.QDB) *QdbEntityMgr {
	return &QdbEntityMgr{
		db:     db,
		holder: uuid.NewString(),
	}
}

// ListDistributions implements distributions.DistributionMgr.
func (m *QdbEntityMgr) ListDistributions(ctx context.Context) ([]*distributions.Distribution, error) {
	list, err := m.db.ListDistributions(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*distributions.Distribution, 0, len(list))
	for _, d := range list {
		ds, err := distributions.DistributionFromDB(d)
		if err != nil {
			return nil, err
		}
		ret = append(ret, ds)
	}
	return ret, nil
}

func (m *QdbEntityMgr) CreateDistribution(ctx context.Context, ds *distributions.Distribution) error {
	return m.db.CreateDistribution(ctx, distributions.DistributionToDB(ds))
}

func (m *QdbEntityMgr) GetDistribution(ctx context.Context, id string) (*distributions.Distribution, error) {
	d, err := m.db.GetDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	return distributions.DistributionFromDB(d)
}

func (m *QdbEntityMgr) GetRelationDistribution(ctx context.Context, relationName string) (*distributions.Distribution, error) {
	d, err := m.db.GetRelationDistribution(ctx, relationName)
	if err != nil {
		return nil, err
	}
	return distributions.DistributionFromDB(d)
}

func (m *QdbEntityMgr) AlterDistributionAttach(ctx context.Context, id string, rels []*distributions.DistributedRelation) error {
	dbRels := make([]*qdb.DistributedRelation, len(rels))
	for i, rel := range rels {
		dbRels[i] = distributions.DistributedRelationToDB(rel)
	}
	return m.db.AlterDistributionAttach(ctx, id, dbRels)
}

// ListKeyRanges implements kr.KeyRangeMgr. Bounds are decoded with the
// bound types of the distribution, see KeyBoundTypes.
func (m *QdbEntityMgr) ListKeyRanges(ctx context.Context, distribution string) ([]*kr.KeyRange, error) {
	ds, err := m.GetDistribution(ctx, distribution)
	if err != nil {
		return nil, err
	}
	colTypes, err := KeyBoundTypes(ds)
	if err != nil {
		return nil, err
	}
	return m.listKeyRanges(ctx, distribution, colTypes)
}

func (m *QdbEntityMgr) listKeyRanges(ctx context.Context, distribution string, colTypes []string) ([]*kr.KeyRange, error) {
	list, err := m.db.ListKeyRanges(ctx, distribution)
	if err != nil {
		return nil, err
	}
	ret := make([]*kr.KeyRange, 0, len(list))
	for _, krdb := range list {
		krg, err := kr.KeyRangeFromDB(krdb, colTypes)
		if err != nil {
			return nil, err
		}
		ret = append(ret, krg)
	}
	return ret, nil
}

func (m *QdbEntityMgr) CreateKeyRange(ctx context.Context, keyRange *kr.KeyRange) error {
	if err := ValidateKeyRangeForCreate(ctx, m, keyRange); err != nil {
		return err
	}
	krdb, err := keyRange.ToDB()
	if err != nil {
		return err
	}
	return m.db.CreateKeyRange(ctx, krdb)
}

func (m *QdbEntityMgr) DropKeyRange(ctx context.Context, krid string) error {
	return m.db.DropKeyRange(ctx, krid)
}

// AddDataShard implements datashards.ShardsMgr.
func (m *QdbEntityMgr) AddDataShard(ctx context.Context, shard *datashards.DataShard) error {
	return m.db.AddShard(ctx, datashards.DataShardToDB(shard))
}

func (m *QdbEntityMgr) ListShards(ctx context.Context) ([]*datashards.DataShard, error) {
	list, err := m.db.ListShards(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*datashards.DataShard, len(list))
	for i, sh := range list {
		ret[i] = datashards.DataShardFromDB(sh)
	}
	return ret, nil
}

func (m *QdbEntityMgr) GetShardInfo(ctx context.Context, shardID string) (*datashards.DataShard, error) {
	sh, err := m.db.GetShard(ctx, shardID)
	if err != nil {
		return nil, err
	}
	return datashards.DataShardFromDB(sh), nil
}

// TargetRelation implements PartitionMetadata.
func (m *QdbEntityMgr) TargetRelation(ctx context.Context, relID string) (*distributions.TargetRelation, error) {
	ds, err := m.GetRelationDistribution(ctx, relID)
	if err != nil {
		return nil, err
	}
	return distributions.TargetRelationFromDistribution(ds, relID)
}

func (m *QdbEntityMgr) PartitionMethod(ctx context.Context, relID string) (distributions.PartitionMethod, error) {
	tr, err := m.TargetRelation(ctx, relID)
	if err != nil {
		return "", err
	}
	return tr.Method, nil
}

func (m *QdbEntityMgr) PartitionColumn(ctx context.Context, relID string) (*distributions.PartitionColumn, error) {
	tr, err := m.TargetRelation(ctx, relID)
	if err != nil {
		return nil, err
	}
	return tr.PartitionColumn, nil
}

func (m *QdbEntityMgr) ListShardIntervals(ctx context.Context, target *distributions.TargetRelation) ([]*kr.KeyRange, error) {
	ds, err := m.db.GetDistribution(ctx, target.Distribution)
	if err != nil {
		return nil, err
	}
	colTypes := append([]string(nil), ds.ColTypes...)
	if target.PartitionColumn != nil && len(colTypes) > 0 {
		bt, err := target.KeyBoundType()
		if err != nil {
			return nil, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION, "relation \"%s\": %w", target.ID, err)
		}
		colTypes[0] = bt
	}
	return m.listKeyRanges(ctx, target.Distribution, colTypes)
}

// ColumnOrdinal implements Catalog.
func (m *QdbEntityMgr) ColumnOrdinal(ctx context.Context, relID string, column string) (int, error) {
	ds, err := m.db.GetRelationDistribution(ctx, relID)
	if err != nil {
		return 0, err
	}
	rel, ok := ds.Relations[relID]
	if !ok {
		return 0, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "relation \"%s\" does not exist", relID)
	}
	for i, col := range rel.Columns {
		if col == column {
			return i + 1, nil
		}
	}
	return 0, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "column \"%s\" of relation \"%s\" does not exist", column, relID)
}

// SubPartitions implements Locker.
func (m *QdbEntityMgr) SubPartitions(ctx context.Context, relID string) ([]string, error) {
	ds, err := m.db.GetRelationDistribution(ctx, relID)
	if err != nil {
		return nil, err
	}
	rel, ok := ds.Relations[relID]
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "relation \"%s\" does not exist", relID)
	}
	return rel.SubPartitions, nil
}

func (m *QdbEntityMgr) unlockAll(ctx context.Context, rels []string) error {
	var err error
	for _, rel := range rels {
		err = multierr.Append(err, m.db.UnlockRelation(ctx, rel, m.holder))
	}
	return err
}

// LockSubPartitions locks every sub-partition of relID. Lock conflicts are
// retried with a constant backoff. Either all sub-partitions end up locked
// or none.
func (m *QdbEntityMgr) LockSubPartitions(ctx context.Context, relID string, mode LockMode) (ReleaseFunc, error) {
	parts, err := m.SubPartitions(ctx, relID)
	if err != nil {
		return nil, err
	}

	exclusive := mode == AccessExclusiveLock
	locked := make([]string, 0, len(parts))

	for _, part := range parts {
		err := retry.Do(ctx, retry.WithMaxRetries(lockRetries, retry.NewConstant(lockBackoff)), func(ctx context.Context) error {
			err := m.db.TryLockRelation(ctx, part, m.holder, exclusive)
			if spqrerror.HasCode(err, spqrerror.SPQR_LOCK_ERROR) {
				return retry.RetryableError(err)
			}
			return err
		})
		if err != nil {
			spqrlog.Zero.Error().
				Err(err).
				Str("relation", part).
				Str("mode", mode.String()).
				Msg("failed to lock sub-partition")
			return nil, multierr.Append(err, m.unlockAll(context.WithoutCancel(ctx), locked))
		}
		locked = append(locked, part)
	}

	spqrlog.Zero.Debug().
		Str("relation", relID).
		Strs("sub-partitions", locked).
		Str("mode", mode.String()).
		Msg("locked sub-partitions")

	return func(ctx context.Context) error {
		return m.unlockAll(ctx, locked)
	}, nil
}
