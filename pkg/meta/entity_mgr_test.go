package meta_test

import (
	"context"
	"testing"

	"github.com/pg-sharding/spqr-insel/pkg/config"
	"github.com/pg-sharding/spqr-insel/pkg/meta"
	"github.com/pg-sharding/spqr-insel/pkg/models/datashards"
	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/qdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prepareMgr(t *testing.T) (*meta.QdbEntityMgr, *qdb.MemQDB) {
	t.Helper()
	ctx := context.Background()

	db, err := qdb.NewMemQDB("")
	require.NoError(t, err)
	mgr := meta.NewQdbEntityMgr(db)

	for _, id := range []string{"sh1", "sh2"} {
		require.NoError(t, mgr.AddDataShard(ctx, datashards.NewDataShard(id, &config.ShardConnect{Hosts: []string{id + ":6432"}})))
	}

	ds := distributions.NewDistribution("ds1", []string{qdb.ColumnTypeInteger})
	require.NoError(t, mgr.CreateDistribution(ctx, ds))
	require.NoError(t, mgr.AlterDistributionAttach(ctx, "ds1", []*distributions.DistributedRelation{
		{
			Name:            "orders",
			Method:          distributions.MethodRange,
			DistributionKey: []distributions.DistributionKeyEntry{{Column: "id"}},
			Columns:         []string{"id", "amount", "note"},
			SubPartitions:   []string{"orders_2024", "orders_2025"},
		},
	}))

	for _, krg := range []*kr.KeyRange{
		{ID: "kr1", ShardID: "sh1", Distribution: "ds1", LowerBound: kr.KeyRangeBound{int64(0)}, ColumnTypes: ds.ColTypes},
		{ID: "kr2", ShardID: "sh2", Distribution: "ds1", LowerBound: kr.KeyRangeBound{int64(100)}, ColumnTypes: ds.ColTypes},
	} {
		require.NoError(t, mgr.CreateKeyRange(ctx, krg))
	}
	return mgr, db
}

func TestTargetRelationAndIntervals(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mgr, _ := prepareMgr(t)

	method, err := mgr.PartitionMethod(ctx, "orders")
	assert.NoError(err)
	assert.Equal(distributions.MethodRange, method)

	col, err := mgr.PartitionColumn(ctx, "orders")
	assert.NoError(err)
	assert.Equal("id", col.Column)

	tr, err := mgr.TargetRelation(ctx, "orders")
	assert.NoError(err)

	krs, err := mgr.ListShardIntervals(ctx, tr)
	assert.NoError(err)
	assert.Len(krs, 2)
	assert.Equal(kr.KeyRangeBound{int64(100)}, krs[1].LowerBound)

	_, err = mgr.TargetRelation(ctx, "missing")
	assert.True(spqrerror.HasCode(err, spqrerror.SPQR_OBJECT_NOT_EXIST))
}

func TestColumnOrdinal(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mgr, _ := prepareMgr(t)

	ord, err := mgr.ColumnOrdinal(ctx, "orders", "id")
	assert.NoError(err)
	assert.Equal(1, ord)

	ord, err = mgr.ColumnOrdinal(ctx, "orders", "note")
	assert.NoError(err)
	assert.Equal(3, ord)

	_, err = mgr.ColumnOrdinal(ctx, "orders", "nope")
	assert.True(spqrerror.HasCode(err, spqrerror.SPQR_OBJECT_NOT_EXIST))
}

func TestCreateKeyRangeValidation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mgr, _ := prepareMgr(t)

	colTypes := []string{qdb.ColumnTypeInteger}

	/* same bound as kr2 */
	err := mgr.CreateKeyRange(ctx, &kr.KeyRange{ID: "kr3", ShardID: "sh1", Distribution: "ds1", LowerBound: kr.KeyRangeBound{int64(100)}, ColumnTypes: colTypes})
	assert.Error(err)

	/* duplicate id */
	err = mgr.CreateKeyRange(ctx, &kr.KeyRange{ID: "kr1", ShardID: "sh1", Distribution: "ds1", LowerBound: kr.KeyRangeBound{int64(50)}, ColumnTypes: colTypes})
	assert.Error(err)

	/* unknown shard */
	err = mgr.CreateKeyRange(ctx, &kr.KeyRange{ID: "kr4", ShardID: "sh9", Distribution: "ds1", LowerBound: kr.KeyRangeBound{int64(500)}, ColumnTypes: colTypes})
	assert.Error(err)

	err = mgr.CreateKeyRange(ctx, &kr.KeyRange{ID: "kr5", ShardID: "sh1", Distribution: "ds1", LowerBound: kr.KeyRangeBound{int64(500)}, ColumnTypes: colTypes})
	assert.NoError(err)
}

func TestMatchKeyRange(t *testing.T) {
	assert := assert.New(t)

	types := []string{qdb.ColumnTypeInteger}
	krs := []*kr.KeyRange{
		{ID: "kr2", ShardID: "sh2", LowerBound: kr.KeyRangeBound{int64(100)}},
		{ID: "kr1", ShardID: "sh1", LowerBound: kr.KeyRangeBound{int64(0)}},
		{ID: "kr3", ShardID: "sh3", LowerBound: kr.KeyRangeBound{int64(1000)}},
	}

	assert.Nil(meta.MatchKeyRange(kr.KeyRangeBound{int64(-1)}, types, krs))
	assert.Equal("kr1", meta.MatchKeyRange(kr.KeyRangeBound{int64(0)}, types, krs).ID)
	assert.Equal("kr1", meta.MatchKeyRange(kr.KeyRangeBound{int64(99)}, types, krs).ID)
	assert.Equal("kr2", meta.MatchKeyRange(kr.KeyRangeBound{int64(100)}, types, krs).ID)
	assert.Equal("kr3", meta.MatchKeyRange(kr.KeyRangeBound{int64(1 << 40)}, types, krs).ID)
}

func TestLockSubPartitions(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mgr, db := prepareMgr(t)

	parts, err := mgr.SubPartitions(ctx, "orders")
	assert.NoError(err)
	assert.Equal([]string{"orders_2024", "orders_2025"}, parts)

	release, err := mgr.LockSubPartitions(ctx, "orders", meta.RowExclusiveLock)
	assert.NoError(err)

	/* row exclusive locks are shared between coordinators */
	other := meta.NewQdbEntityMgr(db)
	releaseOther, err := other.LockSubPartitions(ctx, "orders", meta.RowExclusiveLock)
	assert.NoError(err)
	assert.NoError(releaseOther(ctx))

	assert.NoError(db.TryLockRelation(ctx, "orders_2025", "ddl", false))
	assert.Error(db.TryLockRelation(ctx, "orders_2024", "ddl-exclusive", true))

	assert.NoError(release(ctx))
	assert.NoError(db.UnlockRelation(ctx, "orders_2025", "ddl"))
	assert.NoError(db.TryLockRelation(ctx, "orders_2024", "ddl-exclusive", true))
}

func TestLockSubPartitionsConflictReleasesAcquired(t *testing.T) {
	assert := assert.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr, db := prepareMgr(t)

	assert.NoError(db.TryLockRelation(ctx, "orders_2025", "ddl", true))

	_, err := mgr.LockSubPartitions(ctx, "orders", meta.RowExclusiveLock)
	assert.True(spqrerror.HasCode(err, spqrerror.SPQR_LOCK_ERROR))

	/* orders_2024 must have been released */
	assert.NoError(db.TryLockRelation(ctx, "orders_2024", "ddl", true))
}

func TestDefaultShardManager(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mgr, _ := prepareMgr(t)

	ds := distributions.NewDistribution("ds2", []string{qdb.ColumnTypeVarchar})
	assert.NoError(mgr.CreateDistribution(ctx, ds))
	assert.NoError(meta.NewDefaultShardManager(ds, mgr).CreateDefaultShard(ctx, "sh1"))

	krs, err := mgr.ListKeyRanges(ctx, "ds2")
	assert.NoError(err)
	assert.Len(krs, 1)
	assert.Equal("ds2.DEFAULT", krs[0].ID)
	assert.Equal(kr.KeyRangeBound{""}, krs[0].LowerBound)

	lb, err := meta.DefaultRangeLowerBound([]string{qdb.ColumnTypeVarcharHashed})
	assert.NoError(err)
	assert.Equal(kr.KeyRangeBound{uint64(0)}, lb)
}
