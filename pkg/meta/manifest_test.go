package meta_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pg-sharding/spqr-insel/pkg/meta"
	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/qdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestYaml = `
shards:
  - id: sh1
    hosts: ["sh1:6432"]
  - id: sh2
    hosts: ["sh2:6432"]
distributions:
  - id: ds_hash
    column_types: [integer]
    relations:
      - name: orders
        method: hash
        distribution_key:
          - column: id
            hash_function: murmur
        columns: [id, amount]
    key_ranges:
      - id: kr1
        shard: sh1
        lower_bound: ["0"]
      - id: kr2
        shard: sh2
        lower_bound: ["9223372036854775808"]
  - id: ds_ref
    relations:
      - name: settings
        columns: [name, value]
    default_shard: sh1
`

func loadManifest(t *testing.T, content string) *meta.Manifest {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meta.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	mf, err := meta.LoadManifest(path)
	require.NoError(t, err)
	return mf
}

func newEmptyMgr(t *testing.T) *meta.QdbEntityMgr {
	t.Helper()
	db, err := qdb.NewMemQDB("")
	require.NoError(t, err)
	return meta.NewQdbEntityMgr(db)
}

func TestApplyManifest(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mgr := newEmptyMgr(t)
	require.NoError(t, mgr.ApplyManifest(ctx, loadManifest(t, manifestYaml)))

	shards, err := mgr.ListShards(ctx)
	assert.NoError(err)
	assert.Len(shards, 2)

	orders, err := mgr.TargetRelation(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(distributions.MethodHash, orders.Method)
	assert.Equal("id", orders.PartitionColumn.Column)

	krs, err := mgr.ListShardIntervals(ctx, orders)
	assert.NoError(err)
	bounds := map[string]kr.KeyRangeBound{}
	for _, krg := range krs {
		bounds[krg.ID] = krg.LowerBound
	}
	assert.Equal(map[string]kr.KeyRangeBound{
		"kr1": {uint64(0)},
		"kr2": {uint64(1 << 63)},
	}, bounds)

	/* hashed bounds decode the same way outside of routing */
	krs, err = mgr.ListKeyRanges(ctx, "ds_hash")
	assert.NoError(err)
	assert.Len(krs, 2)

	settings, err := mgr.TargetRelation(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(distributions.MethodNone, settings.Method)

	krs, err = mgr.ListShardIntervals(ctx, settings)
	assert.NoError(err)
	require.Len(t, krs, 1)
	assert.Equal("ds_ref.DEFAULT", krs[0].ID)
	assert.Equal("sh1", krs[0].ShardID)
	assert.Empty(krs[0].LowerBound)
}

func TestApplyManifestAgainMovesKeyRanges(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mgr := newEmptyMgr(t)
	mf := loadManifest(t, manifestYaml)
	require.NoError(t, mgr.ApplyManifest(ctx, mf))

	mf.Distributions[0].KeyRanges[1].ShardID = "sh1"
	mf.Distributions[1].DefaultShard = "sh2"
	require.NoError(t, mgr.ApplyManifest(ctx, mf))

	krs, err := mgr.ListKeyRanges(ctx, "ds_hash")
	assert.NoError(err)
	assert.Len(krs, 2)
	for _, krg := range krs {
		assert.Equal("sh1", krg.ShardID)
	}

	krs, err = mgr.ListKeyRanges(ctx, "ds_ref")
	assert.NoError(err)
	require.Len(t, krs, 1)
	assert.Equal("sh2", krs[0].ShardID)
}

func TestApplyManifestErrors(t *testing.T) {
	ctx := context.Background()

	for name, content := range map[string]string{
		"unpartitioned without default shard": `
distributions:
  - id: ds_ref
    relations:
      - name: settings
`,
		"malformed bound": `
shards:
  - id: sh1
distributions:
  - id: ds1
    column_types: [integer]
    relations:
      - name: orders
        method: range
        distribution_key: [{column: id}]
    key_ranges:
      - id: kr1
        shard: sh1
        lower_bound: ["abc"]
`,
		"unknown method": `
distributions:
  - id: ds1
    column_types: [integer]
    relations:
      - name: orders
        method: list
`,
		"unknown shard": `
distributions:
  - id: ds1
    column_types: [integer]
    relations:
      - name: orders
        method: range
        distribution_key: [{column: id}]
    key_ranges:
      - id: kr1
        shard: sh9
        lower_bound: ["0"]
`,
	} {
		t.Run(name, func(t *testing.T) {
			err := newEmptyMgr(t).ApplyManifest(ctx, loadManifest(t, content))
			assert.True(t, spqrerror.HasCode(err, spqrerror.SPQR_INVALID_REQUEST), "%v", err)
		})
	}
}

func TestKeyBoundTypes(t *testing.T) {
	assert := assert.New(t)

	ds := distributions.NewDistribution("ds1", []string{qdb.ColumnTypeInteger, qdb.ColumnTypeVarchar})
	types, err := meta.KeyBoundTypes(ds)
	assert.NoError(err)
	assert.Equal([]string{qdb.ColumnTypeInteger, qdb.ColumnTypeVarchar}, types)

	ds.Relations["orders"] = &distributions.DistributedRelation{
		Name:            "orders",
		Method:          distributions.MethodHash,
		DistributionKey: []distributions.DistributionKeyEntry{{Column: "id", HashFunction: "murmur"}},
	}
	types, err = meta.KeyBoundTypes(ds)
	assert.NoError(err)
	assert.Equal([]string{qdb.ColumnTypeUinteger, qdb.ColumnTypeVarchar}, types)
	assert.Equal([]string{qdb.ColumnTypeInteger, qdb.ColumnTypeVarchar}, ds.ColTypes)

	ds.Relations["events"] = &distributions.DistributedRelation{
		Name:            "events",
		Method:          distributions.MethodRange,
		DistributionKey: []distributions.DistributionKeyEntry{{Column: "id"}},
	}
	_, err = meta.KeyBoundTypes(ds)
	assert.True(spqrerror.HasCode(err, spqrerror.SPQR_METADATA_CORRUPTION))
}
