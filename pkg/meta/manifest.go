package meta

import (
	"context"

	"github.com/pg-sharding/spqr-insel/pkg/config"
	"github.com/pg-sharding/spqr-insel/pkg/models/datashards"
	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/qdb"
)

type ShardDefinition struct {
	ID    string   `json:"id" toml:"id" yaml:"id"`
	Hosts []string `json:"hosts" toml:"hosts" yaml:"hosts"`
}

type DistributionKeyDefinition struct {
	Column       string `json:"column" toml:"column" yaml:"column"`
	HashFunction string `json:"hash_function" toml:"hash_function" yaml:"hash_function"`
}

type RelationDefinition struct {
	Name            string                      `json:"name" toml:"name" yaml:"name"`
	Method          string                      `json:"method" toml:"method" yaml:"method"`
	DistributionKey []DistributionKeyDefinition `json:"distribution_key" toml:"distribution_key" yaml:"distribution_key"`
	Columns         []string                    `json:"columns" toml:"columns" yaml:"columns"`
	SubPartitions   []string                    `json:"sub_partitions" toml:"sub_partitions" yaml:"sub_partitions"`
}

// KeyRangeDefinition holds bounds in their text form, hashed bounds
// are written as unsigned integers.
type KeyRangeDefinition struct {
	ID         string   `json:"id" toml:"id" yaml:"id"`
	ShardID    string   `json:"shard" toml:"shard" yaml:"shard"`
	LowerBound []string `json:"lower_bound" toml:"lower_bound" yaml:"lower_bound"`
}

type DistributionDefinition struct {
	ID          string               `json:"id" toml:"id" yaml:"id"`
	ColumnTypes []string             `json:"column_types" toml:"column_types" yaml:"column_types"`
	Relations   []RelationDefinition `json:"relations" toml:"relations" yaml:"relations"`
	KeyRanges   []KeyRangeDefinition `json:"key_ranges" toml:"key_ranges" yaml:"key_ranges"`
	// DefaultShard receives the catch-all key range of the distribution.
	DefaultShard string `json:"default_shard" toml:"default_shard" yaml:"default_shard"`
}

// Manifest is the metadata of a sharded installation as written by an
// operator.
type Manifest struct {
	Shards        []ShardDefinition        `json:"shards" toml:"shards" yaml:"shards"`
	Distributions []DistributionDefinition `json:"distributions" toml:"distributions" yaml:"distributions"`
}

// LoadManifest reads a manifest from a .yaml, .json or .toml file.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if err := config.LoadFile(path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// KeyBoundTypes returns the types key range bounds of ds are stored in.
// Relations hashing their partition values store hashes in the leading column.
func KeyBoundTypes(ds *distributions.Distribution) ([]string, error) {
	ret := append([]string(nil), ds.ColTypes...)
	if len(ret) == 0 {
		return ret, nil
	}

	lead := ""
	for name, rel := range ds.Relations {
		if rel.Method == distributions.MethodNone {
			continue
		}
		tr, err := distributions.TargetRelationFromDistribution(ds, name)
		if err != nil {
			return nil, err
		}
		bt, err := tr.KeyBoundType()
		if err != nil {
			return nil, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION, "relation \"%s\": %w", name, err)
		}
		if lead != "" && lead != bt {
			return nil, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION,
				"relations of distribution \"%s\" disagree on key range bound type: %s and %s", ds.Id, lead, bt)
		}
		lead = bt
	}
	if lead != "" {
		ret[0] = lead
	}
	return ret, nil
}

func relationFromDefinition(def RelationDefinition) (*distributions.DistributedRelation, error) {
	if def.Name == "" {
		return nil, spqrerror.New(spqrerror.SPQR_INVALID_REQUEST, "relation name is empty")
	}
	method, err := distributions.PartitionMethodFromString(def.Method)
	if err != nil {
		return nil, spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "relation \"%s\": %w", def.Name, err)
	}
	rel := &distributions.DistributedRelation{
		Name:          def.Name,
		Method:        method,
		Columns:       def.Columns,
		SubPartitions: def.SubPartitions,
	}
	for _, e := range def.DistributionKey {
		rel.DistributionKey = append(rel.DistributionKey, distributions.DistributionKeyEntry{
			Column:       e.Column,
			HashFunction: e.HashFunction,
		})
	}
	return rel, nil
}

func (m *QdbEntityMgr) applyDistribution(ctx context.Context, def DistributionDefinition) error {
	ds, err := m.GetDistribution(ctx, def.ID)
	switch {
	case spqrerror.HasCode(err, spqrerror.SPQR_OBJECT_NOT_EXIST):
		ds = distributions.NewDistribution(def.ID, def.ColumnTypes)
		if err := m.CreateDistribution(ctx, ds); err != nil {
			return err
		}
	case err != nil:
		return err
	case len(ds.ColTypes) != len(def.ColumnTypes):
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST,
			"distribution \"%s\" already exists with %d columns", def.ID, len(ds.ColTypes))
	}

	var attach []*distributions.DistributedRelation
	onlyUnpartitioned := true
	for _, rdef := range def.Relations {
		rel, err := relationFromDefinition(rdef)
		if err != nil {
			return err
		}
		if rel.Method != distributions.MethodNone {
			onlyUnpartitioned = false
		}
		if _, ok := ds.Relations[rel.Name]; ok {
			continue
		}
		attach = append(attach, rel)
		ds.Relations[rel.Name] = rel
	}
	if len(attach) > 0 {
		if err := m.AlterDistributionAttach(ctx, def.ID, attach); err != nil {
			return err
		}
	}

	if onlyUnpartitioned && len(def.Relations) > 0 && def.DefaultShard == "" && len(def.KeyRanges) != 1 {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST,
			"distribution \"%s\" holds only unpartitioned relations and needs a default shard", def.ID)
	}

	boundTypes, err := KeyBoundTypes(ds)
	if err != nil {
		return err
	}

	existing, err := m.listKeyRanges(ctx, def.ID, boundTypes)
	if err != nil {
		return err
	}
	present := map[string]struct{}{}
	for _, krg := range existing {
		present[krg.ID] = struct{}{}
	}

	for _, kdef := range def.KeyRanges {
		raw := make([][]byte, len(kdef.LowerBound))
		for i, b := range kdef.LowerBound {
			raw[i] = []byte(b)
		}
		krg, err := kr.KeyRangeFromDB(&qdb.KeyRange{
			LowerBound:     raw,
			ShardID:        kdef.ShardID,
			KeyRangeID:     kdef.ID,
			DistributionId: def.ID,
		}, boundTypes)
		if err != nil {
			return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "key range \"%s\": %w", kdef.ID, err)
		}
		if err := m.replaceKeyRange(ctx, krg, present); err != nil {
			return err
		}
	}

	if def.DefaultShard != "" {
		defaultID := DefaultKeyRangeId(ds)
		if _, ok := present[defaultID]; ok {
			if err := m.DropKeyRange(ctx, defaultID); err != nil {
				return err
			}
		}
		if err := NewDefaultShardManager(ds, m).CreateDefaultShard(ctx, def.DefaultShard); err != nil {
			return err
		}
	}
	return nil
}

// replaceKeyRange drops a key range with the same id before creating krg,
// so that applying a manifest again moves bounds and shards.
func (m *QdbEntityMgr) replaceKeyRange(ctx context.Context, krg *kr.KeyRange, present map[string]struct{}) error {
	if _, ok := present[krg.ID]; ok {
		spqrlog.Zero.Debug().Str("key-range", krg.ID).Msg("replacing key range")
		if err := m.DropKeyRange(ctx, krg.ID); err != nil {
			return err
		}
	}
	return m.CreateKeyRange(ctx, krg)
}

// ApplyManifest creates shards, distributions, relations and key ranges
// described by mf. Objects already present are updated.
func (m *QdbEntityMgr) ApplyManifest(ctx context.Context, mf *Manifest) error {
	for _, sh := range mf.Shards {
		if sh.ID == "" {
			return spqrerror.New(spqrerror.SPQR_INVALID_REQUEST, "shard id is empty")
		}
		if err := m.AddDataShard(ctx, datashards.NewDataShard(sh.ID, &config.ShardConnect{Hosts: sh.Hosts})); err != nil {
			return err
		}
	}

	for _, def := range mf.Distributions {
		if err := m.applyDistribution(ctx, def); err != nil {
			return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "failed to apply distribution \"%s\": %w", def.ID, err)
		}
		spqrlog.Zero.Info().
			Str("distribution", def.ID).
			Int("relations", len(def.Relations)).
			Int("key-ranges", len(def.KeyRanges)).
			Msg("applied distribution")
	}
	return nil
}
