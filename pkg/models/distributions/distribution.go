package distributions

import (
	"fmt"

	"github.com/pg-sharding/spqr-insel/pkg/models/hashfunction"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/qdb"
)

type PartitionMethod string

const (
	MethodNone   = PartitionMethod("none")
	MethodHash   = PartitionMethod("hash")
	MethodRange  = PartitionMethod("range")
	MethodAppend = PartitionMethod("append")
)

func PartitionMethodFromString(s string) (PartitionMethod, error) {
	switch PartitionMethod(s) {
	case MethodNone, MethodHash, MethodRange, MethodAppend:
		return PartitionMethod(s), nil
	case "":
		return MethodNone, nil
	}
	return "", spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION, "unknown partition method \"%s\"", s)
}

type DistributionKeyEntry struct {
	Column       string
	HashFunction string
}

type DistributedRelation struct {
	Name            string
	Method          PartitionMethod
	DistributionKey []DistributionKeyEntry
	Columns         []string
	SubPartitions   []string
}

func DistributedRelationFromDB(rel *qdb.DistributedRelation) (*DistributedRelation, error) {
	method, err := PartitionMethodFromString(rel.Method)
	if err != nil {
		return nil, err
	}
	ret := &DistributedRelation{
		Name:          rel.Name,
		Method:        method,
		Columns:       rel.Columns,
		SubPartitions: rel.SubPartitions,
	}
	for _, e := range rel.DistributionKey {
		ret.DistributionKey = append(ret.DistributionKey, DistributionKeyEntry{
			Column:       e.Column,
			HashFunction: e.HashFunction,
		})
	}
	return ret, nil
}

func DistributedRelationToDB(rel *DistributedRelation) *qdb.DistributedRelation {
	ret := &qdb.DistributedRelation{
		Name:          rel.Name,
		Method:        string(rel.Method),
		Columns:       rel.Columns,
		SubPartitions: rel.SubPartitions,
	}
	for _, e := range rel.DistributionKey {
		ret.DistributionKey = append(ret.DistributionKey, qdb.DistributionKeyEntry{
			Column:       e.Column,
			HashFunction: e.HashFunction,
		})
	}
	return ret
}

type Distribution struct {
	Id string
	// column types to be used
	ColTypes  []string
	Relations map[string]*DistributedRelation
}

func NewDistribution(id string, coltypes []string) *Distribution {
	return &Distribution{
		Id:        id,
		ColTypes:  coltypes,
		Relations: map[string]*DistributedRelation{},
	}
}

func (s *Distribution) ID() string {
	return s.Id
}

func DistributionFromDB(distr *qdb.Distribution) (*Distribution, error) {
	ret := NewDistribution(distr.ID, distr.ColTypes)
	for name, val := range distr.Relations {
		rel, err := DistributedRelationFromDB(val)
		if err != nil {
			return nil, err
		}
		ret.Relations[name] = rel
	}

	return ret, nil
}

func DistributionToDB(ds *Distribution) *qdb.Distribution {
	ret := qdb.NewDistribution(ds.Id, ds.ColTypes)
	for name, rel := range ds.Relations {
		ret.Relations[name] = DistributedRelationToDB(rel)
	}
	return ret
}

// PartitionColumn is the distribution key column of a partitioned target.
type PartitionColumn struct {
	DistributionKeyEntry

	// ColType is the column type declared by the distribution.
	ColType string
}

// TargetRelation describes the table an INSERT ... SELECT writes into.
type TargetRelation struct {
	ID              string
	Distribution    string
	Method          PartitionMethod
	PartitionColumn *PartitionColumn
	SubPartitions   []string
}

// Validate checks that a partition column is present iff the method requires one.
func (t *TargetRelation) Validate() error {
	if t.Method == MethodNone && t.PartitionColumn != nil {
		return spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION,
			"relation \"%s\" is not partitioned but has partition column \"%s\"", t.ID, t.PartitionColumn.Column)
	}
	if t.Method != MethodNone && t.PartitionColumn == nil {
		return spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION,
			"relation \"%s\" is %s partitioned without a partition column", t.ID, t.Method)
	}
	return nil
}

// TargetRelationFromDistribution builds the target descriptor of relName.
// Only the first distribution key column is used as the partition column.
func TargetRelationFromDistribution(ds *Distribution, relName string) (*TargetRelation, error) {
	rel, ok := ds.Relations[relName]
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST,
			"relation \"%s\" is not attached to distribution \"%s\"", relName, ds.Id)
	}
	ret := &TargetRelation{
		ID:            rel.Name,
		Distribution:  ds.Id,
		Method:        rel.Method,
		SubPartitions: rel.SubPartitions,
	}
	if rel.Method != MethodNone {
		if len(rel.DistributionKey) == 0 || len(ds.ColTypes) == 0 {
			return nil, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION,
				"relation \"%s\" has no distribution key", relName)
		}
		ret.PartitionColumn = &PartitionColumn{
			DistributionKeyEntry: rel.DistributionKey[0],
			ColType:              ds.ColTypes[0],
		}
	}
	return ret, ret.Validate()
}

// KeyHashFunction returns the hash function applied to partition values
// before they are matched against key range bounds.
func (t *TargetRelation) KeyHashFunction() (hashfunction.HashFunctionType, error) {
	if t.PartitionColumn == nil {
		return hashfunction.HashFunctionIdent, nil
	}
	hf, err := hashfunction.HashFunctionByName(t.PartitionColumn.HashFunction)
	if err != nil {
		return 0, err
	}
	switch t.Method {
	case MethodHash:
		if hf == hashfunction.HashFunctionIdent {
			hf = hashfunction.HashFunctionMurmur
		}
	case MethodRange, MethodAppend:
		if hf != hashfunction.HashFunctionIdent {
			return 0, fmt.Errorf("%s partitioning does not allow hash function %s", t.Method, hashfunction.ToString(hf))
		}
	}
	if t.PartitionColumn.ColType == qdb.ColumnTypeVarcharHashed && hf == hashfunction.HashFunctionIdent {
		hf = hashfunction.HashFunctionMurmur
	}
	return hf, nil
}

// KeyBoundType returns the type key range bounds of the target are stored in.
func (t *TargetRelation) KeyBoundType() (string, error) {
	hf, err := t.KeyHashFunction()
	if err != nil {
		return "", err
	}
	if hf != hashfunction.HashFunctionIdent {
		return qdb.ColumnTypeUinteger, nil
	}
	return t.PartitionColumn.ColType, nil
}
