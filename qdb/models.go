package qdb

const (
	ColumnTypeVarchar           = "varchar"
	ColumnTypeVarcharDeprecated = "_varchar"
	ColumnTypeVarcharHashed     = "varchar hashed"
	ColumnTypeInteger           = "integer"
	ColumnTypeUinteger          = "uinteger"
	ColumnTypeUUID              = "uuid"
)

// KeyRange is the stored form of a shard interval. Bounds are kept in their
// text representation and decoded according to the distribution column types.
type KeyRange struct {
	LowerBound     [][]byte `json:"from"`
	ShardID        string   `json:"shard_id"`
	KeyRangeID     string   `json:"key_range_id"`
	DistributionId string   `json:"distribution_id"`
}

type DistributionKeyEntry struct {
	Column       string `json:"column"`
	HashFunction string `json:"hash"`
}

type DistributedRelation struct {
	Name            string                 `json:"name"`
	Method          string                 `json:"method"`
	DistributionKey []DistributionKeyEntry `json:"column_names"`
	// Columns lists the relation attributes in catalog order.
	Columns       []string `json:"columns"`
	SubPartitions []string `json:"sub_partitions,omitempty"`
}

type Distribution struct {
	ID        string                          `json:"id"`
	ColTypes  []string                        `json:"col_types,omitempty"`
	Relations map[string]*DistributedRelation `json:"relations"`
}

func NewDistribution(id string, coltypes []string) *Distribution {
	return &Distribution{
		ID:        id,
		ColTypes:  coltypes,
		Relations: map[string]*DistributedRelation{},
	}
}

type Shard struct {
	ID    string   `json:"id"`
	Hosts []string `json:"hosts"`
}

func NewShard(ID string, hosts []string) *Shard {
	return &Shard{
		ID:    ID,
		Hosts: hosts,
	}
}

// RelationLock describes who currently holds the coordination lock of a relation.
type RelationLock struct {
	Exclusive string              `json:"exclusive,omitempty"`
	Shared    map[string]struct{} `json:"shared,omitempty"`
}

type TwoPCState string

const (
	TwoPhaseInitState  = TwoPCState("init")
	TwoPhasePrepared   = TwoPCState("prepared")
	TwoPhaseCommitting = TwoPCState("committing")
	TwoPhaseCommitted  = TwoPCState("committed")
	TwoPhaseAborted    = TwoPCState("aborted")
)

type TwoPCInfo struct {
	Gid      string     `json:"gid"`
	ShardIDs []string   `json:"shards"`
	State    TwoPCState `json:"state"`
}
