package qdb

import (
	"context"
	"fmt"
)

// DCStateKeeper persists the progress of distributed (two-phase) commits.
type DCStateKeeper interface {
	RecordTwoPhaseMembers(ctx context.Context, gid string, shards []string) error
	ChangeTxStatus(ctx context.Context, gid string, state TwoPCState) error
	GetTwoPhaseTx(ctx context.Context, gid string) (*TwoPCInfo, error)
}

// QDB is the coordinator metadata storage.
type QDB interface {
	CreateDistribution(ctx context.Context, distr *Distribution) error
	GetDistribution(ctx context.Context, id string) (*Distribution, error)
	ListDistributions(ctx context.Context) ([]*Distribution, error)
	AlterDistributionAttach(ctx context.Context, id string, rels []*DistributedRelation) error
	GetRelationDistribution(ctx context.Context, relName string) (*Distribution, error)

	CreateKeyRange(ctx context.Context, keyRange *KeyRange) error
	GetKeyRange(ctx context.Context, id string) (*KeyRange, error)
	DropKeyRange(ctx context.Context, id string) error
	ListKeyRanges(ctx context.Context, distribution string) ([]*KeyRange, error)

	AddShard(ctx context.Context, shard *Shard) error
	GetShard(ctx context.Context, shardID string) (*Shard, error)
	ListShards(ctx context.Context) ([]*Shard, error)

	// TryLockRelation acquires the coordination lock of relName for holder.
	// Shared holders coexist; an exclusive holder excludes everybody else.
	TryLockRelation(ctx context.Context, relName string, holder string, exclusive bool) error
	UnlockRelation(ctx context.Context, relName string, holder string) error

	DCStateKeeper
}

type Config struct {
	Type       string
	Addr       string
	BackupPath string
}

func NewQDB(cfg Config) (QDB, error) {
	switch cfg.Type {
	case "etcd":
		return NewEtcdQDB(cfg.Addr)
	case "mem", "":
		return RestoreQDB(cfg.BackupPath)
	default:
		return nil, fmt.Errorf("qdb implementation %s is invalid", cfg.Type)
	}
}
