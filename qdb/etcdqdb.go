package qdb

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/clientv3util"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type EtcdQDB struct {
	cli *clientv3.Client
}

var _ QDB = &EtcdQDB{}

func NewEtcdQDB(addr string) (*EtcdQDB, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{addr},
		DialTimeout: 5 * time.Second,
		DialOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
	})
	if err != nil {
		return nil, err
	}

	spqrlog.Zero.Debug().
		Str("address", addr).
		Uint("client", spqrlog.GetPointer(cli)).
		Msg("etcdqdb: NewEtcdQDB")

	return &EtcdQDB{
		cli: cli,
	}, nil
}

const (
	keyRangesNamespace       = "/keyranges/"
	distributionNamespace    = "/distributions/"
	shardsNamespace          = "/shards/"
	relationMappingNamespace = "/relation_mappings/"
	relationLocksNamespace   = "/relation_locks/"
	twoPhaseTxNamespace      = "/two_phase_txs/"
)

func keyRangeNodePath(key string) string {
	return path.Join(keyRangesNamespace, key)
}

func shardNodePath(key string) string {
	return path.Join(shardsNamespace, key)
}

func distributionNodePath(key string) string {
	return path.Join(distributionNamespace, key)
}

func relationMappingNodePath(key string) string {
	return path.Join(relationMappingNamespace, key)
}

func relationExclusiveLockPath(rel string) string {
	return path.Join(relationLocksNamespace, rel, "exclusive")
}

func relationSharedLockPrefix(rel string) string {
	return path.Join(relationLocksNamespace, rel, "shared") + "/"
}

func twoPhaseTxNodePath(gid string) string {
	return path.Join(twoPhaseTxNamespace, gid)
}

func (q *EtcdQDB) Client() *clientv3.Client {
	return q.cli
}

func (q *EtcdQDB) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	resp, err := q.cli.Put(ctx, key, string(raw))
	if err != nil {
		return err
	}
	spqrlog.Zero.Debug().
		Str("key", key).
		Int64("revision", resp.Header.GetRevision()).
		Msg("etcdqdb: put")
	return nil
}

// getJSON fetches key into v. It reports false when the key is absent.
func (q *EtcdQDB) getJSON(ctx context.Context, key string, v any) (bool, error) {
	resp, err := q.cli.Get(ctx, key)
	if err != nil {
		return false, err
	}
	switch len(resp.Kvs) {
	case 0:
		return false, nil
	case 1:
		return true, json.Unmarshal(resp.Kvs[0].Value, v)
	default:
		return false, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION, "possible data corruption: multiple key-value pairs found for %v", key)
	}
}

// ==============================================================================
//                               DISTRIBUTIONS
// ==============================================================================

func (q *EtcdQDB) CreateDistribution(ctx context.Context, distribution *Distribution) error {
	spqrlog.Zero.Debug().
		Str("id", distribution.ID).
		Msg("etcdqdb: add distribution")

	if distribution.Relations == nil {
		distribution.Relations = map[string]*DistributedRelation{}
	}
	if err := q.putJSON(ctx, distributionNodePath(distribution.ID), distribution); err != nil {
		return err
	}
	for name := range distribution.Relations {
		if _, err := q.cli.Put(ctx, relationMappingNodePath(name), distribution.ID); err != nil {
			return err
		}
	}
	return nil
}

func (q *EtcdQDB) GetDistribution(ctx context.Context, id string) (*Distribution, error) {
	spqrlog.Zero.Debug().
		Str("id", id).
		Msg("etcdqdb: get distribution by id")

	var distrib Distribution
	ok, err := q.getJSON(ctx, distributionNodePath(id), &distrib)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "distribution \"%s\" not found", id)
	}
	if distrib.Relations == nil {
		distrib.Relations = map[string]*DistributedRelation{}
	}
	return &distrib, nil
}

func (q *EtcdQDB) ListDistributions(ctx context.Context) ([]*Distribution, error) {
	spqrlog.Zero.Debug().Msg("etcdqdb: list distributions")

	resp, err := q.cli.Get(ctx, distributionNamespace, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	dds := make([]*Distribution, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var distr *Distribution
		if err := json.Unmarshal(kv.Value, &distr); err != nil {
			return nil, err
		}
		dds = append(dds, distr)
	}

	sort.Slice(dds, func(i, j int) bool {
		return dds[i].ID < dds[j].ID
	})
	return dds, nil
}

func (q *EtcdQDB) AlterDistributionAttach(ctx context.Context, id string, rels []*DistributedRelation) error {
	spqrlog.Zero.Debug().
		Str("id", id).
		Msg("etcdqdb: attach table to distribution")

	distribution, err := q.GetDistribution(ctx, id)
	if err != nil {
		return err
	}

	for _, rel := range rels {
		if _, err := q.GetRelationDistribution(ctx, rel.Name); err == nil {
			return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "relation \"%s\" is already attached", rel.Name)
		} else if !spqrerror.HasCode(err, spqrerror.SPQR_OBJECT_NOT_EXIST) {
			return err
		}
		distribution.Relations[rel.Name] = rel
	}

	return q.CreateDistribution(ctx, distribution)
}

func (q *EtcdQDB) GetRelationDistribution(ctx context.Context, relName string) (*Distribution, error) {
	spqrlog.Zero.Debug().
		Str("relation", relName).
		Msg("etcdqdb: get distribution for relation")

	resp, err := q.cli.Get(ctx, relationMappingNodePath(relName))
	if err != nil {
		return nil, err
	}
	switch len(resp.Kvs) {
	case 0:
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "distribution for relation \"%s\" not found", relName)
	case 1:
		return q.GetDistribution(ctx, string(resp.Kvs[0].Value))
	default:
		return nil, spqrerror.NewByCode(spqrerror.SPQR_METADATA_CORRUPTION)
	}
}

// ==============================================================================
//                                 KEY RANGES
// ==============================================================================

func (q *EtcdQDB) CreateKeyRange(ctx context.Context, keyRange *KeyRange) error {
	spqrlog.Zero.Debug().
		Interface("key-range", keyRange).
		Msg("etcdqdb: add key range")

	raw, err := json.Marshal(keyRange)
	if err != nil {
		return err
	}

	nodePath := keyRangeNodePath(keyRange.KeyRangeID)
	stat, err := q.cli.Txn(ctx).
		If(clientv3util.KeyMissing(nodePath)).
		Then(clientv3.OpPut(nodePath, string(raw))).
		Commit()
	if err != nil {
		return err
	}
	if !stat.Succeeded {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "key range \"%s\" already exists", keyRange.KeyRangeID)
	}
	return nil
}

func (q *EtcdQDB) GetKeyRange(ctx context.Context, id string) (*KeyRange, error) {
	spqrlog.Zero.Debug().
		Str("id", id).
		Msg("etcdqdb: get key range")

	var ret KeyRange
	ok, err := q.getJSON(ctx, keyRangeNodePath(id), &ret)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "no key range found at %v", keyRangeNodePath(id))
	}
	return &ret, nil
}

func (q *EtcdQDB) DropKeyRange(ctx context.Context, id string) error {
	spqrlog.Zero.Debug().
		Str("id", id).
		Msg("etcdqdb: drop key range")

	_, err := q.cli.Delete(ctx, keyRangeNodePath(id))
	return err
}

func (q *EtcdQDB) ListKeyRanges(ctx context.Context, distribution string) ([]*KeyRange, error) {
	spqrlog.Zero.Debug().
		Str("distribution", distribution).
		Msg("etcdqdb: list key ranges")

	resp, err := q.cli.Get(ctx, keyRangesNamespace, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	keyRanges := make([]*KeyRange, 0, len(resp.Kvs))
	for _, e := range resp.Kvs {
		var kr *KeyRange
		if err := json.Unmarshal(e.Value, &kr); err != nil {
			return nil, err
		}
		if distribution == kr.DistributionId {
			keyRanges = append(keyRanges, kr)
		}
	}

	sort.Slice(keyRanges, func(i, j int) bool {
		return keyRanges[i].KeyRangeID < keyRanges[j].KeyRangeID
	})
	return keyRanges, nil
}

// ==============================================================================
//                                  SHARDS
// ==============================================================================

func (q *EtcdQDB) AddShard(ctx context.Context, shard *Shard) error {
	spqrlog.Zero.Debug().
		Str("id", shard.ID).
		Strs("hosts", shard.Hosts).
		Msg("etcdqdb: add shard")

	return q.putJSON(ctx, shardNodePath(shard.ID), shard)
}

func (q *EtcdQDB) GetShard(ctx context.Context, id string) (*Shard, error) {
	spqrlog.Zero.Debug().
		Str("id", id).
		Msg("etcdqdb: get shard")

	var sh Shard
	ok, err := q.getJSON(ctx, shardNodePath(id), &sh)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "unknown shard %s", id)
	}
	return &sh, nil
}

func (q *EtcdQDB) ListShards(ctx context.Context) ([]*Shard, error) {
	spqrlog.Zero.Debug().Msg("etcdqdb: list shards")

	resp, err := q.cli.Get(ctx, shardsNamespace, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	shards := make([]*Shard, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var sh *Shard
		if err := json.Unmarshal(kv.Value, &sh); err != nil {
			return nil, err
		}
		shards = append(shards, sh)
	}
	sort.Slice(shards, func(i, j int) bool {
		return shards[i].ID < shards[j].ID
	})
	return shards, nil
}

// ==============================================================================
//                              RELATION LOCKS
// ==============================================================================

func (q *EtcdQDB) TryLockRelation(ctx context.Context, relName string, holder string, exclusive bool) error {
	spqrlog.Zero.Debug().
		Str("relation", relName).
		Str("holder", holder).
		Bool("exclusive", exclusive).
		Msg("etcdqdb: try lock relation")

	exclusivePath := relationExclusiveLockPath(relName)
	sharedPath := relationSharedLockPrefix(relName) + holder

	if !exclusive {
		stat, err := q.cli.Txn(ctx).
			If(clientv3util.KeyMissing(exclusivePath)).
			Then(clientv3.OpPut(sharedPath, holder)).
			Else(clientv3.OpGet(exclusivePath)).
			Commit()
		if err != nil {
			return err
		}
		if stat.Succeeded {
			return nil
		}
		owner := ""
		if rng := stat.Responses[0].GetResponseRange(); rng != nil && len(rng.Kvs) == 1 {
			owner = string(rng.Kvs[0].Value)
		}
		if owner == holder {
			_, err := q.cli.Put(ctx, sharedPath, holder)
			return err
		}
		return spqrerror.Newf(spqrerror.SPQR_LOCK_ERROR, "relation %s is locked exclusively by %s", relName, owner)
	}

	stat, err := q.cli.Txn(ctx).
		If(clientv3util.KeyMissing(exclusivePath)).
		Then(clientv3.OpPut(exclusivePath, holder)).
		Commit()
	if err != nil {
		return err
	}
	if !stat.Succeeded {
		return spqrerror.Newf(spqrerror.SPQR_LOCK_ERROR, "relation %s is already locked exclusively", relName)
	}

	/* wait for shared holders to drain, writer has priority from now on */
	resp, err := q.cli.Get(ctx, relationSharedLockPrefix(relName), clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return err
	}
	for _, kv := range resp.Kvs {
		if !strings.HasSuffix(string(kv.Key), "/"+holder) {
			if _, err := q.cli.Delete(ctx, exclusivePath); err != nil {
				return err
			}
			return spqrerror.Newf(spqrerror.SPQR_LOCK_ERROR, "relation %s is locked by %d holders", relName, len(resp.Kvs))
		}
	}
	return nil
}

func (q *EtcdQDB) UnlockRelation(ctx context.Context, relName string, holder string) error {
	spqrlog.Zero.Debug().
		Str("relation", relName).
		Str("holder", holder).
		Msg("etcdqdb: unlock relation")

	exclusivePath := relationExclusiveLockPath(relName)
	sharedPath := relationSharedLockPrefix(relName) + holder

	stat, err := q.cli.Txn(ctx).
		If(clientv3.Compare(clientv3.Value(exclusivePath), "=", holder)).
		Then(clientv3.OpDelete(exclusivePath), clientv3.OpDelete(sharedPath)).
		Else(clientv3.OpDelete(sharedPath)).
		Commit()
	if err != nil {
		return err
	}
	if stat.Succeeded {
		return nil
	}
	if del := stat.Responses[0].GetResponseDeleteRange(); del == nil || del.Deleted == 0 {
		return spqrerror.Newf(spqrerror.SPQR_LOCK_ERROR, "relation %s is not locked by %s", relName, holder)
	}
	return nil
}

// ==============================================================================
//                            TWO PHASE COMMIT STATE
// ==============================================================================

func (q *EtcdQDB) RecordTwoPhaseMembers(ctx context.Context, gid string, shards []string) error {
	spqrlog.Zero.Debug().
		Str("gid", gid).
		Strs("shards", shards).
		Msg("etcdqdb: record two phase members")

	return q.putJSON(ctx, twoPhaseTxNodePath(gid), &TwoPCInfo{
		Gid:      gid,
		ShardIDs: shards,
		State:    TwoPhaseInitState,
	})
}

func (q *EtcdQDB) ChangeTxStatus(ctx context.Context, gid string, state TwoPCState) error {
	spqrlog.Zero.Debug().
		Str("gid", gid).
		Str("state", string(state)).
		Msg("etcdqdb: change two phase tx status")

	info, err := q.GetTwoPhaseTx(ctx, gid)
	if err != nil {
		return err
	}
	info.State = state
	return q.putJSON(ctx, twoPhaseTxNodePath(gid), info)
}

func (q *EtcdQDB) GetTwoPhaseTx(ctx context.Context, gid string) (*TwoPCInfo, error) {
	var info TwoPCInfo
	ok, err := q.getJSON(ctx, twoPhaseTxNodePath(gid), &info)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "two phase transaction %s not found", gid)
	}
	return &info, nil
}
