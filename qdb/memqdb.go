package qdb

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
)

type MemQDB struct {
	mu sync.RWMutex

	Distributions   map[string]*Distribution `json:"distributions"`
	RelationMapping map[string]string        `json:"relation_mapping"`
	Krs             map[string]*KeyRange     `json:"krs"`
	Shards          map[string]*Shard        `json:"shards"`
	TwoPhaseTx      map[string]*TwoPCInfo    `json:"two_phase_info"`
	RelationLocks   map[string]*RelationLock `json:"-"`

	backupPath string
}

var _ QDB = &MemQDB{}

func NewMemQDB(backupPath string) (*MemQDB, error) {
	return &MemQDB{
		Distributions:   map[string]*Distribution{},
		RelationMapping: map[string]string{},
		Krs:             map[string]*KeyRange{},
		Shards:          map[string]*Shard{},
		TwoPhaseTx:      map[string]*TwoPCInfo{},
		RelationLocks:   map[string]*RelationLock{},

		backupPath: backupPath,
	}, nil
}

// RestoreQDB creates a MemQDB and loads its state from backupPath, if the file exists.
func RestoreQDB(backupPath string) (*MemQDB, error) {
	qdb, err := NewMemQDB(backupPath)
	if err != nil {
		return nil, err
	}
	if backupPath == "" {
		return qdb, nil
	}
	if _, err := os.Stat(backupPath); err != nil {
		spqrlog.Zero.Info().Err(err).Msg("memqdb backup file not exists. Creating new one.")
		f, err := os.Create(backupPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return qdb, nil
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return qdb, nil
	}
	if err := json.Unmarshal(data, qdb); err != nil {
		return nil, err
	}

	/* backups written by hand may omit some sections */
	if qdb.Distributions == nil {
		qdb.Distributions = map[string]*Distribution{}
	}
	if qdb.RelationMapping == nil {
		qdb.RelationMapping = map[string]string{}
	}
	if qdb.Krs == nil {
		qdb.Krs = map[string]*KeyRange{}
	}
	if qdb.Shards == nil {
		qdb.Shards = map[string]*Shard{}
	}
	if qdb.TwoPhaseTx == nil {
		qdb.TwoPhaseTx = map[string]*TwoPCInfo{}
	}
	for _, ds := range qdb.Distributions {
		if ds.Relations == nil {
			ds.Relations = map[string]*DistributedRelation{}
		}
		for name := range ds.Relations {
			if _, ok := qdb.RelationMapping[name]; !ok {
				qdb.RelationMapping[name] = ds.ID
			}
		}
	}
	return qdb, nil
}

func (q *MemQDB) DumpState() error {
	if q.backupPath == "" {
		return nil
	}
	tmpPath := q.backupPath + ".tmp"

	state, err := json.MarshalIndent(q, "", "	")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tmpPath, state, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, q.backupPath)
}

// ==============================================================================
//                               DISTRIBUTIONS
// ==============================================================================

func (q *MemQDB) CreateDistribution(_ context.Context, distr *Distribution) error {
	spqrlog.Zero.Debug().Str("id", distr.ID).Msg("memqdb: create distribution")
	q.mu.Lock()
	defer q.mu.Unlock()

	if distr.Relations == nil {
		distr.Relations = map[string]*DistributedRelation{}
	}

	commands := []Command{NewUpdateCommand(q.Distributions, distr.ID, distr)}
	for name := range distr.Relations {
		commands = append(commands, NewUpdateCommand(q.RelationMapping, name, distr.ID))
	}
	return ExecuteCommands(q.DumpState, commands...)
}

func (q *MemQDB) GetDistribution(_ context.Context, id string) (*Distribution, error) {
	spqrlog.Zero.Debug().Str("id", id).Msg("memqdb: get distribution")
	q.mu.RLock()
	defer q.mu.RUnlock()

	if ds, ok := q.Distributions[id]; ok {
		return ds, nil
	}
	return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "distribution \"%s\" not found", id)
}

func (q *MemQDB) ListDistributions(_ context.Context) ([]*Distribution, error) {
	spqrlog.Zero.Debug().Msg("memqdb: list distributions")
	q.mu.RLock()
	defer q.mu.RUnlock()

	ret := make([]*Distribution, 0, len(q.Distributions))
	for _, ds := range q.Distributions {
		ret = append(ret, ds)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].ID < ret[j].ID
	})
	return ret, nil
}

func (q *MemQDB) AlterDistributionAttach(_ context.Context, id string, rels []*DistributedRelation) error {
	spqrlog.Zero.Debug().Str("id", id).Int("relations", len(rels)).Msg("memqdb: attach relations to distribution")
	q.mu.Lock()
	defer q.mu.Unlock()

	ds, ok := q.Distributions[id]
	if !ok {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "distribution \"%s\" not found", id)
	}

	commands := make([]Command, 0, 2*len(rels))
	for _, rel := range rels {
		if dsID, ok := q.RelationMapping[rel.Name]; ok {
			return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "relation \"%s\" is already attached to distribution \"%s\"", rel.Name, dsID)
		}
		commands = append(commands,
			NewUpdateCommand(ds.Relations, rel.Name, rel),
			NewUpdateCommand(q.RelationMapping, rel.Name, id))
	}
	return ExecuteCommands(q.DumpState, commands...)
}

func (q *MemQDB) GetRelationDistribution(_ context.Context, relName string) (*Distribution, error) {
	spqrlog.Zero.Debug().Str("relation", relName).Msg("memqdb: get distribution for relation")
	q.mu.RLock()
	defer q.mu.RUnlock()

	id, ok := q.RelationMapping[relName]
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "distribution for relation \"%s\" not found", relName)
	}
	ds, ok := q.Distributions[id]
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION, "relation \"%s\" mapped to missing distribution \"%s\"", relName, id)
	}
	return ds, nil
}

// ==============================================================================
//                                 KEY RANGES
// ==============================================================================

func (q *MemQDB) CreateKeyRange(_ context.Context, keyRange *KeyRange) error {
	spqrlog.Zero.Debug().Interface("key-range", keyRange).Msg("memqdb: add key range")
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.Krs[keyRange.KeyRangeID]; ok {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "key range \"%s\" already exists", keyRange.KeyRangeID)
	}
	return ExecuteCommands(q.DumpState, NewUpdateCommand(q.Krs, keyRange.KeyRangeID, keyRange))
}

func (q *MemQDB) GetKeyRange(_ context.Context, id string) (*KeyRange, error) {
	spqrlog.Zero.Debug().Str("id", id).Msg("memqdb: get key range")
	q.mu.RLock()
	defer q.mu.RUnlock()

	krs, ok := q.Krs[id]
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "there is no key range %s", id)
	}
	return krs, nil
}

func (q *MemQDB) DropKeyRange(_ context.Context, id string) error {
	spqrlog.Zero.Debug().Str("id", id).Msg("memqdb: drop key range")
	q.mu.Lock()
	defer q.mu.Unlock()

	return ExecuteCommands(q.DumpState, NewDeleteCommand(q.Krs, id))
}

func (q *MemQDB) ListKeyRanges(_ context.Context, distribution string) ([]*KeyRange, error) {
	spqrlog.Zero.Debug().Str("distribution", distribution).Msg("memqdb: list key ranges")
	q.mu.RLock()
	defer q.mu.RUnlock()

	var ret []*KeyRange
	for _, el := range q.Krs {
		if el.DistributionId == distribution {
			ret = append(ret, el)
		}
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].KeyRangeID < ret[j].KeyRangeID
	})

	return ret, nil
}

// ==============================================================================
//                                  SHARDS
// ==============================================================================

func (q *MemQDB) AddShard(_ context.Context, shard *Shard) error {
	spqrlog.Zero.Debug().Str("shard", shard.ID).Msg("memqdb: add shard")
	q.mu.Lock()
	defer q.mu.Unlock()

	return ExecuteCommands(q.DumpState, NewUpdateCommand(q.Shards, shard.ID, shard))
}

func (q *MemQDB) GetShard(_ context.Context, id string) (*Shard, error) {
	spqrlog.Zero.Debug().Str("shard", id).Msg("memqdb: get shard")
	q.mu.RLock()
	defer q.mu.RUnlock()

	if sh, ok := q.Shards[id]; ok {
		return sh, nil
	}
	return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "unknown shard %s", id)
}

func (q *MemQDB) ListShards(_ context.Context) ([]*Shard, error) {
	spqrlog.Zero.Debug().Msg("memqdb: list shards")
	q.mu.RLock()
	defer q.mu.RUnlock()

	ret := make([]*Shard, 0, len(q.Shards))
	for _, sh := range q.Shards {
		ret = append(ret, sh)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].ID < ret[j].ID
	})
	return ret, nil
}

// ==============================================================================
//                              RELATION LOCKS
// ==============================================================================

func (q *MemQDB) TryLockRelation(_ context.Context, relName string, holder string, exclusive bool) error {
	spqrlog.Zero.Debug().
		Str("relation", relName).
		Str("holder", holder).
		Bool("exclusive", exclusive).
		Msg("memqdb: try lock relation")
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.RelationLocks[relName]
	if !ok {
		l = &RelationLock{Shared: map[string]struct{}{}}
		q.RelationLocks[relName] = l
	}

	if l.Exclusive != "" && l.Exclusive != holder {
		return spqrerror.Newf(spqrerror.SPQR_LOCK_ERROR, "relation %s is locked exclusively by %s", relName, l.Exclusive)
	}

	if !exclusive {
		l.Shared[holder] = struct{}{}
		return nil
	}

	for other := range l.Shared {
		if other != holder {
			return spqrerror.Newf(spqrerror.SPQR_LOCK_ERROR, "relation %s is locked by %d holders", relName, len(l.Shared))
		}
	}
	l.Exclusive = holder
	return nil
}

func (q *MemQDB) UnlockRelation(_ context.Context, relName string, holder string) error {
	spqrlog.Zero.Debug().
		Str("relation", relName).
		Str("holder", holder).
		Msg("memqdb: unlock relation")
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.RelationLocks[relName]
	if !ok {
		return spqrerror.Newf(spqrerror.SPQR_LOCK_ERROR, "relation %s is not locked", relName)
	}
	_, shared := l.Shared[holder]
	if !shared && l.Exclusive != holder {
		return spqrerror.Newf(spqrerror.SPQR_LOCK_ERROR, "relation %s is not locked by %s", relName, holder)
	}
	delete(l.Shared, holder)
	if l.Exclusive == holder {
		l.Exclusive = ""
	}
	if l.Exclusive == "" && len(l.Shared) == 0 {
		delete(q.RelationLocks, relName)
	}
	return nil
}

// ==============================================================================
//                            TWO PHASE COMMIT STATE
// ==============================================================================

func (q *MemQDB) RecordTwoPhaseMembers(_ context.Context, gid string, shards []string) error {
	spqrlog.Zero.Debug().Str("gid", gid).Strs("shards", shards).Msg("memqdb: record two phase members")
	q.mu.Lock()
	defer q.mu.Unlock()

	return ExecuteCommands(q.DumpState, NewUpdateCommand(q.TwoPhaseTx, gid, &TwoPCInfo{
		Gid:      gid,
		ShardIDs: shards,
		State:    TwoPhaseInitState,
	}))
}

func (q *MemQDB) ChangeTxStatus(_ context.Context, gid string, state TwoPCState) error {
	spqrlog.Zero.Debug().Str("gid", gid).Str("state", string(state)).Msg("memqdb: change two phase tx status")
	q.mu.Lock()
	defer q.mu.Unlock()

	info, ok := q.TwoPhaseTx[gid]
	if !ok {
		return spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "two phase transaction %s not found", gid)
	}
	return ExecuteCommands(q.DumpState, NewUpdateCommand(q.TwoPhaseTx, gid, &TwoPCInfo{
		Gid:      info.Gid,
		ShardIDs: info.ShardIDs,
		State:    state,
	}))
}

func (q *MemQDB) GetTwoPhaseTx(_ context.Context, gid string) (*TwoPCInfo, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	info, ok := q.TwoPhaseTx[gid]
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "two phase transaction %s not found", gid)
	}
	return info, nil
}
