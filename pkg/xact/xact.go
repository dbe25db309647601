package xact

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pg-sharding/spqr-insel/pkg/meta"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/pkg/txstatus"
	"go.uber.org/multierr"
)

// ShardTx is the part of pgx.Tx the executor uses on a shard session.
type ShardTx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner opens a transaction on a shard session.
type Beginner interface {
	BeginTx(ctx context.Context, shardID string) (ShardTx, error)
}

type ShardEntry struct {
	ShardID string
	Tx      ShardTx
	// TempObjects is set when the transaction created temporary tables,
	// such a transaction cannot be prepared.
	TempObjects bool
}

// Committer finishes the shard transactions of a TxContext. status belongs
// to the transaction being committed.
type Committer interface {
	CommitShards(ctx context.Context, status txstatus.TxStatusMgr, txs []ShardEntry) error
}

// OnePhaseCommitter commits shards one by one. A failure on some shard
// leaves the shards before it committed.
type OnePhaseCommitter struct{}

func (OnePhaseCommitter) CommitShards(ctx context.Context, _ txstatus.TxStatusMgr, txs []ShardEntry) error {
	if len(txs) > 1 {
		spqrlog.Zero.Warn().
			Int("shards", len(txs)).
			Msg("committing multi-shard transaction in one phase, commit is not atomic across shards")
	}
	for _, e := range txs {
		if err := e.Tx.Commit(ctx); err != nil {
			return spqrerror.Newf(spqrerror.SPQR_TRANSACTION_ERROR, "failed to commit on shard %s: %w", e.ShardID, err)
		}
		spqrlog.Zero.Debug().Str("shard", e.ShardID).Msg("committed on shard")
	}
	return nil
}

// TxContext is the state of the enclosing distributed transaction: one
// transaction per shard, begun lazily, plus the data-modified marker.
type TxContext struct {
	mu sync.Mutex

	beginner Beginner

	txs   map[string]ShardTx
	order []string
	// shards whose transaction created temporary tables
	temp map[string]bool

	status       txstatus.TXStatus
	dataModified bool

	releases []meta.ReleaseFunc
}

var _ txstatus.TxStatusMgr = &TxContext{}

func NewTxContext(b Beginner) *TxContext {
	return &TxContext{
		beginner: b,
		txs:      map[string]ShardTx{},
		temp:     map[string]bool{},
		status:   txstatus.TXIDLE,
	}
}

// MarkDataModified records that the transaction has written data.
// The marker is never cleared while the transaction is open.
func (t *TxContext) MarkDataModified() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dataModified = true
}

func (t *TxContext) DataModified() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dataModified
}

func (t *TxContext) SetTxStatus(status txstatus.TXStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

func (t *TxContext) TxStatus() txstatus.TXStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// ShardTx returns the transaction open on shardID, beginning it on first use.
// It is safe to call from several goroutines.
func (t *TxContext) ShardTx(ctx context.Context, shardID string) (ShardTx, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == txstatus.TXERR {
		return nil, spqrerror.New(spqrerror.SPQR_TRANSACTION_ERROR, "current transaction is aborted, commands ignored until end of transaction block")
	}
	if tx, ok := t.txs[shardID]; ok {
		return tx, nil
	}

	tx, err := t.beginner.BeginTx(ctx, shardID)
	if err != nil {
		return nil, spqrerror.Newf(spqrerror.SPQR_CONNECTION_ERROR, "failed to begin transaction on shard %s: %w", shardID, err)
	}
	spqrlog.Zero.Debug().Str("shard", shardID).Msg("began transaction on shard")

	t.txs[shardID] = tx
	t.order = append(t.order, shardID)
	t.status = txstatus.TXACT
	return tx, nil
}

// MarkTempObjects records that the transaction on shardID has created
// temporary tables.
func (t *TxContext) MarkTempObjects(shardID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.temp[shardID] = true
}

func (t *TxContext) TempObjects(shardID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.temp[shardID]
}

// Shards lists shards with an open transaction in the order they were begun.
func (t *TxContext) Shards() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// RegisterRelease schedules f to run when the transaction ends.
func (t *TxContext) RegisterRelease(f meta.ReleaseFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releases = append(t.releases, f)
}

// detach hands over all shard transactions and resets the context.
func (t *TxContext) detach() ([]ShardEntry, []meta.ReleaseFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]ShardEntry, 0, len(t.order))
	for _, id := range t.order {
		entries = append(entries, ShardEntry{ShardID: id, Tx: t.txs[id], TempObjects: t.temp[id]})
	}
	releases := t.releases

	t.txs = map[string]ShardTx{}
	t.temp = map[string]bool{}
	t.order = nil
	t.releases = nil
	t.dataModified = false
	return entries, releases
}

func runReleases(ctx context.Context, releases []meta.ReleaseFunc) error {
	var err error
	for i := len(releases) - 1; i >= 0; i-- {
		err = multierr.Append(err, releases[i](ctx))
	}
	return err
}

func rollbackAll(ctx context.Context, entries []ShardEntry) error {
	var err error
	for _, e := range entries {
		if rerr := e.Tx.Rollback(ctx); rerr != nil && rerr != pgx.ErrTxClosed {
			err = multierr.Append(err, spqrerror.Newf(spqrerror.SPQR_TRANSACTION_ERROR, "failed to rollback on shard %s: %w", e.ShardID, rerr))
		}
	}
	return err
}

// Commit finishes every shard transaction with c. If c fails the shard
// transactions are rolled back.
func (t *TxContext) Commit(ctx context.Context, c Committer) error {
	if t.TxStatus() == txstatus.TXERR {
		err := t.Rollback(ctx)
		return multierr.Append(spqrerror.New(spqrerror.SPQR_TRANSACTION_ERROR, "transaction is aborted, rolled back"), err)
	}

	entries, releases := t.detach()
	spqrlog.Zero.Debug().Int("shards", len(entries)).Msg("committing transaction")

	err := c.CommitShards(ctx, t, entries)
	if err != nil {
		err = multierr.Append(err, rollbackAll(context.WithoutCancel(ctx), entries))
	}
	err = multierr.Append(err, runReleases(context.WithoutCancel(ctx), releases))

	t.SetTxStatus(txstatus.TXIDLE)
	return err
}

// Rollback aborts every shard transaction. No effect of the transaction
// becomes visible.
func (t *TxContext) Rollback(ctx context.Context) error {
	status := t.TxStatus()
	entries, releases := t.detach()
	spqrlog.Zero.Debug().Int("shards", len(entries)).Str("status", status.String()).Msg("rolling back transaction")

	err := rollbackAll(context.WithoutCancel(ctx), entries)
	err = multierr.Append(err, runReleases(context.WithoutCancel(ctx), releases))

	t.SetTxStatus(txstatus.TXIDLE)
	return err
}
