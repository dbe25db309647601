package twopc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pg-sharding/spqr-insel/pkg/config"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/pkg/txstatus"
	"github.com/pg-sharding/spqr-insel/pkg/xact"
	"github.com/pg-sharding/spqr-insel/qdb"
	"go.uber.org/multierr"
)

// Committer finishes shard transactions with the configured commit strategy.
// Transactions touching a single shard are always committed in one phase.
type Committer struct {
	strategy config.CommitStrategy
	// may be nil, then 2PC progress is not persisted
	keeper qdb.DCStateKeeper
}

var _ xact.Committer = &Committer{}

func NewCommitter(strategy config.CommitStrategy, keeper qdb.DCStateKeeper) *Committer {
	if strategy == "" {
		strategy = config.CommitStrategy1PC
	}
	return &Committer{
		strategy: strategy,
		keeper:   keeper,
	}
}

func (c *Committer) CommitShards(ctx context.Context, status txstatus.TxStatusMgr, txs []xact.ShardEntry) error {
	if c.strategy != config.CommitStrategy2PC || len(txs) <= 1 {
		return xact.OnePhaseCommitter{}.CommitShards(ctx, status, txs)
	}
	/* PostgreSQL refuses to prepare transactions that have operated on
	* temporary objects, intermediate results are such objects */
	for _, e := range txs {
		if e.TempObjects {
			return spqrerror.Newf(spqrerror.SPQR_TRANSACTION_ERROR,
				"cannot prepare transaction on shard %s that has operated on temporary objects, use commit strategy %s for statements with a second phase",
				e.ShardID, config.CommitStrategy1PC)
		}
	}
	return c.ExecuteTwoPhaseCommit(ctx, status, txs)
}

func deploy(ctx context.Context, e xact.ShardEntry, query string) error {
	start := time.Now()
	_, err := e.Tx.Exec(ctx, query)
	spqrlog.SLogger.ReportStatement(spqrlog.StmtTypeTxFinish, e.ShardID, query, time.Since(start))
	return err
}

func (c *Committer) changeStatus(ctx context.Context, gid string, state qdb.TwoPCState) error {
	if c.keeper == nil {
		return nil
	}
	return c.keeper.ChangeTxStatus(ctx, gid, state)
}

// ExecuteTwoPhaseCommit prepares txs on every shard and commits them once
// all shards are prepared. If preparation fails on any shard, the already
// prepared ones are rolled back.
func (c *Committer) ExecuteTwoPhaseCommit(ctx context.Context, status txstatus.TxStatusMgr, txs []xact.ShardEntry) error {

	/*
	* go along first phase
	 */
	uid7, err := uuid.NewV7()
	if err != nil {
		return err
	}
	gid := uid7.String()

	shs := make([]string, 0, len(txs))
	for _, e := range txs {
		shs = append(shs, e.ShardID)
	}

	/* Store our intentions in state keeper */
	if c.keeper != nil {
		if err := c.keeper.RecordTwoPhaseMembers(ctx, gid, shs); err != nil {
			return spqrerror.Newf(spqrerror.SPQR_TRANSACTION_ERROR, "failed to record two phase members of %s: %w", gid, err)
		}
	}

	for i, e := range txs {
		if err := deploy(ctx, e, fmt.Sprintf(`PREPARE TRANSACTION '%s'`, gid)); err != nil {
			spqrlog.Zero.Error().Err(err).Str("shard", e.ShardID).Str("txid", gid).Msg("failed to prepare transaction")

			var errs error = spqrerror.Newf(spqrerror.SPQR_TRANSACTION_ERROR, "failed to prepare transaction on shard %s: %w", e.ShardID, err)
			for _, p := range txs[:i] {
				errs = multierr.Append(errs, deploy(ctx, p, fmt.Sprintf(`ROLLBACK PREPARED '%s'`, gid)))
			}
			return multierr.Append(errs, c.changeStatus(ctx, gid, qdb.TwoPhaseAborted))
		}
	}

	if status != nil {
		status.SetTxStatus(txstatus.TXPREPARED)
	}

	if err := c.changeStatus(ctx, gid, qdb.TwoPhaseCommitting); err != nil {
		spqrlog.Zero.Error().Err(err).Str("txid", gid).Msg("failed to persist two phase decision")
	}

	spqrlog.Zero.Info().Str("txid", gid).Strs("shards", shs).Msg("first phase succeeded")

	for _, e := range txs {
		if err := deploy(ctx, e, fmt.Sprintf(`COMMIT PREPARED '%s'`, gid)); err != nil {
			/* XXX: the transaction stays prepared on this shard
			* and has to be completed by recovery */
			return spqrerror.Newf(spqrerror.SPQR_TRANSACTION_ERROR, "failed to commit prepared transaction %s on shard %s: %w", gid, e.ShardID, err)
		}
		spqrlog.Zero.Info().Str("shard", e.ShardID).Str("txid", gid).Msg("committed on shard")
	}

	return c.changeStatus(ctx, gid, qdb.TwoPhaseCommitted)
}
