package dispatch

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pg-sharding/spqr-insel/pkg/config"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/plan"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/pkg/tupleslot"
	"github.com/pg-sharding/spqr-insel/pkg/xact"
	"golang.org/x/sync/errgroup"
)

// Executor runs tasks on their anchor shards and collects their output.
type Executor interface {
	RunTasks(ctx context.Context, tasks []*plan.Task, isModification bool, wantReturning bool) (*tupleslot.TupleTableSlot, error)
}

// Sessions gives access to the transaction of each shard. Implemented by
// xact.TxContext.
type Sessions interface {
	ShardTx(ctx context.Context, shardID string) (xact.ShardTx, error)
	MarkDataModified()
}

type taskResult struct {
	desc []pgconn.FieldDescription
	rows [][]any
}

// PgxExecutor runs tasks of distinct shards concurrently. Tasks anchored
// at the same shard run one after another, in task list order.
type PgxExecutor struct {
	sessions    Sessions
	maxParallel int
}

var _ Executor = &PgxExecutor{}

func NewPgxExecutor(sessions Sessions, maxParallel int) *PgxExecutor {
	if maxParallel <= 0 {
		maxParallel = config.DefaultMaxParallelTasks
	}
	return &PgxExecutor{
		sessions:    sessions,
		maxParallel: maxParallel,
	}
}

func runTask(ctx context.Context, tx xact.ShardTx, task *plan.Task, wantReturning bool) (*taskResult, error) {
	start := time.Now()
	defer func() {
		spqrlog.SLogger.ReportStatement(spqrlog.StmtTypeTask, task.AnchorShardID, task.Query, time.Since(start))
	}()

	if !wantReturning {
		if _, err := tx.Exec(ctx, task.Query, task.Params...); err != nil {
			return nil, err
		}
		return &taskResult{}, nil
	}

	rows, err := tx.Query(ctx, task.Query, task.Params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &taskResult{desc: rows.FieldDescriptions()}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		res.rows = append(res.rows, vals)
	}
	return res, rows.Err()
}

func (e *PgxExecutor) RunTasks(ctx context.Context, tasks []*plan.Task, isModification bool, wantReturning bool) (*tupleslot.TupleTableSlot, error) {
	/* group tasks by anchor shard, keeping their positions */
	var shards []string
	byShard := map[string][]int{}
	for i, t := range tasks {
		if _, ok := byShard[t.AnchorShardID]; !ok {
			shards = append(shards, t.AnchorShardID)
		}
		byShard[t.AnchorShardID] = append(byShard[t.AnchorShardID], i)
	}

	spqrlog.Zero.Debug().
		Int("tasks", len(tasks)).
		Strs("shards", shards).
		Bool("returning", wantReturning).
		Msg("dispatching tasks")

	results := make([]*taskResult, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	for _, sh := range shards {
		g.Go(func() error {
			tx, err := e.sessions.ShardTx(gctx, sh)
			if err != nil {
				return err
			}
			for _, i := range byShard[sh] {
				res, err := runTask(gctx, tx, tasks[i], wantReturning)
				if err != nil {
					spqrlog.Zero.Error().Err(err).Str("shard", sh).Uint64("task", tasks[i].TaskID).Msg("task failed")
					return spqrerror.Newf(spqrerror.SPQR_DISPATCH_ERROR, "task %d failed on shard %s: %w", tasks[i].TaskID, sh, err)
				}
				results[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if !spqrerror.HasCode(err, spqrerror.SPQR_DISPATCH_ERROR) {
			err = spqrerror.Newf(spqrerror.SPQR_DISPATCH_ERROR, "failed to dispatch tasks: %w", err)
		}
		return nil, err
	}

	if isModification {
		e.sessions.MarkDataModified()
	}

	slot := &tupleslot.TupleTableSlot{}
	for _, res := range results {
		slot.Append(&tupleslot.TupleTableSlot{Desc: res.desc, Rows: res.rows})
	}
	return slot, nil
}
