package insertselect

import (
	"context"

	"github.com/pg-sharding/spqr-insel/pkg/meta"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/plan"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/pkg/tupleslot"
	"github.com/pg-sharding/spqr-insel/pkg/txstatus"
	"github.com/pg-sharding/spqr-insel/router/dispatch"
	"github.com/pg-sharding/spqr-insel/router/pgcopy"
)

type State int

const (
	StateNotStarted = State(iota)
	StatePhase1Done
	StateDrained
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT STARTED"
	case StatePhase1Done:
		return "PHASE 1 DONE"
	case StateDrained:
		return "DRAINED"
	}
	return "UNKNOWN"
}

// RowInserter runs the SELECT of the statement into the target relation.
// Implemented by selectinto.Driver.
type RowInserter interface {
	Run(ctx context.Context, targetRelationID string, targetList []*plan.TargetEntry, selectQuery *plan.SelectQuery, prefix string) (*pgcopy.SinkSummary, error)
}

// Transaction keeps lock releases until the transaction ends and is put
// into the failed state when the statement fails.
// Implemented by xact.TxContext.
type Transaction interface {
	txstatus.TxStatusMgr
	RegisterRelease(f meta.ReleaseFunc)
}

type Deps struct {
	Inserter RowInserter
	Metadata meta.PartitionMetadata
	Locker   meta.Locker
	Executor dispatch.Executor
	Tx       Transaction
}

// ScanState executes one INSERT ... SELECT statement and yields its result rows.
type ScanState struct {
	plan *plan.DistributedPlan
	deps Deps

	state  State
	result *tupleslot.TupleTableSlot

	rowsProcessed uint64

	err error
}

func NewScanState(p *plan.DistributedPlan, deps Deps) *ScanState {
	return &ScanState{
		plan:  p,
		deps:  deps,
		state: StateNotStarted,
	}
}

func (s *ScanState) State() State {
	return s.state
}

// RowsProcessed is the number of rows the SELECT produced into the target.
// Rows returned by the second phase are not counted.
func (s *ScanState) RowsProcessed() uint64 {
	return s.rowsProcessed
}

// Columns returns names of result columns, empty before the first Next.
func (s *ScanState) Columns() []string {
	return s.result.ColumnNames()
}

// Next executes the statement on the first call and then returns result
// rows one by one. ok is false once all rows are returned.
func (s *ScanState) Next(ctx context.Context) ([]any, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}

	if s.state == StateNotStarted {
		if err := s.execute(ctx); err != nil {
			s.err = err
			s.deps.Tx.SetTxStatus(txstatus.TXERR)
			return nil, false, err
		}
		s.state = StatePhase1Done
	}

	row, ok := s.result.Next()
	if !ok {
		s.state = StateDrained
		return nil, false, nil
	}
	return row, true, nil
}

func (s *ScanState) lockSubPartitions(ctx context.Context) error {
	parts, err := s.deps.Locker.SubPartitions(ctx, s.plan.TargetRelationID)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}

	release, err := s.deps.Locker.LockSubPartitions(ctx, s.plan.TargetRelationID, meta.RowExclusiveLock)
	if err != nil {
		return err
	}
	s.deps.Tx.RegisterRelease(release)
	return nil
}

func (s *ScanState) execute(ctx context.Context) error {
	if err := s.plan.Validate(); err != nil {
		return err
	}

	spqrlog.Zero.Debug().
		Str("relation", s.plan.TargetRelationID).
		Bool("worker-job", s.plan.WorkerJob != nil).
		Msg("Collecting INSERT ... SELECT results on coordinator")

	if err := s.lockSubPartitions(ctx); err != nil {
		return err
	}

	prefix := ""
	if s.plan.WorkerJob != nil {
		prefix = s.plan.IntermediateResultIDPrefix
	}

	summary, err := s.deps.Inserter.Run(ctx, s.plan.TargetRelationID, s.plan.InsertTargetList, s.plan.InsertSelectSubquery, prefix)
	if err != nil {
		return err
	}
	s.rowsProcessed = summary.RowsSent

	if s.plan.WorkerJob == nil {
		s.result = &tupleslot.TupleTableSlot{}
		return nil
	}

	tasks, err := s.pruneTasks(ctx, summary.TouchedShards)
	if err != nil {
		return err
	}

	spqrlog.Zero.Debug().
		Int("planned-tasks", len(s.plan.WorkerJob.TaskList)).
		Int("pruned-tasks", len(tasks)).
		Strs("touched-shards", summary.TouchedShards.List()).
		Msg("pruned second phase tasks")

	if len(tasks) == 0 {
		s.result = &tupleslot.TupleTableSlot{}
		return nil
	}

	s.result, err = s.deps.Executor.RunTasks(ctx, tasks, true, s.plan.HasReturning)
	if err != nil {
		return err
	}
	if s.result == nil {
		s.result = &tupleslot.TupleTableSlot{}
	}
	return nil
}

// pruneTasks keeps tasks anchored at touched shards, in plan order.
// The plan itself is left untouched.
func (s *ScanState) pruneTasks(ctx context.Context, touched *pgcopy.ShardSet) ([]*plan.Task, error) {
	target, err := s.deps.Metadata.TargetRelation(ctx, s.plan.TargetRelationID)
	if err != nil {
		return nil, err
	}
	krs, err := s.deps.Metadata.ListShardIntervals(ctx, target)
	if err != nil {
		return nil, err
	}
	targetShards := pgcopy.NewShardSet()
	for _, krg := range krs {
		targetShards.Add(krg.ShardID)
	}

	taskShards := pgcopy.NewShardSet()
	var ret []*plan.Task
	for _, t := range s.plan.WorkerJob.TaskList {
		if !targetShards.Contains(t.AnchorShardID) {
			return nil, spqrerror.Newf(spqrerror.SPQR_TASK_PRUNING_ERROR,
				"task %d is anchored at shard %s which holds no data of relation \"%s\"", t.TaskID, t.AnchorShardID, target.ID)
		}
		taskShards.Add(t.AnchorShardID)
		if touched.Contains(t.AnchorShardID) {
			ret = append(ret, t)
		}
	}

	for _, sh := range touched.List() {
		if !taskShards.Contains(sh) {
			return nil, spqrerror.Newf(spqrerror.SPQR_TASK_PRUNING_ERROR,
				"shard %s received rows of relation \"%s\" but has no task", sh, target.ID)
		}
	}
	return ret, nil
}
