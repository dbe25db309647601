package insertselect_test

import (
	"context"
	"testing"

	"github.com/pg-sharding/spqr-insel/pkg/datashard"
	"github.com/pg-sharding/spqr-insel/pkg/meta"
	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/hashfunction"
	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/plan"
	"github.com/pg-sharding/spqr-insel/pkg/tupleslot"
	"github.com/pg-sharding/spqr-insel/pkg/txstatus"
	"github.com/pg-sharding/spqr-insel/qdb"
	"github.com/pg-sharding/spqr-insel/router/insertselect"
	mockdispatch "github.com/pg-sharding/spqr-insel/router/mock/dispatch"
	mockmeta "github.com/pg-sharding/spqr-insel/router/mock/meta"
	mockselectinto "github.com/pg-sharding/spqr-insel/router/mock/selectinto"
	"github.com/pg-sharding/spqr-insel/router/pgcopy"
	"github.com/pg-sharding/spqr-insel/router/selectinto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type memWriter struct {
	rows   [][]any
	failAt int
	writes int
}

func (w *memWriter) Write(_ context.Context, batch [][]any) error {
	w.writes++
	if w.failAt > 0 && w.writes >= w.failAt {
		return spqrerror.New(spqrerror.SPQR_SHARD_WRITE_ERROR, "could not send data to server")
	}
	w.rows = append(w.rows, batch...)
	return nil
}

func (w *memWriter) Close(context.Context) (int64, error) { return int64(len(w.rows)), nil }

func (w *memWriter) Abort() {}

type memProvider struct {
	failAt  int
	writers map[string]*memWriter
	dests   map[string]datashard.Destination
}

func (p *memProvider) OpenWriter(_ context.Context, shardID string, dest datashard.Destination) (datashard.ShardWriter, error) {
	w := &memWriter{failAt: p.failAt}
	p.writers[shardID] = w
	p.dests[shardID] = dest
	return w, nil
}

type txStub struct {
	releases []meta.ReleaseFunc
	modified int
	status   txstatus.TXStatus
}

func (tx *txStub) SetTxStatus(status txstatus.TXStatus) { tx.status = status }

func (tx *txStub) TxStatus() txstatus.TXStatus { return tx.status }

func (tx *txStub) RegisterRelease(f meta.ReleaseFunc) { tx.releases = append(tx.releases, f) }

func (tx *txStub) MarkDataModified() { tx.modified++ }

type env struct {
	mgr      *mockmeta.MockEntityMgr
	executor *mockdispatch.MockExecutor
	provider *memProvider
	tx       *txStub
	deps     insertselect.Deps

	// rows consumed from the SELECT
	consumed int
}

func newEnv(t *testing.T, target *distributions.TargetRelation, krs []*kr.KeyRange, rows [][]any) *env {
	ctrl := gomock.NewController(t)

	e := &env{
		mgr:      mockmeta.NewMockEntityMgr(ctrl),
		executor: mockdispatch.NewMockExecutor(ctrl),
		provider: &memProvider{writers: map[string]*memWriter{}, dests: map[string]datashard.Destination{}},
		tx:       &txStub{status: txstatus.TXACT},
	}

	e.mgr.EXPECT().TargetRelation(gomock.Any(), target.ID).Return(target, nil).AnyTimes()
	e.mgr.EXPECT().ListShardIntervals(gomock.Any(), target).Return(krs, nil).AnyTimes()
	e.mgr.EXPECT().ColumnOrdinal(gomock.Any(), target.ID, "id").Return(1, nil).AnyTimes()
	e.mgr.EXPECT().ColumnOrdinal(gomock.Any(), target.ID, "payload").Return(2, nil).AnyTimes()
	e.mgr.EXPECT().SubPartitions(gomock.Any(), target.ID).Return(target.SubPartitions, nil).AnyTimes()

	sel := mockselectinto.NewMockQueryExecutor(ctrl)
	sel.EXPECT().ExecuteInto(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *plan.SelectQuery, r pgcopy.Receiver) error {
			for _, row := range rows {
				e.consumed++
				if err := r.Receive(ctx, row); err != nil {
					return err
				}
			}
			return nil
		}).AnyTimes()

	e.deps = insertselect.Deps{
		Inserter: selectinto.NewDriver(e.mgr, sel, e.provider, e.tx, 1),
		Metadata: e.mgr,
		Locker:   e.mgr,
		Executor: e.executor,
		Tx:       e.tx,
	}
	return e
}

func drain(t *testing.T, s *insertselect.ScanState) [][]any {
	var ret [][]any
	for {
		row, ok, err := s.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return ret
		}
		ret = append(ret, row)
	}
}

func hashOf(t *testing.T, v int64) uint64 {
	h, err := hashfunction.ApplyHashFunction(v, qdb.ColumnTypeInteger, hashfunction.HashFunctionMurmur)
	require.NoError(t, err)
	return h.(uint64)
}

func uintRange(id string, lb uint64) *kr.KeyRange {
	return &kr.KeyRange{ID: "kr" + id, ShardID: id, LowerBound: kr.KeyRangeBound{lb}, ColumnTypes: []string{qdb.ColumnTypeUinteger}}
}

// threeShards returns key ranges of shards A, B and C where partition
// value 1 belongs to A and value 2 belongs to C.
func threeShards(t *testing.T) []*kr.KeyRange {
	h1, h2 := hashOf(t, 1), hashOf(t, 2)
	if h1 < h2 {
		return []*kr.KeyRange{uintRange("A", 0), uintRange("B", h1+1), uintRange("C", h2)}
	}
	return []*kr.KeyRange{uintRange("C", 0), uintRange("B", h2+1), uintRange("A", h1)}
}

func hashTarget() *distributions.TargetRelation {
	return &distributions.TargetRelation{
		ID:     "orders",
		Method: distributions.MethodHash,
		PartitionColumn: &distributions.PartitionColumn{
			DistributionKeyEntry: distributions.DistributionKeyEntry{Column: "id", HashFunction: "murmur"},
			ColType:              qdb.ColumnTypeInteger,
		},
	}
}

var targetList = []*plan.TargetEntry{{Expr: "src.a", ResName: "id"}, {Expr: "src.b", ResName: "payload"}}

func twoPhasePlan(returning bool) *plan.DistributedPlan {
	return &plan.DistributedPlan{
		TargetRelationID:     "orders",
		InsertTargetList:     targetList,
		InsertSelectSubquery: &plan.SelectQuery{Text: "SELECT a, b FROM src"},
		WorkerJob: &plan.Job{TaskList: []*plan.Task{
			{TaskID: 1, AnchorShardID: "A", Query: "INSERT INTO orders SELECT * FROM ir_A ON CONFLICT DO NOTHING"},
			{TaskID: 2, AnchorShardID: "B", Query: "INSERT INTO orders SELECT * FROM ir_B ON CONFLICT DO NOTHING"},
			{TaskID: 3, AnchorShardID: "C", Query: "INSERT INTO orders SELECT * FROM ir_C ON CONFLICT DO NOTHING"},
		}},
		HasReturning:               returning,
		IntermediateResultIDPrefix: "ir",
	}
}

func TestUnpartitionedSinglePhase(t *testing.T) {
	assert := assert.New(t)

	target := &distributions.TargetRelation{ID: "settings", Method: distributions.MethodNone}
	e := newEnv(t, target, []*kr.KeyRange{
		{ID: "d.DEFAULT", ShardID: "sh1", LowerBound: kr.KeyRangeBound{int64(0)}, ColumnTypes: []string{qdb.ColumnTypeInteger}},
	}, [][]any{{int64(1), "a"}, {int64(2), "b"}, {int64(3), "c"}})
	e.executor.EXPECT().RunTasks(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	s := insertselect.NewScanState(&plan.DistributedPlan{
		TargetRelationID:     "settings",
		InsertTargetList:     targetList,
		InsertSelectSubquery: &plan.SelectQuery{Text: "SELECT a, b FROM src"},
	}, e.deps)
	assert.Equal(insertselect.StateNotStarted, s.State())

	assert.Empty(drain(t, s))
	assert.Equal(insertselect.StateDrained, s.State())
	assert.Equal(uint64(3), s.RowsProcessed())
	assert.Len(e.provider.writers, 1)
	assert.Len(e.provider.writers["sh1"].rows, 3)
	assert.Empty(e.provider.dests["sh1"].ResultName)
	assert.Equal(1, e.tx.modified)
	assert.Empty(e.tx.releases)
	assert.Equal(txstatus.TXACT, e.tx.status)
}

func TestTasksArePrunedToTouchedShards(t *testing.T) {
	assert := assert.New(t)

	e := newEnv(t, hashTarget(), threeShards(t), [][]any{
		{int64(1), "x"}, {int64(2), "y"}, {int64(1), "z"},
	})

	p := twoPhasePlan(false)
	e.executor.EXPECT().RunTasks(gomock.Any(), []*plan.Task{p.WorkerJob.TaskList[0], p.WorkerJob.TaskList[2]}, true, false).
		Return(&tupleslot.TupleTableSlot{}, nil).Times(1)

	s := insertselect.NewScanState(p, e.deps)
	assert.Empty(drain(t, s))

	assert.Equal(uint64(3), s.RowsProcessed())
	assert.Len(e.provider.writers["A"].rows, 2)
	assert.Len(e.provider.writers["C"].rows, 1)
	assert.NotContains(e.provider.writers, "B")
	assert.Equal("ir_A", e.provider.dests["A"].ResultName)
	assert.Equal("ir_C", e.provider.dests["C"].ResultName)
	assert.Len(p.WorkerJob.TaskList, 3)
}

func TestNoRowsSkipsDispatch(t *testing.T) {
	assert := assert.New(t)

	e := newEnv(t, hashTarget(), threeShards(t), nil)
	e.executor.EXPECT().RunTasks(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	s := insertselect.NewScanState(twoPhasePlan(true), e.deps)
	assert.Empty(drain(t, s))
	assert.Equal(uint64(0), s.RowsProcessed())
	assert.Empty(e.provider.writers)
}

func TestStopOnFailureAbortsStatement(t *testing.T) {
	assert := assert.New(t)

	target := &distributions.TargetRelation{ID: "settings", Method: distributions.MethodNone}
	e := newEnv(t, target, []*kr.KeyRange{
		{ID: "d.DEFAULT", ShardID: "sh1", LowerBound: kr.KeyRangeBound{int64(0)}, ColumnTypes: []string{qdb.ColumnTypeInteger}},
	}, [][]any{{int64(1), "a"}, {int64(2), "b"}, {int64(3), "c"}, {int64(4), "d"}})
	e.provider.failAt = 2
	e.executor.EXPECT().RunTasks(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	s := insertselect.NewScanState(&plan.DistributedPlan{
		TargetRelationID:     "settings",
		InsertTargetList:     targetList,
		InsertSelectSubquery: &plan.SelectQuery{Text: "SELECT a, b FROM src"},
	}, e.deps)

	_, ok, err := s.Next(context.Background())
	assert.False(ok)
	assert.True(spqrerror.HasCode(err, spqrerror.SPQR_SHARD_WRITE_ERROR))
	assert.Equal(2, e.consumed)
	assert.Equal(0, e.tx.modified)
	assert.Equal(txstatus.TXERR, e.tx.status)

	_, _, again := s.Next(context.Background())
	assert.Equal(err, again)
	assert.Equal(2, e.consumed)
}

func TestReturningRowsComeFromSecondPhase(t *testing.T) {
	assert := assert.New(t)

	e := newEnv(t, hashTarget(), threeShards(t), [][]any{{int64(1), "x"}, {int64(2), "y"}})

	p := twoPhasePlan(true)
	e.executor.EXPECT().RunTasks(gomock.Any(), []*plan.Task{p.WorkerJob.TaskList[0], p.WorkerJob.TaskList[2]}, true, true).
		Return(&tupleslot.TupleTableSlot{Rows: [][]any{{int64(1)}, {int64(2)}, {int64(1)}, {int64(2)}}}, nil)

	s := insertselect.NewScanState(p, e.deps)

	row, ok, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.True(ok)
	assert.Equal([]any{int64(1)}, row)
	assert.Equal(insertselect.StatePhase1Done, s.State())

	assert.Len(drain(t, s), 3)
	assert.Equal(uint64(2), s.RowsProcessed())
	assert.Equal(insertselect.StateDrained, s.State())
}

func TestTaskAnchoredOutsideTarget(t *testing.T) {
	e := newEnv(t, hashTarget(), threeShards(t), [][]any{{int64(1), "x"}})
	e.executor.EXPECT().RunTasks(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	p := twoPhasePlan(false)
	p.WorkerJob.TaskList = append(p.WorkerJob.TaskList, &plan.Task{TaskID: 4, AnchorShardID: "D"})

	_, _, err := insertselect.NewScanState(p, e.deps).Next(context.Background())
	assert.True(t, spqrerror.HasCode(err, spqrerror.SPQR_TASK_PRUNING_ERROR))
}

func TestTouchedShardWithoutTask(t *testing.T) {
	e := newEnv(t, hashTarget(), threeShards(t), [][]any{{int64(1), "x"}, {int64(2), "y"}})
	e.executor.EXPECT().RunTasks(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	p := twoPhasePlan(false)
	p.WorkerJob.TaskList = p.WorkerJob.TaskList[:2]

	_, _, err := insertselect.NewScanState(p, e.deps).Next(context.Background())
	assert.True(t, spqrerror.HasCode(err, spqrerror.SPQR_TASK_PRUNING_ERROR))
}

func TestPlanReuse(t *testing.T) {
	assert := assert.New(t)

	e := newEnv(t, hashTarget(), threeShards(t), [][]any{{int64(2), "y"}})

	p := twoPhasePlan(false)
	e.executor.EXPECT().RunTasks(gomock.Any(), []*plan.Task{p.WorkerJob.TaskList[2]}, true, false).
		Return(&tupleslot.TupleTableSlot{}, nil).Times(2)

	for range 2 {
		s := insertselect.NewScanState(p, e.deps)
		assert.Empty(drain(t, s))
		assert.Equal(uint64(1), s.RowsProcessed())
	}
	assert.Len(p.WorkerJob.TaskList, 3)
	assert.Equal("SELECT a, b FROM src", p.InsertSelectSubquery.Text)
}

func TestSubPartitionsAreLocked(t *testing.T) {
	assert := assert.New(t)

	target := hashTarget()
	target.SubPartitions = []string{"orders_2024", "orders_2025"}
	e := newEnv(t, target, threeShards(t), nil)

	released := false
	e.mgr.EXPECT().LockSubPartitions(gomock.Any(), "orders", meta.RowExclusiveLock).
		Return(meta.ReleaseFunc(func(context.Context) error {
			released = true
			return nil
		}), nil).Times(1)

	p := twoPhasePlan(false)
	assert.Empty(drain(t, insertselect.NewScanState(p, e.deps)))

	require.Len(t, e.tx.releases, 1)
	assert.NoError(e.tx.releases[0](context.Background()))
	assert.True(released)
}

func TestInvalidPlan(t *testing.T) {
	e := newEnv(t, hashTarget(), threeShards(t), nil)

	p := twoPhasePlan(false)
	p.IntermediateResultIDPrefix = ""

	_, _, err := insertselect.NewScanState(p, e.deps).Next(context.Background())
	assert.True(t, spqrerror.HasCode(err, spqrerror.SPQR_INVALID_REQUEST))
	assert.Equal(t, 0, e.consumed)
}
