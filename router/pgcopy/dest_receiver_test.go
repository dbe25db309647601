package pgcopy_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/pg-sharding/spqr-insel/pkg/datashard"
	"github.com/pg-sharding/spqr-insel/pkg/models/distributions"
	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/router/pgcopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// modRouter sends integer key k to shard "sh<k%n>".
type modRouter struct {
	n int64
}

func (r modRouter) RouteRow(row []any) (kr.ShardKey, error) {
	if row[0] == nil {
		return kr.ShardKey{}, spqrerror.New(spqrerror.SPQR_ROUTING_ERROR, "null")
	}
	return kr.ShardKey{Name: fmt.Sprintf("sh%d", row[0].(int64)%r.n), RW: true}, nil
}

type fakeWriter struct {
	mu       sync.Mutex
	rows     [][]any
	batches  int
	writeErr error
	closeErr error
	closed   bool
	aborted  bool
}

func (w *fakeWriter) Write(_ context.Context, batch [][]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return w.writeErr
	}
	w.batches++
	w.rows = append(w.rows, batch...)
	return nil
}

func (w *fakeWriter) Close(context.Context) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return int64(len(w.rows)), w.closeErr
}

func (w *fakeWriter) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.aborted = true
}

type fakeProvider struct {
	writers map[string]*fakeWriter
	dests   map[string]datashard.Destination
	openErr map[string]error
	prepare func(shardID string, w *fakeWriter)
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		writers: map[string]*fakeWriter{},
		dests:   map[string]datashard.Destination{},
		openErr: map[string]error{},
	}
}

func (p *fakeProvider) OpenWriter(_ context.Context, shardID string, dest datashard.Destination) (datashard.ShardWriter, error) {
	if err := p.openErr[shardID]; err != nil {
		return nil, err
	}
	w := &fakeWriter{}
	if p.prepare != nil {
		p.prepare(shardID, w)
	}
	p.writers[shardID] = w
	p.dests[shardID] = dest
	return w, nil
}

func target(method distributions.PartitionMethod) *distributions.TargetRelation {
	t := &distributions.TargetRelation{ID: "orders", Method: method}
	if method != distributions.MethodNone {
		t.PartitionColumn = &distributions.PartitionColumn{DistributionKeyEntry: distributions.DistributionKeyEntry{Column: "id"}, ColType: "integer"}
	}
	return t
}

func TestShardSet(t *testing.T) {
	assert := assert.New(t)

	s := pgcopy.NewShardSet()
	assert.Equal(0, s.Len())
	assert.True(s.Add("b"))
	assert.False(s.Add("b"))
	assert.True(s.Add("a"))
	assert.True(s.Contains("a"))
	assert.False(s.Contains("c"))
	assert.Equal([]string{"a", "b"}, s.List())

	var empty *pgcopy.ShardSet
	assert.Equal(0, empty.Len())
	assert.False(empty.Contains("a"))
}

func TestIntermediateResultName(t *testing.T) {
	assert.Equal(t, "insert_select_42_sh1", pgcopy.IntermediateResultName("insert_select_42", "sh1"))
}

func TestReceiveRoutesRowsInOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	p := newFakeProvider()
	d, err := pgcopy.NewDestReceiver(ctx, pgcopy.CopyState{
		Target:      target(distributions.MethodHash),
		Router:      modRouter{n: 3},
		ColumnNames: []string{"id", "v"},
		BatchSize:   2,
	}, p)
	require.NoError(t, err)

	for i := int64(0); i < 10; i += 2 {
		assert.NoError(d.Receive(ctx, []any{i, fmt.Sprint(i)}))
	}

	summary, err := d.Close(ctx)
	require.NoError(t, err)
	assert.Equal(uint64(5), summary.RowsSent)
	assert.Equal([]string{"sh0", "sh1", "sh2"}, summary.TouchedShards.List())

	assert.Equal([][]any{{int64(0), "0"}, {int64(6), "6"}}, p.writers["sh0"].rows)
	assert.Equal([][]any{{int64(4), "4"}}, p.writers["sh1"].rows)
	assert.Equal([][]any{{int64(2), "2"}, {int64(8), "8"}}, p.writers["sh2"].rows)
	assert.Equal(1, p.writers["sh0"].batches)
	for _, w := range p.writers {
		assert.True(w.closed)
		assert.False(w.aborted)
	}
	assert.Equal(datashard.Destination{Relation: "orders", Columns: []string{"id", "v"}}, p.dests["sh0"])
}

func TestUntouchedShardsAreNotOpened(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	p := newFakeProvider()
	d, err := pgcopy.NewDestReceiver(ctx, pgcopy.CopyState{
		Target:                     target(distributions.MethodHash),
		Router:                     modRouter{n: 3},
		ColumnNames:                []string{"id"},
		IntermediateResultIDPrefix: "ir_7",
	}, p)
	require.NoError(t, err)

	assert.NoError(d.Receive(ctx, []any{int64(3)}))
	assert.NoError(d.Receive(ctx, []any{int64(5)}))

	summary, err := d.Close(ctx)
	require.NoError(t, err)
	assert.Equal([]string{"sh0", "sh2"}, summary.TouchedShards.List())
	assert.False(summary.TouchedShards.Contains("sh1"))
	assert.Len(p.writers, 2)
	assert.Equal("ir_7_sh2", p.dests["sh2"].ResultName)
}

func TestEmptyInput(t *testing.T) {
	ctx := context.Background()

	d, err := pgcopy.NewDestReceiver(ctx, pgcopy.CopyState{Target: target(distributions.MethodHash), Router: modRouter{n: 3}}, newFakeProvider())
	require.NoError(t, err)

	summary, err := d.Close(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), summary.RowsSent)
	assert.Equal(t, 0, summary.TouchedShards.Len())
}

func TestCloseTwice(t *testing.T) {
	ctx := context.Background()

	d, err := pgcopy.NewDestReceiver(ctx, pgcopy.CopyState{Target: target(distributions.MethodHash), Router: modRouter{n: 3}}, newFakeProvider())
	require.NoError(t, err)

	_, err = d.Close(ctx)
	require.NoError(t, err)
	_, err = d.Close(ctx)
	assert.Error(t, err)
	assert.Error(t, d.Receive(ctx, []any{int64(1)}))
}

func TestRoutingErrorIsReturned(t *testing.T) {
	ctx := context.Background()

	d, err := pgcopy.NewDestReceiver(ctx, pgcopy.CopyState{Target: target(distributions.MethodHash), Router: modRouter{n: 3}}, newFakeProvider())
	require.NoError(t, err)

	err = d.Receive(ctx, []any{nil})
	assert.True(t, spqrerror.HasCode(err, spqrerror.SPQR_ROUTING_ERROR))
}

func TestStopOnFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	writeErr := spqrerror.New(spqrerror.SPQR_SHARD_WRITE_ERROR, "connection reset")
	p := newFakeProvider()
	p.prepare = func(_ string, w *fakeWriter) { w.writeErr = writeErr }

	d, err := pgcopy.NewDestReceiver(ctx, pgcopy.CopyState{
		Target:        target(distributions.MethodNone),
		Router:        modRouter{n: 1},
		StopOnFailure: true,
		BatchSize:     1,
	}, p)
	require.NoError(t, err)

	err = d.Receive(ctx, []any{int64(1)})
	assert.ErrorIs(err, writeErr)

	d.Abort()
	assert.True(p.writers["sh0"].aborted)
	_, err = d.Close(ctx)
	assert.Error(err)
}

func TestPartialFailureIsDeferred(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	errSh1 := errors.New("sh1 is down")
	errSh2 := spqrerror.New(spqrerror.SPQR_SHARD_WRITE_ERROR, "sh2 disk full")

	p := newFakeProvider()
	p.openErr["sh1"] = errSh1
	p.prepare = func(id string, w *fakeWriter) {
		if id == "sh2" {
			w.writeErr = errSh2
		}
	}

	d, err := pgcopy.NewDestReceiver(ctx, pgcopy.CopyState{
		Target:    target(distributions.MethodHash),
		Router:    modRouter{n: 3},
		BatchSize: 1,
	}, p)
	require.NoError(t, err)

	for i := int64(0); i < 9; i++ {
		assert.NoError(d.Receive(ctx, []any{i}))
	}
	assert.Len(p.writers["sh0"].rows, 3)
	assert.Empty(p.writers["sh2"].rows)

	_, err = d.Close(ctx)
	require.Error(t, err)
	assert.ErrorIs(err, errSh1)
	assert.ErrorIs(err, errSh2)
	assert.Len(multierr.Errors(err), 2)
	assert.True(p.writers["sh0"].closed)
}

func TestCloseReportsWriterFailure(t *testing.T) {
	ctx := context.Background()

	closeErr := errors.New("copy failed")
	p := newFakeProvider()
	p.prepare = func(_ string, w *fakeWriter) { w.closeErr = closeErr }

	d, err := pgcopy.NewDestReceiver(ctx, pgcopy.CopyState{Target: target(distributions.MethodHash), Router: modRouter{n: 2}}, p)
	require.NoError(t, err)
	require.NoError(t, d.Receive(ctx, []any{int64(1)}))

	_, err = d.Close(ctx)
	assert.ErrorIs(t, err, closeErr)
}
