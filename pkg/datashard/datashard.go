package datashard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/pkg/xact"
)

// Destination is where a shard writer puts rows.
type Destination struct {
	Relation string
	Columns  []string

	// ResultName, when set, names a session-local intermediate result
	// shaped like Relation. Rows go there instead of Relation.
	ResultName string
}

// ShardWriter streams row batches into one shard.
type ShardWriter interface {
	// Write queues a batch. Batches are written in the order they are queued.
	Write(ctx context.Context, batch [][]any) error
	// Close waits until every queued batch is written.
	Close(ctx context.Context) (int64, error)
	// Abort stops the writer, discarding queued batches.
	Abort()
}

type WriterProvider interface {
	OpenWriter(ctx context.Context, shardID string, dest Destination) (ShardWriter, error)
}

// CopyWriter feeds batches to a COPY FROM STDIN running in its own goroutine.
type CopyWriter struct {
	shardID string

	batches   chan [][]any
	closeOnce sync.Once
	done      chan struct{}
	cancel    context.CancelFunc

	// written by run before done is closed
	rows int64
	err  error
}

var _ ShardWriter = &CopyWriter{}

func newCopyWriter(ctx context.Context, shardID string, tx xact.ShardTx, table pgx.Identifier, columns []string, queueDepth int) *CopyWriter {
	wctx, cancel := context.WithCancel(ctx)
	w := &CopyWriter{
		shardID: shardID,
		batches: make(chan [][]any, queueDepth),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go w.run(wctx, tx, table, columns)
	return w
}

func (w *CopyWriter) run(ctx context.Context, tx xact.ShardTx, table pgx.Identifier, columns []string) {
	defer close(w.done)

	var cur [][]any
	idx := 0

	src := pgx.CopyFromFunc(func() ([]any, error) {
		for idx >= len(cur) {
			select {
			case b, ok := <-w.batches:
				if !ok {
					return nil, nil
				}
				cur, idx = b, 0
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		row := cur[idx]
		idx++
		return row, nil
	})

	start := time.Now()
	w.rows, w.err = tx.CopyFrom(ctx, table, columns, src)
	spqrlog.SLogger.ReportStatement(spqrlog.StmtTypeCopy, w.shardID, "COPY "+table.Sanitize(), time.Since(start))
	if w.err != nil {
		spqrlog.Zero.Error().Err(w.err).Str("shard", w.shardID).Msg("copy to shard failed")
		w.err = spqrerror.Newf(spqrerror.SPQR_SHARD_WRITE_ERROR, "failed to write to shard %s: %w", w.shardID, w.err)
		return
	}
	spqrlog.Zero.Debug().Str("shard", w.shardID).Int64("rows", w.rows).Msg("copy to shard finished")
}

func (w *CopyWriter) Write(ctx context.Context, batch [][]any) error {
	select {
	case <-w.done:
		return w.finishedErr()
	default:
	}
	select {
	case w.batches <- batch:
		return nil
	case <-w.done:
		return w.finishedErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *CopyWriter) finishedErr() error {
	if w.err != nil {
		return w.err
	}
	return spqrerror.Newf(spqrerror.SPQR_SHARD_WRITE_ERROR, "writer of shard %s is closed", w.shardID)
}

func (w *CopyWriter) Close(ctx context.Context) (int64, error) {
	w.closeOnce.Do(func() { close(w.batches) })
	select {
	case <-w.done:
	case <-ctx.Done():
		w.cancel()
		<-w.done
	}
	w.cancel()
	return w.rows, w.err
}

func (w *CopyWriter) Abort() {
	w.cancel()
	w.closeOnce.Do(func() { close(w.batches) })
	<-w.done
}

// CopyProvider opens COPY writers on the shard transactions of a TxContext.
type CopyProvider struct {
	txCtx      *xact.TxContext
	queueDepth int
}

var _ WriterProvider = &CopyProvider{}

func NewCopyProvider(txCtx *xact.TxContext, queueDepth int) *CopyProvider {
	if queueDepth <= 0 {
		queueDepth = 1
	}
	return &CopyProvider{
		txCtx:      txCtx,
		queueDepth: queueDepth,
	}
}

// CreateIntermediateResultQuery returns DDL creating an empty temporary
// table named name with the given columns of relation.
func CreateIntermediateResultQuery(name string, relation string, columns []string) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}
	return fmt.Sprintf("CREATE TEMP TABLE %s ON COMMIT DROP AS SELECT %s FROM %s WITH NO DATA",
		pgx.Identifier{name}.Sanitize(), strings.Join(cols, ", "), pgx.Identifier(strings.Split(relation, ".")).Sanitize())
}

func (p *CopyProvider) OpenWriter(ctx context.Context, shardID string, dest Destination) (ShardWriter, error) {
	tx, err := p.txCtx.ShardTx(ctx, shardID)
	if err != nil {
		return nil, err
	}

	table := pgx.Identifier(strings.Split(dest.Relation, "."))
	if dest.ResultName != "" {
		q := CreateIntermediateResultQuery(dest.ResultName, dest.Relation, dest.Columns)
		spqrlog.Zero.Debug().Str("shard", shardID).Str("query", q).Msg("creating intermediate result")
		if _, err := tx.Exec(ctx, q); err != nil {
			return nil, spqrerror.Newf(spqrerror.SPQR_SHARD_WRITE_ERROR, "failed to create intermediate result %s on shard %s: %w", dest.ResultName, shardID, err)
		}
		p.txCtx.MarkTempObjects(shardID)
		table = pgx.Identifier{dest.ResultName}
	}

	return newCopyWriter(ctx, shardID, tx, table, dest.Columns, p.queueDepth), nil
}
