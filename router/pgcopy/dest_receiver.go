package pgcopy

import (
	"context"

	"github.com/pg-sharding/spqr-insel/pkg/config"
	"github.com/pg-sharding/spqr-insel/pkg/datashard"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"go.uber.org/multierr"
)

type shardDest struct {
	id     string
	writer datashard.ShardWriter
	batch  [][]any

	// set once the shard failed, further rows are dropped
	err error
}

// DestReceiver routes rows to per-shard COPY writers.
type DestReceiver struct {
	state    CopyState
	provider datashard.WriterProvider

	shards  map[string]*shardDest
	touched *ShardSet

	rowsSent uint64

	closed bool
}

var _ Receiver = &DestReceiver{}

func NewDestReceiver(ctx context.Context, state CopyState, provider datashard.WriterProvider) (*DestReceiver, error) {
	if state.Router == nil {
		return nil, spqrerror.New(spqrerror.SPQR_UNEXPECTED, "destination receiver requires a row router")
	}
	if state.Target == nil {
		return nil, spqrerror.New(spqrerror.SPQR_UNEXPECTED, "destination receiver requires a target relation")
	}
	if state.BatchSize <= 0 {
		state.BatchSize = config.DefaultBatchSize
	}

	spqrlog.Zero.Debug().
		Str("relation", state.Target.ID).
		Strs("columns", state.ColumnNames).
		Str("intermediate-result-prefix", state.IntermediateResultIDPrefix).
		Bool("stop-on-failure", state.StopOnFailure).
		Msg("opening destination receiver")

	return &DestReceiver{
		state:    state,
		provider: provider,
		shards:   map[string]*shardDest{},
		touched:  NewShardSet(),
	}, nil
}

func (d *DestReceiver) destination(shardID string) datashard.Destination {
	dest := datashard.Destination{
		Relation: d.state.Target.ID,
		Columns:  d.state.ColumnNames,
	}
	if d.state.IntermediateResultIDPrefix != "" {
		dest.ResultName = IntermediateResultName(d.state.IntermediateResultIDPrefix, shardID)
	}
	return dest
}

// fail records err for shard sd. Under stop-on-failure err is returned to
// the caller, otherwise the shard is quarantined until Close.
func (d *DestReceiver) fail(sd *shardDest, err error) error {
	sd.err = err
	sd.batch = nil
	spqrlog.Zero.Error().Err(err).Str("shard", sd.id).Msg("shard write failed")
	if d.state.StopOnFailure {
		return err
	}
	return nil
}

func (d *DestReceiver) flush(ctx context.Context, sd *shardDest) error {
	if len(sd.batch) == 0 || sd.err != nil {
		return nil
	}
	batch := sd.batch
	sd.batch = make([][]any, 0, d.state.BatchSize)
	if err := sd.writer.Write(ctx, batch); err != nil {
		return d.fail(sd, err)
	}
	return nil
}

func (d *DestReceiver) Receive(ctx context.Context, row []any) error {
	if d.closed {
		return spqrerror.New(spqrerror.SPQR_UNEXPECTED, "destination receiver is closed")
	}

	sk, err := d.state.Router.RouteRow(row)
	if err != nil {
		return err
	}

	sd, ok := d.shards[sk.Name]
	if !ok {
		sd = &shardDest{id: sk.Name}
		d.shards[sk.Name] = sd
		if w, err := d.provider.OpenWriter(ctx, sk.Name, d.destination(sk.Name)); err != nil {
			if err := d.fail(sd, err); err != nil {
				return err
			}
		} else {
			sd.writer = w
			sd.batch = make([][]any, 0, d.state.BatchSize)
		}
	}
	if d.touched.Add(sk.Name) {
		spqrlog.Zero.Debug().Str("shard", sk.Name).Msg("shard touched")
	}
	d.rowsSent++

	if sd.err != nil {
		return nil
	}
	sd.batch = append(sd.batch, row)
	if len(sd.batch) >= d.state.BatchSize {
		return d.flush(ctx, sd)
	}
	return nil
}

// Close flushes pending batches and waits for every shard writer.
// Errors of all failed shards are combined.
func (d *DestReceiver) Close(ctx context.Context) (*SinkSummary, error) {
	if d.closed {
		return nil, spqrerror.New(spqrerror.SPQR_UNEXPECTED, "destination receiver is already closed")
	}
	d.closed = true

	ids := d.touched.List()
	for _, id := range ids {
		sd := d.shards[id]
		if err := d.flush(ctx, sd); err != nil {
			d.abortWriters()
			return nil, err
		}
	}

	var errs error
	for _, id := range ids {
		sd := d.shards[id]
		if sd.writer == nil {
			errs = multierr.Append(errs, sd.err)
			continue
		}
		rows, err := sd.writer.Close(ctx)
		if err == nil {
			err = sd.err
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		spqrlog.Zero.Debug().Str("shard", id).Int64("rows", rows).Msg("shard writer closed")
	}
	if errs != nil {
		return nil, errs
	}

	return &SinkSummary{
		RowsSent:      d.rowsSent,
		TouchedShards: d.touched,
	}, nil
}

func (d *DestReceiver) abortWriters() {
	for _, sd := range d.shards {
		if sd.writer != nil {
			sd.writer.Abort()
		}
	}
}

// Abort cancels all shard writers. It is a no-op after Close.
func (d *DestReceiver) Abort() {
	if d.closed {
		return
	}
	d.closed = true
	d.abortWriters()
	spqrlog.Zero.Debug().Int("shards", len(d.shards)).Msg("destination receiver aborted")
}
