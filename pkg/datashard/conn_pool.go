package datashard

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/pg-sharding/spqr-insel/pkg/config"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/pkg/xact"
)

// ConnPool keeps one session per shard, opened on the shard master.
type ConnPool struct {
	mu     sync.Mutex
	shards map[string]*config.ShardConnect
	conns  map[string]*pgx.Conn
}

var _ xact.Beginner = &ConnPool{}

func NewConnPool(shards map[string]*config.ShardConnect) *ConnPool {
	return &ConnPool{
		shards: shards,
		conns:  map[string]*pgx.Conn{},
	}
}

func traceLevel() tracelog.LogLevel {
	if spqrlog.IsDebugLevel() {
		return tracelog.LogLevelDebug
	}
	return tracelog.LogLevelWarn
}

// Connect opens a session to the first writable host of s.
func Connect(ctx context.Context, name string, s *config.ShardConnect) (*pgx.Conn, error) {
	for _, dsn := range s.GetConnStrings() {
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, err
		}
		cfg.Tracer = &tracelog.TraceLog{
			Logger:   &spqrlog.ZeroTraceLogger{Shard: name},
			LogLevel: traceLevel(),
		}

		conn, err := pgx.ConnectConfig(ctx, cfg)
		if err != nil {
			spqrlog.Zero.Warn().Err(err).Str("shard", name).Str("host", cfg.Host).Msg("failed to connect to shard host")
			continue
		}
		var isMaster bool
		row := conn.QueryRow(ctx, "SELECT NOT pg_is_in_recovery() as is_master;")
		if err = row.Scan(&isMaster); err != nil {
			_ = conn.Close(ctx)
			return nil, err
		}
		if isMaster {
			return conn, nil
		}
		_ = conn.Close(ctx)
	}
	return nil, spqrerror.Newf(spqrerror.SPQR_CONNECTION_ERROR, "unable to find master of shard %s", name)
}

func (p *ConnPool) conn(ctx context.Context, shardID string) (*pgx.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.conns[shardID]; ok && !c.IsClosed() {
		return c, nil
	}
	s, ok := p.shards[shardID]
	if !ok {
		return nil, spqrerror.Newf(spqrerror.SPQR_OBJECT_NOT_EXIST, "no connection settings for shard %s", shardID)
	}
	c, err := Connect(ctx, shardID, s)
	if err != nil {
		return nil, err
	}
	p.conns[shardID] = c
	return c, nil
}

// BeginTx implements xact.Beginner.
func (p *ConnPool) BeginTx(ctx context.Context, shardID string) (xact.ShardTx, error) {
	c, err := p.conn(ctx, shardID)
	if err != nil {
		return nil, err
	}
	return c.Begin(ctx)
}

func (p *ConnPool) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, c := range p.conns {
		if err := c.Close(ctx); err != nil {
			spqrlog.Zero.Error().Err(err).Str("shard", id).Msg("failed to close shard connection")
		}
	}
	p.conns = map[string]*pgx.Conn{}
}
