package selectinto

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pg-sharding/lyx/lyx"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/plan"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/router/pgcopy"
)

// Querier is satisfied by *pgx.Conn, pgx.Tx and pool connections.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxQueryExecutor runs SELECT queries on a single PostgreSQL session.
type PgxQueryExecutor struct {
	conn Querier
	name string
}

var _ QueryExecutor = &PgxQueryExecutor{}

func NewPgxQueryExecutor(name string, conn Querier) *PgxQueryExecutor {
	return &PgxQueryExecutor{
		conn: conn,
		name: name,
	}
}

// CheckSelect verifies that text is a single row-producing statement.
func CheckSelect(text string) error {
	stmt, err := lyx.Parse(text)
	if err != nil {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "failed to parse select subquery: %w", err)
	}
	switch stmt.(type) {
	case *lyx.Select, *lyx.ValueClause:
		return nil
	default:
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "subquery of INSERT ... SELECT is not a SELECT: %T", stmt)
	}
}

func (e *PgxQueryExecutor) ExecuteInto(ctx context.Context, q *plan.SelectQuery, r pgcopy.Receiver) error {
	if err := CheckSelect(q.Text); err != nil {
		return err
	}

	spqrlog.Zero.Debug().Str("source", e.name).Str("query", q.Text).Msg("executing select")

	start := time.Now()
	defer func() {
		spqrlog.SLogger.ReportStatement(spqrlog.StmtTypeSelect, e.name, q.Text, time.Since(start))
	}()

	rows, err := e.conn.Query(ctx, q.Text, q.Params...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return err
		}
		if err := r.Receive(ctx, vals); err != nil {
			return err
		}
	}
	return rows.Err()
}
