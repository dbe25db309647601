package spqrlog

import "time"

type StmtType string

const (
	StmtTypeSelect   = StmtType("SELECT")
	StmtTypeCopy     = StmtType("COPY")
	StmtTypeTask     = StmtType("TASK")
	StmtTypeTxFinish = StmtType("TXFINISH")
)

var SLogger = NewStmtLogger(-1)

type StmtLogger struct {
	logMinDurationStatement time.Duration
}

func NewStmtLogger(logMinDurationStatement time.Duration) *StmtLogger {
	return &StmtLogger{
		logMinDurationStatement: logMinDurationStatement,
	}
}

func ReloadSLogger(logMinDurationStatement time.Duration) {
	SLogger = NewStmtLogger(logMinDurationStatement)
}

func (s *StmtLogger) shouldLogStatement(t time.Duration) bool {
	return s.logMinDurationStatement != -1 && t > s.logMinDurationStatement
}

// ReportStatement logs stmt when it ran longer than the configured threshold.
func (s *StmtLogger) ReportStatement(typ StmtType, shard string, stmt string, t time.Duration) {
	if s.shouldLogStatement(t) {
		Zero.Info().
			Str("shard", shard).
			Str("stmt", stmt).
			Str("stmt_type", string(typ)).
			Dur("duration", t).
			Msg("log statement")
	}
}
