package plan

import (
	"github.com/pg-sharding/spqr-insel/pkg/config"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
)

// TargetEntry is one position of the SELECT target list together with the
// destination column it is written to.
type TargetEntry struct {
	Expr    string `json:"expr" yaml:"expr"`
	ResName string `json:"resname" yaml:"resname"`
}

// Task is a unit of second-phase work bound to its anchor shard.
type Task struct {
	TaskID        uint64 `json:"task_id" yaml:"task_id"`
	AnchorShardID string `json:"anchor_shard" yaml:"anchor_shard"`
	Query         string `json:"query" yaml:"query"`
	Params        []any  `json:"params,omitempty" yaml:"params,omitempty"`
}

type Job struct {
	TaskList []*Task `json:"tasks" yaml:"tasks"`
}

// DistributedPlan is the precomputed plan of an INSERT ... SELECT statement.
// It is never modified by the executor.
type DistributedPlan struct {
	TargetRelationID     string         `json:"target_relation" yaml:"target_relation"`
	InsertTargetList     []*TargetEntry `json:"target_list" yaml:"target_list"`
	InsertSelectSubquery *SelectQuery   `json:"select" yaml:"select"`

	// WorkerJob is nil when the statement needs no second phase.
	WorkerJob                  *Job   `json:"worker_job,omitempty" yaml:"worker_job,omitempty"`
	HasReturning               bool   `json:"has_returning" yaml:"has_returning"`
	IntermediateResultIDPrefix string `json:"intermediate_result_prefix,omitempty" yaml:"intermediate_result_prefix,omitempty"`
}

func (p *DistributedPlan) Validate() error {
	if p.TargetRelationID == "" {
		return spqrerror.New(spqrerror.SPQR_INVALID_REQUEST, "plan has no target relation")
	}
	if p.InsertSelectSubquery == nil || p.InsertSelectSubquery.Text == "" {
		return spqrerror.New(spqrerror.SPQR_INVALID_REQUEST, "plan has no select subquery")
	}
	if len(p.InsertTargetList) == 0 {
		return spqrerror.New(spqrerror.SPQR_INVALID_REQUEST, "plan has empty target list")
	}
	seen := map[string]struct{}{}
	for _, te := range p.InsertTargetList {
		if te.ResName == "" {
			return spqrerror.New(spqrerror.SPQR_INVALID_REQUEST, "target list entry without column name")
		}
		if _, ok := seen[te.ResName]; ok {
			return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "column \"%s\" specified more than once", te.ResName)
		}
		seen[te.ResName] = struct{}{}
	}
	if p.WorkerJob != nil && p.IntermediateResultIDPrefix == "" {
		return spqrerror.New(spqrerror.SPQR_INVALID_REQUEST, "second phase requires an intermediate result prefix")
	}
	if p.WorkerJob == nil && p.HasReturning {
		return spqrerror.New(spqrerror.SPQR_INVALID_REQUEST, "RETURNING requires a second phase job")
	}
	return nil
}

// ColumnNames returns destination column names in target list order.
func (p *DistributedPlan) ColumnNames() []string {
	ret := make([]string, len(p.InsertTargetList))
	for i, te := range p.InsertTargetList {
		ret[i] = te.ResName
	}
	return ret
}

// LoadPlan reads a plan from a .yaml, .json or .toml file.
func LoadPlan(path string) (*DistributedPlan, error) {
	var p DistributedPlan
	if err := config.LoadFile(path, &p); err != nil {
		return nil, err
	}
	return &p, p.Validate()
}
