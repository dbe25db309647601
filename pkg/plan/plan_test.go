package plan_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectQueryCopy(t *testing.T) {
	assert := assert.New(t)

	orig := &plan.SelectQuery{
		Text:       "SELECT id, v FROM src WHERE id > $1",
		Params:     []any{[]byte("10"), int64(3)},
		TargetList: []*plan.TargetEntry{{Expr: "id", ResName: "id"}},
		Relations:  []string{"src"},
		Hints:      map[string]string{"target_session_attrs": "read-write"},
	}

	cp := orig.Copy()
	assert.Equal(orig, cp)

	cp.Text = "SELECT 1"
	cp.Params[0].([]byte)[0] = 'X'
	cp.TargetList[0].ResName = "changed"
	cp.Relations[0] = "other"
	cp.Hints["target_session_attrs"] = "any"

	assert.Equal("SELECT id, v FROM src WHERE id > $1", orig.Text)
	assert.Equal([]byte("10"), orig.Params[0])
	assert.Equal("id", orig.TargetList[0].ResName)
	assert.Equal("src", orig.Relations[0])
	assert.Equal("read-write", orig.Hints["target_session_attrs"])

	var nilq *plan.SelectQuery
	assert.Nil(nilq.Copy())
}

func validPlan() *plan.DistributedPlan {
	return &plan.DistributedPlan{
		TargetRelationID: "orders",
		InsertTargetList: []*plan.TargetEntry{
			{Expr: "id", ResName: "id"},
			{Expr: "amount", ResName: "amount"},
		},
		InsertSelectSubquery: &plan.SelectQuery{Text: "SELECT id, amount FROM staging"},
	}
}

func TestDistributedPlanValidate(t *testing.T) {
	assert := assert.New(t)

	p := validPlan()
	assert.NoError(p.Validate())
	assert.Equal([]string{"id", "amount"}, p.ColumnNames())

	p.WorkerJob = &plan.Job{}
	assert.True(spqrerror.HasCode(p.Validate(), spqrerror.SPQR_INVALID_REQUEST))
	p.IntermediateResultIDPrefix = "insert_select_1"
	assert.NoError(p.Validate())

	p = validPlan()
	p.HasReturning = true
	assert.Error(p.Validate())

	p = validPlan()
	p.InsertTargetList = append(p.InsertTargetList, &plan.TargetEntry{Expr: "id", ResName: "id"})
	assert.Error(p.Validate())

	p = validPlan()
	p.TargetRelationID = ""
	assert.Error(p.Validate())
}

func TestLoadPlan(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
target_relation: orders
target_list:
  - expr: id
    resname: id
  - expr: amount
    resname: amount
select:
  text: SELECT id, amount FROM staging
worker_job:
  tasks:
    - task_id: 1
      anchor_shard: sh1
      query: INSERT INTO orders SELECT * FROM insert_select_1_sh1 ON CONFLICT DO NOTHING
    - task_id: 2
      anchor_shard: sh2
      query: INSERT INTO orders SELECT * FROM insert_select_1_sh2 ON CONFLICT DO NOTHING
has_returning: false
intermediate_result_prefix: insert_select_1
`), 0o600))

	p, err := plan.LoadPlan(path)
	assert.NoError(err)
	assert.Equal("orders", p.TargetRelationID)
	assert.Len(p.WorkerJob.TaskList, 2)
	assert.Equal("sh2", p.WorkerJob.TaskList[1].AnchorShardID)
	assert.Equal(uint64(1), p.WorkerJob.TaskList[0].TaskID)
}
