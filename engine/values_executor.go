package engine

import (
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// ValuesExecutor 产出计划内嵌的字面值行，插入计划的典型子算子
type ValuesExecutor struct {
	ctx  *ExecutorContext
	plan *plan.ValuesPlanNode
	pos  int
}

func NewValuesExecutor(ctx *ExecutorContext, p *plan.ValuesPlanNode) *ValuesExecutor {
	return &ValuesExecutor{ctx: ctx, plan: p}
}

func (e *ValuesExecutor) Init() error {
	e.pos = 0
	return nil
}

func (e *ValuesExecutor) Next() (*record.Tuple, basic.RID, error) {
	if e.pos >= len(e.plan.Values) {
		return nil, basic.InvalidRID, nil
	}
	row := e.plan.Values[e.pos]
	e.pos++

	values := make([]basic.Value, 0, len(row))
	for _, expr := range row {
		values = append(values, expr.Evaluate(nil, nil))
	}
	return record.NewTuple(values, e.plan.OutputSchema()), basic.InvalidRID, nil
}
