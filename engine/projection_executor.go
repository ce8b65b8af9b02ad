package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// ProjectionExecutor 投影算子
type ProjectionExecutor struct {
	ctx         *ExecutorContext
	plan        *plan.ProjectionPlanNode
	child       Executor
	childSchema *record.Schema
}

func NewProjectionExecutor(ctx *ExecutorContext, p *plan.ProjectionPlanNode, child Executor) *ProjectionExecutor {
	return &ProjectionExecutor{ctx: ctx, plan: p, child: child, childSchema: p.Child(0).OutputSchema()}
}

func (e *ProjectionExecutor) Init() error {
	return errors.Trace(e.child.Init())
}

func (e *ProjectionExecutor) Next() (*record.Tuple, basic.RID, error) {
	tuple, rid, err := e.child.Next()
	if err != nil || tuple == nil {
		return nil, basic.InvalidRID, errors.Trace(err)
	}
	values := make([]basic.Value, 0, len(e.plan.Expressions))
	for _, expr := range e.plan.Expressions {
		values = append(values, expr.Evaluate(tuple, e.childSchema))
	}
	return record.NewTuple(values, e.plan.OutputSchema()), rid, nil
}
