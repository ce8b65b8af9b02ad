package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// FilterExecutor 过滤算子
type FilterExecutor struct {
	ctx   *ExecutorContext
	plan  *plan.FilterPlanNode
	child Executor
}

func NewFilterExecutor(ctx *ExecutorContext, p *plan.FilterPlanNode, child Executor) *FilterExecutor {
	return &FilterExecutor{ctx: ctx, plan: p, child: child}
}

func (e *FilterExecutor) Init() error {
	return errors.Trace(e.child.Init())
}

func (e *FilterExecutor) Next() (*record.Tuple, basic.RID, error) {
	schema := e.plan.OutputSchema()
	for {
		tuple, rid, err := e.child.Next()
		if err != nil || tuple == nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		if evalPredicate(e.plan.Predicate, tuple, schema) {
			return tuple, rid, nil
		}
	}
}
