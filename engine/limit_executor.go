package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// LimitExecutor 行数限制算子
type LimitExecutor struct {
	ctx     *ExecutorContext
	plan    *plan.LimitPlanNode
	child   Executor
	emitted int
}

func NewLimitExecutor(ctx *ExecutorContext, p *plan.LimitPlanNode, child Executor) *LimitExecutor {
	return &LimitExecutor{ctx: ctx, plan: p, child: child}
}

func (e *LimitExecutor) Init() error {
	e.emitted = 0
	return errors.Trace(e.child.Init())
}

func (e *LimitExecutor) Next() (*record.Tuple, basic.RID, error) {
	if e.emitted >= e.plan.Limit {
		return nil, basic.InvalidRID, nil
	}
	tuple, rid, err := e.child.Next()
	if err != nil || tuple == nil {
		return nil, basic.InvalidRID, errors.Trace(err)
	}
	e.emitted++
	return tuple, rid, nil
}
