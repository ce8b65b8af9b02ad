package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// NestedLoopJoinExecutor 嵌套循环连接。
// 每取一条左元组就重启右子算子做全量扫描；左外连接在右侧
// 扫完且无匹配时补一条右列全NULL的输出
type NestedLoopJoinExecutor struct {
	ctx   *ExecutorContext
	plan  *plan.NestedLoopJoinPlanNode
	left  Executor
	right Executor

	leftSchema  *record.Schema
	rightSchema *record.Schema

	leftTuple   *record.Tuple
	leftMatched bool
}

func NewNestedLoopJoinExecutor(ctx *ExecutorContext, p *plan.NestedLoopJoinPlanNode,
	left, right Executor) *NestedLoopJoinExecutor {
	return &NestedLoopJoinExecutor{
		ctx:         ctx,
		plan:        p,
		left:        left,
		right:       right,
		leftSchema:  p.Child(0).OutputSchema(),
		rightSchema: p.Child(1).OutputSchema(),
	}
}

func (e *NestedLoopJoinExecutor) Init() error {
	if err := e.left.Init(); err != nil {
		return errors.Trace(err)
	}
	if err := e.right.Init(); err != nil {
		return errors.Trace(err)
	}
	e.leftTuple = nil
	e.leftMatched = false
	return nil
}

func (e *NestedLoopJoinExecutor) Next() (*record.Tuple, basic.RID, error) {
	for {
		if e.leftTuple == nil {
			lt, _, err := e.left.Next()
			if err != nil {
				return nil, basic.InvalidRID, errors.Trace(err)
			}
			if lt == nil {
				return nil, basic.InvalidRID, nil
			}
			e.leftTuple = lt
			e.leftMatched = false
			if err := e.right.Init(); err != nil {
				return nil, basic.InvalidRID, errors.Trace(err)
			}
		}

		rt, _, err := e.right.Next()
		if err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		if rt == nil {
			// 右侧扫完，状态迁移
			if !e.leftMatched && e.plan.JoinKind == plan.LeftJoin {
				out := e.padRight(e.leftTuple)
				e.leftTuple = nil
				return out, basic.InvalidRID, nil
			}
			e.leftTuple = nil
			continue
		}

		if e.plan.Predicate != nil {
			v := e.plan.Predicate.EvaluateJoin(e.leftTuple, e.leftSchema, rt, e.rightSchema)
			if v.IsNull() || !v.AsBool() {
				continue
			}
		}
		e.leftMatched = true
		return e.merge(e.leftTuple, rt), basic.InvalidRID, nil
	}
}

func (e *NestedLoopJoinExecutor) merge(lt, rt *record.Tuple) *record.Tuple {
	values := append(lt.GetValues(e.leftSchema), rt.GetValues(e.rightSchema)...)
	return record.NewTuple(values, e.plan.OutputSchema())
}

// padRight 右列补带类型的NULL
func (e *NestedLoopJoinExecutor) padRight(lt *record.Tuple) *record.Tuple {
	values := lt.GetValues(e.leftSchema)
	for i := 0; i < e.rightSchema.GetColumnCount(); i++ {
		values = append(values, basic.NewNullValue(e.rightSchema.GetColumn(i).Type))
	}
	return record.NewTuple(values, e.plan.OutputSchema())
}
