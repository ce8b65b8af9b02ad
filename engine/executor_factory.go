package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/plan"
)

// CreateExecutor 把计划树编译为算子树
func CreateExecutor(ctx *ExecutorContext, p plan.PlanNode) (Executor, error) {
	switch node := p.(type) {
	case *plan.SeqScanPlanNode:
		return NewSeqScanExecutor(ctx, node), nil
	case *plan.IndexScanPlanNode:
		return NewIndexScanExecutor(ctx, node), nil
	case *plan.FilterPlanNode:
		child, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		return NewFilterExecutor(ctx, node, child), nil
	case *plan.ProjectionPlanNode:
		child, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		return NewProjectionExecutor(ctx, node, child), nil
	case *plan.LimitPlanNode:
		child, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		return NewLimitExecutor(ctx, node, child), nil
	case *plan.SortPlanNode:
		child, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		return NewSortExecutor(ctx, node, child), nil
	case *plan.TopNPlanNode:
		child, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		return NewTopNExecutor(ctx, node, child), nil
	case *plan.AggregationPlanNode:
		child, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		return NewAggregationExecutor(ctx, node, child), nil
	case *plan.NestedLoopJoinPlanNode:
		left, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		right, err := CreateExecutor(ctx, node.Child(1))
		if err != nil {
			return nil, err
		}
		return NewNestedLoopJoinExecutor(ctx, node, left, right), nil
	case *plan.HashJoinPlanNode:
		left, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		right, err := CreateExecutor(ctx, node.Child(1))
		if err != nil {
			return nil, err
		}
		return NewHashJoinExecutor(ctx, node, left, right), nil
	case *plan.InsertPlanNode:
		child, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		return NewInsertExecutor(ctx, node, child), nil
	case *plan.UpdatePlanNode:
		child, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		return NewUpdateExecutor(ctx, node, child), nil
	case *plan.DeletePlanNode:
		child, err := CreateExecutor(ctx, node.Child(0))
		if err != nil {
			return nil, err
		}
		return NewDeleteExecutor(ctx, node, child), nil
	case *plan.ValuesPlanNode:
		return NewValuesExecutor(ctx, node), nil
	}
	return nil, errors.NotSupportedf("plan node %T", p)
}
