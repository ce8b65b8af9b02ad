package optimizer

import (
	"github.com/zhukovaskychina/xengine/metadata"
	"github.com/zhukovaskychina/xengine/plan"
)

// Optimizer 对计划树做等价改写。规则自底向上应用，不改变可见语义
type Optimizer struct {
	catalog *metadata.Catalog
}

// NewOptimizer 创建优化器
func NewOptimizer(catalog *metadata.Catalog) *Optimizer {
	return &Optimizer{catalog: catalog}
}

// Optimize 依次应用全部规则
func (o *Optimizer) Optimize(p plan.PlanNode) plan.PlanNode {
	p = o.optimizeSeqScanAsIndexScan(p)
	p = o.optimizeNLJAsHashJoin(p)
	p = o.optimizeSortLimitAsTopN(p)
	return p
}

// rewriteChildren 先递归改写子树，再返回带新子树的同型节点。
// 节点类型有限，逐型重建
func rewriteChildren(p plan.PlanNode, rewrite func(plan.PlanNode) plan.PlanNode) plan.PlanNode {
	children := p.Children()
	if len(children) == 0 {
		return p
	}
	newChildren := make([]plan.PlanNode, len(children))
	changed := false
	for i, c := range children {
		newChildren[i] = rewrite(c)
		if newChildren[i] != c {
			changed = true
		}
	}
	if !changed {
		return p
	}
	return cloneWithChildren(p, newChildren)
}

func cloneWithChildren(p plan.PlanNode, children []plan.PlanNode) plan.PlanNode {
	switch node := p.(type) {
	case *plan.FilterPlanNode:
		return plan.NewFilterPlan(node.OutputSchema(), node.Predicate, children[0])
	case *plan.ProjectionPlanNode:
		return plan.NewProjectionPlan(node.OutputSchema(), node.Expressions, children[0])
	case *plan.LimitPlanNode:
		return plan.NewLimitPlan(node.OutputSchema(), node.Limit, children[0])
	case *plan.SortPlanNode:
		return plan.NewSortPlan(node.OutputSchema(), node.OrderBys, children[0])
	case *plan.TopNPlanNode:
		return plan.NewTopNPlan(node.OutputSchema(), node.OrderBys, node.N, children[0])
	case *plan.AggregationPlanNode:
		return plan.NewAggregationPlan(node.OutputSchema(), node.GroupBys, node.Aggregates, node.AggTypes, children[0])
	case *plan.NestedLoopJoinPlanNode:
		return plan.NewNestedLoopJoinPlan(node.OutputSchema(), children[0], children[1], node.Predicate, node.JoinKind)
	case *plan.HashJoinPlanNode:
		return plan.NewHashJoinPlan(node.OutputSchema(), children[0], children[1],
			node.LeftKeyExpressions, node.RightKeyExpressions, node.JoinKind)
	case *plan.InsertPlanNode:
		return plan.NewInsertPlan(node.OutputSchema(), node.TableOID, children[0])
	case *plan.UpdatePlanNode:
		return plan.NewUpdatePlan(node.OutputSchema(), node.TableOID, node.TargetExpressions, children[0])
	case *plan.DeletePlanNode:
		return plan.NewDeletePlan(node.OutputSchema(), node.TableOID, children[0])
	}
	return p
}
