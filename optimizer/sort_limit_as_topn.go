package optimizer

import (
	"github.com/zhukovaskychina/xengine/plan"
)

// optimizeSortLimitAsTopN Limit(Sort(x))改写为TopN(x)，
// 全量物化排序换成N容量的有界结构
func (o *Optimizer) optimizeSortLimitAsTopN(p plan.PlanNode) plan.PlanNode {
	p = rewriteChildren(p, o.optimizeSortLimitAsTopN)

	limit, ok := p.(*plan.LimitPlanNode)
	if !ok {
		return p
	}
	sortPlan, ok := limit.Child(0).(*plan.SortPlanNode)
	if !ok {
		return p
	}
	return plan.NewTopNPlan(limit.OutputSchema(), sortPlan.OrderBys, limit.Limit, sortPlan.Child(0))
}
