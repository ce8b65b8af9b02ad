package optimizer

import (
	"github.com/zhukovaskychina/xengine/plan"
)

// optimizeNLJAsHashJoin 等值谓词的嵌套循环连接改写为哈希连接。
// 谓词须为单个等式或等式的AND树；每个等式两侧都是列引用且
// 分属连接两侧。配对跨合取项保持，键向量按左右侧整理
func (o *Optimizer) optimizeNLJAsHashJoin(p plan.PlanNode) plan.PlanNode {
	p = rewriteChildren(p, o.optimizeNLJAsHashJoin)

	nlj, ok := p.(*plan.NestedLoopJoinPlanNode)
	if !ok || nlj.Predicate == nil {
		return p
	}

	var leftKeys, rightKeys []plan.Expression
	if !collectEquiPairs(nlj.Predicate, &leftKeys, &rightKeys) {
		return p
	}
	return plan.NewHashJoinPlan(nlj.OutputSchema(), nlj.Child(0), nlj.Child(1),
		leftKeys, rightKeys, nlj.JoinKind)
}

// collectEquiPairs 递归拆解AND树。非等值、非列操作数或同侧等式都放弃改写
func collectEquiPairs(expr plan.Expression, leftKeys, rightKeys *[]plan.Expression) bool {
	if logic, ok := expr.(*plan.LogicExpression); ok {
		if logic.Op != plan.And {
			return false
		}
		return collectEquiPairs(logic.Left, leftKeys, rightKeys) &&
			collectEquiPairs(logic.Right, leftKeys, rightKeys)
	}

	cmp, ok := expr.(*plan.ComparisonExpression)
	if !ok || cmp.Op != plan.Equal {
		return false
	}
	lcol, ok := cmp.Left.(*plan.ColumnValueExpression)
	if !ok {
		return false
	}
	rcol, ok := cmp.Right.(*plan.ColumnValueExpression)
	if !ok {
		return false
	}

	switch {
	case lcol.TupleIdx == 0 && rcol.TupleIdx == 1:
		*leftKeys = append(*leftKeys, lcol)
		*rightKeys = append(*rightKeys, rcol)
	case lcol.TupleIdx == 1 && rcol.TupleIdx == 0:
		// 等式写反了方向，键交换归位
		*leftKeys = append(*leftKeys, rcol)
		*rightKeys = append(*rightKeys, lcol)
	default:
		return false
	}
	return true
}
