package optimizer

import (
	"github.com/zhukovaskychina/xengine/plan"
)

// optimizeSeqScanAsIndexScan 等值过滤的顺序扫描改写为索引点查。
// 匹配条件：谓词形如 列 = 常量，且表上存在恰好以该列为键的单列索引
func (o *Optimizer) optimizeSeqScanAsIndexScan(p plan.PlanNode) plan.PlanNode {
	p = rewriteChildren(p, o.optimizeSeqScanAsIndexScan)

	seqScan, ok := p.(*plan.SeqScanPlanNode)
	if !ok || seqScan.FilterPredicate == nil {
		return p
	}
	cmp, ok := seqScan.FilterPredicate.(*plan.ComparisonExpression)
	if !ok || cmp.Op != plan.Equal {
		return p
	}
	col, ok := cmp.Left.(*plan.ColumnValueExpression)
	if !ok {
		return p
	}
	constant, ok := cmp.Right.(*plan.ConstantValueExpression)
	if !ok {
		return p
	}

	for _, idx := range o.catalog.GetTableIndexes(seqScan.TableName) {
		attrs := idx.KeyAttrs
		if len(attrs) == 1 && attrs[0] == uint32(col.ColIdx) {
			return plan.NewIndexScanPlan(seqScan.OutputSchema(), seqScan.TableOID, idx.OID,
				constant, seqScan.FilterPredicate)
		}
	}
	return p
}
