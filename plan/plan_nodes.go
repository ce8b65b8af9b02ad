package plan

import (
	"github.com/zhukovaskychina/xengine/record"
)

// SeqScanPlanNode 顺序扫描
type SeqScanPlanNode struct {
	AbstractPlanNode
	TableOID        uint32
	TableName       string
	FilterPredicate Expression
}

func NewSeqScanPlan(schema *record.Schema, tableOID uint32, tableName string, filter Expression) *SeqScanPlanNode {
	return &SeqScanPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, nil),
		TableOID:         tableOID,
		TableName:        tableName,
		FilterPredicate:  filter,
	}
}

func (p *SeqScanPlanNode) Type() PlanType { return PlanSeqScan }

// IndexScanPlanNode 索引点查
type IndexScanPlanNode struct {
	AbstractPlanNode
	TableOID        uint32
	IndexOID        uint32
	PredKey         *ConstantValueExpression
	FilterPredicate Expression
}

func NewIndexScanPlan(schema *record.Schema, tableOID, indexOID uint32,
	predKey *ConstantValueExpression, filter Expression) *IndexScanPlanNode {
	return &IndexScanPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, nil),
		TableOID:         tableOID,
		IndexOID:         indexOID,
		PredKey:          predKey,
		FilterPredicate:  filter,
	}
}

func (p *IndexScanPlanNode) Type() PlanType { return PlanIndexScan }

// FilterPlanNode 过滤
type FilterPlanNode struct {
	AbstractPlanNode
	Predicate Expression
}

func NewFilterPlan(schema *record.Schema, predicate Expression, child PlanNode) *FilterPlanNode {
	return &FilterPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, []PlanNode{child}),
		Predicate:        predicate,
	}
}

func (p *FilterPlanNode) Type() PlanType { return PlanFilter }

// ProjectionPlanNode 投影
type ProjectionPlanNode struct {
	AbstractPlanNode
	Expressions []Expression
}

func NewProjectionPlan(schema *record.Schema, exprs []Expression, child PlanNode) *ProjectionPlanNode {
	return &ProjectionPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, []PlanNode{child}),
		Expressions:      exprs,
	}
}

func (p *ProjectionPlanNode) Type() PlanType { return PlanProjection }

// LimitPlanNode 限制行数
type LimitPlanNode struct {
	AbstractPlanNode
	Limit int
}

func NewLimitPlan(schema *record.Schema, limit int, child PlanNode) *LimitPlanNode {
	return &LimitPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, []PlanNode{child}),
		Limit:            limit,
	}
}

func (p *LimitPlanNode) Type() PlanType { return PlanLimit }

// SortPlanNode 全量排序
type SortPlanNode struct {
	AbstractPlanNode
	OrderBys []OrderBy
}

func NewSortPlan(schema *record.Schema, orderBys []OrderBy, child PlanNode) *SortPlanNode {
	return &SortPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, []PlanNode{child}),
		OrderBys:         orderBys,
	}
}

func (p *SortPlanNode) Type() PlanType { return PlanSort }

// TopNPlanNode 有界排序
type TopNPlanNode struct {
	AbstractPlanNode
	OrderBys []OrderBy
	N        int
}

func NewTopNPlan(schema *record.Schema, orderBys []OrderBy, n int, child PlanNode) *TopNPlanNode {
	return &TopNPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, []PlanNode{child}),
		OrderBys:         orderBys,
		N:                n,
	}
}

func (p *TopNPlanNode) Type() PlanType { return PlanTopN }

// AggregationPlanNode 哈希聚合。输出模式为group_bys后接aggregates
type AggregationPlanNode struct {
	AbstractPlanNode
	GroupBys   []Expression
	Aggregates []Expression
	AggTypes   []AggregationType
}

func NewAggregationPlan(schema *record.Schema, groupBys, aggregates []Expression,
	aggTypes []AggregationType, child PlanNode) *AggregationPlanNode {
	return &AggregationPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, []PlanNode{child}),
		GroupBys:         groupBys,
		Aggregates:       aggregates,
		AggTypes:         aggTypes,
	}
}

func (p *AggregationPlanNode) Type() PlanType { return PlanAggregation }

// NestedLoopJoinPlanNode 嵌套循环连接
type NestedLoopJoinPlanNode struct {
	AbstractPlanNode
	Predicate Expression
	JoinKind  JoinType
}

func NewNestedLoopJoinPlan(schema *record.Schema, left, right PlanNode,
	predicate Expression, joinKind JoinType) *NestedLoopJoinPlanNode {
	return &NestedLoopJoinPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, []PlanNode{left, right}),
		Predicate:        predicate,
		JoinKind:         joinKind,
	}
}

func (p *NestedLoopJoinPlanNode) Type() PlanType { return PlanNestedLoopJoin }

// HashJoinPlanNode 哈希连接。左右键表达式按连接等式配对
type HashJoinPlanNode struct {
	AbstractPlanNode
	LeftKeyExpressions  []Expression
	RightKeyExpressions []Expression
	JoinKind            JoinType
}

func NewHashJoinPlan(schema *record.Schema, left, right PlanNode,
	leftKeys, rightKeys []Expression, joinKind JoinType) *HashJoinPlanNode {
	return &HashJoinPlanNode{
		AbstractPlanNode:    NewAbstractPlanNode(schema, []PlanNode{left, right}),
		LeftKeyExpressions:  leftKeys,
		RightKeyExpressions: rightKeys,
		JoinKind:            joinKind,
	}
}

func (p *HashJoinPlanNode) Type() PlanType { return PlanHashJoin }

// InsertPlanNode 插入
type InsertPlanNode struct {
	AbstractPlanNode
	TableOID uint32
}

func NewInsertPlan(schema *record.Schema, tableOID uint32, child PlanNode) *InsertPlanNode {
	return &InsertPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, []PlanNode{child}),
		TableOID:         tableOID,
	}
}

func (p *InsertPlanNode) Type() PlanType { return PlanInsert }

// UpdatePlanNode 更新。目标表达式按列序给出新值
type UpdatePlanNode struct {
	AbstractPlanNode
	TableOID          uint32
	TargetExpressions []Expression
}

func NewUpdatePlan(schema *record.Schema, tableOID uint32,
	targets []Expression, child PlanNode) *UpdatePlanNode {
	return &UpdatePlanNode{
		AbstractPlanNode:  NewAbstractPlanNode(schema, []PlanNode{child}),
		TableOID:          tableOID,
		TargetExpressions: targets,
	}
}

func (p *UpdatePlanNode) Type() PlanType { return PlanUpdate }

// DeletePlanNode 删除
type DeletePlanNode struct {
	AbstractPlanNode
	TableOID uint32
}

func NewDeletePlan(schema *record.Schema, tableOID uint32, child PlanNode) *DeletePlanNode {
	return &DeletePlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, []PlanNode{child}),
		TableOID:         tableOID,
	}
}

func (p *DeletePlanNode) Type() PlanType { return PlanDelete }

// ValuesPlanNode 字面值行
type ValuesPlanNode struct {
	AbstractPlanNode
	Values [][]Expression
}

func NewValuesPlan(schema *record.Schema, values [][]Expression) *ValuesPlanNode {
	return &ValuesPlanNode{
		AbstractPlanNode: NewAbstractPlanNode(schema, nil),
		Values:           values,
	}
}

func (p *ValuesPlanNode) Type() PlanType { return PlanValues }
