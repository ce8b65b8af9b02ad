package plan

import (
	"github.com/zhukovaskychina/xengine/record"
)

// PlanType 计划节点类型
type PlanType int

const (
	PlanSeqScan PlanType = iota
	PlanIndexScan
	PlanFilter
	PlanProjection
	PlanLimit
	PlanSort
	PlanTopN
	PlanAggregation
	PlanNestedLoopJoin
	PlanHashJoin
	PlanInsert
	PlanUpdate
	PlanDelete
	PlanValues
)

// PlanNode 计划树节点。计划以构建好的形式到达执行层
type PlanNode interface {
	Type() PlanType
	OutputSchema() *record.Schema
	Children() []PlanNode
	Child(i int) PlanNode
}

// AbstractPlanNode 计划节点公共部分
type AbstractPlanNode struct {
	schema   *record.Schema
	children []PlanNode
}

// NewAbstractPlanNode 构造公共部分
func NewAbstractPlanNode(schema *record.Schema, children []PlanNode) AbstractPlanNode {
	return AbstractPlanNode{schema: schema, children: children}
}

func (p *AbstractPlanNode) OutputSchema() *record.Schema { return p.schema }
func (p *AbstractPlanNode) Children() []PlanNode         { return p.children }
func (p *AbstractPlanNode) Child(i int) PlanNode         { return p.children[i] }

// OrderByType 排序方向。缺省与无效按降序处理，与既有行为保持一致
type OrderByType int

const (
	OrderByInvalid OrderByType = iota
	OrderByDefault
	OrderByAsc
	OrderByDesc
)

// OrderBy 排序键
type OrderBy struct {
	Type OrderByType
	Expr Expression
}

// AggregationType 聚合函数类型
type AggregationType int

const (
	CountStarAggregate AggregationType = iota
	CountAggregate
	SumAggregate
	MinAggregate
	MaxAggregate
)

// JoinType 连接类型。仅支持内连接与左外连接
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)
