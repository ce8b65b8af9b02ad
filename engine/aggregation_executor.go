package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// aggregateKey 分组键，按序列化字节聚类
type aggregateKey string

// aggregateEntry 一个分组：分组键值与各聚合累加器
type aggregateEntry struct {
	groupBys   []basic.Value
	aggregates []basic.Value
}

// simpleAggregationHashTable 内存哈希聚合表
type simpleAggregationHashTable struct {
	aggTypes []plan.AggregationType
	entries  map[aggregateKey]*aggregateEntry
	order    []aggregateKey
}

func newAggregationHashTable(aggTypes []plan.AggregationType) *simpleAggregationHashTable {
	return &simpleAggregationHashTable{
		aggTypes: aggTypes,
		entries:  make(map[aggregateKey]*aggregateEntry),
	}
}

// initialValues COUNT(*)从0起步，其余聚合从带类型的NULL起步
func (h *simpleAggregationHashTable) initialValues() []basic.Value {
	out := make([]basic.Value, 0, len(h.aggTypes))
	for _, t := range h.aggTypes {
		if t == plan.CountStarAggregate {
			out = append(out, basic.NewIntValue(0))
		} else {
			out = append(out, basic.NewNullValue(basic.TypeInt))
		}
	}
	return out
}

// combine 把一行输入并入累加器。NULL输入不参与COUNT/SUM/MIN/MAX
func (h *simpleAggregationHashTable) combine(acc []basic.Value, input []basic.Value) {
	for i, t := range h.aggTypes {
		switch t {
		case plan.CountStarAggregate:
			acc[i] = basic.NewIntValue(acc[i].AsInt() + 1)
		case plan.CountAggregate:
			if input[i].IsNull() {
				continue
			}
			if acc[i].IsNull() {
				acc[i] = basic.NewIntValue(1)
			} else {
				acc[i] = basic.NewIntValue(acc[i].AsInt() + 1)
			}
		case plan.SumAggregate:
			if input[i].IsNull() {
				continue
			}
			if acc[i].IsNull() {
				acc[i] = input[i]
			} else {
				v, err := acc[i].Add(input[i])
				if err != nil {
					panic(err)
				}
				acc[i] = v
			}
		case plan.MinAggregate:
			if input[i].IsNull() {
				continue
			}
			if acc[i].IsNull() {
				acc[i] = input[i]
			} else if cmp, _ := input[i].Compare(acc[i]); cmp == basic.CmpLess {
				acc[i] = input[i]
			}
		case plan.MaxAggregate:
			if input[i].IsNull() {
				continue
			}
			if acc[i].IsNull() {
				acc[i] = input[i]
			} else if cmp, _ := input[i].Compare(acc[i]); cmp == basic.CmpGreater {
				acc[i] = input[i]
			}
		}
	}
}

func (h *simpleAggregationHashTable) insertCombine(keyVals, inputVals []basic.Value) {
	key := aggregateKey(serializeValues(keyVals))
	entry, ok := h.entries[key]
	if !ok {
		entry = &aggregateEntry{groupBys: keyVals, aggregates: h.initialValues()}
		h.entries[key] = entry
		h.order = append(h.order, key)
	}
	h.combine(entry.aggregates, inputVals)
}

func serializeValues(values []basic.Value) string {
	var buf []byte
	for _, v := range values {
		buf = append(buf, v.Serialize()...)
	}
	return string(buf)
}

// AggregationExecutor 哈希聚合。Init把子算子全部吃进聚合表，
// Next逐分组产出。无分组键且输入为空时产出一行初始值
type AggregationExecutor struct {
	ctx   *ExecutorContext
	plan  *plan.AggregationPlanNode
	child Executor

	table *simpleAggregationHashTable
	pos   int
}

func NewAggregationExecutor(ctx *ExecutorContext, p *plan.AggregationPlanNode, child Executor) *AggregationExecutor {
	return &AggregationExecutor{ctx: ctx, plan: p, child: child}
}

func (e *AggregationExecutor) Init() error {
	if err := e.child.Init(); err != nil {
		return errors.Trace(err)
	}
	// 相关子查询会重复Init，必须清掉上一轮状态
	e.table = newAggregationHashTable(e.plan.AggTypes)
	e.pos = 0

	childSchema := e.plan.Child(0).OutputSchema()
	for {
		tuple, _, err := e.child.Next()
		if err != nil {
			return errors.Trace(err)
		}
		if tuple == nil {
			break
		}
		keyVals := make([]basic.Value, 0, len(e.plan.GroupBys))
		for _, g := range e.plan.GroupBys {
			keyVals = append(keyVals, g.Evaluate(tuple, childSchema))
		}
		inputVals := make([]basic.Value, 0, len(e.plan.Aggregates))
		for _, a := range e.plan.Aggregates {
			inputVals = append(inputVals, a.Evaluate(tuple, childSchema))
		}
		e.table.insertCombine(keyVals, inputVals)
	}

	// 空输入角例：无分组键时产出一行初始值，有分组键时什么都不产出
	if len(e.table.order) == 0 && len(e.plan.GroupBys) == 0 {
		e.table.entries[""] = &aggregateEntry{aggregates: e.table.initialValues()}
		e.table.order = append(e.table.order, "")
	}
	return nil
}

func (e *AggregationExecutor) Next() (*record.Tuple, basic.RID, error) {
	if e.pos >= len(e.table.order) {
		return nil, basic.InvalidRID, nil
	}
	entry := e.table.entries[e.table.order[e.pos]]
	e.pos++

	values := make([]basic.Value, 0, len(entry.groupBys)+len(entry.aggregates))
	values = append(values, entry.groupBys...)
	values = append(values, entry.aggregates...)
	return record.NewTuple(values, e.plan.OutputSchema()), basic.InvalidRID, nil
}
