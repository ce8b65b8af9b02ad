package engine

import (
	"sort"

	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// compareTuples 按排序键序依次比较，前一键相等时用后续键破平。
// ASC用小于，DESC/DEFAULT/INVALID用大于：缺省方向按降序处理
func compareTuples(a, b *record.Tuple, schema *record.Schema, orderBys []plan.OrderBy) basic.CompareResult {
	for _, ob := range orderBys {
		av := ob.Expr.Evaluate(a, schema)
		bv := ob.Expr.Evaluate(b, schema)
		cmp, err := av.Compare(bv)
		if err != nil {
			panic(err)
		}
		if cmp == basic.CmpEqual {
			continue
		}
		if ob.Type == plan.OrderByAsc {
			return cmp
		}
		// 降序取反
		if cmp == basic.CmpLess {
			return basic.CmpGreater
		}
		return basic.CmpLess
	}
	return basic.CmpEqual
}

type sortEntry struct {
	tuple *record.Tuple
	rid   basic.RID
}

// SortExecutor 全量物化排序
type SortExecutor struct {
	ctx   *ExecutorContext
	plan  *plan.SortPlanNode
	child Executor

	entries []sortEntry
	pos     int
}

func NewSortExecutor(ctx *ExecutorContext, p *plan.SortPlanNode, child Executor) *SortExecutor {
	return &SortExecutor{ctx: ctx, plan: p, child: child}
}

func (e *SortExecutor) Init() error {
	if err := e.child.Init(); err != nil {
		return errors.Trace(err)
	}
	e.entries = e.entries[:0]
	e.pos = 0

	for {
		tuple, rid, err := e.child.Next()
		if err != nil {
			return errors.Trace(err)
		}
		if tuple == nil {
			break
		}
		e.entries = append(e.entries, sortEntry{tuple: tuple, rid: rid})
	}

	schema := e.plan.OutputSchema()
	orderBys := e.plan.OrderBys
	// 空排序键时保持子算子输出顺序
	sort.SliceStable(e.entries, func(i, j int) bool {
		return compareTuples(e.entries[i].tuple, e.entries[j].tuple, schema, orderBys) == basic.CmpLess
	})
	return nil
}

func (e *SortExecutor) Next() (*record.Tuple, basic.RID, error) {
	if e.pos >= len(e.entries) {
		return nil, basic.InvalidRID, nil
	}
	ent := e.entries[e.pos]
	e.pos++
	return ent.tuple, ent.rid, nil
}
