package engine

import (
	"github.com/google/btree"
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// topNItem 有序树节点。排序键相同时按到达序破平，保证节点互异
type topNItem struct {
	entry    sortEntry
	seq      int
	schema   *record.Schema
	orderBys []plan.OrderBy
}

func (a *topNItem) Less(b btree.Item) bool {
	o := b.(*topNItem)
	cmp := compareTuples(a.entry.tuple, o.entry.tuple, a.schema, a.orderBys)
	if cmp != basic.CmpEqual {
		return cmp == basic.CmpLess
	}
	return a.seq < o.seq
}

// TopNExecutor 有界排序。树中最多保留N个当前最优元组，
// 溢出时淘汰排序意义上最差的树尾
type TopNExecutor struct {
	ctx   *ExecutorContext
	plan  *plan.TopNPlanNode
	child Executor

	heap    *btree.BTree
	results []sortEntry
	pos     int
}

func NewTopNExecutor(ctx *ExecutorContext, p *plan.TopNPlanNode, child Executor) *TopNExecutor {
	return &TopNExecutor{ctx: ctx, plan: p, child: child}
}

func (e *TopNExecutor) Init() error {
	if err := e.child.Init(); err != nil {
		return errors.Trace(err)
	}
	e.heap = btree.New(8)
	e.results = e.results[:0]
	e.pos = 0

	schema := e.plan.OutputSchema()
	seq := 0
	for {
		tuple, rid, err := e.child.Next()
		if err != nil {
			return errors.Trace(err)
		}
		if tuple == nil {
			break
		}
		e.heap.ReplaceOrInsert(&topNItem{
			entry:    sortEntry{tuple: tuple, rid: rid},
			seq:      seq,
			schema:   schema,
			orderBys: e.plan.OrderBys,
		})
		seq++
		if e.heap.Len() > e.plan.N {
			e.heap.DeleteMax()
		}
	}

	e.heap.Ascend(func(item btree.Item) bool {
		e.results = append(e.results, item.(*topNItem).entry)
		return true
	})
	e.heap = nil
	return nil
}

func (e *TopNExecutor) Next() (*record.Tuple, basic.RID, error) {
	if e.pos >= len(e.results) {
		return nil, basic.InvalidRID, nil
	}
	ent := e.results[e.pos]
	e.pos++
	return ent.tuple, ent.rid, nil
}

// GetNumInHeap 树中保留的元组个数，测试观察点
func (e *TopNExecutor) GetNumInHeap() int {
	if e.heap != nil {
		return e.heap.Len()
	}
	return len(e.results)
}
