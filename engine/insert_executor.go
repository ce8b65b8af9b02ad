package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/metadata"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// InsertExecutor 把子算子的输出全部写入目标表并维护二级索引。
// 产出一行受影响行数，行数为零时不产出
type InsertExecutor struct {
	ctx   *ExecutorContext
	plan  *plan.InsertPlanNode
	child Executor

	table   *metadata.TableInfo
	indexes []*metadata.IndexInfo
	done    bool
}

func NewInsertExecutor(ctx *ExecutorContext, p *plan.InsertPlanNode, child Executor) *InsertExecutor {
	return &InsertExecutor{ctx: ctx, plan: p, child: child}
}

func (e *InsertExecutor) Init() error {
	e.table = e.ctx.Catalog.GetTableByOID(e.plan.TableOID)
	if e.table == nil {
		return errors.NotFoundf("table oid %d", e.plan.TableOID)
	}
	e.indexes = e.ctx.Catalog.GetTableIndexes(e.table.Name)
	e.done = false
	return errors.Trace(e.child.Init())
}

func (e *InsertExecutor) Next() (*record.Tuple, basic.RID, error) {
	if e.done {
		return nil, basic.InvalidRID, nil
	}
	e.done = true

	count := 0
	for {
		tuple, _, err := e.child.Next()
		if err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		if tuple == nil {
			break
		}

		meta := basic.TupleMeta{Ts: 0}
		if e.ctx.Txn != nil {
			meta.Ts = e.ctx.Txn.TempTs()
		}
		rid, err := e.table.Heap.InsertTuple(meta, tuple)
		if err != nil {
			return nil, basic.InvalidRID, errors.Annotatef(err, "insert into %s", e.table.Name)
		}
		if e.ctx.Txn != nil {
			e.ctx.Txn.RecordWrite(e.table.Heap, rid)
		}

		for _, idx := range e.indexes {
			key := tuple.KeyFromTuple(e.table.Schema, idx.KeySchema, idx.KeyAttrs)
			if err := idx.Index.InsertEntry(key, rid, e.ctx.Txn); err != nil {
				// 索引键冲突对查询是致命错误
				return nil, basic.InvalidRID, errors.Annotatef(err, "index %s", idx.Name)
			}
		}
		count++
	}

	if count == 0 {
		return nil, basic.InvalidRID, nil
	}
	out := record.NewTuple([]basic.Value{basic.NewIntValue(int64(count))}, e.plan.OutputSchema())
	return out, basic.InvalidRID, nil
}
