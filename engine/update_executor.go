package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/metadata"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// UpdateExecutor 更新：对旧记录做逻辑删除，插入重算后的新元组。
// 二级索引由算子负责先删旧键再插新键
type UpdateExecutor struct {
	ctx   *ExecutorContext
	plan  *plan.UpdatePlanNode
	child Executor

	table   *metadata.TableInfo
	indexes []*metadata.IndexInfo
	done    bool
}

func NewUpdateExecutor(ctx *ExecutorContext, p *plan.UpdatePlanNode, child Executor) *UpdateExecutor {
	return &UpdateExecutor{ctx: ctx, plan: p, child: child}
}

func (e *UpdateExecutor) Init() error {
	e.table = e.ctx.Catalog.GetTableByOID(e.plan.TableOID)
	if e.table == nil {
		return errors.NotFoundf("table oid %d", e.plan.TableOID)
	}
	e.indexes = e.ctx.Catalog.GetTableIndexes(e.table.Name)
	e.done = false
	return errors.Trace(e.child.Init())
}

func (e *UpdateExecutor) Next() (*record.Tuple, basic.RID, error) {
	if e.done {
		return nil, basic.InvalidRID, nil
	}
	e.done = true

	schema := e.table.Schema
	count := 0
	for {
		oldTuple, rid, err := e.child.Next()
		if err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		if oldTuple == nil {
			break
		}

		meta, err := e.table.Heap.GetTupleMeta(rid)
		if err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		if err := checkWriteConflict(meta, e.ctx.Txn); err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}

		// 重算新元组
		values := make([]basic.Value, 0, len(e.plan.TargetExpressions))
		for _, expr := range e.plan.TargetExpressions {
			values = append(values, expr.Evaluate(oldTuple, schema))
		}
		newTuple := record.NewTuple(values, schema)

		// 逻辑删除旧版本
		appendUndoForModify(e.ctx, meta, oldTuple, rid, e.table)
		delMeta := basic.TupleMeta{Ts: meta.Ts, IsDeleted: true}
		insMeta := basic.TupleMeta{}
		if e.ctx.Txn != nil {
			delMeta.Ts = e.ctx.Txn.TempTs()
			insMeta.Ts = e.ctx.Txn.TempTs()
		}
		if err := e.table.Heap.UpdateTupleMeta(delMeta, rid); err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}

		// 插入新版本
		newRID, err := e.table.Heap.InsertTuple(insMeta, newTuple)
		if err != nil {
			return nil, basic.InvalidRID, errors.Annotatef(err, "update of %s", e.table.Name)
		}
		if e.ctx.Txn != nil {
			e.ctx.Txn.RecordWrite(e.table.Heap, newRID)
		}

		// 索引维护：先删旧键再插新键
		for _, idx := range e.indexes {
			oldKey := oldTuple.KeyFromTuple(schema, idx.KeySchema, idx.KeyAttrs)
			if err := idx.Index.DeleteEntry(oldKey, rid, e.ctx.Txn); err != nil {
				return nil, basic.InvalidRID, errors.Annotatef(err, "index %s", idx.Name)
			}
			newKey := newTuple.KeyFromTuple(schema, idx.KeySchema, idx.KeyAttrs)
			if err := idx.Index.InsertEntry(newKey, newRID, e.ctx.Txn); err != nil {
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
