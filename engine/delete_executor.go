package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/metadata"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
	"github.com/zhukovaskychina/xengine/txn"
)

// ErrWriteWriteConflict 另一事务持有该元组的未提交版本，或元组已被
// 本事务读时间戳之后的提交改写
var ErrWriteWriteConflict = errors.New("write-write conflict")

// checkWriteConflict 多版本写写冲突判定
func checkWriteConflict(meta basic.TupleMeta, t *txn.Transaction) error {
	if t == nil {
		return nil
	}
	if basic.IsTxnTs(meta.Ts) {
		if basic.TxnFromTs(meta.Ts) != t.ID() {
			return ErrWriteWriteConflict
		}
		return nil
	}
	if meta.Ts > t.ReadTs() {
		return ErrWriteWriteConflict
	}
	return nil
}

// appendUndoForModify 首次改写时登记前版本的undo日志并接入版本链。
// 整行记入增量，undo时间戳取被覆盖版本的时间戳
func appendUndoForModify(ctx *ExecutorContext, meta basic.TupleMeta, tuple *record.Tuple,
	rid basic.RID, table *metadata.TableInfo) {
	t := ctx.Txn
	if t == nil {
		return
	}
	if basic.IsTxnTs(meta.Ts) && basic.TxnFromTs(meta.Ts) == t.ID() {
		// 本事务重复改写同一元组，已有undo日志覆盖到首版
		return
	}
	modified := make([]bool, table.Schema.GetColumnCount())
	for i := range modified {
		modified[i] = true
	}
	prev, _ := ctx.TxnMgr.GetUndoLink(rid)
	link := t.AppendUndoLog(txn.UndoLog{
		IsDeleted:      meta.IsDeleted,
		ModifiedFields: modified,
		Tuple:          tuple,
		Ts:             meta.Ts,
		PrevVersion:    prev,
	})
	ctx.TxnMgr.UpdateUndoLink(rid, link)
	t.RecordWrite(table.Heap, rid)
}

// DeleteExecutor 把子算子产出的记录打上删除标记并维护二级索引
type DeleteExecutor struct {
	ctx   *ExecutorContext
	plan  *plan.DeletePlanNode
	child Executor

	table   *metadata.TableInfo
	indexes []*metadata.IndexInfo
	done    bool
}

func NewDeleteExecutor(ctx *ExecutorContext, p *plan.DeletePlanNode, child Executor) *DeleteExecutor {
	return &DeleteExecutor{ctx: ctx, plan: p, child: child}
}

func (e *DeleteExecutor) Init() error {
	e.table = e.ctx.Catalog.GetTableByOID(e.plan.TableOID)
	if e.table == nil {
		return errors.NotFoundf("table oid %d", e.plan.TableOID)
	}
	e.indexes = e.ctx.Catalog.GetTableIndexes(e.table.Name)
	e.done = false
	return errors.Trace(e.child.Init())
}

func (e *DeleteExecutor) Next() (*record.Tuple, basic.RID, error) {
	if e.done {
		return nil, basic.InvalidRID, nil
	}
	e.done = true

	count := 0
	for {
		tuple, rid, err := e.child.Next()
		if err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		if tuple == nil {
			break
		}

		meta, err := e.table.Heap.GetTupleMeta(rid)
		if err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		if err := checkWriteConflict(meta, e.ctx.Txn); err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		appendUndoForModify(e.ctx, meta, tuple, rid, e.table)

		newMeta := basic.TupleMeta{Ts: meta.Ts, IsDeleted: true}
		if e.ctx.Txn != nil {
			newMeta.Ts = e.ctx.Txn.TempTs()
		}
		if err := e.table.Heap.UpdateTupleMeta(newMeta, rid); err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}

		for _, idx := range e.indexes {
			key := tuple.KeyFromTuple(e.table.Schema, idx.KeySchema, idx.KeyAttrs)
			if err := idx.Index.DeleteEntry(key, rid, e.ctx.Txn); err != nil {
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
