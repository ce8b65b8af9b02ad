package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
	"github.com/zhukovaskychina/xengine/txn"
)

// SeqScanExecutor 顺序扫描。
// 带事务时走多版本读路径：对读时间戳不可见的元组沿undo链回溯，
// 重建出时间戳不大于read_ts的快照版本
type SeqScanExecutor struct {
	ctx  *ExecutorContext
	plan *plan.SeqScanPlanNode

	table *record.TableHeap
	iter  *record.TableIterator
}

func NewSeqScanExecutor(ctx *ExecutorContext, p *plan.SeqScanPlanNode) *SeqScanExecutor {
	return &SeqScanExecutor{ctx: ctx, plan: p}
}

func (e *SeqScanExecutor) Init() error {
	info := e.ctx.Catalog.GetTableByOID(e.plan.TableOID)
	if info == nil {
		return errors.NotFoundf("table oid %d", e.plan.TableOID)
	}
	e.table = info.Heap
	e.iter = e.table.MakeIterator()
	return nil
}

func (e *SeqScanExecutor) Next() (*record.Tuple, basic.RID, error) {
	schema := e.plan.OutputSchema()
	for !e.iter.IsEnd() {
		rid := e.iter.GetRID()
		meta, tuple, err := e.iter.GetTuple()
		e.iter.Next()
		if err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}

		visible, err := e.resolveVersion(&meta, &tuple, rid, schema)
		if err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		if !visible {
			continue
		}
		if !evalPredicate(e.plan.FilterPredicate, tuple, schema) {
			continue
		}
		tuple.SetRID(rid)
		return tuple, rid, nil
	}
	return nil, basic.InvalidRID, nil
}

// resolveVersion 判定可见性，必要时用undo链重建历史版本。
// 返回false表示该记录对本次扫描不可见
func (e *SeqScanExecutor) resolveVersion(meta *basic.TupleMeta, tuple **record.Tuple,
	rid basic.RID, schema *record.Schema) (bool, error) {

	if e.ctx.Txn == nil {
		// 无事务路径：只跳过删除标记
		return !meta.IsDeleted, nil
	}
	t := e.ctx.Txn

	// 已提交且在读时间戳之内，直接可见
	if !basic.IsTxnTs(meta.Ts) && meta.Ts <= t.ReadTs() {
		return !meta.IsDeleted, nil
	}
	// 本事务自己的未提交写
	if basic.IsTxnTs(meta.Ts) && basic.TxnFromTs(meta.Ts) == t.ID() {
		return !meta.IsDeleted, nil
	}

	// 回溯undo链收集增量，undo时间戳单调递减保证终止
	var logs []txn.UndoLog
	link, ok := e.ctx.TxnMgr.GetUndoLink(rid)
	for ok && link.IsValid() {
		log, err := e.ctx.TxnMgr.GetUndoLog(link)
		if err != nil {
			return false, errors.Trace(err)
		}
		logs = append(logs, log)
		if log.Ts <= t.ReadTs() {
			rebuilt, alive := txn.ReconstructTuple(schema, *tuple, *meta, logs)
			if !alive {
				return false, nil
			}
			*tuple = rebuilt
			return true, nil
		}
		link = log.PrevVersion
		ok = link.IsValid()
	}
	// 链耗尽仍未到达可见版本，跳过
	return false, nil
}
