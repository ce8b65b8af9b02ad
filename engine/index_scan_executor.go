package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// IndexScanExecutor 索引点查。
// 探测键在Init时求值一次，命中的记录标识回表读取。
// 该路径读取基表当前版本，不走多版本重建
type IndexScanExecutor struct {
	ctx  *ExecutorContext
	plan *plan.IndexScanPlanNode

	table *record.TableHeap
	rids  []basic.RID
	pos   int
}

func NewIndexScanExecutor(ctx *ExecutorContext, p *plan.IndexScanPlanNode) *IndexScanExecutor {
	return &IndexScanExecutor{ctx: ctx, plan: p}
}

func (e *IndexScanExecutor) Init() error {
	tableInfo := e.ctx.Catalog.GetTableByOID(e.plan.TableOID)
	if tableInfo == nil {
		return errors.NotFoundf("table oid %d", e.plan.TableOID)
	}
	indexInfo := e.ctx.Catalog.GetIndexByOID(e.plan.IndexOID)
	if indexInfo == nil {
		return errors.NotFoundf("index oid %d", e.plan.IndexOID)
	}
	e.table = tableInfo.Heap

	key := record.NewTuple([]basic.Value{e.plan.PredKey.Val}, indexInfo.KeySchema)
	e.rids = e.rids[:0]
	e.pos = 0
	return errors.Trace(indexInfo.Index.ScanKey(key, &e.rids, e.ctx.Txn))
}

func (e *IndexScanExecutor) Next() (*record.Tuple, basic.RID, error) {
	schema := e.plan.OutputSchema()
	for e.pos < len(e.rids) {
		rid := e.rids[e.pos]
		e.pos++

		meta, tuple, err := e.table.GetTuple(rid)
		if err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		if meta.IsDeleted {
			continue
		}
		if !evalPredicate(e.plan.FilterPredicate, tuple, schema) {
			continue
		}
		return tuple, rid, nil
	}
	return nil, basic.InvalidRID, nil
}
