package txn

import (
	"sync"

	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/logger"
	"github.com/zhukovaskychina/xengine/record"
)

// TransactionManager 维护事务表、提交时间戳与每条记录的版本链入口
type TransactionManager struct {
	mu sync.RWMutex

	txnMap     map[basic.TxnID]*Transaction
	versionIdx map[basic.RID]UndoLink

	watermark    *Watermark
	lastCommitTs uint64
	nextTxnID    basic.TxnID
}

// NewTransactionManager 创建事务管理器
func NewTransactionManager() *TransactionManager {
	return &TransactionManager{
		txnMap:     make(map[basic.TxnID]*Transaction),
		versionIdx: make(map[basic.RID]UndoLink),
		watermark:  NewWatermark(0),
		nextTxnID:  1,
	}
}

// Begin 开启事务，读时间戳取最近一次提交
func (m *TransactionManager) Begin() *Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &Transaction{
		id:     m.nextTxnID,
		readTs: m.lastCommitTs,
		state:  TxnRunning,
	}
	m.nextTxnID++
	m.txnMap[t.id] = t
	m.watermark.AddTxn(t.readTs)
	return t
}

// Commit 提交事务：分配提交时间戳并给写集合盖章
func (m *TransactionManager) Commit(t *Transaction) error {
	m.mu.Lock()
	commitTs := m.lastCommitTs + 1

	for _, w := range t.writeSet {
		meta, err := w.heap.GetTupleMeta(w.rid)
		if err != nil {
			m.mu.Unlock()
			return errors.Annotatef(err, "commit of txn %d", t.id)
		}
		meta.Ts = commitTs
		if err := w.heap.UpdateTupleMeta(meta, w.rid); err != nil {
			m.mu.Unlock()
			return errors.Annotatef(err, "commit of txn %d", t.id)
		}
	}

	m.lastCommitTs = commitTs
	t.mu.Lock()
	t.state = TxnCommitted
	t.mu.Unlock()

	// 基线先推进，再注销读事务
	m.watermark.UpdateCommitTs(commitTs)
	m.watermark.RemoveTxn(t.readTs)
	m.mu.Unlock()

	logger.Debugf("txn %d committed at ts %d", t.id, commitTs)
	return nil
}

// Abort 放弃事务。核心不做回滚，只注销读事务
func (m *TransactionManager) Abort(t *Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.mu.Lock()
	t.state = TxnAborted
	t.mu.Unlock()
	m.watermark.RemoveTxn(t.readTs)
}

// GetTransaction 按编号查找事务
func (m *TransactionManager) GetTransaction(id basic.TxnID) *Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.txnMap[id]
}

// GetWatermark 返回在途读事务的最小读时间戳
func (m *TransactionManager) GetWatermark() uint64 {
	return m.watermark.GetWatermark()
}

// GetUndoLink 返回记录的版本链入口
func (m *TransactionManager) GetUndoLink(rid basic.RID) (UndoLink, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	link, ok := m.versionIdx[rid]
	return link, ok
}

// UpdateUndoLink 更新记录的版本链入口
func (m *TransactionManager) UpdateUndoLink(rid basic.RID, link UndoLink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if link.IsValid() {
		m.versionIdx[rid] = link
	} else {
		delete(m.versionIdx, rid)
	}
}

// GetUndoLog 解引用一条版本链接
func (m *TransactionManager) GetUndoLog(link UndoLink) (UndoLog, error) {
	m.mu.RLock()
	t, ok := m.txnMap[link.PrevTxn]
	m.mu.RUnlock()
	if !ok {
		return UndoLog{}, errors.NotFoundf("txn %d", link.PrevTxn)
	}
	return t.GetUndoLog(link.PrevLogIdx), nil
}

// ReconstructTuple 用undo链重建历史版本。
// 依次套用增量，最终版本被删除时返回false
func ReconstructTuple(schema *record.Schema, base *record.Tuple, baseMeta basic.TupleMeta,
	logs []UndoLog) (*record.Tuple, bool) {

	values := base.GetValues(schema)
	deleted := baseMeta.IsDeleted

	for _, log := range logs {
		if log.IsDeleted {
			deleted = true
			continue
		}
		deleted = false
		partialSchema := undoLogSchema(schema, log.ModifiedFields)
		partialIdx := 0
		for i, modified := range log.ModifiedFields {
			if !modified {
				continue
			}
			values[i] = log.Tuple.GetValue(partialSchema, partialIdx)
			partialIdx++
		}
	}
	if deleted {
		return nil, false
	}
	t := record.NewTuple(values, schema)
	t.SetRID(base.RID())
	return t, true
}

// GenerateUndoLogSchema 按修改位图构造undo日志的子模式
func GenerateUndoLogSchema(schema *record.Schema, modified []bool) *record.Schema {
	return undoLogSchema(schema, modified)
}

func undoLogSchema(schema *record.Schema, modified []bool) *record.Schema {
	attrs := make([]uint32, 0, len(modified))
	for i, m := range modified {
		if m {
			attrs = append(attrs, uint32(i))
		}
	}
	return record.CopySchema(schema, attrs)
}
