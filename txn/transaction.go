package txn

import (
	"sync"

	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/record"
)

// TxnState 事务状态
type TxnState int

const (
	TxnRunning TxnState = iota
	TxnCommitted
	TxnAborted
)

// UndoLink 指向某事务undo日志中的一条，构成版本链的回退指针
type UndoLink struct {
	PrevTxn    basic.TxnID
	PrevLogIdx int
}

// IsValid 判断链接是否有效
func (l UndoLink) IsValid() bool {
	return l.PrevTxn != basic.InvalidTxnID
}

// UndoLog 重建上一版本所需的增量。
// ModifiedFields标记被改写的列，Tuple按被改写列的子模式编码。
// Ts单调递减，保证版本链回溯终止
type UndoLog struct {
	IsDeleted      bool
	ModifiedFields []bool
	Tuple          *record.Tuple
	Ts             uint64
	PrevVersion    UndoLink
}

// writeRecord 事务写集合的条目，提交时统一盖章
type writeRecord struct {
	heap *record.TableHeap
	rid  basic.RID
}

// Transaction 事务。核心只消费read_ts与undo链约定
type Transaction struct {
	mu sync.Mutex

	id      basic.TxnID
	readTs  uint64
	state   TxnState
	undoLog []UndoLog

	writeSet []writeRecord
}

// ID 返回事务编号
func (t *Transaction) ID() basic.TxnID { return t.id }

// ReadTs 返回读时间戳
func (t *Transaction) ReadTs() uint64 { return t.readTs }

// State 返回事务状态
func (t *Transaction) State() TxnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// TempTs 返回占位时间戳：最高位置位，低位为事务编号
func (t *Transaction) TempTs() uint64 {
	return basic.TxnStartID | uint64(t.id)
}

// AppendUndoLog 追加一条undo日志，返回指向它的链接
func (t *Transaction) AppendUndoLog(log UndoLog) UndoLink {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undoLog = append(t.undoLog, log)
	return UndoLink{PrevTxn: t.id, PrevLogIdx: len(t.undoLog) - 1}
}

// GetUndoLog 按下标读取undo日志
func (t *Transaction) GetUndoLog(idx int) UndoLog {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.undoLog[idx]
}

// ModifyUndoLog 覆盖一条undo日志
func (t *Transaction) ModifyUndoLog(idx int, log UndoLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undoLog[idx] = log
}

// RecordWrite 登记一次表写入，提交时盖上提交时间戳
func (t *Transaction) RecordWrite(heap *record.TableHeap, rid basic.RID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeSet = append(t.writeSet, writeRecord{heap: heap, rid: rid})
}
