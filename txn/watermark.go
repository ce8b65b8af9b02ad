package txn

import (
	"fmt"
	"sync"

	"github.com/google/btree"
)

// tsItem 读时间戳多重集合的节点
type tsItem struct {
	ts    uint64
	count int
}

func (a *tsItem) Less(b btree.Item) bool {
	return a.ts < b.(*tsItem).ts
}

// Watermark 跟踪在途读事务的最小读时间戳。
// 多重集合用有序树维护，水位线等于树的最小键，树空时等于commit_ts
type Watermark struct {
	mu sync.Mutex

	commitTs     uint64
	currentReads *btree.BTree
}

// NewWatermark 创建水位线
func NewWatermark(commitTs uint64) *Watermark {
	return &Watermark{
		commitTs:     commitTs,
		currentReads: btree.New(8),
	}
}

// UpdateCommitTs 推进提交基线。须在移除该时间戳的最后一个事务之前调用
func (w *Watermark) UpdateCommitTs(ts uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.commitTs = ts
}

// AddTxn 登记一个读事务。读时间戳低于基线属于调用方错误
func (w *Watermark) AddTxn(readTs uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if readTs < w.commitTs {
		panic(fmt.Sprintf("watermark: read ts %d below commit ts %d", readTs, w.commitTs))
	}
	if item := w.currentReads.Get(&tsItem{ts: readTs}); item != nil {
		item.(*tsItem).count++
		return
	}
	w.currentReads.ReplaceOrInsert(&tsItem{ts: readTs, count: 1})
}

// RemoveTxn 注销一个读事务。时间戳不存在属于调用方错误
func (w *Watermark) RemoveTxn(readTs uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	item := w.currentReads.Get(&tsItem{ts: readTs})
	if item == nil {
		panic(fmt.Sprintf("watermark: removing unknown read ts %d", readTs))
	}
	node := item.(*tsItem)
	node.count--
	if node.count == 0 {
		w.currentReads.Delete(node)
	}
}

// GetWatermark 返回当前水位线
func (w *Watermark) GetWatermark() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.currentReads.Len() == 0 {
		return w.commitTs
	}
	return w.currentReads.Min().(*tsItem).ts
}
