package record

import (
	"sync"

	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/buffer_pool"
	"github.com/zhukovaskychina/xengine/storage/page"
)

// TableHeap 堆表：表页面的单向链表。插入总是追加在链尾页面
type TableHeap struct {
	mu sync.Mutex

	bpm         *buffer_pool.BufferPoolManager
	firstPageID basic.PageID
	lastPageID  basic.PageID
}

// NewTableHeap 创建堆表并分配首个页面
func NewTableHeap(bpm *buffer_pool.BufferPoolManager) (*TableHeap, error) {
	pid, guard := bpm.NewPageGuarded()
	if guard == nil {
		return nil, errors.New("table heap: cannot allocate first page")
	}
	wg := guard.UpgradeWrite()
	page.TablePageView(wg.GetDataMut()).Init()
	wg.Drop()

	return &TableHeap{bpm: bpm, firstPageID: pid, lastPageID: pid}, nil
}

// FirstPageID 返回链首页面
func (h *TableHeap) FirstPageID() basic.PageID { return h.firstPageID }

// InsertTuple 插入元组，返回记录标识。单页放不下的元组报错
func (h *TableHeap) InsertTuple(meta basic.TupleMeta, tuple *Tuple) (basic.RID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	guard := h.bpm.FetchPageWrite(h.lastPageID)
	if guard == nil {
		return basic.InvalidRID, errors.New("table heap: cannot fetch last page")
	}
	tp := page.TablePageView(guard.GetDataMut())
	if slot, ok := tp.InsertTuple(meta, tuple.Data()); ok {
		rid := basic.NewRID(h.lastPageID, slot)
		guard.Drop()
		return rid, nil
	}

	// 链尾页面放不下，追加新页面。先取得新页面再改链指针
	newPid, newGuard := h.bpm.NewPageGuarded()
	if newGuard == nil {
		guard.Drop()
		return basic.InvalidRID, errors.New("table heap: cannot allocate page")
	}
	nwg := newGuard.UpgradeWrite()
	ntp := page.TablePageView(nwg.GetDataMut())
	ntp.Init()
	slot, ok := ntp.InsertTuple(meta, tuple.Data())
	if !ok {
		nwg.Drop()
		guard.Drop()
		return basic.InvalidRID, errors.Errorf("table heap: tuple of %d bytes does not fit in a page", len(tuple.Data()))
	}
	tp.SetNextPageID(newPid)
	guard.Drop()
	nwg.Drop()

	h.lastPageID = newPid
	return basic.NewRID(newPid, slot), nil
}

// UpdateTupleMeta 更新元组元数据
func (h *TableHeap) UpdateTupleMeta(meta basic.TupleMeta, rid basic.RID) error {
	guard := h.bpm.FetchPageWrite(rid.PageID)
	if guard == nil {
		return errors.NotFoundf("page %d", rid.PageID)
	}
	defer guard.Drop()
	if !page.TablePageView(guard.GetDataMut()).UpdateTupleMeta(meta, rid.SlotNum) {
		return errors.NotFoundf("tuple %s", rid)
	}
	return nil
}

// GetTuple 读取元组与元数据
func (h *TableHeap) GetTuple(rid basic.RID) (basic.TupleMeta, *Tuple, error) {
	guard := h.bpm.FetchPageRead(rid.PageID)
	if guard == nil {
		return basic.TupleMeta{}, nil, errors.NotFoundf("page %d", rid.PageID)
	}
	defer guard.Drop()
	meta, data, ok := page.TablePageView(guard.GetData()).GetTuple(rid.SlotNum)
	if !ok {
		return basic.TupleMeta{}, nil, errors.NotFoundf("tuple %s", rid)
	}
	return meta, NewTupleFromData(data, rid), nil
}

// GetTupleMeta 只读取元数据
func (h *TableHeap) GetTupleMeta(rid basic.RID) (basic.TupleMeta, error) {
	guard := h.bpm.FetchPageRead(rid.PageID)
	if guard == nil {
		return basic.TupleMeta{}, errors.NotFoundf("page %d", rid.PageID)
	}
	defer guard.Drop()
	meta, ok := page.TablePageView(guard.GetData()).GetTupleMeta(rid.SlotNum)
	if !ok {
		return basic.TupleMeta{}, errors.NotFoundf("tuple %s", rid)
	}
	return meta, nil
}

// UpdateTupleInPlace 原地覆盖等长元组
func (h *TableHeap) UpdateTupleInPlace(meta basic.TupleMeta, tuple *Tuple, rid basic.RID) error {
	guard := h.bpm.FetchPageWrite(rid.PageID)
	if guard == nil {
		return errors.NotFoundf("page %d", rid.PageID)
	}
	defer guard.Drop()
	if !page.TablePageView(guard.GetDataMut()).UpdateTupleInPlace(meta, tuple.Data(), rid.SlotNum) {
		return errors.NotValidf("in-place update of tuple %s", rid)
	}
	return nil
}

// MakeIterator 创建迭代器，终点固定为创建时刻的链尾，
// 迭代期间的追加不会被看到，防止自我插入循环
func (h *TableHeap) MakeIterator() *TableIterator {
	h.mu.Lock()
	lastPid := h.lastPageID
	h.mu.Unlock()

	var stop basic.RID
	guard := h.bpm.FetchPageRead(lastPid)
	if guard != nil {
		n := page.TablePageView(guard.GetData()).NumTuples()
		stop = basic.NewRID(lastPid, n)
		guard.Drop()
	} else {
		stop = basic.NewRID(lastPid, 0)
	}

	it := &TableIterator{
		heap: h,
		rid:  basic.NewRID(h.firstPageID, 0),
		stop: stop,
	}
	it.skipToExisting()
	return it
}

// TableIterator 堆表迭代器，按页面链与槽位序前进
type TableIterator struct {
	heap *TableHeap
	rid  basic.RID
	stop basic.RID
	end  bool
}

// IsEnd 是否到达终点
func (it *TableIterator) IsEnd() bool { return it.end }

// GetRID 返回当前记录标识
func (it *TableIterator) GetRID() basic.RID { return it.rid }

// GetTuple 读取当前元组
func (it *TableIterator) GetTuple() (basic.TupleMeta, *Tuple, error) {
	return it.heap.GetTuple(it.rid)
}

// Next 前进到下一条记录
func (it *TableIterator) Next() {
	if it.end {
		return
	}
	it.rid.SlotNum++
	it.skipToExisting()
}

// skipToExisting 跳过页面尾部，沿链前进到下一个存在的槽位
func (it *TableIterator) skipToExisting() {
	for {
		if it.rid.PageID == it.stop.PageID && it.rid.SlotNum >= it.stop.SlotNum {
			it.end = true
			return
		}
		guard := it.heap.bpm.FetchPageRead(it.rid.PageID)
		if guard == nil {
			it.end = true
			return
		}
		tp := page.TablePageView(guard.GetData())
		n := tp.NumTuples()
		next := tp.NextPageID()
		guard.Drop()

		if it.rid.SlotNum < n {
			return
		}
		if !next.IsValid() {
			it.end = true
			return
		}
		it.rid = basic.NewRID(next, 0)
	}
}
