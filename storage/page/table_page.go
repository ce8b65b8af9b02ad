package page

import (
	"encoding/binary"

	"github.com/zhukovaskychina/xengine/basic"
)

// 堆表页面布局:
//
//	[0,4) next_page_id uint32
//	[4,6) num_tuples   uint16
//	[6,8) num_deleted  uint16
//	[8,.) 槽位数组，条目: offset uint16 + size uint16 + ts uint64 + deleted uint8
//
// 元组数据从页面尾部向前增长
const (
	tablePageHeaderSize = 8
	tableSlotSize       = 2 + 2 + 8 + 1
)

// TablePage 堆表页面视图
type TablePage struct {
	data []byte
}

// TablePageView 将页面字节解释为堆表页面
func TablePageView(data []byte) *TablePage {
	return &TablePage{data: data}
}

// Init 初始化空页面
func (t *TablePage) Init() {
	binary.LittleEndian.PutUint32(t.data[0:], basic.InvalidPageID.ToDisk())
	binary.LittleEndian.PutUint16(t.data[4:], 0)
	binary.LittleEndian.PutUint16(t.data[6:], 0)
}

// NextPageID 返回链上的下一个页面
func (t *TablePage) NextPageID() basic.PageID {
	return basic.PageIDFromDisk(binary.LittleEndian.Uint32(t.data[0:]))
}

// SetNextPageID 设置链上的下一个页面
func (t *TablePage) SetNextPageID(id basic.PageID) {
	binary.LittleEndian.PutUint32(t.data[0:], id.ToDisk())
}

// NumTuples 返回页面内元组个数
func (t *TablePage) NumTuples() uint32 {
	return uint32(binary.LittleEndian.Uint16(t.data[4:]))
}

// NumDeletedTuples 返回已删除元组个数
func (t *TablePage) NumDeletedTuples() uint32 {
	return uint32(binary.LittleEndian.Uint16(t.data[6:]))
}

// nextTupleOffset 计算下一个元组的数据起点，空间不足返回false
func (t *TablePage) nextTupleOffset(size int) (uint16, bool) {
	n := t.NumTuples()
	var end uint32 = basic.PageSize
	if n > 0 {
		lastOff, _, _ := t.slotAt(n - 1)
		end = uint32(lastOff)
	}
	if size > int(end) {
		return 0, false
	}
	start := end - uint32(size)
	slotArrayEnd := tablePageHeaderSize + (n+1)*tableSlotSize
	if start < slotArrayEnd {
		return 0, false
	}
	return uint16(start), true
}

// InsertTuple 插入元组，返回槽位号。空间不足返回false
func (t *TablePage) InsertTuple(meta basic.TupleMeta, tupleData []byte) (uint32, bool) {
	offset, ok := t.nextTupleOffset(len(tupleData))
	if !ok {
		return 0, false
	}
	slot := t.NumTuples()
	t.setSlot(slot, offset, uint16(len(tupleData)), meta)
	copy(t.data[offset:], tupleData)
	binary.LittleEndian.PutUint16(t.data[4:], uint16(slot+1))
	if meta.IsDeleted {
		t.incDeleted(1)
	}
	return slot, true
}

// UpdateTupleMeta 更新槽位元数据
func (t *TablePage) UpdateTupleMeta(meta basic.TupleMeta, slot uint32) bool {
	if slot >= t.NumTuples() {
		return false
	}
	offset, size, old := t.slotAt(slot)
	if !old.IsDeleted && meta.IsDeleted {
		t.incDeleted(1)
	} else if old.IsDeleted && !meta.IsDeleted {
		t.incDeleted(-1)
	}
	t.setSlot(slot, offset, size, meta)
	return true
}

// GetTuple 返回槽位的元数据与数据
func (t *TablePage) GetTuple(slot uint32) (basic.TupleMeta, []byte, bool) {
	if slot >= t.NumTuples() {
		return basic.TupleMeta{}, nil, false
	}
	offset, size, meta := t.slotAt(slot)
	return meta, t.data[offset : uint32(offset)+uint32(size)], true
}

// GetTupleMeta 返回槽位元数据
func (t *TablePage) GetTupleMeta(slot uint32) (basic.TupleMeta, bool) {
	if slot >= t.NumTuples() {
		return basic.TupleMeta{}, false
	}
	_, _, meta := t.slotAt(slot)
	return meta, true
}

// UpdateTupleInPlace 原地覆盖等长元组
func (t *TablePage) UpdateTupleInPlace(meta basic.TupleMeta, tupleData []byte, slot uint32) bool {
	if slot >= t.NumTuples() {
		return false
	}
	offset, size, old := t.slotAt(slot)
	if int(size) != len(tupleData) {
		return false
	}
	if !old.IsDeleted && meta.IsDeleted {
		t.incDeleted(1)
	} else if old.IsDeleted && !meta.IsDeleted {
		t.incDeleted(-1)
	}
	t.setSlot(slot, offset, size, meta)
	copy(t.data[offset:], tupleData)
	return true
}

func (t *TablePage) slotAt(slot uint32) (uint16, uint16, basic.TupleMeta) {
	off := tablePageHeaderSize + slot*tableSlotSize
	offset := binary.LittleEndian.Uint16(t.data[off:])
	size := binary.LittleEndian.Uint16(t.data[off+2:])
	ts := binary.LittleEndian.Uint64(t.data[off+4:])
	deleted := t.data[off+12] != 0
	return offset, size, basic.TupleMeta{Ts: ts, IsDeleted: deleted}
}

func (t *TablePage) setSlot(slot uint32, offset, size uint16, meta basic.TupleMeta) {
	off := tablePageHeaderSize + slot*tableSlotSize
	binary.LittleEndian.PutUint16(t.data[off:], offset)
	binary.LittleEndian.PutUint16(t.data[off+2:], size)
	binary.LittleEndian.PutUint64(t.data[off+4:], meta.Ts)
	if meta.IsDeleted {
		t.data[off+12] = 1
	} else {
		t.data[off+12] = 0
	}
}

func (t *TablePage) incDeleted(delta int) {
	n := int(binary.LittleEndian.Uint16(t.data[6:])) + delta
	binary.LittleEndian.PutUint16(t.data[6:], uint16(n))
}
