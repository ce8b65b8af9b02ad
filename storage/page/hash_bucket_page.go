package page

import (
	"bytes"
	"encoding/binary"

	"github.com/zhukovaskychina/xengine/basic"
)

// 可扩展哈希桶页面布局:
//
//	[0,4) size     uint32
//	[4,8) max_size uint32
//	[8,.) entries，定长条目紧密排列
//
// 条目布局: key_len uint16 + key [32]byte + page_id uint32 + slot uint32
const (
	// BucketMaxKeyLen 桶内键的最大字节数
	BucketMaxKeyLen = 32

	bucketEntrySize   = 2 + BucketMaxKeyLen + 8
	bucketArrayOffset = 8

	// BucketArrayCapacity 单个桶页面可容纳的条目上限
	BucketArrayCapacity = (basic.PageSize - bucketArrayOffset) / bucketEntrySize
)

// HashBucketPage 桶页面视图
type HashBucketPage struct {
	data []byte
}

// BucketPageView 将页面字节解释为桶页面
func BucketPageView(data []byte) *HashBucketPage {
	return &HashBucketPage{data: data}
}

// Init 初始化空桶。maxSize为0或越界时取页面容量
func (b *HashBucketPage) Init(maxSize uint32) {
	if maxSize == 0 || maxSize > BucketArrayCapacity {
		maxSize = BucketArrayCapacity
	}
	binary.LittleEndian.PutUint32(b.data[0:], 0)
	binary.LittleEndian.PutUint32(b.data[4:], maxSize)
}

// Size 返回当前条目数
func (b *HashBucketPage) Size() uint32 {
	return binary.LittleEndian.Uint32(b.data[0:])
}

// MaxSize 返回容量
func (b *HashBucketPage) MaxSize() uint32 {
	return binary.LittleEndian.Uint32(b.data[4:])
}

// IsFull 判断桶是否已满
func (b *HashBucketPage) IsFull() bool {
	return b.Size() >= b.MaxSize()
}

// IsEmpty 判断桶是否为空
func (b *HashBucketPage) IsEmpty() bool {
	return b.Size() == 0
}

// KeyAt 返回第i个条目的键
func (b *HashBucketPage) KeyAt(i uint32) []byte {
	off := bucketArrayOffset + i*bucketEntrySize
	keyLen := binary.LittleEndian.Uint16(b.data[off:])
	return b.data[off+2 : off+2+uint32(keyLen)]
}

// ValueAt 返回第i个条目的记录标识
func (b *HashBucketPage) ValueAt(i uint32) basic.RID {
	off := bucketArrayOffset + i*bucketEntrySize + 2 + BucketMaxKeyLen
	return basic.RID{
		PageID:  basic.PageIDFromDisk(binary.LittleEndian.Uint32(b.data[off:])),
		SlotNum: binary.LittleEndian.Uint32(b.data[off+4:]),
	}
}

// Lookup 按键查找
func (b *HashBucketPage) Lookup(key []byte) (basic.RID, bool) {
	for i := uint32(0); i < b.Size(); i++ {
		if bytes.Equal(b.KeyAt(i), key) {
			return b.ValueAt(i), true
		}
	}
	return basic.InvalidRID, false
}

// Insert 追加一个条目。键重复或桶满返回false
func (b *HashBucketPage) Insert(key []byte, rid basic.RID) bool {
	if len(key) > BucketMaxKeyLen {
		return false
	}
	if _, ok := b.Lookup(key); ok {
		return false
	}
	if b.IsFull() {
		return false
	}
	size := b.Size()
	b.putEntry(size, key, rid)
	binary.LittleEndian.PutUint32(b.data[0:], size+1)
	return true
}

// Remove 删除键对应的条目并原地压实
func (b *HashBucketPage) Remove(key []byte) bool {
	size := b.Size()
	for i := uint32(0); i < size; i++ {
		if bytes.Equal(b.KeyAt(i), key) {
			b.RemoveAt(i)
			return true
		}
	}
	return false
}

// RemoveAt 删除第i个条目，后续条目左移
func (b *HashBucketPage) RemoveAt(i uint32) {
	size := b.Size()
	start := bucketArrayOffset + i*bucketEntrySize
	end := bucketArrayOffset + size*bucketEntrySize
	copy(b.data[start:], b.data[start+bucketEntrySize:end])
	binary.LittleEndian.PutUint32(b.data[0:], size-1)
}

func (b *HashBucketPage) putEntry(i uint32, key []byte, rid basic.RID) {
	off := bucketArrayOffset + i*bucketEntrySize
	binary.LittleEndian.PutUint16(b.data[off:], uint16(len(key)))
	keySlot := b.data[off+2 : off+2+BucketMaxKeyLen]
	for j := range keySlot {
		keySlot[j] = 0
	}
	copy(keySlot, key)
	valOff := off + 2 + BucketMaxKeyLen
	binary.LittleEndian.PutUint32(b.data[valOff:], rid.PageID.ToDisk())
	binary.LittleEndian.PutUint32(b.data[valOff+4:], rid.SlotNum)
}
