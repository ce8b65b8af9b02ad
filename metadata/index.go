package metadata

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/buffer_pool"
	"github.com/zhukovaskychina/xengine/container/hash"
	"github.com/zhukovaskychina/xengine/record"
	"github.com/zhukovaskychina/xengine/txn"
)

// Index 二级索引接口。键为按key_attrs抽取的子元组
type Index interface {
	// InsertEntry 插入索引项，键重复时报错
	InsertEntry(key *record.Tuple, rid basic.RID, t *txn.Transaction) error
	// DeleteEntry 删除索引项
	DeleteEntry(key *record.Tuple, rid basic.RID, t *txn.Transaction) error
	// ScanKey 按键查找，命中的记录标识追加到rids
	ScanKey(key *record.Tuple, rids *[]basic.RID, t *txn.Transaction) error
	// GetKeyAttrs 返回键在基表模式中的列下标
	GetKeyAttrs() []uint32
}

// HashTableIndex 可扩展哈希表实现的唯一索引
type HashTableIndex struct {
	name     string
	keyAttrs []uint32
	ht       *hash.DiskExtendibleHashTable
}

// NewHashTableIndex 创建哈希索引
func NewHashTableIndex(name string, bpm *buffer_pool.BufferPoolManager, keyAttrs []uint32) (*HashTableIndex, error) {
	ht, err := hash.NewDiskExtendibleHashTable(name, bpm,
		9, 9, 0)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &HashTableIndex{name: name, keyAttrs: keyAttrs, ht: ht}, nil
}

func (i *HashTableIndex) InsertEntry(key *record.Tuple, rid basic.RID, t *txn.Transaction) error {
	ok, err := i.ht.Insert(key.Data(), rid)
	if err != nil {
		return errors.Trace(err)
	}
	if !ok {
		return errors.AlreadyExistsf("index %s key", i.name)
	}
	return nil
}

func (i *HashTableIndex) DeleteEntry(key *record.Tuple, rid basic.RID, t *txn.Transaction) error {
	if !i.ht.Remove(key.Data()) {
		return errors.NotFoundf("index %s key", i.name)
	}
	return nil
}

func (i *HashTableIndex) ScanKey(key *record.Tuple, rids *[]basic.RID, t *txn.Transaction) error {
	if rid, ok := i.ht.GetValue(key.Data()); ok {
		*rids = append(*rids, rid)
	}
	return nil
}

func (i *HashTableIndex) GetKeyAttrs() []uint32 {
	return i.keyAttrs
}
