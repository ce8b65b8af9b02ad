package hash

import (
	"errors"

	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/buffer_pool"
	"github.com/zhukovaskychina/xengine/logger"
	"github.com/zhukovaskychina/xengine/storage/page"
	"github.com/zhukovaskychina/xengine/util"
)

var (
	// ErrOutOfSpace 桶已满且局部深度到达上限，无法再分裂
	ErrOutOfSpace = errors.New("extendible hash table out of space")
	// ErrNoFrame 缓冲池无法提供页面
	ErrNoFrame = errors.New("extendible hash table cannot obtain page")
)

// DiskExtendibleHashTable 落盘的可扩展哈希表。
// 头页面按哈希高位定位目录，目录按哈希低位定位桶。
// 查找沿树持读守卫，变更在目录与桶上持写守卫，自顶向下加闩
type DiskExtendibleHashTable struct {
	name string
	bpm  *buffer_pool.BufferPoolManager

	headerPageID      basic.PageID
	headerMaxDepth    uint32
	directoryMaxDepth uint32
	bucketMaxSize     uint32
}

// NewDiskExtendibleHashTable 创建哈希表并初始化头页面
func NewDiskExtendibleHashTable(name string, bpm *buffer_pool.BufferPoolManager,
	headerMaxDepth, directoryMaxDepth, bucketMaxSize uint32) (*DiskExtendibleHashTable, error) {

	pid, guard := bpm.NewPageGuarded()
	if guard == nil {
		return nil, ErrNoFrame
	}
	wg := guard.UpgradeWrite()
	page.HeaderPageView(wg.GetDataMut()).Init(headerMaxDepth)
	wg.Drop()

	logger.Debugf("hash table %s: header page %d created", name, pid)
	return &DiskExtendibleHashTable{
		name:              name,
		bpm:               bpm,
		headerPageID:      pid,
		headerMaxDepth:    headerMaxDepth,
		directoryMaxDepth: directoryMaxDepth,
		bucketMaxSize:     bucketMaxSize,
	}, nil
}

// HeaderPageID 返回根页面编号
func (h *DiskExtendibleHashTable) HeaderPageID() basic.PageID {
	return h.headerPageID
}

func (h *DiskExtendibleHashTable) hash(key []byte) uint32 {
	return util.HashCode32(key)
}

// GetValue 查找键。读守卫自顶向下，取得下层后释放上层
func (h *DiskExtendibleHashTable) GetValue(key []byte) (basic.RID, bool) {
	hashVal := h.hash(key)

	headerGuard := h.bpm.FetchPageRead(h.headerPageID)
	if headerGuard == nil {
		return basic.InvalidRID, false
	}
	header := page.HeaderPageView(headerGuard.GetData())
	dirPid := header.GetDirectoryPageID(header.HashToDirectoryIndex(hashVal))
	if !dirPid.IsValid() {
		headerGuard.Drop()
		return basic.InvalidRID, false
	}

	dirGuard := h.bpm.FetchPageRead(dirPid)
	headerGuard.Drop()
	if dirGuard == nil {
		return basic.InvalidRID, false
	}
	dir := page.DirectoryPageView(dirGuard.GetData())
	bucketPid := dir.GetBucketPageID(dir.HashToBucketIndex(hashVal))
	if !bucketPid.IsValid() {
		dirGuard.Drop()
		return basic.InvalidRID, false
	}

	bucketGuard := h.bpm.FetchPageRead(bucketPid)
	dirGuard.Drop()
	if bucketGuard == nil {
		return basic.InvalidRID, false
	}
	defer bucketGuard.Drop()

	return page.BucketPageView(bucketGuard.GetData()).Lookup(key)
}

// Insert 插入键值。键已存在返回(false, nil)，空间耗尽返回ErrOutOfSpace
func (h *DiskExtendibleHashTable) Insert(key []byte, rid basic.RID) (bool, error) {
	hashVal := h.hash(key)

	headerGuard := h.bpm.FetchPageWrite(h.headerPageID)
	if headerGuard == nil {
		return false, ErrNoFrame
	}
	header := page.HeaderPageView(headerGuard.GetDataMut())
	dirIdx := header.HashToDirectoryIndex(hashVal)
	dirPid := header.GetDirectoryPageID(dirIdx)
	if !dirPid.IsValid() {
		// 目录懒分配
		newPid, guard := h.bpm.NewPageGuarded()
		if guard == nil {
			headerGuard.Drop()
			return false, ErrNoFrame
		}
		wg := guard.UpgradeWrite()
		page.DirectoryPageView(wg.GetDataMut()).Init(h.directoryMaxDepth)
		wg.Drop()
		header.SetDirectoryPageID(dirIdx, newPid)
		dirPid = newPid
	}

	dirGuard := h.bpm.FetchPageWrite(dirPid)
	headerGuard.Drop()
	if dirGuard == nil {
		return false, ErrNoFrame
	}
	defer dirGuard.Drop()
	dir := page.DirectoryPageView(dirGuard.GetDataMut())

	for {
		bucketIdx := dir.HashToBucketIndex(hashVal)
		bucketPid := dir.GetBucketPageID(bucketIdx)
		if !bucketPid.IsValid() {
			newPid, guard := h.bpm.NewPageGuarded()
			if guard == nil {
				return false, ErrNoFrame
			}
			wg := guard.UpgradeWrite()
			page.BucketPageView(wg.GetDataMut()).Init(h.bucketMaxSize)
			wg.Drop()
			dir.SetBucketPageID(bucketIdx, newPid)
			bucketPid = newPid
		}

		bucketGuard := h.bpm.FetchPageWrite(bucketPid)
		if bucketGuard == nil {
			return false, ErrNoFrame
		}
		bucket := page.BucketPageView(bucketGuard.GetDataMut())

		if _, exists := bucket.Lookup(key); exists {
			bucketGuard.Drop()
			return false, nil
		}
		if !bucket.IsFull() {
			ok := bucket.Insert(key, rid)
			bucketGuard.Drop()
			return ok, nil
		}

		// 桶满，尝试分裂
		localDepth := dir.GetLocalDepth(bucketIdx)
		if localDepth >= dir.MaxDepth() {
			bucketGuard.Drop()
			return false, ErrOutOfSpace
		}
		if localDepth == dir.GlobalDepth() {
			if dir.GlobalDepth() >= dir.MaxDepth() {
				bucketGuard.Drop()
				return false, ErrOutOfSpace
			}
			dir.IncrGlobalDepth()
		}
		if err := h.splitBucket(dir, bucket, bucketIdx, bucketPid); err != nil {
			bucketGuard.Drop()
			return false, err
		}
		bucketGuard.Drop()
		// 重新定位后重试
	}
}

// splitBucket 分裂一个满桶：局部深度加一，镜像槽位指向新桶，按新掩码重分配条目
func (h *DiskExtendibleHashTable) splitBucket(dir *page.HashDirectoryPage,
	bucket *page.HashBucketPage, bucketIdx uint32, bucketPid basic.PageID) error {

	oldDepth := dir.GetLocalDepth(bucketIdx)
	newDepth := oldDepth + 1
	// 旧桶的低位模式与分裂镜像模式
	oldPattern := bucketIdx & ((uint32(1) << oldDepth) - 1)
	imagePattern := oldPattern | (uint32(1) << (newDepth - 1))

	imagePid, guard := h.bpm.NewPageGuarded()
	if guard == nil {
		return ErrNoFrame
	}
	imageGuard := guard.UpgradeWrite()
	image := page.BucketPageView(imageGuard.GetDataMut())
	image.Init(h.bucketMaxSize)

	// 更新所有别名槽位的深度与指向
	mask := (uint32(1) << newDepth) - 1
	for i := uint32(0); i < dir.Size(); i++ {
		if dir.GetBucketPageID(i) != bucketPid {
			continue
		}
		dir.SetLocalDepth(i, uint8(newDepth))
		if i&mask == imagePattern {
			dir.SetBucketPageID(i, imagePid)
		}
	}

	// 按新掩码重分配旧桶条目
	for i := uint32(0); i < bucket.Size(); {
		key := bucket.KeyAt(i)
		if h.hash(key)&mask == imagePattern {
			image.Insert(key, bucket.ValueAt(i))
			bucket.RemoveAt(i)
			continue
		}
		i++
	}

	logger.Debugf("hash table %s: split bucket %d -> image %d at depth %d", h.name, bucketPid, imagePid, newDepth)
	imageGuard.Drop()
	return nil
}

// Remove 删除键。空桶与分裂镜像深度相同时合并，合并后目录可收缩
func (h *DiskExtendibleHashTable) Remove(key []byte) bool {
	hashVal := h.hash(key)

	headerGuard := h.bpm.FetchPageRead(h.headerPageID)
	if headerGuard == nil {
		return false
	}
	header := page.HeaderPageView(headerGuard.GetData())
	dirPid := header.GetDirectoryPageID(header.HashToDirectoryIndex(hashVal))
	if !dirPid.IsValid() {
		headerGuard.Drop()
		return false
	}

	dirGuard := h.bpm.FetchPageWrite(dirPid)
	headerGuard.Drop()
	if dirGuard == nil {
		return false
	}
	defer dirGuard.Drop()
	dir := page.DirectoryPageView(dirGuard.GetDataMut())

	bucketIdx := dir.HashToBucketIndex(hashVal)
	bucketPid := dir.GetBucketPageID(bucketIdx)
	if !bucketPid.IsValid() {
		return false
	}

	bucketGuard := h.bpm.FetchPageWrite(bucketPid)
	if bucketGuard == nil {
		return false
	}
	bucket := page.BucketPageView(bucketGuard.GetDataMut())
	removed := bucket.Remove(key)
	empty := bucket.IsEmpty()
	bucketGuard.Drop()

	if removed && empty {
		h.mergeEmptyBuckets(dir, hashVal)
		for dir.CanShrink() {
			dir.DecrGlobalDepth()
		}
	}
	return removed
}

// mergeEmptyBuckets 自底向上合并空桶。只要空桶与镜像局部深度相同就并入存活桶，
// 合并后存活桶若仍为空则继续向上合并
func (h *DiskExtendibleHashTable) mergeEmptyBuckets(dir *page.HashDirectoryPage, hashVal uint32) {
	for {
		bucketIdx := dir.HashToBucketIndex(hashVal)
		ld := dir.GetLocalDepth(bucketIdx)
		if ld == 0 {
			return
		}
		imageIdx := bucketIdx ^ (uint32(1) << (ld - 1))
		if dir.GetLocalDepth(imageIdx) != ld {
			return
		}
		bucketPid := dir.GetBucketPageID(bucketIdx)
		imagePid := dir.GetBucketPageID(imageIdx)
		if bucketPid == imagePid || !bucketPid.IsValid() || !imagePid.IsValid() {
			return
		}

		emptyPid, survivorPid := basic.InvalidPageID, basic.InvalidPageID
		bg := h.bpm.FetchPageRead(bucketPid)
		if bg == nil {
			return
		}
		if page.BucketPageView(bg.GetData()).IsEmpty() {
			emptyPid, survivorPid = bucketPid, imagePid
		}
		bg.Drop()
		if !emptyPid.IsValid() {
			ig := h.bpm.FetchPageRead(imagePid)
			if ig == nil {
				return
			}
			if page.BucketPageView(ig.GetData()).IsEmpty() {
				emptyPid, survivorPid = imagePid, bucketPid
			}
			ig.Drop()
		}
		if !emptyPid.IsValid() {
			return
		}

		for i := uint32(0); i < dir.Size(); i++ {
			if dir.GetBucketPageID(i) == emptyPid {
				dir.SetBucketPageID(i, survivorPid)
			}
		}
		for i := uint32(0); i < dir.Size(); i++ {
			if dir.GetBucketPageID(i) == survivorPid {
				dir.SetLocalDepth(i, uint8(ld-1))
			}
		}
		h.bpm.DeletePage(emptyPid)
		logger.Debugf("hash table %s: merged bucket %d into %d at depth %d", h.name, emptyPid, survivorPid, ld-1)
	}
}
