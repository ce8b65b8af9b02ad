package page

import (
	"encoding/binary"

	"github.com/zhukovaskychina/xengine/basic"
)

// 可扩展哈希目录页面布局:
//
//	[0,4)   max_depth    uint32
//	[4,8)   global_depth uint32
//	[8,8+N) local_depths, N = 1<<max_depth 个 uint8
//	[8+N,.) bucket_page_ids, N 个 uint32
const (
	// DirectoryMaxDepth 目录深度上限，受页面大小约束
	DirectoryMaxDepth = 9

	dirLocalDepthOffset = 8
)

// HashDirectoryPage 目录页面视图
type HashDirectoryPage struct {
	data []byte
}

// DirectoryPageView 将页面字节解释为目录页面
func DirectoryPageView(data []byte) *HashDirectoryPage {
	return &HashDirectoryPage{data: data}
}

// Init 初始化目录页面。global_depth从0开始，单一槽位指向无效桶
func (d *HashDirectoryPage) Init(maxDepth uint32) {
	if maxDepth > DirectoryMaxDepth {
		maxDepth = DirectoryMaxDepth
	}
	binary.LittleEndian.PutUint32(d.data[0:], maxDepth)
	binary.LittleEndian.PutUint32(d.data[4:], 0)
	for i := uint32(0); i < uint32(1)<<maxDepth; i++ {
		d.SetLocalDepth(i, 0)
		d.SetBucketPageID(i, basic.InvalidPageID)
	}
}

// MaxDepth 返回目录深度上限
func (d *HashDirectoryPage) MaxDepth() uint32 {
	return binary.LittleEndian.Uint32(d.data[0:])
}

// GlobalDepth 返回当前全局深度
func (d *HashDirectoryPage) GlobalDepth() uint32 {
	return binary.LittleEndian.Uint32(d.data[4:])
}

// Size 返回当前活跃目录项个数
func (d *HashDirectoryPage) Size() uint32 {
	return uint32(1) << d.GlobalDepth()
}

// MaxSize 返回目录项个数上限
func (d *HashDirectoryPage) MaxSize() uint32 {
	return uint32(1) << d.MaxDepth()
}

// GlobalDepthMask 返回低global_depth位掩码
func (d *HashDirectoryPage) GlobalDepthMask() uint32 {
	return d.Size() - 1
}

// LocalDepthMask 返回指定槽位的低local_depth位掩码
func (d *HashDirectoryPage) LocalDepthMask(idx uint32) uint32 {
	return (uint32(1) << d.GetLocalDepth(idx)) - 1
}

// HashToBucketIndex 用哈希值的低global_depth位定位桶槽位
func (d *HashDirectoryPage) HashToBucketIndex(hash uint32) uint32 {
	return hash & d.GlobalDepthMask()
}

// GetBucketPageID 返回槽位指向的桶页面
func (d *HashDirectoryPage) GetBucketPageID(idx uint32) basic.PageID {
	off := d.bucketArrayOffset() + idx*4
	return basic.PageIDFromDisk(binary.LittleEndian.Uint32(d.data[off:]))
}

// SetBucketPageID 设置槽位指向的桶页面
func (d *HashDirectoryPage) SetBucketPageID(idx uint32, pageID basic.PageID) {
	off := d.bucketArrayOffset() + idx*4
	binary.LittleEndian.PutUint32(d.data[off:], pageID.ToDisk())
}

// GetLocalDepth 返回槽位局部深度
func (d *HashDirectoryPage) GetLocalDepth(idx uint32) uint32 {
	return uint32(d.data[dirLocalDepthOffset+idx])
}

// SetLocalDepth 设置槽位局部深度
func (d *HashDirectoryPage) SetLocalDepth(idx uint32, depth uint8) {
	d.data[dirLocalDepthOffset+idx] = depth
}

// IncrLocalDepth 槽位局部深度加一
func (d *HashDirectoryPage) IncrLocalDepth(idx uint32) {
	d.data[dirLocalDepthOffset+idx]++
}

// DecrLocalDepth 槽位局部深度减一
func (d *HashDirectoryPage) DecrLocalDepth(idx uint32) {
	d.data[dirLocalDepthOffset+idx]--
}

// GetSplitImageIndex 返回槽位的分裂镜像：翻转local_depth-1位
func (d *HashDirectoryPage) GetSplitImageIndex(idx uint32) uint32 {
	depth := d.GetLocalDepth(idx)
	if depth == 0 {
		return idx
	}
	return idx ^ (uint32(1) << (depth - 1))
}

// IncrGlobalDepth 目录翻倍：每个旧槽位i复制到 i | (1<<global_depth)
func (d *HashDirectoryPage) IncrGlobalDepth() {
	gd := d.GlobalDepth()
	size := uint32(1) << gd
	for i := uint32(0); i < size; i++ {
		mirror := i | size
		d.SetBucketPageID(mirror, d.GetBucketPageID(i))
		d.SetLocalDepth(mirror, uint8(d.GetLocalDepth(i)))
	}
	binary.LittleEndian.PutUint32(d.data[4:], gd+1)
}

// DecrGlobalDepth 目录减半
func (d *HashDirectoryPage) DecrGlobalDepth() {
	gd := d.GlobalDepth()
	if gd == 0 {
		return
	}
	binary.LittleEndian.PutUint32(d.data[4:], gd-1)
}

// CanShrink 所有槽位局部深度都小于全局深度时目录可收缩
func (d *HashDirectoryPage) CanShrink() bool {
	gd := d.GlobalDepth()
	if gd == 0 {
		return false
	}
	for i := uint32(0); i < d.Size(); i++ {
		if d.GetLocalDepth(i) >= gd {
			return false
		}
	}
	return true
}

func (d *HashDirectoryPage) bucketArrayOffset() uint32 {
	return dirLocalDepthOffset + d.MaxSize()
}
