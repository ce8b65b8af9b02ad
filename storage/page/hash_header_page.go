package page

import (
	"encoding/binary"

	"github.com/zhukovaskychina/xengine/basic"
)

// 可扩展哈希头页面布局:
//
//	[0,4)   max_depth uint32
//	[4,...) directory_page_ids, 1<<max_depth 个 uint32
const (
	// HeaderMaxDepth 头页面目录数组深度上限
	HeaderMaxDepth = 9

	headerDirArrayOffset = 4
)

// HashHeaderPage 头页面视图，原地操作页面字节
type HashHeaderPage struct {
	data []byte
}

// HeaderPageView 将页面字节解释为头页面
func HeaderPageView(data []byte) *HashHeaderPage {
	return &HashHeaderPage{data: data}
}

// Init 初始化头页面，目录项全部置为无效
func (h *HashHeaderPage) Init(maxDepth uint32) {
	if maxDepth > HeaderMaxDepth {
		maxDepth = HeaderMaxDepth
	}
	binary.LittleEndian.PutUint32(h.data[0:], maxDepth)
	for i := uint32(0); i < uint32(1)<<maxDepth; i++ {
		h.SetDirectoryPageID(i, basic.InvalidPageID)
	}
}

// MaxDepth 返回头页面深度
func (h *HashHeaderPage) MaxDepth() uint32 {
	return binary.LittleEndian.Uint32(h.data[0:])
}

// MaxSize 返回目录项个数
func (h *HashHeaderPage) MaxSize() uint32 {
	return uint32(1) << h.MaxDepth()
}

// HashToDirectoryIndex 用哈希值的高max_depth位定位目录项
func (h *HashHeaderPage) HashToDirectoryIndex(hash uint32) uint32 {
	depth := h.MaxDepth()
	if depth == 0 {
		return 0
	}
	return hash >> (32 - depth)
}

// GetDirectoryPageID 返回目录页面编号
func (h *HashHeaderPage) GetDirectoryPageID(idx uint32) basic.PageID {
	off := headerDirArrayOffset + idx*4
	return basic.PageIDFromDisk(binary.LittleEndian.Uint32(h.data[off:]))
}

// SetDirectoryPageID 设置目录页面编号
func (h *HashHeaderPage) SetDirectoryPageID(idx uint32, pageID basic.PageID) {
	off := headerDirArrayOffset + idx*4
	binary.LittleEndian.PutUint32(h.data[off:], pageID.ToDisk())
}
