package buffer_pool

import (
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/storage/page"
)

// BasicPageGuard 持有一次钉住。Drop之后守卫为空，重复Drop是空操作。
// 守卫通过指针传递，升级与转移都会清空来源守卫
type BasicPageGuard struct {
	bpm     *BufferPoolManager
	page    *page.Page
	isDirty bool
}

// NewPageGuarded 分配新页面并返回基础守卫
func (b *BufferPoolManager) NewPageGuarded() (basic.PageID, *BasicPageGuard) {
	pid, p := b.NewPage()
	if p == nil {
		return basic.InvalidPageID, nil
	}
	return pid, &BasicPageGuard{bpm: b, page: p}
}

// FetchPageBasic 获取页面并返回基础守卫
func (b *BufferPoolManager) FetchPageBasic(pid basic.PageID) *BasicPageGuard {
	p := b.FetchPage(pid)
	if p == nil {
		return nil
	}
	return &BasicPageGuard{bpm: b, page: p}
}

// FetchPageRead 获取页面并加读闩
func (b *BufferPoolManager) FetchPageRead(pid basic.PageID) *ReadPageGuard {
	g := b.FetchPageBasic(pid)
	if g == nil {
		return nil
	}
	return g.UpgradeRead()
}

// FetchPageWrite 获取页面并加写闩
func (b *BufferPoolManager) FetchPageWrite(pid basic.PageID) *WritePageGuard {
	g := b.FetchPageBasic(pid)
	if g == nil {
		return nil
	}
	return g.UpgradeWrite()
}

// PageID 返回守卫页面编号
func (g *BasicPageGuard) PageID() basic.PageID {
	if g.page == nil {
		return basic.InvalidPageID
	}
	return g.page.ID()
}

// GetData 只读访问页面字节
func (g *BasicPageGuard) GetData() []byte {
	return g.page.Data()
}

// GetDataMut 可写访问页面字节并记录脏标志
func (g *BasicPageGuard) GetDataMut() []byte {
	g.isDirty = true
	return g.page.Data()
}

// Drop 解除钉住并清空守卫
func (g *BasicPageGuard) Drop() {
	if g.page == nil {
		return
	}
	g.bpm.UnpinPage(g.page.ID(), g.isDirty)
	g.page = nil
	g.isDirty = false
}

// Move 转移所有权，来源守卫清空
func (g *BasicPageGuard) Move() *BasicPageGuard {
	moved := &BasicPageGuard{bpm: g.bpm, page: g.page, isDirty: g.isDirty}
	g.page = nil
	g.isDirty = false
	return moved
}

// UpgradeRead 原地加读闩，消费基础守卫
func (g *BasicPageGuard) UpgradeRead() *ReadPageGuard {
	p := g.page
	p.RLatch()
	rg := &ReadPageGuard{guard: BasicPageGuard{bpm: g.bpm, page: p, isDirty: g.isDirty}}
	g.page = nil
	g.isDirty = false
	return rg
}

// UpgradeWrite 原地加写闩，消费基础守卫
func (g *BasicPageGuard) UpgradeWrite() *WritePageGuard {
	p := g.page
	p.WLatch()
	wg := &WritePageGuard{guard: BasicPageGuard{bpm: g.bpm, page: p, isDirty: g.isDirty}}
	g.page = nil
	g.isDirty = false
	return wg
}

// ReadPageGuard 钉住加读闩
type ReadPageGuard struct {
	guard BasicPageGuard
}

// PageID 返回守卫页面编号
func (g *ReadPageGuard) PageID() basic.PageID {
	return g.guard.PageID()
}

// GetData 只读访问页面字节
func (g *ReadPageGuard) GetData() []byte {
	return g.guard.page.Data()
}

// Drop 释放读闩并解除钉住
func (g *ReadPageGuard) Drop() {
	if g.guard.page == nil {
		return
	}
	g.guard.page.RUnlatch()
	g.guard.Drop()
}

// WritePageGuard 钉住加写闩
type WritePageGuard struct {
	guard BasicPageGuard
}

// PageID 返回守卫页面编号
func (g *WritePageGuard) PageID() basic.PageID {
	return g.guard.PageID()
}

// GetData 只读访问页面字节
func (g *WritePageGuard) GetData() []byte {
	return g.guard.page.Data()
}

// GetDataMut 可写访问页面字节并记录脏标志
func (g *WritePageGuard) GetDataMut() []byte {
	g.guard.isDirty = true
	return g.guard.page.Data()
}

// Drop 释放写闩并解除钉住
func (g *WritePageGuard) Drop() {
	if g.guard.page == nil {
		return
	}
	g.guard.page.WUnlatch()
	g.guard.Drop()
}
