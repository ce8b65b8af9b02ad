package page

import (
	"sync"

	"github.com/zhukovaskychina/xengine/basic"
)

// Page 缓冲池帧内的页面。帧在池构造时一次性分配，之后复用
type Page struct {
	rwlatch sync.RWMutex

	id       basic.PageID
	pinCount int
	isDirty  bool
	data     []byte
}

// NewPage 分配一个空帧
func NewPage() *Page {
	return &Page{
		id:   basic.InvalidPageID,
		data: make([]byte, basic.PageSize),
	}
}

// Data 返回页面字节，页面视图直接在其上原地读写
func (p *Page) Data() []byte { return p.data }

// ID 返回当前驻留的页面编号
func (p *Page) ID() basic.PageID { return p.id }

// SetID 更新页面编号，仅缓冲池在持锁时调用
func (p *Page) SetID(id basic.PageID) { p.id = id }

// PinCount 返回引用计数
func (p *Page) PinCount() int { return p.pinCount }

// IncPin 增加引用计数
func (p *Page) IncPin() { p.pinCount++ }

// DecPin 减少引用计数
func (p *Page) DecPin() { p.pinCount-- }

// IsDirty 返回脏标志
func (p *Page) IsDirty() bool { return p.isDirty }

// SetDirty 设置脏标志
func (p *Page) SetDirty(dirty bool) { p.isDirty = dirty }

// ResetMemory 清空页面内容
func (p *Page) ResetMemory() {
	for i := range p.data {
		p.data[i] = 0
	}
}

// RLatch 获取读闩。sync.RWMutex对排队写者让步，写者不会饿死
func (p *Page) RLatch() { p.rwlatch.RLock() }

// RUnlatch 释放读闩
func (p *Page) RUnlatch() { p.rwlatch.RUnlock() }

// WLatch 获取写闩
func (p *Page) WLatch() { p.rwlatch.Lock() }

// WUnlatch 释放写闩
func (p *Page) WUnlatch() { p.rwlatch.Unlock() }
