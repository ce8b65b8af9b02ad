package buffer_pool

import (
	"container/list"
	"sync"

	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/logger"
	"github.com/zhukovaskychina/xengine/storage/disk"
	"github.com/zhukovaskychina/xengine/storage/page"
)

// BufferPoolManager 管理固定数量的帧，负责页面换入换出。
// 帧表、空闲链表与淘汰器都在同一把互斥锁下变更；磁盘等待发生在锁外。
// 被淘汰脏页的写回在持锁时入队：调度器单工作协程按FIFO消费，
// 之后任何线程对该页面的读请求都排在写回之后，看到的必然是新数据
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize   int
	frames     []*page.Page
	frameTable map[basic.PageID]basic.FrameID
	freeList   *list.List
	replacer   *LRUKReplacer
	scheduler  *disk.DiskScheduler

	nextPageID basic.PageID

	// 正在加载的页面，后来者等待加载完成
	inflight map[basic.PageID]*sync.WaitGroup
}

// NewBufferPoolManager 创建缓冲池
func NewBufferPoolManager(poolSize int, replacerK int, dm disk.DiskManager) *BufferPoolManager {
	b := &BufferPoolManager{
		poolSize:   poolSize,
		frames:     make([]*page.Page, poolSize),
		frameTable: make(map[basic.PageID]basic.FrameID, poolSize),
		freeList:   list.New(),
		replacer:   NewLRUKReplacer(poolSize, replacerK),
		scheduler:  disk.NewDiskScheduler(dm),
		inflight:   make(map[basic.PageID]*sync.WaitGroup),
	}
	for i := 0; i < poolSize; i++ {
		b.frames[i] = page.NewPage()
		b.freeList.PushBack(basic.FrameID(i))
	}
	return b
}

// PoolSize 返回帧数
func (b *BufferPoolManager) PoolSize() int { return b.poolSize }

// Close 关闭调度器
func (b *BufferPoolManager) Close() {
	b.scheduler.Shutdown()
}

// NewPage 分配一个新页面并钉住。所有帧都被钉住时返回nil
func (b *BufferPoolManager) NewPage() (basic.PageID, *page.Page) {
	b.mu.Lock()

	fid, flushCb, ok := b.reserveFrame()
	if !ok {
		b.mu.Unlock()
		return basic.InvalidPageID, nil
	}

	pid := b.nextPageID
	b.nextPageID++

	frame := b.frames[fid]
	frame.SetID(pid)
	frame.IncPin()
	frame.SetDirty(false)
	b.frameTable[pid] = fid
	b.replacer.RecordAccess(fid)
	b.replacer.SetEvictable(fid, false)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	b.inflight[pid] = wg
	b.mu.Unlock()

	// 帧内容在写回完成前不能动
	if flushCb != nil {
		if !<-flushCb {
			logger.Errorf("buffer pool: flush of evicted page failed, frame %d", fid)
		}
	}
	frame.ResetMemory()

	b.mu.Lock()
	delete(b.inflight, pid)
	wg.Done()
	b.mu.Unlock()

	return pid, frame
}

// FetchPage 获取页面并钉住。非驻留且无可淘汰帧时返回nil
func (b *BufferPoolManager) FetchPage(pid basic.PageID) *page.Page {
	if !pid.IsValid() {
		return nil
	}
	b.mu.Lock()
	for {
		wg, ok := b.inflight[pid]
		if !ok {
			break
		}
		b.mu.Unlock()
		wg.Wait()
		b.mu.Lock()
	}

	if fid, ok := b.frameTable[pid]; ok {
		frame := b.frames[fid]
		frame.IncPin()
		b.replacer.RecordAccess(fid)
		b.replacer.SetEvictable(fid, false)
		b.mu.Unlock()
		return frame
	}

	fid, flushCb, ok := b.reserveFrame()
	if !ok {
		b.mu.Unlock()
		return nil
	}

	frame := b.frames[fid]
	frame.SetID(pid)
	frame.IncPin()
	frame.SetDirty(false)
	b.frameTable[pid] = fid
	b.replacer.RecordAccess(fid)
	b.replacer.SetEvictable(fid, false)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	b.inflight[pid] = wg

	// 读请求在持锁时入队，排在可能的写回之后。
	// 同一帧缓冲先写后读由单工作协程串行保证
	readCb := make(chan bool, 1)
	b.scheduler.Schedule(&disk.DiskRequest{
		IsWrite:  false,
		Data:     frame.Data(),
		PageID:   pid,
		Callback: readCb,
	})
	b.mu.Unlock()

	if flushCb != nil {
		if !<-flushCb {
			logger.Errorf("buffer pool: flush of evicted page failed, frame %d", fid)
		}
	}
	loadOK := <-readCb

	b.mu.Lock()
	delete(b.inflight, pid)
	wg.Done()
	if !loadOK {
		// 读取失败回退预留，帧归还空闲链表
		frame.DecPin()
		frame.SetID(basic.InvalidPageID)
		delete(b.frameTable, pid)
		b.replacer.SetEvictable(fid, true)
		b.replacer.Remove(fid)
		b.freeList.PushBack(fid)
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()
	return frame
}

// UnpinPage 释放一次引用。is_dirty为真时置脏，为假时保留原有脏标志
func (b *BufferPoolManager) UnpinPage(pid basic.PageID, isDirty bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	fid, ok := b.frameTable[pid]
	if !ok {
		return false
	}
	frame := b.frames[fid]
	if frame.PinCount() <= 0 {
		return false
	}
	if isDirty {
		frame.SetDirty(true)
	}
	frame.DecPin()
	if frame.PinCount() == 0 {
		b.replacer.SetEvictable(fid, true)
	}
	return true
}

// FlushPage 无条件写回页面并清除脏标志
func (b *BufferPoolManager) FlushPage(pid basic.PageID) bool {
	b.mu.Lock()
	fid, ok := b.frameTable[pid]
	if !ok {
		b.mu.Unlock()
		return false
	}
	frame := b.frames[fid]
	// 临时钉住，防止等待期间被淘汰
	frame.IncPin()
	b.replacer.SetEvictable(fid, false)
	cb := make(chan bool, 1)
	b.scheduler.Schedule(&disk.DiskRequest{
		IsWrite:  true,
		Data:     frame.Data(),
		PageID:   pid,
		Callback: cb,
	})
	b.mu.Unlock()

	ok = <-cb

	b.mu.Lock()
	frame.DecPin()
	if frame.PinCount() == 0 {
		b.replacer.SetEvictable(fid, true)
	}
	if ok {
		frame.SetDirty(false)
	}
	b.mu.Unlock()
	return ok
}

// FlushAllPages 写回全部驻留页面
func (b *BufferPoolManager) FlushAllPages() {
	b.mu.Lock()
	pids := make([]basic.PageID, 0, len(b.frameTable))
	for pid := range b.frameTable {
		pids = append(pids, pid)
	}
	b.mu.Unlock()

	for _, pid := range pids {
		b.FlushPage(pid)
	}
}

// DeletePage 删除页面。被钉住时拒绝；脏数据直接丢弃
func (b *BufferPoolManager) DeletePage(pid basic.PageID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	fid, ok := b.frameTable[pid]
	if !ok {
		return true
	}
	frame := b.frames[fid]
	if frame.PinCount() > 0 {
		return false
	}
	b.replacer.Remove(fid)
	delete(b.frameTable, pid)
	frame.SetID(basic.InvalidPageID)
	frame.SetDirty(false)
	frame.ResetMemory()
	b.freeList.PushBack(fid)
	return true
}

// reserveFrame 取得一个可用帧。淘汰脏页时写回请求立刻入队，
// 返回其完成信号，由调用方在锁外等待
func (b *BufferPoolManager) reserveFrame() (basic.FrameID, chan bool, bool) {
	if b.freeList.Len() > 0 {
		e := b.freeList.Front()
		b.freeList.Remove(e)
		return e.Value.(basic.FrameID), nil, true
	}

	fid, ok := b.replacer.Evict()
	if !ok {
		return 0, nil, false
	}
	frame := b.frames[fid]
	victimID := frame.ID()
	victimDirty := frame.IsDirty()
	delete(b.frameTable, victimID)
	logger.Debugf("buffer pool: evicting page %d from frame %d (dirty=%t)", victimID, fid, victimDirty)

	if !victimDirty {
		return fid, nil, true
	}
	cb := make(chan bool, 1)
	b.scheduler.Schedule(&disk.DiskRequest{
		IsWrite:  true,
		Data:     frame.Data(),
		PageID:   victimID,
		Callback: cb,
	})
	return fid, cb, true
}
