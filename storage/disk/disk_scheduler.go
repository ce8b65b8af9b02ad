package disk

import (
	"sync"

	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/logger"
)

// DiskRequest 一次磁盘请求。Callback只被投递一次
type DiskRequest struct {
	IsWrite  bool
	Data     []byte
	PageID   basic.PageID
	Callback chan bool
}

// DiskScheduler 单工作协程的磁盘调度器。
// 请求进入无界FIFO队列，由唯一的工作协程顺序消费，
// 因此同一页面上的请求保持提交顺序
type DiskScheduler struct {
	dm DiskManager

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*DiskRequest
	shutdown bool

	done chan struct{}
}

// NewDiskScheduler 创建调度器并启动工作协程
func NewDiskScheduler(dm DiskManager) *DiskScheduler {
	s := &DiskScheduler{
		dm:   dm,
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.startWorker()
	return s
}

// Schedule 提交一个请求，立即返回。关闭后的提交被丢弃并投递false
func (s *DiskScheduler) Schedule(req *DiskRequest) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		logger.Warnf("disk scheduler already shut down, dropping request for page %d", req.PageID)
		req.Callback <- false
		return
	}
	s.queue = append(s.queue, req)
	s.cond.Signal()
	s.mu.Unlock()
}

// Shutdown 投递哨兵并等待工作协程处理完哨兵之前的全部请求
func (s *DiskScheduler) Shutdown() {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.shutdown = true
	// nil作为退出哨兵，排在已有请求之后
	s.queue = append(s.queue, nil)
	s.cond.Signal()
	s.mu.Unlock()

	<-s.done
}

// startWorker 工作协程主循环
func (s *DiskScheduler) startWorker() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			s.cond.Wait()
		}
		req := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if req == nil {
			close(s.done)
			return
		}
		s.process(req)
	}
}

func (s *DiskScheduler) process(req *DiskRequest) {
	var err error
	if req.IsWrite {
		err = s.dm.WritePage(req.PageID, req.Data)
	} else {
		err = s.dm.ReadPage(req.PageID, req.Data)
	}
	if err != nil {
		logger.Errorf("disk request failed: page=%d write=%t err=%v", req.PageID, req.IsWrite, err)
	}
	req.Callback <- err == nil
}
