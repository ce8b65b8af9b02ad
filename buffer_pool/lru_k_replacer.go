package buffer_pool

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/zhukovaskychina/xengine/basic"
)

// lruKNode 每个驻留帧一个节点，记录最近不超过K次访问的时间戳
type lruKNode struct {
	fid       basic.FrameID
	history   []uint64 // 最旧在前
	evictable bool
	elem      *list.Element
	inKList   bool
}

// LRUKReplacer 基于K距离的淘汰器。
// 历史不足K次的帧K距离为无穷大，归入infList，按最近访问LRU排序；
// 满K次的帧归入kList，按倒数第K次访问时间戳升序排序。
// 淘汰优先取infList队首，其次kList队首
type LRUKReplacer struct {
	mu sync.Mutex

	numFrames int
	k         int
	clock     uint64
	nodes     map[basic.FrameID]*lruKNode

	infList *list.List
	kList   *list.List

	currSize int
}

// NewLRUKReplacer 创建淘汰器
func NewLRUKReplacer(numFrames int, k int) *LRUKReplacer {
	if k < 1 {
		panic(fmt.Sprintf("lru-k replacer: invalid k %d", k))
	}
	return &LRUKReplacer{
		numFrames: numFrames,
		k:         k,
		nodes:     make(map[basic.FrameID]*lruKNode),
		infList:   list.New(),
		kList:     list.New(),
	}
}

// RecordAccess 记录一次帧访问，必要时在两个列表之间迁移并重新排位
func (r *LRUKReplacer) RecordAccess(fid basic.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkFrame(fid)

	node, ok := r.nodes[fid]
	if !ok {
		node = &lruKNode{fid: fid}
		r.nodes[fid] = node
	} else {
		r.detach(node)
	}

	node.history = append(node.history, r.clock)
	r.clock++
	if len(node.history) > r.k {
		node.history = node.history[len(node.history)-r.k:]
	}

	r.attach(node)
}

// SetEvictable 切换帧的可淘汰标志
func (r *LRUKReplacer) SetEvictable(fid basic.FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkFrame(fid)

	node, ok := r.nodes[fid]
	if !ok {
		return
	}
	if node.evictable == evictable {
		return
	}
	node.evictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// Evict 选出K距离最大的可淘汰帧并移除其节点
func (r *LRUKReplacer) Evict() (basic.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range []*list.List{r.infList, r.kList} {
		for e := l.Front(); e != nil; e = e.Next() {
			node := e.Value.(*lruKNode)
			if node.evictable {
				r.detach(node)
				delete(r.nodes, node.fid)
				r.currSize--
				return node.fid, true
			}
		}
	}
	return 0, false
}

// Remove 移除一个帧的访问历史。帧不可淘汰时属于调用方错误
func (r *LRUKReplacer) Remove(fid basic.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkFrame(fid)

	node, ok := r.nodes[fid]
	if !ok {
		return
	}
	if !node.evictable {
		panic(fmt.Sprintf("lru-k replacer: removing non-evictable frame %d", fid))
	}
	r.detach(node)
	delete(r.nodes, fid)
	r.currSize--
}

// Size 返回可淘汰帧个数
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}

func (r *LRUKReplacer) checkFrame(fid basic.FrameID) {
	if fid < 0 || int(fid) >= r.numFrames {
		panic(fmt.Sprintf("lru-k replacer: frame id %d out of range [0,%d)", fid, r.numFrames))
	}
}

func (r *LRUKReplacer) detach(node *lruKNode) {
	if node.elem == nil {
		return
	}
	if node.inKList {
		r.kList.Remove(node.elem)
	} else {
		r.infList.Remove(node.elem)
	}
	node.elem = nil
}

// attach 按当前历史把节点插回对应列表的排序位置
func (r *LRUKReplacer) attach(node *lruKNode) {
	if len(node.history) < r.k {
		// 无穷K距离：按最近访问LRU，队尾为最新
		node.inKList = false
		node.elem = r.infList.PushBack(node)
		return
	}
	node.inKList = true
	// kList按倒数第K次访问时间戳升序，队首K距离最大
	oldest := node.history[0]
	for e := r.kList.Front(); e != nil; e = e.Next() {
		other := e.Value.(*lruKNode)
		if oldest < other.history[0] {
			node.elem = r.kList.InsertBefore(node, e)
			return
		}
	}
	node.elem = r.kList.PushBack(node)
}
