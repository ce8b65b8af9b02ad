package primer

import "sync"

// ValueGuard 持有取值时刻的trie根，保证值在读取方手里始终有效
type ValueGuard struct {
	root  Trie
	value interface{}
}

// Value 返回受保护的值
func (g *ValueGuard) Value() interface{} {
	return g.value
}

// TrieStore 并发trie存储。
// 根句柄用读写锁保护，写入互相排斥但不阻塞读：
// 写者在旧根上构建新trie，构建完成后短暂加写锁交换根
type TrieStore struct {
	rootMu  sync.RWMutex
	writeMu sync.Mutex
	root    Trie
}

// NewTrieStore 创建空存储
func NewTrieStore() *TrieStore {
	return &TrieStore{root: NewTrie()}
}

// Get 读取键，返回携带根引用的守卫
func (s *TrieStore) Get(key string) (*ValueGuard, bool) {
	s.rootMu.RLock()
	root := s.root
	s.rootMu.RUnlock()

	v, ok := root.Get(key)
	if !ok {
		return nil, false
	}
	return &ValueGuard{root: root, value: v}, true
}

// Put 写入键值
func (s *TrieStore) Put(key string, value interface{}) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.rootMu.RLock()
	root := s.root
	s.rootMu.RUnlock()

	newRoot := root.Put(key, value)

	s.rootMu.Lock()
	s.root = newRoot
	s.rootMu.Unlock()
}

// Remove 删除键
func (s *TrieStore) Remove(key string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.rootMu.RLock()
	root := s.root
	s.rootMu.RUnlock()

	newRoot := root.Remove(key)

	s.rootMu.Lock()
	s.root = newRoot
	s.rootMu.Unlock()
}
