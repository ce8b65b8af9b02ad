package metadata

import (
	"sync"

	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/buffer_pool"
	"github.com/zhukovaskychina/xengine/logger"
	"github.com/zhukovaskychina/xengine/record"
	"github.com/zhukovaskychina/xengine/txn"
)

// TableInfo 表元数据
type TableInfo struct {
	Schema *record.Schema
	Name   string
	OID    uint32
	Heap   *record.TableHeap
}

// IndexInfo 索引元数据
type IndexInfo struct {
	KeySchema *record.Schema
	Name      string
	OID       uint32
	TableName string
	KeyAttrs  []uint32
	Index     Index
}

// Catalog 表与索引的内存目录
type Catalog struct {
	mu sync.RWMutex

	bpm *buffer_pool.BufferPoolManager

	tables     map[uint32]*TableInfo
	tableNames map[string]uint32

	indexes    map[uint32]*IndexInfo
	indexNames map[string]map[string]uint32

	nextOID uint32
}

// NewCatalog 创建目录
func NewCatalog(bpm *buffer_pool.BufferPoolManager) *Catalog {
	return &Catalog{
		bpm:        bpm,
		tables:     make(map[uint32]*TableInfo),
		tableNames: make(map[string]uint32),
		indexes:    make(map[uint32]*IndexInfo),
		indexNames: make(map[string]map[string]uint32),
	}
}

// CreateTable 建表并分配堆
func (c *Catalog) CreateTable(name string, schema *record.Schema) (*TableInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tableNames[name]; ok {
		return nil, errors.AlreadyExistsf("table %s", name)
	}
	heap, err := record.NewTableHeap(c.bpm)
	if err != nil {
		return nil, errors.Trace(err)
	}
	info := &TableInfo{Schema: schema, Name: name, OID: c.nextOID, Heap: heap}
	c.nextOID++
	c.tables[info.OID] = info
	c.tableNames[name] = info.OID
	c.indexNames[name] = make(map[string]uint32)
	logger.Infof("catalog: created table %s oid=%d schema=%s", name, info.OID, schema)
	return info, nil
}

// GetTable 按表名查找
func (c *Catalog) GetTable(name string) *TableInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	oid, ok := c.tableNames[name]
	if !ok {
		return nil
	}
	return c.tables[oid]
}

// GetTableByOID 按编号查找
func (c *Catalog) GetTableByOID(oid uint32) *TableInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tables[oid]
}

// CreateIndex 建索引并回填存量数据
func (c *Catalog) CreateIndex(indexName, tableName string, keyAttrs []uint32) (*IndexInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	oid, ok := c.tableNames[tableName]
	if !ok {
		return nil, errors.NotFoundf("table %s", tableName)
	}
	table := c.tables[oid]
	if _, ok := c.indexNames[tableName][indexName]; ok {
		return nil, errors.AlreadyExistsf("index %s on %s", indexName, tableName)
	}

	idx, err := NewHashTableIndex(indexName, c.bpm, keyAttrs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	keySchema := record.CopySchema(table.Schema, keyAttrs)
	info := &IndexInfo{
		KeySchema: keySchema,
		Name:      indexName,
		OID:       c.nextOID,
		TableName: tableName,
		KeyAttrs:  keyAttrs,
		Index:     idx,
	}
	c.nextOID++

	// 回填已有元组
	for it := table.Heap.MakeIterator(); !it.IsEnd(); it.Next() {
		meta, tuple, err := it.GetTuple()
		if err != nil {
			return nil, errors.Trace(err)
		}
		if meta.IsDeleted {
			continue
		}
		key := tuple.KeyFromTuple(table.Schema, keySchema, keyAttrs)
		if err := idx.InsertEntry(key, it.GetRID(), (*txn.Transaction)(nil)); err != nil {
			return nil, errors.Trace(err)
		}
	}

	c.indexes[info.OID] = info
	c.indexNames[tableName][indexName] = info.OID
	logger.Infof("catalog: created index %s on %s attrs=%v", indexName, tableName, keyAttrs)
	return info, nil
}

// GetIndex 按表名与索引名查找
func (c *Catalog) GetIndex(indexName, tableName string) *IndexInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byName, ok := c.indexNames[tableName]
	if !ok {
		return nil
	}
	oid, ok := byName[indexName]
	if !ok {
		return nil
	}
	return c.indexes[oid]
}

// GetIndexByOID 按编号查找
func (c *Catalog) GetIndexByOID(oid uint32) *IndexInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexes[oid]
}

// GetTableIndexes 返回表上的全部索引
func (c *Catalog) GetTableIndexes(tableName string) []*IndexInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byName, ok := c.indexNames[tableName]
	if !ok {
		return nil
	}
	out := make([]*IndexInfo, 0, len(byName))
	for _, oid := range byName {
		out = append(out, c.indexes[oid])
	}
	return out
}
