package disk

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/zhukovaskychina/xengine/basic"
)

// DiskManager 负责页面粒度的磁盘读写。页面大小固定
type DiskManager interface {
	// ReadPage 读取一个页面到buf，buf长度必须等于页面大小
	ReadPage(pageID basic.PageID, buf []byte) error
	// WritePage 将buf写入指定页面
	WritePage(pageID basic.PageID, buf []byte) error
	// Close 关闭底层文件
	Close() error
}

// FileDiskManager 基于单一数据文件的磁盘管理器，页面按编号偏移存放
type FileDiskManager struct {
	mu       sync.Mutex
	file     *os.File
	filePath string
}

// NewFileDiskManager 打开或创建数据文件
func NewFileDiskManager(filePath string) (*FileDiskManager, error) {
	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open data file %s", filePath)
	}
	return &FileDiskManager{file: f, filePath: filePath}, nil
}

func (d *FileDiskManager) ReadPage(pageID basic.PageID, buf []byte) error {
	if len(buf) != basic.PageSize {
		return errors.Errorf("read buffer size %d != page size %d", len(buf), basic.PageSize)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(pageID) * basic.PageSize
	n, err := d.file.ReadAt(buf, offset)
	if err != nil && n != basic.PageSize {
		// 读取超出文件尾的页面返回零页，新分配页面首次读属于正常路径
		if n == 0 {
			for i := range buf {
				buf[i] = 0
			}
			return nil
		}
		return errors.Wrapf(err, "read page %d", pageID)
	}
	return nil
}

func (d *FileDiskManager) WritePage(pageID basic.PageID, buf []byte) error {
	if len(buf) != basic.PageSize {
		return errors.Errorf("write buffer size %d != page size %d", len(buf), basic.PageSize)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(pageID) * basic.PageSize
	if _, err := d.file.WriteAt(buf, offset); err != nil {
		return errors.Wrapf(err, "write page %d", pageID)
	}
	return d.file.Sync()
}

func (d *FileDiskManager) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}

// MemoryDiskManager 纯内存实现，测试使用
type MemoryDiskManager struct {
	mu    sync.Mutex
	pages map[basic.PageID][]byte
}

func NewMemoryDiskManager() *MemoryDiskManager {
	return &MemoryDiskManager{pages: make(map[basic.PageID][]byte)}
}

func (m *MemoryDiskManager) ReadPage(pageID basic.PageID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.pages[pageID]; ok {
		copy(buf, data)
		return nil
	}
	for i := range buf {
		buf[i] = 0
	}
	return nil
}

func (m *MemoryDiskManager) WritePage(pageID basic.PageID, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := make([]byte, basic.PageSize)
	copy(data, buf)
	m.pages[pageID] = data
	return nil
}

func (m *MemoryDiskManager) Close() error { return nil }
