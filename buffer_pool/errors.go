package buffer_pool

import "errors"

var (
	// ErrNoEvictableFrame 所有帧均被钉住，无法腾出帧
	ErrNoEvictableFrame = errors.New("no evictable frame in buffer pool")
	// ErrPageNotResident 页面不在缓冲池中
	ErrPageNotResident = errors.New("page not resident in buffer pool")
	// ErrPagePinned 页面仍被钉住
	ErrPagePinned = errors.New("page is pinned")
	// ErrIOFailed 底层磁盘读写失败
	ErrIOFailed = errors.New("disk IO failed")
)
