package buffer_pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhukovaskychina/xengine/storage/disk"
)

func TestPageGuard(t *testing.T) {
	t.Run("Drop释放钉住且幂等", func(t *testing.T) {
		bpm := NewBufferPoolManager(2, 2, disk.NewMemoryDiskManager())
		defer bpm.Close()

		pid, guard := bpm.NewPageGuarded()
		require.NotNil(t, guard)
		assert.Equal(t, pid, guard.PageID())

		guard.Drop()
		guard.Drop() // 二次Drop是空操作

		// 钉住已释放，页面可被淘汰换出
		_, g1 := bpm.NewPageGuarded()
		require.NotNil(t, g1)
		_, g2 := bpm.NewPageGuarded()
		require.NotNil(t, g2)
		g1.Drop()
		g2.Drop()
	})

	t.Run("写守卫传播脏标志", func(t *testing.T) {
		dm := disk.NewMemoryDiskManager()
		bpm := NewBufferPoolManager(2, 2, dm)
		defer bpm.Close()

		pid, guard := bpm.NewPageGuarded()
		require.NotNil(t, guard)
		wg := guard.UpgradeWrite()
		copy(wg.GetDataMut(), []byte("guarded write"))
		wg.Drop()

		require.True(t, bpm.FlushPage(pid))
		buf := make([]byte, 4096)
		require.NoError(t, dm.ReadPage(pid, buf))
		assert.Equal(t, []byte("guarded write"), buf[:13])
	})

	t.Run("转移后来源守卫为空", func(t *testing.T) {
		bpm := NewBufferPoolManager(2, 2, disk.NewMemoryDiskManager())
		defer bpm.Close()

		_, guard := bpm.NewPageGuarded()
		require.NotNil(t, guard)
		moved := guard.Move()
		assert.Nil(t, guard.page)
		guard.Drop() // 空守卫Drop无副作用
		moved.Drop()
	})

	t.Run("读守卫互不阻塞且排斥写者", func(t *testing.T) {
		bpm := NewBufferPoolManager(2, 2, disk.NewMemoryDiskManager())
		defer bpm.Close()

		pid, guard := bpm.NewPageGuarded()
		require.NotNil(t, guard)
		guard.Drop()

		r1 := bpm.FetchPageRead(pid)
		require.NotNil(t, r1)
		r2 := bpm.FetchPageRead(pid)
		require.NotNil(t, r2)

		done := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := bpm.FetchPageWrite(pid)
			close(done)
			w.GetDataMut()[0] = 0xAB
			w.Drop()
		}()

		select {
		case <-done:
			t.Fatal("writer acquired latch while readers hold it")
		default:
		}
		r1.Drop()
		r2.Drop()
		wg.Wait()
		<-done

		r := bpm.FetchPageRead(pid)
		require.NotNil(t, r)
		assert.Equal(t, byte(0xAB), r.GetData()[0])
		r.Drop()
	})
}
