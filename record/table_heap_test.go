package record

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/buffer_pool"
	"github.com/zhukovaskychina/xengine/storage/disk"
)

func heapSchema() *Schema {
	return NewSchema(
		NewColumn("id", basic.TypeInt),
		NewColumn("payload", basic.TypeVarchar),
	)
}

func TestTableHeap(t *testing.T) {
	bpm := buffer_pool.NewBufferPoolManager(16, 2, disk.NewMemoryDiskManager())
	defer bpm.Close()

	heap, err := NewTableHeap(bpm)
	require.NoError(t, err)
	schema := heapSchema()

	t.Run("跨页插入与迭代", func(t *testing.T) {
		// 大负载逼迫堆表追加页面
		const n = 32
		payload := make([]byte, 400)
		rids := make([]basic.RID, 0, n)
		for i := 0; i < n; i++ {
			tuple := NewTuple([]basic.Value{
				basic.NewIntValue(int64(i)),
				basic.NewVarcharValue(string(payload) + fmt.Sprint(i)),
			}, schema)
			rid, err := heap.InsertTuple(basic.TupleMeta{Ts: uint64(i)}, tuple)
			require.NoError(t, err)
			rids = append(rids, rid)
		}

		pages := map[basic.PageID]bool{}
		for _, rid := range rids {
			pages[rid.PageID] = true
		}
		assert.Greater(t, len(pages), 1)

		i := 0
		for it := heap.MakeIterator(); !it.IsEnd(); it.Next() {
			meta, tuple, err := it.GetTuple()
			require.NoError(t, err)
			assert.Equal(t, uint64(i), meta.Ts)
			assert.Equal(t, int64(i), tuple.GetValue(schema, 0).AsInt())
			assert.Equal(t, rids[i], it.GetRID())
			i++
		}
		assert.Equal(t, 32, i)
	})

	t.Run("元数据读写", func(t *testing.T) {
		tuple := NewTuple([]basic.Value{
			basic.NewIntValue(100), basic.NewVarcharValue("meta"),
		}, schema)
		rid, err := heap.InsertTuple(basic.TupleMeta{Ts: 9}, tuple)
		require.NoError(t, err)

		require.NoError(t, heap.UpdateTupleMeta(basic.TupleMeta{Ts: 10, IsDeleted: true}, rid))
		meta, err := heap.GetTupleMeta(rid)
		require.NoError(t, err)
		assert.True(t, meta.IsDeleted)
		assert.Equal(t, uint64(10), meta.Ts)

		// 不存在的记录
		err = heap.UpdateTupleMeta(basic.TupleMeta{}, basic.NewRID(rid.PageID, 9999))
		assert.Error(t, err)
	})

	t.Run("迭代终点固定在创建时刻", func(t *testing.T) {
		it := heap.MakeIterator()
		seen := 0
		for ; !it.IsEnd(); it.Next() {
			seen++
			if seen == 1 {
				// 迭代期间追加的元组不可见
				tuple := NewTuple([]basic.Value{
					basic.NewIntValue(-1), basic.NewVarcharValue("late"),
				}, schema)
				_, err := heap.InsertTuple(basic.TupleMeta{}, tuple)
				require.NoError(t, err)
			}
		}
		assert.Equal(t, 33, seen)
	})
}

func TestTupleKeyExtraction(t *testing.T) {
	schema := heapSchema()
	tuple := NewTuple([]basic.Value{
		basic.NewIntValue(5), basic.NewVarcharValue("k"),
	}, schema)

	keySchema := CopySchema(schema, []uint32{0})
	key := tuple.KeyFromTuple(schema, keySchema, []uint32{0})
	assert.Equal(t, int64(5), key.GetValue(keySchema, 0).AsInt())
	assert.Equal(t, 1, keySchema.GetColumnCount())
}
