package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/buffer_pool"
	"github.com/zhukovaskychina/xengine/metadata"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
	"github.com/zhukovaskychina/xengine/storage/disk"
)

func newTestCatalog(t *testing.T) *metadata.Catalog {
	t.Helper()
	bpm := buffer_pool.NewBufferPoolManager(64, 2, disk.NewMemoryDiskManager())
	t.Cleanup(bpm.Close)
	return metadata.NewCatalog(bpm)
}

func tableSchema() *record.Schema {
	return record.NewSchema(
		record.NewColumn("x", basic.TypeInt),
		record.NewColumn("y", basic.TypeInt),
	)
}

func TestSeqScanAsIndexScan(t *testing.T) {
	catalog := newTestCatalog(t)
	info, err := catalog.CreateTable("t", tableSchema())
	require.NoError(t, err)
	idxInfo, err := catalog.CreateIndex("t_x_idx", "t", []uint32{0})
	require.NoError(t, err)
	o := NewOptimizer(catalog)

	t.Run("等值谓词命中单列索引", func(t *testing.T) {
		pred := plan.NewComparison(plan.Equal,
			plan.NewColumnValue(0, 0, basic.TypeInt),
			plan.NewConstant(basic.NewIntValue(7)))
		p := plan.NewSeqScanPlan(info.Schema, info.OID, "t", pred)

		out := o.Optimize(p)
		idxScan, ok := out.(*plan.IndexScanPlanNode)
		require.True(t, ok)
		assert.Equal(t, idxInfo.OID, idxScan.IndexOID)
		assert.Equal(t, int64(7), idxScan.PredKey.Val.AsInt())
	})

	t.Run("无索引列不改写", func(t *testing.T) {
		pred := plan.NewComparison(plan.Equal,
			plan.NewColumnValue(0, 1, basic.TypeInt),
			plan.NewConstant(basic.NewIntValue(7)))
		p := plan.NewSeqScanPlan(info.Schema, info.OID, "t", pred)
		_, ok := o.Optimize(p).(*plan.SeqScanPlanNode)
		assert.True(t, ok)
	})

	t.Run("非等值谓词不改写", func(t *testing.T) {
		pred := plan.NewComparison(plan.GreaterThan,
			plan.NewColumnValue(0, 0, basic.TypeInt),
			plan.NewConstant(basic.NewIntValue(7)))
		p := plan.NewSeqScanPlan(info.Schema, info.OID, "t", pred)
		_, ok := o.Optimize(p).(*plan.SeqScanPlanNode)
		assert.True(t, ok)
	})
}

func joinChildren(catalog *metadata.Catalog, t *testing.T) (plan.PlanNode, plan.PlanNode, *record.Schema) {
	t.Helper()
	a, err := catalog.CreateTable("a", record.NewSchema(
		record.NewColumn("x", basic.TypeInt),
		record.NewColumn("z", basic.TypeInt),
	))
	require.NoError(t, err)
	b, err := catalog.CreateTable("b", record.NewSchema(
		record.NewColumn("y", basic.TypeInt),
		record.NewColumn("w", basic.TypeInt),
	))
	require.NoError(t, err)

	out := record.NewSchema(
		record.NewColumn("x", basic.TypeInt),
		record.NewColumn("z", basic.TypeInt),
		record.NewColumn("y", basic.TypeInt),
		record.NewColumn("w", basic.TypeInt),
	)
	left := plan.NewSeqScanPlan(a.Schema, a.OID, "a", nil)
	right := plan.NewSeqScanPlan(b.Schema, b.OID, "b", nil)
	return left, right, out
}

func TestNLJAsHashJoin(t *testing.T) {
	catalog := newTestCatalog(t)
	left, right, out := joinChildren(catalog, t)
	o := NewOptimizer(catalog)

	ax := plan.NewColumnValue(0, 0, basic.TypeInt)
	az := plan.NewColumnValue(0, 1, basic.TypeInt)
	by := plan.NewColumnValue(1, 0, basic.TypeInt)
	bw := plan.NewColumnValue(1, 1, basic.TypeInt)

	t.Run("AND等式树改写并保持配对", func(t *testing.T) {
		// A.x = B.y AND A.z = B.w
		pred := plan.NewLogic(plan.And,
			plan.NewComparison(plan.Equal, ax, by),
			plan.NewComparison(plan.Equal, az, bw))
		p := plan.NewNestedLoopJoinPlan(out, left, right, pred, plan.InnerJoin)

		hj, ok := o.Optimize(p).(*plan.HashJoinPlanNode)
		require.True(t, ok)
		require.Len(t, hj.LeftKeyExpressions, 2)
		assert.Equal(t, ax, hj.LeftKeyExpressions[0])
		assert.Equal(t, az, hj.LeftKeyExpressions[1])
		assert.Equal(t, by, hj.RightKeyExpressions[0])
		assert.Equal(t, bw, hj.RightKeyExpressions[1])
	})

	t.Run("反向等式键交换归位", func(t *testing.T) {
		// B.y = A.x，键仍按左=A右=B整理
		pred := plan.NewComparison(plan.Equal, by, ax)
		p := plan.NewNestedLoopJoinPlan(out, left, right, pred, plan.InnerJoin)

		hj, ok := o.Optimize(p).(*plan.HashJoinPlanNode)
		require.True(t, ok)
		require.Len(t, hj.LeftKeyExpressions, 1)
		assert.Equal(t, ax, hj.LeftKeyExpressions[0])
		assert.Equal(t, by, hj.RightKeyExpressions[0])
	})

	t.Run("非等值谓词放弃改写", func(t *testing.T) {
		pred := plan.NewComparison(plan.LessThan, ax, by)
		p := plan.NewNestedLoopJoinPlan(out, left, right, pred, plan.InnerJoin)
		_, ok := o.Optimize(p).(*plan.NestedLoopJoinPlanNode)
		assert.True(t, ok)
	})

	t.Run("OR树放弃改写", func(t *testing.T) {
		pred := plan.NewLogic(plan.Or,
			plan.NewComparison(plan.Equal, ax, by),
			plan.NewComparison(plan.Equal, az, bw))
		p := plan.NewNestedLoopJoinPlan(out, left, right, pred, plan.InnerJoin)
		_, ok := o.Optimize(p).(*plan.NestedLoopJoinPlanNode)
		assert.True(t, ok)
	})

	t.Run("常量操作数放弃改写", func(t *testing.T) {
		pred := plan.NewComparison(plan.Equal, ax, plan.NewConstant(basic.NewIntValue(1)))
		p := plan.NewNestedLoopJoinPlan(out, left, right, pred, plan.InnerJoin)
		_, ok := o.Optimize(p).(*plan.NestedLoopJoinPlanNode)
		assert.True(t, ok)
	})

	t.Run("同侧等式放弃改写", func(t *testing.T) {
		pred := plan.NewComparison(plan.Equal, ax, az)
		p := plan.NewNestedLoopJoinPlan(out, left, right, pred, plan.InnerJoin)
		_, ok := o.Optimize(p).(*plan.NestedLoopJoinPlanNode)
		assert.True(t, ok)
	})
}

func TestSortLimitAsTopN(t *testing.T) {
	catalog := newTestCatalog(t)
	info, err := catalog.CreateTable("s", tableSchema())
	require.NoError(t, err)
	o := NewOptimizer(catalog)

	scan := plan.NewSeqScanPlan(info.Schema, info.OID, "s", nil)
	orderBys := []plan.OrderBy{{Type: plan.OrderByAsc, Expr: plan.NewColumnValue(0, 0, basic.TypeInt)}}
	sortPlan := plan.NewSortPlan(info.Schema, orderBys, scan)
	limitPlan := plan.NewLimitPlan(info.Schema, 5, sortPlan)

	topn, ok := o.Optimize(limitPlan).(*plan.TopNPlanNode)
	require.True(t, ok)
	assert.Equal(t, 5, topn.N)
	assert.Equal(t, orderBys, topn.OrderBys)
	// TopN直接挂在排序的子节点上
	_, ok = topn.Child(0).(*plan.SeqScanPlanNode)
	assert.True(t, ok)

	t.Run("单独的Limit不改写", func(t *testing.T) {
		p := plan.NewLimitPlan(info.Schema, 5, scan)
		_, ok := o.Optimize(p).(*plan.LimitPlanNode)
		assert.True(t, ok)
	})
}
