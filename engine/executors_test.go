package engine

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
	"github.com/zhukovaskychina/xengine/txn"
)

type testEnv struct {
	bpm     *buffer_pool.BufferPoolManager
	catalog *metadata.Catalog
	txnMgr  *txn.TransactionManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	bpm := buffer_pool.NewBufferPoolManager(128, 2, disk.NewMemoryDiskManager())
	t.Cleanup(bpm.Close)
	return &testEnv{
		bpm:     bpm,
		catalog: metadata.NewCatalog(bpm),
		txnMgr:  txn.NewTransactionManager(),
	}
}

func (env *testEnv) ctx(t *txn.Transaction) *ExecutorContext {
	return &ExecutorContext{Catalog: env.catalog, BPM: env.bpm, Txn: t, TxnMgr: env.txnMgr}
}

func userSchema() *record.Schema {
	return record.NewSchema(
		record.NewColumn("id", basic.TypeInt),
		record.NewColumn("name", basic.TypeVarchar),
		record.NewColumn("score", basic.TypeInt),
	)
}

// seedUsers 建表并直接写入堆，时间戳0表示建表期即提交
func seedUsers(t *testing.T, env *testEnv, rows [][3]interface{}) *metadata.TableInfo {
	t.Helper()
	info, err := env.catalog.CreateTable("users", userSchema())
	require.NoError(t, err)
	for _, r := range rows {
		tuple := record.NewTuple([]basic.Value{
			basic.NewIntValue(int64(r[0].(int))),
			basic.NewVarcharValue(r[1].(string)),
			basic.NewIntValue(int64(r[2].(int))),
		}, info.Schema)
		_, err := info.Heap.InsertTuple(basic.TupleMeta{}, tuple)
		require.NoError(t, err)
	}
	return info
}

func defaultRows() [][3]interface{} {
	return [][3]interface{}{
		{1, "alice", 50},
		{2, "bob", 30},
		{3, "carol", 80},
		{4, "dave", 30},
	}
}

func scanPlan(info *metadata.TableInfo, filter plan.Expression) *plan.SeqScanPlanNode {
	return plan.NewSeqScanPlan(info.Schema, info.OID, info.Name, filter)
}

func intsOfColumn(t *testing.T, tuples []*record.Tuple, schema *record.Schema, col int) []int64 {
	t.Helper()
	out := make([]int64, 0, len(tuples))
	for _, tp := range tuples {
		out = append(out, tp.GetValue(schema, col).AsInt())
	}
	return out
}

func TestSeqScanExecutor(t *testing.T) {
	env := newTestEnv(t)
	info := seedUsers(t, env, defaultRows())

	t.Run("全表扫描", func(t *testing.T) {
		exec := NewSeqScanExecutor(env.ctx(nil), scanPlan(info, nil))
		tuples, err := Drain(exec)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4}, intsOfColumn(t, tuples, info.Schema, 0))
	})

	t.Run("跳过删除标记", func(t *testing.T) {
		// 把id=2的行打上删除标记
		it := info.Heap.MakeIterator()
		for ; !it.IsEnd(); it.Next() {
			_, tuple, err := it.GetTuple()
			require.NoError(t, err)
			if tuple.GetValue(info.Schema, 0).AsInt() == 2 {
				require.NoError(t, info.Heap.UpdateTupleMeta(basic.TupleMeta{IsDeleted: true}, it.GetRID()))
			}
		}

		exec := NewSeqScanExecutor(env.ctx(nil), scanPlan(info, nil))
		tuples, err := Drain(exec)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3, 4}, intsOfColumn(t, tuples, info.Schema, 0))
	})

	t.Run("谓词下推到扫描", func(t *testing.T) {
		pred := plan.NewComparison(plan.Equal,
			plan.NewColumnValue(0, 2, basic.TypeInt),
			plan.NewConstant(basic.NewIntValue(30)))
		exec := NewSeqScanExecutor(env.ctx(nil), scanPlan(info, pred))
		tuples, err := Drain(exec)
		require.NoError(t, err)
		// id=2已带删除标记，等值谓词只命中id=4
		assert.Equal(t, []int64{4}, intsOfColumn(t, tuples, info.Schema, 0))
	})
}

func TestFilterAndProjectionAndLimit(t *testing.T) {
	env := newTestEnv(t)
	info := seedUsers(t, env, defaultRows())

	scan := scanPlan(info, nil)
	pred := plan.NewComparison(plan.GreaterThan,
		plan.NewColumnValue(0, 2, basic.TypeInt),
		plan.NewConstant(basic.NewIntValue(30)))
	filterPlan := plan.NewFilterPlan(info.Schema, pred, scan)

	projSchema := record.NewSchema(record.NewColumn("name", basic.TypeVarchar))
	projPlan := plan.NewProjectionPlan(projSchema,
		[]plan.Expression{plan.NewColumnValue(0, 1, basic.TypeVarchar)}, filterPlan)
	limitPlan := plan.NewLimitPlan(projSchema, 1, projPlan)

	exec, err := CreateExecutor(env.ctx(nil), limitPlan)
	require.NoError(t, err)
	tuples, err := Drain(exec)
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, "alice", tuples[0].GetValue(projSchema, 0).AsVarchar())
}

func TestSortExecutor(t *testing.T) {
	env := newTestEnv(t)
	info := seedUsers(t, env, defaultRows())
	scoreCol := plan.NewColumnValue(0, 2, basic.TypeInt)
	idCol := plan.NewColumnValue(0, 0, basic.TypeInt)

	t.Run("升序", func(t *testing.T) {
		p := plan.NewSortPlan(info.Schema,
			[]plan.OrderBy{{Type: plan.OrderByAsc, Expr: scoreCol}}, scanPlan(info, nil))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		assert.Equal(t, []int64{30, 30, 50, 80}, intsOfColumn(t, tuples, info.Schema, 2))
	})

	t.Run("缺省方向按降序", func(t *testing.T) {
		p := plan.NewSortPlan(info.Schema,
			[]plan.OrderBy{{Type: plan.OrderByDefault, Expr: scoreCol}}, scanPlan(info, nil))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		assert.Equal(t, []int64{80, 50, 30, 30}, intsOfColumn(t, tuples, info.Schema, 2))
	})

	t.Run("后续键破平", func(t *testing.T) {
		p := plan.NewSortPlan(info.Schema, []plan.OrderBy{
			{Type: plan.OrderByAsc, Expr: scoreCol},
			{Type: plan.OrderByDesc, Expr: idCol},
		}, scanPlan(info, nil))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		assert.Equal(t, []int64{4, 2, 1, 3}, intsOfColumn(t, tuples, info.Schema, 0))
	})

	t.Run("空排序键保持输入顺序", func(t *testing.T) {
		p := plan.NewSortPlan(info.Schema, nil, scanPlan(info, nil))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4}, intsOfColumn(t, tuples, info.Schema, 0))
	})
}

func TestTopNExecutor(t *testing.T) {
	env := newTestEnv(t)
	info := seedUsers(t, env, defaultRows())
	scoreCol := plan.NewColumnValue(0, 2, basic.TypeInt)
	orderBys := []plan.OrderBy{{Type: plan.OrderByAsc, Expr: scoreCol}}

	topn := NewTopNExecutor(env.ctx(nil),
		plan.NewTopNPlan(info.Schema, orderBys, 2, scanPlan(info, nil)),
		NewSeqScanExecutor(env.ctx(nil), scanPlan(info, nil)))
	require.NoError(t, topn.Init())
	assert.LessOrEqual(t, topn.GetNumInHeap(), 2)

	var got []int64
	for {
		tuple, _, err := topn.Next()
		require.NoError(t, err)
		if tuple == nil {
			break
		}
		got = append(got, tuple.GetValue(info.Schema, 2).AsInt())
	}

	// 与全量排序的前2条一致
	sortExec, err := CreateExecutor(env.ctx(nil), plan.NewSortPlan(info.Schema, orderBys, scanPlan(info, nil)))
	require.NoError(t, err)
	sorted, err := Drain(sortExec)
	require.NoError(t, err)
	want := intsOfColumn(t, sorted, info.Schema, 2)[:2]
	assert.Equal(t, want, got)
}

func TestAggregationExecutor(t *testing.T) {
	env := newTestEnv(t)
	info := seedUsers(t, env, defaultRows())
	scoreCol := plan.NewColumnValue(0, 2, basic.TypeInt)

	t.Run("无分组聚合", func(t *testing.T) {
		outSchema := record.NewSchema(
			record.NewColumn("count_star", basic.TypeInt),
			record.NewColumn("sum_score", basic.TypeInt),
			record.NewColumn("min_score", basic.TypeInt),
			record.NewColumn("max_score", basic.TypeInt),
		)
		p := plan.NewAggregationPlan(outSchema, nil,
			[]plan.Expression{scoreCol, scoreCol, scoreCol, scoreCol},
			[]plan.AggregationType{plan.CountStarAggregate, plan.SumAggregate, plan.MinAggregate, plan.MaxAggregate},
			scanPlan(info, nil))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		require.Len(t, tuples, 1)
		assert.Equal(t, int64(4), tuples[0].GetValue(outSchema, 0).AsInt())
		assert.Equal(t, int64(190), tuples[0].GetValue(outSchema, 1).AsInt())
		assert.Equal(t, int64(30), tuples[0].GetValue(outSchema, 2).AsInt())
		assert.Equal(t, int64(80), tuples[0].GetValue(outSchema, 3).AsInt())
	})

	t.Run("按score分组计数", func(t *testing.T) {
		outSchema := record.NewSchema(
			record.NewColumn("score", basic.TypeInt),
			record.NewColumn("cnt", basic.TypeInt),
		)
		p := plan.NewAggregationPlan(outSchema,
			[]plan.Expression{scoreCol},
			[]plan.Expression{scoreCol},
			[]plan.AggregationType{plan.CountStarAggregate},
			scanPlan(info, nil))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		require.Len(t, tuples, 3)

		counts := map[int64]int64{}
		for _, tp := range tuples {
			counts[tp.GetValue(outSchema, 0).AsInt()] = tp.GetValue(outSchema, 1).AsInt()
		}
		assert.Equal(t, map[int64]int64{30: 2, 50: 1, 80: 1}, counts)
	})

	t.Run("空输入无分组键产出一行初始值", func(t *testing.T) {
		empty, err := env.catalog.CreateTable("empty_table", userSchema())
		require.NoError(t, err)
		outSchema := record.NewSchema(
			record.NewColumn("count_star", basic.TypeInt),
			record.NewColumn("sum_score", basic.TypeInt),
		)
		p := plan.NewAggregationPlan(outSchema, nil,
			[]plan.Expression{scoreCol, scoreCol},
			[]plan.AggregationType{plan.CountStarAggregate, plan.SumAggregate},
			scanPlan(empty, nil))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		require.Len(t, tuples, 1)
		assert.Equal(t, int64(0), tuples[0].GetValue(outSchema, 0).AsInt())
		assert.True(t, tuples[0].GetValue(outSchema, 1).IsNull())
	})

	t.Run("空输入带分组键不产出", func(t *testing.T) {
		empty := env.catalog.GetTable("empty_table")
		outSchema := record.NewSchema(
			record.NewColumn("score", basic.TypeInt),
			record.NewColumn("cnt", basic.TypeInt),
		)
		p := plan.NewAggregationPlan(outSchema,
			[]plan.Expression{scoreCol},
			[]plan.Expression{scoreCol},
			[]plan.AggregationType{plan.CountAggregate},
			scanPlan(empty, nil))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		assert.Empty(t, tuples)
	})

	t.Run("重复Init清空旧状态", func(t *testing.T) {
		outSchema := record.NewSchema(record.NewColumn("count_star", basic.TypeInt))
		p := plan.NewAggregationPlan(outSchema, nil,
			[]plan.Expression{scoreCol},
			[]plan.AggregationType{plan.CountStarAggregate},
			scanPlan(info, nil))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)

		first, err := Drain(exec)
		require.NoError(t, err)
		second, err := Drain(exec)
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, first[0].GetValue(outSchema, 0).AsInt(), second[0].GetValue(outSchema, 0).AsInt())
	})
}

func joinSchemas() (*record.Schema, *record.Schema, *record.Schema) {
	left := record.NewSchema(
		record.NewColumn("id", basic.TypeInt),
		record.NewColumn("name", basic.TypeVarchar),
		record.NewColumn("score", basic.TypeInt),
	)
	right := record.NewSchema(
		record.NewColumn("uid", basic.TypeInt),
		record.NewColumn("city", basic.TypeVarchar),
	)
	out := record.NewSchema(
		record.NewColumn("id", basic.TypeInt),
		record.NewColumn("name", basic.TypeVarchar),
		record.NewColumn("score", basic.TypeInt),
		record.NewColumn("uid", basic.TypeInt),
		record.NewColumn("city", basic.TypeVarchar),
	)
	return left, right, out
}

func seedAddresses(t *testing.T, env *testEnv) *metadata.TableInfo {
	t.Helper()
	schema := record.NewSchema(
		record.NewColumn("uid", basic.TypeInt),
		record.NewColumn("city", basic.TypeVarchar),
	)
	info, err := env.catalog.CreateTable("addresses", schema)
	require.NoError(t, err)
	for _, r := range [][2]interface{}{{1, "nanjing"}, {3, "beijing"}, {3, "shanghai"}, {9, "tokyo"}} {
		tuple := record.NewTuple([]basic.Value{
			basic.NewIntValue(int64(r[0].(int))),
			basic.NewVarcharValue(r[1].(string)),
		}, schema)
		_, err := info.Heap.InsertTuple(basic.TupleMeta{}, tuple)
		require.NoError(t, err)
	}
	return info
}

func TestNestedLoopJoinExecutor(t *testing.T) {
	env := newTestEnv(t)
	users := seedUsers(t, env, defaultRows())
	addrs := seedAddresses(t, env)
	_, _, outSchema := joinSchemas()

	pred := plan.NewComparison(plan.Equal,
		plan.NewColumnValue(0, 0, basic.TypeInt),
		plan.NewColumnValue(1, 0, basic.TypeInt))

	t.Run("内连接", func(t *testing.T) {
		p := plan.NewNestedLoopJoinPlan(outSchema, scanPlan(users, nil), scanPlan(addrs, nil),
			pred, plan.InnerJoin)
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		// id=1命中1条，id=3命中2条
		assert.Equal(t, []int64{1, 3, 3}, intsOfColumn(t, tuples, outSchema, 0))
	})

	t.Run("左外连接补NULL", func(t *testing.T) {
		p := plan.NewNestedLoopJoinPlan(outSchema, scanPlan(users, nil), scanPlan(addrs, nil),
			pred, plan.LeftJoin)
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		require.Len(t, tuples, 5)

		nullCities := 0
		for _, tp := range tuples {
			if tp.GetValue(outSchema, 4).IsNull() {
				nullCities++
				assert.True(t, tp.GetValue(outSchema, 3).IsNull())
			}
		}
		// id=2与id=4无匹配
		assert.Equal(t, 2, nullCities)
	})
}

func TestHashJoinExecutor(t *testing.T) {
	env := newTestEnv(t)
	users := seedUsers(t, env, defaultRows())
	addrs := seedAddresses(t, env)
	_, _, outSchema := joinSchemas()

	leftKeys := []plan.Expression{plan.NewColumnValue(0, 0, basic.TypeInt)}
	rightKeys := []plan.Expression{plan.NewColumnValue(1, 0, basic.TypeInt)}

	t.Run("内连接与嵌套循环一致", func(t *testing.T) {
		hj := plan.NewHashJoinPlan(outSchema, scanPlan(users, nil), scanPlan(addrs, nil),
			leftKeys, rightKeys, plan.InnerJoin)
		exec, err := CreateExecutor(env.ctx(nil), hj)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3, 3}, intsOfColumn(t, tuples, outSchema, 0))
	})

	t.Run("左外连接补NULL", func(t *testing.T) {
		hj := plan.NewHashJoinPlan(outSchema, scanPlan(users, nil), scanPlan(addrs, nil),
			leftKeys, rightKeys, plan.LeftJoin)
		exec, err := CreateExecutor(env.ctx(nil), hj)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		require.Len(t, tuples, 5)
		assert.Equal(t, []int64{1, 2, 3, 3, 4}, intsOfColumn(t, tuples, outSchema, 0))
	})
}

func TestWriteExecutors(t *testing.T) {
	env := newTestEnv(t)
	info := seedUsers(t, env, defaultRows())
	_, err := env.catalog.CreateIndex("users_id_idx", "users", []uint32{0})
	require.NoError(t, err)

	countSchema := record.NewSchema(record.NewColumn("rows", basic.TypeInt))

	t.Run("插入维护索引并产出行数", func(t *testing.T) {
		valuesPlan := plan.NewValuesPlan(info.Schema, [][]plan.Expression{
			{
				plan.NewConstant(basic.NewIntValue(5)),
				plan.NewConstant(basic.NewVarcharValue("eve")),
				plan.NewConstant(basic.NewIntValue(70)),
			},
		})
		p := plan.NewInsertPlan(countSchema, info.OID, valuesPlan)
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		require.Len(t, tuples, 1)
		assert.Equal(t, int64(1), tuples[0].GetValue(countSchema, 0).AsInt())

		// 索引点查可命中新行
		idx := env.catalog.GetIndex("users_id_idx", "users")
		require.NotNil(t, idx)
		isp := plan.NewIndexScanPlan(info.Schema, info.OID, idx.OID,
			plan.NewConstant(basic.NewIntValue(5)), nil)
		scanExec, err := CreateExecutor(env.ctx(nil), isp)
		require.NoError(t, err)
		rows, err := Drain(scanExec)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "eve", rows[0].GetValue(info.Schema, 1).AsVarchar())
	})

	t.Run("更新重写元组并迁移索引", func(t *testing.T) {
		// id=5的行score加1，其余列不变
		filter := plan.NewComparison(plan.Equal,
			plan.NewColumnValue(0, 0, basic.TypeInt),
			plan.NewConstant(basic.NewIntValue(5)))
		targets := []plan.Expression{
			plan.NewColumnValue(0, 0, basic.TypeInt),
			plan.NewColumnValue(0, 1, basic.TypeVarchar),
			plan.NewArithmetic(plan.Plus,
				plan.NewColumnValue(0, 2, basic.TypeInt),
				plan.NewConstant(basic.NewIntValue(1))),
		}
		p := plan.NewUpdatePlan(countSchema, info.OID, targets, scanPlan(info, filter))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		require.Len(t, tuples, 1)
		assert.Equal(t, int64(1), tuples[0].GetValue(countSchema, 0).AsInt())

		idx := env.catalog.GetIndex("users_id_idx", "users")
		isp := plan.NewIndexScanPlan(info.Schema, info.OID, idx.OID,
			plan.NewConstant(basic.NewIntValue(5)), nil)
		scanExec, err := CreateExecutor(env.ctx(nil), isp)
		require.NoError(t, err)
		rows, err := Drain(scanExec)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(71), rows[0].GetValue(info.Schema, 2).AsInt())
	})

	t.Run("删除打标记并移除索引项", func(t *testing.T) {
		filter := plan.NewComparison(plan.Equal,
			plan.NewColumnValue(0, 0, basic.TypeInt),
			plan.NewConstant(basic.NewIntValue(5)))
		p := plan.NewDeletePlan(countSchema, info.OID, scanPlan(info, filter))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		require.Len(t, tuples, 1)
		assert.Equal(t, int64(1), tuples[0].GetValue(countSchema, 0).AsInt())

		// 索引与扫描都不再可见
		idx := env.catalog.GetIndex("users_id_idx", "users")
		isp := plan.NewIndexScanPlan(info.Schema, info.OID, idx.OID,
			plan.NewConstant(basic.NewIntValue(5)), nil)
		scanExec, err := CreateExecutor(env.ctx(nil), isp)
		require.NoError(t, err)
		rows, err := Drain(scanExec)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("零行写入不产出", func(t *testing.T) {
		filter := plan.NewComparison(plan.Equal,
			plan.NewColumnValue(0, 0, basic.TypeInt),
			plan.NewConstant(basic.NewIntValue(999)))
		p := plan.NewDeletePlan(countSchema, info.OID, scanPlan(info, filter))
		exec, err := CreateExecutor(env.ctx(nil), p)
		require.NoError(t, err)
		tuples, err := Drain(exec)
		require.NoError(t, err)
		assert.Empty(t, tuples)
	})
}

func TestMVCCSeqScan(t *testing.T) {
	env := newTestEnv(t)
	info := seedUsers(t, env, [][3]interface{}{{1, "alice", 50}})

	// writer把score改成60，尚未提交
	writer := env.txnMgr.Begin()
	targets := []plan.Expression{
		plan.NewColumnValue(0, 0, basic.TypeInt),
		plan.NewColumnValue(0, 1, basic.TypeVarchar),
		plan.NewConstant(basic.NewIntValue(60)),
	}
	countSchema := record.NewSchema(record.NewColumn("rows", basic.TypeInt))
	up := plan.NewUpdatePlan(countSchema, info.OID, targets, scanPlan(info, nil))
	exec, err := CreateExecutor(env.ctx(writer), up)
	require.NoError(t, err)
	_, err = Drain(exec)
	require.NoError(t, err)

	t.Run("写者看见自己的未提交版本", func(t *testing.T) {
		scan, err := CreateExecutor(env.ctx(writer), scanPlan(info, nil))
		require.NoError(t, err)
		tuples, err := Drain(scan)
		require.NoError(t, err)
		require.Len(t, tuples, 1)
		assert.Equal(t, int64(60), tuples[0].GetValue(info.Schema, 2).AsInt())
	})

	t.Run("并发读者沿undo链看见旧版本", func(t *testing.T) {
		reader := env.txnMgr.Begin()
		scan, err := CreateExecutor(env.ctx(reader), scanPlan(info, nil))
		require.NoError(t, err)
		tuples, err := Drain(scan)
		require.NoError(t, err)
		require.Len(t, tuples, 1)
		assert.Equal(t, int64(50), tuples[0].GetValue(info.Schema, 2).AsInt())
		env.txnMgr.Abort(reader)
	})

	t.Run("提交后新读者看见新版本", func(t *testing.T) {
		require.NoError(t, env.txnMgr.Commit(writer))
		reader := env.txnMgr.Begin()
		scan, err := CreateExecutor(env.ctx(reader), scanPlan(info, nil))
		require.NoError(t, err)
		tuples, err := Drain(scan)
		require.NoError(t, err)
		require.Len(t, tuples, 1)
		assert.Equal(t, int64(60), tuples[0].GetValue(info.Schema, 2).AsInt())
		env.txnMgr.Abort(reader)
	})

	t.Run("写写冲突被拒绝", func(t *testing.T) {
		// 两个并发事务改同一行，后写者失败
		t1 := env.txnMgr.Begin()
		t2 := env.txnMgr.Begin()

		del := plan.NewDeletePlan(countSchema, info.OID, scanPlan(info, nil))
		exec1, err := CreateExecutor(env.ctx(t1), del)
		require.NoError(t, err)
		_, err = Drain(exec1)
		require.NoError(t, err)

		exec2, err := CreateExecutor(env.ctx(t2), del)
		require.NoError(t, err)
		_, err = Drain(exec2)
		assert.Error(t, err)
	})
}
