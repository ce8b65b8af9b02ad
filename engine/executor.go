package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/buffer_pool"
	"github.com/zhukovaskychina/xengine/metadata"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
	"github.com/zhukovaskychina/xengine/txn"
)

// ExecutorContext 一次查询的执行环境
type ExecutorContext struct {
	Catalog *metadata.Catalog
	BPM     *buffer_pool.BufferPoolManager
	Txn     *txn.Transaction
	TxnMgr  *txn.TransactionManager
}

// Executor 拉取式算子。Init准备状态且可重入，
// Next每次产出一条元组，耗尽时元组为nil
type Executor interface {
	Init() error
	Next() (*record.Tuple, basic.RID, error)
}

// evalPredicate 求谓词布尔值，NULL按假处理
func evalPredicate(pred plan.Expression, tuple *record.Tuple, schema *record.Schema) bool {
	if pred == nil {
		return true
	}
	v := pred.Evaluate(tuple, schema)
	return !v.IsNull() && v.AsBool()
}

// Drain 驱动算子到耗尽，收集全部输出。查询入口使用
func Drain(e Executor) ([]*record.Tuple, error) {
	if err := e.Init(); err != nil {
		return nil, errors.Trace(err)
	}
	var out []*record.Tuple
	for {
		t, _, err := e.Next()
		if err != nil {
			return nil, errors.Trace(err)
		}
		if t == nil {
			return out, nil
		}
		out = append(out, t)
	}
}
