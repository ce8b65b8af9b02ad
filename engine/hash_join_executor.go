package engine

import (
	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/plan"
	"github.com/zhukovaskychina/xengine/record"
)

// HashJoinExecutor 哈希连接。Init把右侧(构建侧)吃进哈希表，
// Next用左元组探测，结果由左侧驱动。多列键按表达式配对求值后拼接。
// 任一键值为NULL时不参与匹配
type HashJoinExecutor struct {
	ctx   *ExecutorContext
	plan  *plan.HashJoinPlanNode
	left  Executor
	right Executor

	leftSchema  *record.Schema
	rightSchema *record.Schema

	buildTable map[string][]*record.Tuple

	leftTuple *record.Tuple
	matches   []*record.Tuple
	matchPos  int
	padLeft   bool
}

func NewHashJoinExecutor(ctx *ExecutorContext, p *plan.HashJoinPlanNode,
	left, right Executor) *HashJoinExecutor {
	return &HashJoinExecutor{
		ctx:         ctx,
		plan:        p,
		left:        left,
		right:       right,
		leftSchema:  p.Child(0).OutputSchema(),
		rightSchema: p.Child(1).OutputSchema(),
	}
}

func (e *HashJoinExecutor) Init() error {
	if err := e.left.Init(); err != nil {
		return errors.Trace(err)
	}
	if err := e.right.Init(); err != nil {
		return errors.Trace(err)
	}
	e.buildTable = make(map[string][]*record.Tuple)
	e.leftTuple = nil
	e.matches = nil
	e.matchPos = 0
	e.padLeft = false

	for {
		rt, _, err := e.right.Next()
		if err != nil {
			return errors.Trace(err)
		}
		if rt == nil {
			break
		}
		key, ok := e.joinKey(rt, e.rightSchema, e.plan.RightKeyExpressions)
		if !ok {
			continue
		}
		e.buildTable[key] = append(e.buildTable[key], rt)
	}
	return nil
}

func (e *HashJoinExecutor) Next() (*record.Tuple, basic.RID, error) {
	for {
		// 先吐完当前左元组的全部匹配
		if e.matchPos < len(e.matches) {
			rt := e.matches[e.matchPos]
			e.matchPos++
			return e.merge(e.leftTuple, rt), basic.InvalidRID, nil
		}
		if e.padLeft {
			e.padLeft = false
			out := e.padRight(e.leftTuple)
			return out, basic.InvalidRID, nil
		}

		lt, _, err := e.left.Next()
		if err != nil {
			return nil, basic.InvalidRID, errors.Trace(err)
		}
		if lt == nil {
			return nil, basic.InvalidRID, nil
		}
		e.leftTuple = lt
		e.matches = nil
		e.matchPos = 0

		key, ok := e.joinKey(lt, e.leftSchema, e.plan.LeftKeyExpressions)
		if ok {
			e.matches = e.buildTable[key]
		}
		if len(e.matches) == 0 && e.plan.JoinKind == plan.LeftJoin {
			e.padLeft = true
		}
	}
}

// joinKey 求连接键并序列化。存在NULL键值时返回false
func (e *HashJoinExecutor) joinKey(t *record.Tuple, schema *record.Schema,
	exprs []plan.Expression) (string, bool) {
	var buf []byte
	for _, expr := range exprs {
		v := expr.Evaluate(t, schema)
		if v.IsNull() {
			return "", false
		}
		buf = append(buf, v.Serialize()...)
	}
	return string(buf), true
}

func (e *HashJoinExecutor) merge(lt, rt *record.Tuple) *record.Tuple {
	values := append(lt.GetValues(e.leftSchema), rt.GetValues(e.rightSchema)...)
	return record.NewTuple(values, e.plan.OutputSchema())
}

func (e *HashJoinExecutor) padRight(lt *record.Tuple) *record.Tuple {
	values := lt.GetValues(e.leftSchema)
	for i := 0; i < e.rightSchema.GetColumnCount(); i++ {
		values = append(values, basic.NewNullValue(e.rightSchema.GetColumn(i).Type))
	}
	return record.NewTuple(values, e.plan.OutputSchema())
}
