package plan

import (
	"fmt"

	"github.com/zhukovaskychina/xengine/basic"
	"github.com/zhukovaskychina/xengine/record"
)

// Expression 表达式树节点。单表求值走Evaluate，连接谓词走EvaluateJoin
type Expression interface {
	Evaluate(tuple *record.Tuple, schema *record.Schema) basic.Value
	EvaluateJoin(left *record.Tuple, leftSchema *record.Schema,
		right *record.Tuple, rightSchema *record.Schema) basic.Value
	ReturnType() basic.DataType
	Children() []Expression
	String() string
}

// ColumnValueExpression 列引用。TupleIdx区分连接两侧：0为左，1为右
type ColumnValueExpression struct {
	TupleIdx int
	ColIdx   int
	Type     basic.DataType
}

// NewColumnValue 构造列引用
func NewColumnValue(tupleIdx, colIdx int, t basic.DataType) *ColumnValueExpression {
	return &ColumnValueExpression{TupleIdx: tupleIdx, ColIdx: colIdx, Type: t}
}

func (e *ColumnValueExpression) Evaluate(tuple *record.Tuple, schema *record.Schema) basic.Value {
	return tuple.GetValue(schema, e.ColIdx)
}

func (e *ColumnValueExpression) EvaluateJoin(left *record.Tuple, leftSchema *record.Schema,
	right *record.Tuple, rightSchema *record.Schema) basic.Value {
	if e.TupleIdx == 0 {
		return left.GetValue(leftSchema, e.ColIdx)
	}
	return right.GetValue(rightSchema, e.ColIdx)
}

func (e *ColumnValueExpression) ReturnType() basic.DataType { return e.Type }
func (e *ColumnValueExpression) Children() []Expression     { return nil }
func (e *ColumnValueExpression) String() string {
	return fmt.Sprintf("#%d.%d", e.TupleIdx, e.ColIdx)
}

// ConstantValueExpression 常量
type ConstantValueExpression struct {
	Val basic.Value
}

// NewConstant 构造常量表达式
func NewConstant(v basic.Value) *ConstantValueExpression {
	return &ConstantValueExpression{Val: v}
}

func (e *ConstantValueExpression) Evaluate(*record.Tuple, *record.Schema) basic.Value {
	return e.Val
}

func (e *ConstantValueExpression) EvaluateJoin(*record.Tuple, *record.Schema,
	*record.Tuple, *record.Schema) basic.Value {
	return e.Val
}

func (e *ConstantValueExpression) ReturnType() basic.DataType { return e.Val.Type() }
func (e *ConstantValueExpression) Children() []Expression     { return nil }
func (e *ConstantValueExpression) String() string             { return e.Val.String() }

// ComparisonType 比较运算符
type ComparisonType int

const (
	Equal ComparisonType = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
)

func (c ComparisonType) String() string {
	switch c {
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	}
	return "?"
}

// ComparisonExpression 比较。任一侧为NULL时结果为NULL布尔
type ComparisonExpression struct {
	Op    ComparisonType
	Left  Expression
	Right Expression
}

// NewComparison 构造比较表达式
func NewComparison(op ComparisonType, left, right Expression) *ComparisonExpression {
	return &ComparisonExpression{Op: op, Left: left, Right: right}
}

func (e *ComparisonExpression) Evaluate(tuple *record.Tuple, schema *record.Schema) basic.Value {
	return e.compare(e.Left.Evaluate(tuple, schema), e.Right.Evaluate(tuple, schema))
}

func (e *ComparisonExpression) EvaluateJoin(left *record.Tuple, leftSchema *record.Schema,
	right *record.Tuple, rightSchema *record.Schema) basic.Value {
	return e.compare(
		e.Left.EvaluateJoin(left, leftSchema, right, rightSchema),
		e.Right.EvaluateJoin(left, leftSchema, right, rightSchema))
}

func (e *ComparisonExpression) compare(l, r basic.Value) basic.Value {
	if l.IsNull() || r.IsNull() {
		return basic.NewNullValue(basic.TypeBoolean)
	}
	cmp, err := l.Compare(r)
	if err != nil {
		panic(err)
	}
	switch e.Op {
	case Equal:
		return basic.NewBoolValue(cmp == basic.CmpEqual)
	case NotEqual:
		return basic.NewBoolValue(cmp != basic.CmpEqual)
	case LessThan:
		return basic.NewBoolValue(cmp == basic.CmpLess)
	case LessThanOrEqual:
		return basic.NewBoolValue(cmp != basic.CmpGreater)
	case GreaterThan:
		return basic.NewBoolValue(cmp == basic.CmpGreater)
	case GreaterThanOrEqual:
		return basic.NewBoolValue(cmp != basic.CmpLess)
	}
	panic(fmt.Sprintf("unknown comparison op %d", e.Op))
}

func (e *ComparisonExpression) ReturnType() basic.DataType { return basic.TypeBoolean }
func (e *ComparisonExpression) Children() []Expression     { return []Expression{e.Left, e.Right} }
func (e *ComparisonExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// LogicType 逻辑运算符
type LogicType int

const (
	And LogicType = iota
	Or
)

func (l LogicType) String() string {
	if l == And {
		return "AND"
	}
	return "OR"
}

// LogicExpression 逻辑与/或。NULL按假处理
type LogicExpression struct {
	Op    LogicType
	Left  Expression
	Right Expression
}

// NewLogic 构造逻辑表达式
func NewLogic(op LogicType, left, right Expression) *LogicExpression {
	return &LogicExpression{Op: op, Left: left, Right: right}
}

func (e *LogicExpression) Evaluate(tuple *record.Tuple, schema *record.Schema) basic.Value {
	return e.apply(e.Left.Evaluate(tuple, schema), e.Right.Evaluate(tuple, schema))
}

func (e *LogicExpression) EvaluateJoin(left *record.Tuple, leftSchema *record.Schema,
	right *record.Tuple, rightSchema *record.Schema) basic.Value {
	return e.apply(
		e.Left.EvaluateJoin(left, leftSchema, right, rightSchema),
		e.Right.EvaluateJoin(left, leftSchema, right, rightSchema))
}

func (e *LogicExpression) apply(l, r basic.Value) basic.Value {
	lb := !l.IsNull() && l.AsBool()
	rb := !r.IsNull() && r.AsBool()
	if e.Op == And {
		return basic.NewBoolValue(lb && rb)
	}
	return basic.NewBoolValue(lb || rb)
}

func (e *LogicExpression) ReturnType() basic.DataType { return basic.TypeBoolean }
func (e *LogicExpression) Children() []Expression     { return []Expression{e.Left, e.Right} }
func (e *LogicExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// ArithmeticType 算术运算符
type ArithmeticType int

const (
	Plus ArithmeticType = iota
	Minus
)

// ArithmeticExpression 整型加减，更新算子的目标表达式使用
type ArithmeticExpression struct {
	Op    ArithmeticType
	Left  Expression
	Right Expression
}

// NewArithmetic 构造算术表达式
func NewArithmetic(op ArithmeticType, left, right Expression) *ArithmeticExpression {
	return &ArithmeticExpression{Op: op, Left: left, Right: right}
}

func (e *ArithmeticExpression) Evaluate(tuple *record.Tuple, schema *record.Schema) basic.Value {
	return e.apply(e.Left.Evaluate(tuple, schema), e.Right.Evaluate(tuple, schema))
}

func (e *ArithmeticExpression) EvaluateJoin(left *record.Tuple, leftSchema *record.Schema,
	right *record.Tuple, rightSchema *record.Schema) basic.Value {
	return e.apply(
		e.Left.EvaluateJoin(left, leftSchema, right, rightSchema),
		e.Right.EvaluateJoin(left, leftSchema, right, rightSchema))
}

func (e *ArithmeticExpression) apply(l, r basic.Value) basic.Value {
	if l.IsNull() || r.IsNull() {
		return basic.NewNullValue(l.Type())
	}
	if e.Op == Plus {
		v, err := l.Add(r)
		if err != nil {
			panic(err)
		}
		return v
	}
	return basic.NewIntValue(l.AsInt() - r.AsInt())
}

func (e *ArithmeticExpression) ReturnType() basic.DataType { return e.Left.ReturnType() }
func (e *ArithmeticExpression) Children() []Expression     { return []Expression{e.Left, e.Right} }
func (e *ArithmeticExpression) String() string {
	op := "+"
	if e.Op == Minus {
		op = "-"
	}
	return fmt.Sprintf("(%s %s %s)", e.Left, op, e.Right)
}
