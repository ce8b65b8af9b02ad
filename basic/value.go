package basic

import (
	"encoding/binary"
	"fmt"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// DataType 列数据类型
type DataType int

const (
	TypeUnknown DataType = iota
	TypeInt
	TypeDecimal
	TypeVarchar
	TypeBoolean
	TypeTimestamp
)

func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeDecimal:
		return "DECIMAL"
	case TypeVarchar:
		return "VARCHAR"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "UNKNOWN"
	}
}

// CompareResult 比较结果
type CompareResult int

const (
	CmpLess    CompareResult = -1
	CmpEqual   CompareResult = 0
	CmpGreater CompareResult = 1
)

// Value 运行时值。列值在元组中以字节序列存放，计算时解码为Value
type Value struct {
	valType DataType
	isNull  bool

	i int64
	d decimal.Decimal
	s string
	b bool
	t uint64
}

// NewIntValue 构造整型值
func NewIntValue(v int64) Value {
	return Value{valType: TypeInt, i: v}
}

// NewDecimalValue 构造定点数值
func NewDecimalValue(v decimal.Decimal) Value {
	return Value{valType: TypeDecimal, d: v}
}

// NewVarcharValue 构造字符串值
func NewVarcharValue(v string) Value {
	return Value{valType: TypeVarchar, s: v}
}

// NewBoolValue 构造布尔值
func NewBoolValue(v bool) Value {
	return Value{valType: TypeBoolean, b: v}
}

// NewTimestampValue 构造时间戳值
func NewTimestampValue(v uint64) Value {
	return Value{valType: TypeTimestamp, t: v}
}

// NewNullValue 构造指定类型的NULL值
func NewNullValue(t DataType) Value {
	return Value{valType: t, isNull: true}
}

// Type 返回值类型
func (v Value) Type() DataType { return v.valType }

// IsNull 判断是否为NULL
func (v Value) IsNull() bool { return v.isNull }

// AsInt 取整型值
func (v Value) AsInt() int64 { return v.i }

// AsDecimal 取定点数值
func (v Value) AsDecimal() decimal.Decimal { return v.d }

// AsVarchar 取字符串值
func (v Value) AsVarchar() string { return v.s }

// AsBool 取布尔值
func (v Value) AsBool() bool { return v.b }

// AsTimestamp 取时间戳值
func (v Value) AsTimestamp() uint64 { return v.t }

// Compare 比较两个同类型值（整型与定点数可混合比较）。NULL按最小排序，两个NULL视为相等
func (v Value) Compare(o Value) (CompareResult, error) {
	// 整型与定点数允许混合比较
	mixed := (v.valType == TypeInt && o.valType == TypeDecimal) ||
		(v.valType == TypeDecimal && o.valType == TypeInt)
	if v.valType != o.valType && !mixed {
		return CmpEqual, errors.NotValidf("comparing %s with %s", v.valType, o.valType)
	}
	if v.isNull || o.isNull {
		if v.isNull && o.isNull {
			return CmpEqual, nil
		}
		if v.isNull {
			return CmpLess, nil
		}
		return CmpGreater, nil
	}
	if mixed {
		if v.valType == TypeInt {
			return decCmp(decimal.NewFromInt(v.i), o.d), nil
		}
		return decCmp(v.d, decimal.NewFromInt(o.i)), nil
	}
	switch v.valType {
	case TypeInt:
		return intCmp(v.i, o.i), nil
	case TypeDecimal:
		return decCmp(v.d, o.d), nil
	case TypeVarchar:
		return strCmp(v.s, o.s), nil
	case TypeBoolean:
		return boolCmp(v.b, o.b), nil
	case TypeTimestamp:
		return intCmp(int64(v.t), int64(o.t)), nil
	}
	return CmpEqual, errors.NotSupportedf("compare of %s", v.valType)
}

// Add 数值相加，聚合SUM使用。定点数运算走decimal避免浮点漂移
func (v Value) Add(o Value) (Value, error) {
	if v.isNull {
		return o, nil
	}
	if o.isNull {
		return v, nil
	}
	switch {
	case v.valType == TypeInt && o.valType == TypeInt:
		return NewIntValue(v.i + o.i), nil
	case v.valType == TypeDecimal && o.valType == TypeDecimal:
		return NewDecimalValue(v.d.Add(o.d)), nil
	case v.valType == TypeInt && o.valType == TypeDecimal:
		return NewDecimalValue(decimal.NewFromInt(v.i).Add(o.d)), nil
	case v.valType == TypeDecimal && o.valType == TypeInt:
		return NewDecimalValue(v.d.Add(decimal.NewFromInt(o.i))), nil
	}
	return Value{}, errors.NotSupportedf("add of %s and %s", v.valType, o.valType)
}

func (v Value) String() string {
	if v.isNull {
		return "NULL"
	}
	switch v.valType {
	case TypeInt:
		return fmt.Sprintf("%d", v.i)
	case TypeDecimal:
		return v.d.String()
	case TypeVarchar:
		return v.s
	case TypeBoolean:
		return fmt.Sprintf("%t", v.b)
	case TypeTimestamp:
		return fmt.Sprintf("%d", v.t)
	}
	return "?"
}

func intCmp(a, b int64) CompareResult {
	switch {
	case a < b:
		return CmpLess
	case a > b:
		return CmpGreater
	}
	return CmpEqual
}

func decCmp(a, b decimal.Decimal) CompareResult {
	return CompareResult(a.Cmp(b))
}

func strCmp(a, b string) CompareResult {
	switch {
	case a < b:
		return CmpLess
	case a > b:
		return CmpGreater
	}
	return CmpEqual
}

func boolCmp(a, b bool) CompareResult {
	switch {
	case a == b:
		return CmpEqual
	case !a:
		return CmpLess
	}
	return CmpGreater
}

// Serialize 将值编码为字节序列。
// 布局: 1字节NULL标志 + 类型负载（定长或长度前缀变长）
func (v Value) Serialize() []byte {
	buf := make([]byte, 1, 16)
	if v.isNull {
		buf[0] = 1
		return buf
	}
	switch v.valType {
	case TypeInt:
		buf = append(buf, make([]byte, 8)...)
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.i))
	case TypeTimestamp:
		buf = append(buf, make([]byte, 8)...)
		binary.LittleEndian.PutUint64(buf[1:], v.t)
	case TypeBoolean:
		if v.b {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case TypeVarchar:
		buf = appendLenPrefixed(buf, []byte(v.s))
	case TypeDecimal:
		buf = appendLenPrefixed(buf, []byte(v.d.String()))
	}
	return buf
}

// DeserializeValue 从字节序列解码一个值，返回值与消耗的字节数
func DeserializeValue(t DataType, data []byte) (Value, int, error) {
	if len(data) < 1 {
		return Value{}, 0, errors.NotValidf("value bytes of length %d", len(data))
	}
	if data[0] == 1 {
		return NewNullValue(t), 1, nil
	}
	rest := data[1:]
	switch t {
	case TypeInt:
		if len(rest) < 8 {
			return Value{}, 0, errors.NotValidf("int payload")
		}
		return NewIntValue(int64(binary.LittleEndian.Uint64(rest))), 9, nil
	case TypeTimestamp:
		if len(rest) < 8 {
			return Value{}, 0, errors.NotValidf("timestamp payload")
		}
		return NewTimestampValue(binary.LittleEndian.Uint64(rest)), 9, nil
	case TypeBoolean:
		if len(rest) < 1 {
			return Value{}, 0, errors.NotValidf("bool payload")
		}
		return NewBoolValue(rest[0] != 0), 2, nil
	case TypeVarchar:
		s, n, err := readLenPrefixed(rest)
		if err != nil {
			return Value{}, 0, errors.Trace(err)
		}
		return NewVarcharValue(string(s)), 1 + n, nil
	case TypeDecimal:
		s, n, err := readLenPrefixed(rest)
		if err != nil {
			return Value{}, 0, errors.Trace(err)
		}
		d, err := decimal.NewFromString(string(s))
		if err != nil {
			return Value{}, 0, errors.NotValidf("decimal payload %q", s)
		}
		return NewDecimalValue(d), 1 + n, nil
	}
	return Value{}, 0, errors.NotSupportedf("deserialize of type %s", t)
}

func appendLenPrefixed(buf, payload []byte) []byte {
	lenBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBuf, uint16(len(payload)))
	buf = append(buf, lenBuf...)
	return append(buf, payload...)
}

func readLenPrefixed(data []byte) ([]byte, int, error) {
	if len(data) < 2 {
		return nil, 0, errors.NotValidf("length prefix")
	}
	n := int(binary.LittleEndian.Uint16(data))
	if len(data) < 2+n {
		return nil, 0, errors.NotValidf("payload of length %d", n)
	}
	return data[2 : 2+n], 2 + n, nil
}
