package record

import (
	"strings"

	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
)

// Tuple 模式驱动编码的字节行。值按列序依次编码，无列偏移表，
// 取值时按模式顺序解码
type Tuple struct {
	rid  basic.RID
	data []byte
}

// NewTuple 按模式序列化一组值
func NewTuple(values []basic.Value, schema *Schema) *Tuple {
	if len(values) != schema.GetColumnCount() {
		panic("tuple value count does not match schema")
	}
	var data []byte
	for _, v := range values {
		data = append(data, v.Serialize()...)
	}
	return &Tuple{rid: basic.InvalidRID, data: data}
}

// NewTupleFromData 用已编码字节构造元组
func NewTupleFromData(data []byte, rid basic.RID) *Tuple {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Tuple{rid: rid, data: cp}
}

// RID 返回元组的记录标识
func (t *Tuple) RID() basic.RID { return t.rid }

// SetRID 设置记录标识
func (t *Tuple) SetRID(rid basic.RID) { t.rid = rid }

// Data 返回编码字节
func (t *Tuple) Data() []byte { return t.data }

// GetValue 解码第idx列的值
func (t *Tuple) GetValue(schema *Schema, idx int) basic.Value {
	off := 0
	for i := 0; i <= idx; i++ {
		v, n, err := basic.DeserializeValue(schema.GetColumn(i).Type, t.data[off:])
		if err != nil {
			panic(errors.Annotatef(err, "decoding column %d of tuple %s", i, t.rid))
		}
		if i == idx {
			return v
		}
		off += n
	}
	panic("unreachable")
}

// GetValues 解码全部列
func (t *Tuple) GetValues(schema *Schema) []basic.Value {
	out := make([]basic.Value, 0, schema.GetColumnCount())
	off := 0
	for i := 0; i < schema.GetColumnCount(); i++ {
		v, n, err := basic.DeserializeValue(schema.GetColumn(i).Type, t.data[off:])
		if err != nil {
			panic(errors.Annotatef(err, "decoding column %d of tuple %s", i, t.rid))
		}
		out = append(out, v)
		off += n
	}
	return out
}

// KeyFromTuple 按keyAttrs抽取索引键元组
func (t *Tuple) KeyFromTuple(schema *Schema, keySchema *Schema, keyAttrs []uint32) *Tuple {
	values := make([]basic.Value, 0, len(keyAttrs))
	for _, a := range keyAttrs {
		values = append(values, t.GetValue(schema, int(a)))
	}
	return NewTuple(values, keySchema)
}

// String 按模式格式化
func (t *Tuple) String(schema *Schema) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := 0; i < schema.GetColumnCount(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.GetValue(schema, i).String())
	}
	sb.WriteByte(')')
	return sb.String()
}
