package record

import (
	"strings"

	"github.com/juju/errors"
	"github.com/zhukovaskychina/xengine/basic"
)

// Column 列定义
type Column struct {
	Name string
	Type basic.DataType
}

// NewColumn 构造列定义
func NewColumn(name string, t basic.DataType) Column {
	return Column{Name: name, Type: t}
}

// Schema 元组模式，列有序
type Schema struct {
	columns []Column
}

// NewSchema 构造模式
func NewSchema(cols ...Column) *Schema {
	return &Schema{columns: cols}
}

// GetColumnCount 返回列数
func (s *Schema) GetColumnCount() int {
	return len(s.columns)
}

// GetColumn 返回第i列
func (s *Schema) GetColumn(i int) Column {
	return s.columns[i]
}

// GetColIdx 按列名查找下标
func (s *Schema) GetColIdx(name string) (int, error) {
	for i, c := range s.columns {
		if c.Name == name {
			return i, nil
		}
	}
	return 0, errors.NotFoundf("column %s", name)
}

// CopySchema 选取部分列构成新模式
func CopySchema(from *Schema, attrs []uint32) *Schema {
	cols := make([]Column, 0, len(attrs))
	for _, a := range attrs {
		cols = append(cols, from.GetColumn(int(a)))
	}
	return NewSchema(cols...)
}

func (s *Schema) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, c := range s.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Name)
		sb.WriteByte(':')
		sb.WriteString(c.Type.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
