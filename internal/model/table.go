package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Table 有序列名 + 按列对齐的行。Fetcher 返回后视为只读，需要修改时先 Clone。
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable 按给定列名建空表，重复列名只保留第一个。
func NewTable(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, ok := t.index[c]; ok {
			continue
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t
}

// Columns 返回列名副本
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.columns...)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Empty nil 表与零行表都视为空。
func (t *Table) Empty() bool { return t.Len() == 0 }

func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[name]
	return ok
}

// Append 追加一行，值按列顺序给出；不足补 null，多余报错。
func (t *Table) Append(vals ...Value) error {
	if len(vals) > len(t.columns) {
		return fmt.Errorf("model: row has %d values, table has %d columns", len(vals), len(t.columns))
	}
	row := make([]Value, len(t.columns))
	copy(row, vals)
	t.rows = append(t.rows, row)
	return nil
}

// AppendMap 按列名追加一行，缺失列为 null，未知列忽略。
func (t *Table) AppendMap(m map[string]Value) {
	row := make([]Value, len(t.columns))
	for k, v := range m {
		if i, ok := t.index[k]; ok {
			row[i] = v
		}
	}
	t.rows = append(t.rows, row)
}

// Get 取第 i 行 col 列；列不存在返回 ok=false。
func (t *Table) Get(i int, col string) (Value, bool) {
	c, ok := t.index[col]
	if !ok || i < 0 || i >= len(t.rows) {
		return Value{}, false
	}
	return t.rows[i][c], true
}

func (t *Table) Set(i int, col string, v Value) error {
	c, ok := t.index[col]
	if !ok {
		return fmt.Errorf("model: no column %q", col)
	}
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("model: row %d out of range", i)
	}
	t.rows[i][c] = v
	return nil
}

// SetColumn 新增或覆盖一列，每行填同一个值。新增列追加在末尾。
func (t *Table) SetColumn(col string, fill Value) {
	c, ok := t.index[col]
	if !ok {
		c = len(t.columns)
		t.index[col] = c
		t.columns = append(t.columns, col)
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], fill)
		}
		return
	}
	for i := range t.rows {
		t.rows[i][c] = fill
	}
}

// Row 返回第 i 行（列名 -> 值）。
func (t *Table) Row(i int) map[string]Value {
	m := make(map[string]Value, len(t.columns))
	for c, name := range t.columns {
		m[name] = t.rows[i][c]
	}
	return m
}

// Records 返回 CSV 形式的字符串记录（不含表头）。
func (t *Table) Records() [][]string {
	if t == nil {
		return nil
	}
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = v.String()
		}
		out[i] = rec
	}
	return out
}

// Clone 深拷贝，修改副本不影响原表。
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := NewTable(t.columns...)
	c.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		c.rows[i] = append([]Value(nil), row...)
	}
	return c
}

// MarshalJSON 输出为对象数组，每个对象保持列顺序。
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	if t != nil {
		for i, row := range t.rows {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('{')
			for j, v := range row {
				if j > 0 {
					buf.WriteByte(',')
				}
				k, err := marshalNoEscape(t.columns[j])
				if err != nil {
					return nil, err
				}
				buf.Write(k)
				buf.WriteByte(':')
				b, err := v.MarshalJSON()
				if err != nil {
					return nil, err
				}
				buf.Write(b)
			}
			buf.WriteByte('}')
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

var _ json.Marshaler = (*Table)(nil)
