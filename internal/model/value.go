// Package model 定义表格数据（Table）、单元格（Value）、数据包（Bundle）与类别查找表。
package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind 单元格类型
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindDate
)

// 日期输出格式：零点只输出日期
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Value 单个标量：null、字符串、数值（精确小数）或日期。零值为 null。
type Value struct {
	kind Kind
	s    string
	n    decimal.Decimal
	t    time.Time
}

func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, n: d} }

func Int(n int64) Value { return Value{kind: KindNumber, n: decimal.NewFromInt(n)} }

func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// ParseNumber 解析接口返回的数值文本，"-"、"" 等无效值返回 null。
func ParseNumber(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "--" {
		return Null()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return String(s)
	}
	return Number(d)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Decimal() (decimal.Decimal, bool) {
	return v.n, v.kind == KindNumber
}

// String 为 CSV 输出形式，null 为空串。
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return v.n.String()
	case KindDate:
		return formatDate(v.t)
	}
	return ""
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(DateTimeLayout)
}

// MarshalJSON 数值输出为 JSON 数字（不加引号），日期输出为字符串。
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return marshalNoEscape(v.s)
	case KindNumber:
		return []byte(v.n.String()), nil
	case KindDate:
		return marshalNoEscape(formatDate(v.t))
	}
	return []byte("null"), nil
}

func marshalNoEscape(s string) ([]byte, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return []byte(strings.TrimSuffix(sb.String(), "\n")), nil
}

// 交易日期可能的文本格式
var dateLayouts = []string{
	DateLayout,
	DateTimeLayout,
	"2006-01-02 15:04",
	"20060102",
	"2006/01/02",
	time.RFC3339,
}

// ToDate 把单元格规范化为不带时区的日期（统一为 UTC 墙钟时间）。
// null 与空串返回 ok=false（不匹配任何日期），无法解析的文本返回错误。
func ToDate(v Value) (t time.Time, ok bool, err error) {
	switch v.kind {
	case KindNull:
		return time.Time{}, false, nil
	case KindDate:
		return wallClock(v.t), true, nil
	case KindString:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return time.Time{}, false, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return wallClock(t), true, nil
			}
		}
		return time.Time{}, false, &DateError{Value: v.s}
	}
	return time.Time{}, false, &DateError{Value: v.String()}
}

// wallClock 丢弃时区，只保留墙钟时间
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// DateError 日期无法解析
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return "model: unparseable date " + strconv.Quote(e.Value)
}
