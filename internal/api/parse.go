package api

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"stockdata/internal/model"
)

// 东方财富成交量单位为手
var sharesPerLot = decimal.NewFromInt(100)

// num 把 gjson 字段转为数值单元格；"-" 等占位符为 null。
func num(r gjson.Result) model.Value {
	switch r.Type {
	case gjson.Number:
		return model.ParseNumber(r.Raw)
	case gjson.String:
		return model.ParseNumber(r.Str)
	}
	return model.Null()
}

// str 字符串单元格，空值与 "-" 为 null。
func str(r gjson.Result) model.Value {
	if !r.Exists() || r.Type == gjson.Null {
		return model.Null()
	}
	s := strings.TrimSpace(r.String())
	if s == "" || s == "-" {
		return model.Null()
	}
	return model.String(s)
}

// lots 成交量（手）换算为股
func lots(v model.Value) model.Value {
	d, ok := v.Decimal()
	if !ok {
		return v
	}
	return model.Number(d.Mul(sharesPerLot))
}

// sub a-b，任一方非数值返回 null。
func sub(a, b model.Value) model.Value {
	x, ok1 := a.Decimal()
	y, ok2 := b.Decimal()
	if !ok1 || !ok2 {
		return model.Null()
	}
	return model.Number(x.Sub(y))
}

// pct (a-b)/b*100，保留两位。
func pct(a, b model.Value) model.Value {
	x, ok1 := a.Decimal()
	y, ok2 := b.Decimal()
	if !ok1 || !ok2 || y.IsZero() {
		return model.Null()
	}
	return model.Number(x.Sub(y).Div(y).Mul(decimal.NewFromInt(100)).Round(2))
}

// datePart "2021-01-04 00:00:00" -> "2021-01-04"
func datePart(s string) model.Value {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return model.Null()
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	return model.String(s)
}

// fullTime 补齐秒："2021-01-04" -> "2021-01-04 00:00:00"，"2021-01-04 09:35" -> "2021-01-04 09:35:00"
func fullTime(s string) model.Value {
	s = strings.TrimSpace(s)
	switch len(s) {
	case len("2006-01-02"):
		s += " 00:00:00"
	case len("2006-01-02 15:04"):
		s += ":00"
	}
	return model.String(s)
}

// splitCSV 拆分 K 线类逗号串，字段不足 n 个返回 nil。
func splitCSV(s string, n int) []string {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) < n {
		return nil
	}
	return parts
}

// dataArray 取 data.<key>，data 为 null 或字段缺失返回 false（视为无数据）。
func dataArray(body []byte, path string) (gjson.Result, bool) {
	r := gjson.GetBytes(body, path)
	if !r.Exists() || r.Type == gjson.Null {
		return r, false
	}
	return r, true
}
