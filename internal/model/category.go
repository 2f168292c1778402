package model

import (
	"fmt"
	"path/filepath"
)

// Category 数据类别
type Category string

const (
	History     Category = "history"
	Current     Category = "current"
	Minute      Category = "minute"
	FiveLevel   Category = "five_level"
	CapitalFlow Category = "capital_flow"
	Dividend    Category = "dividend"
	Shares      Category = "shares"
	Industry    Category = "industry"
	Concept     Category = "concept"
)

// Categories 下载顺序
var Categories = []Category{
	History, Current, Minute, FiveLevel, CapitalFlow, Dividend, Shares, Industry, Concept,
}

// Group 整合 JSON 中的分组
type Group string

const (
	BasicInfo     Group = "basic_info"
	MarketData    Group = "market_data"
	FinancialData Group = "financial_data"
)

// Groups JSON 分组及组内类别顺序
var Groups = []struct {
	Group      Group
	Categories []Category
}{
	{BasicInfo, []Category{Industry, Concept, Shares}},
	{MarketData, []Category{History, Current, Minute, FiveLevel, CapitalFlow}},
	{FinancialData, []Category{Dividend}},
}

// 类别中文名，用于日志
var categoryLabels = map[Category]string{
	History:     "历史行情",
	Current:     "当前行情",
	Minute:      "分时行情",
	FiveLevel:   "五档行情",
	CapitalFlow: "资金流向",
	Dividend:    "分红信息",
	Shares:      "股本信息",
	Industry:    "行业信息",
	Concept:     "概念信息",
}

func (c Category) Label() string {
	if s, ok := categoryLabels[c]; ok {
		return s
	}
	return string(c)
}

// 整合文件名后缀
const (
	integratedJSONSuffix = "_integrated_data.json"
	integratedCSVSuffix  = "_integrated_data.csv"
)

// FileName 类别对应的 CSV 文件名；history 带 K 线与复权类型。
func FileName(code string, c Category, ktype, adjust int) string {
	if c == History {
		return fmt.Sprintf("%s_history_k%d_a%d.csv", code, ktype, adjust)
	}
	return fmt.Sprintf("%s_%s.csv", code, c)
}

func IntegratedJSONPath(dir, code string) string {
	return filepath.Join(dir, code+integratedJSONSuffix)
}

func IntegratedCSVPath(dir, code string) string {
	return filepath.Join(dir, code+integratedCSVSuffix)
}

// Bundle 类别 -> 表，只保存非空表。
type Bundle map[Category]*Table

// Put 空表忽略，返回是否写入。
func (b Bundle) Put(c Category, t *Table) bool {
	if t.Empty() {
		return false
	}
	b[c] = t
	return true
}

// Get 不存在或为空时 ok=false。
func (b Bundle) Get(c Category) (*Table, bool) {
	t, ok := b[c]
	if !ok || t.Empty() {
		return nil, false
	}
	return t, true
}
