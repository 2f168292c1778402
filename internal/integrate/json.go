package integrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/pretty"

	"stockdata/internal/model"
)

const jsonIndent = "  "

// Section 一个分组内的类别 -> 表，序列化时保持固定的类别顺序，缺失的类别不输出。
type Section struct {
	order  []model.Category
	tables map[model.Category]*model.Table
}

func (s *Section) put(c model.Category, t *model.Table) {
	if s.tables == nil {
		s.tables = make(map[model.Category]*model.Table)
	}
	if _, ok := s.tables[c]; !ok {
		s.order = append(s.order, c)
	}
	s.tables[c] = t
}

// Get 返回分组中的类别数据
func (s Section) Get(c model.Category) (*model.Table, bool) {
	t, ok := s.tables[c]
	return t, ok
}

// Categories 按输出顺序
func (s Section) Categories() []model.Category {
	return append([]model.Category(nil), s.order...)
}

func (s Section) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", string(c))
		b, err := s.tables[c].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", c, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Record 整合后的 JSON 记录。三个分组总是存在，可能为空对象。
type Record struct {
	StockCode       string  `json:"stock_code"`
	IntegrationTime string  `json:"integration_time"`
	BasicInfo       Section `json:"basic_info"`
	MarketData      Section `json:"market_data"`
	FinancialData   Section `json:"financial_data"`
}

func (r *Record) section(g model.Group) *Section {
	switch g {
	case model.BasicInfo:
		return &r.BasicInfo
	case model.MarketData:
		return &r.MarketData
	case model.FinancialData:
		return &r.FinancialData
	}
	return nil
}

// BuildRecord 按静态分组表把非空类别放入记录，数据原样保留。
func (in *Integrator) BuildRecord(ctx context.Context, code string, b model.Bundle) *Record {
	r := &Record{
		StockCode:       code,
		IntegrationTime: in.now().Format(integrationTimeLayout),
	}
	for _, g := range model.Groups {
		sec := r.section(g.Group)
		for _, c := range g.Categories {
			t, ok := b.Get(c)
			if !ok {
				continue
			}
			sec.put(c, t)
			logIntegrated(ctx, c, t)
		}
	}
	return r
}

// Marshal 两空格缩进，保留中文，不转义 HTML 字符。
func (r *Record) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(buf.Bytes(), &pretty.Options{Indent: jsonIndent}), nil
}

// ToJSON 生成整合记录并写入 path；写入失败时 Outcome 标记为部分成功，记录照常返回。
func (in *Integrator) ToJSON(ctx context.Context, code string, b model.Bundle, path string) (*Record, Outcome) {
	var out Outcome
	logf(ctx, "正在整合 %s 的数据到 JSON 文件...", code)
	r := in.BuildRecord(ctx, code, b)
	data, err := r.Marshal()
	if err != nil {
		out.fail(ctx, "保存整合数据失败: %v", err)
		return r, out
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		out.fail(ctx, "保存整合数据失败: %v", err)
		return r, out
	}
	logf(ctx, "整合数据已保存至 %s", path)
	return r, out
}

func logIntegrated(ctx context.Context, c model.Category, t *model.Table) {
	switch c {
	case model.History, model.Minute, model.CapitalFlow, model.Dividend:
		logf(ctx, "已整合%s数据，共 %d 条记录", c.Label(), t.Len())
	default:
		logf(ctx, "已整合%s数据", c.Label())
	}
}
