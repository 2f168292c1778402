package integrate

import (
	"context"
	"fmt"
	"time"

	"stockdata/internal/export"
	"stockdata/internal/model"
)

// 宽表列名
const (
	colTradeDate      = "trade_date"
	colStockCode      = "stock_code"
	colExDividendDate = "ex_dividend_date"
	colDividendPlan   = "dividend_plan"
	colDividendFlag   = "dividend_flag"
	industryPrefix    = "industry_"
)

// BuildTable 以历史行情为底生成宽表：行业信息取第一行广播到每一行，分红按除权除息日标记。
// 历史行情缺失或为空时返回空表。输入表不会被修改。
func (in *Integrator) BuildTable(ctx context.Context, b model.Bundle) (*model.Table, Outcome) {
	var out Outcome
	history, ok := b.Get(model.History)
	if !ok {
		logf(ctx, "未找到历史行情数据")
		return model.NewTable(), out
	}
	t := history.Clone()
	logf(ctx, "已读取历史行情数据，共 %d 条记录", t.Len())

	if industry, ok := b.Get(model.Industry); ok {
		addIndustry(t, industry)
		logf(ctx, "已添加行业信息")
	}

	if dividend, ok := b.Get(model.Dividend); ok {
		if err := markDividends(t, dividend); err != nil {
			out.fail(ctx, "处理分红信息时出错: %v", err)
		} else {
			logf(ctx, "已添加分红信息")
		}
	}
	return t, out
}

// ToCSV 生成宽表并写入 path。历史行情为空时不写文件；写入失败记入 Outcome，宽表照常返回。
func (in *Integrator) ToCSV(ctx context.Context, code string, b model.Bundle, path string) (*model.Table, Outcome) {
	logf(ctx, "正在整合 %s 的数据到 CSV 文件...", code)
	t, out := in.BuildTable(ctx, b)
	if t.Empty() {
		return t, out
	}
	if err := export.SaveCSV(ctx, t, path); err != nil {
		out.fail(ctx, "保存整合数据失败: %v", err)
		return t, out
	}
	logf(ctx, "整合数据已保存至 %s", path)
	return t, out
}

func addIndustry(t, industry *model.Table) {
	first := industry.Row(0)
	for _, col := range industry.Columns() {
		if col == colStockCode {
			continue
		}
		t.SetColumn(industryPrefix+col, first[col])
	}
}

// markDividends 先把两边日期规范化，失败时不添加任何分红列；
// 之后按分红表顺序逐条标记，同一交易日后写覆盖先写。
func markDividends(t, dividend *model.Table) error {
	tradeDates, err := normalizeDates(t, colTradeDate)
	if err != nil {
		return err
	}
	exDates, err := normalizeDates(dividend, colExDividendDate)
	if err != nil {
		return err
	}
	for i, d := range tradeDates {
		if d.ok {
			if err := t.Set(i, colTradeDate, model.Date(d.t)); err != nil {
				return err
			}
		}
	}

	t.SetColumn(colDividendFlag, model.Int(0))
	t.SetColumn(colDividendPlan, model.String(""))

	flag := model.Int(1)
	for j, ex := range exDates {
		plan, ok := dividend.Get(j, colDividendPlan)
		if !ok {
			return fmt.Errorf("dividend record %d: missing column %q", j, colDividendPlan)
		}
		if !ex.ok {
			continue
		}
		for i, td := range tradeDates {
			if !td.ok || !td.t.Equal(ex.t) {
				continue
			}
			if err := t.Set(i, colDividendFlag, flag); err != nil {
				return err
			}
			if err := t.Set(i, colDividendPlan, plan); err != nil {
				return err
			}
		}
	}
	return nil
}

type dateCell struct {
	t  time.Time
	ok bool
}

func normalizeDates(t *model.Table, col string) ([]dateCell, error) {
	if !t.HasColumn(col) {
		return nil, fmt.Errorf("missing column %q", col)
	}
	out := make([]dateCell, t.Len())
	for i := range out {
		v, _ := t.Get(i, col)
		d, ok, err := model.ToDate(v)
		if err != nil {
			return nil, fmt.Errorf("column %s row %d: %w", col, i, err)
		}
		out[i] = dateCell{t: d, ok: ok}
	}
	return out, nil
}
