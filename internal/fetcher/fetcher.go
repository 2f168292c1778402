// Package fetcher 每个数据类别一个拉取函数：调用数据源一次，空结果记日志后原样返回，不重试。
package fetcher

import (
	"context"
	"fmt"
	"time"

	"stockdata/internal/api"
	"stockdata/internal/model"
	"stockdata/internal/trace"
)

// 历史行情默认起始日期
const defaultStart = "2020-01-01"

// Provider 数据源能力，api.Client 实现。
type Provider interface {
	GetMarket(ctx context.Context, code, start, end string, ktype api.KType, adjust api.Adjust) (*model.Table, error)
	ListMarketCurrent(ctx context.Context, codes []string) (*model.Table, error)
	GetMarketMin(ctx context.Context, code string) (*model.Table, error)
	GetMarketFive(ctx context.Context, code string) (*model.Table, error)
	GetCapitalFlow(ctx context.Context, code string) (*model.Table, error)
	GetDividend(ctx context.Context, code string) (*model.Table, error)
	GetStockShares(ctx context.Context, code string) (*model.Table, error)
	GetIndustry(ctx context.Context, code string) (*model.Table, error)
	GetConcept(ctx context.Context, code string) (*model.Table, error)
}

var _ Provider = (*api.Client)(nil)

// HistoryParams 历史行情参数；Start 为空取 2020-01-01，End 为空取当天。
type HistoryParams struct {
	Start  string
	End    string
	KType  api.KType
	Adjust api.Adjust
}

// DefaultHistoryParams 日 K、前复权。
func DefaultHistoryParams() HistoryParams {
	return HistoryParams{Start: defaultStart, KType: api.KDay, Adjust: api.AdjustForward}
}

type Fetcher struct {
	p   Provider
	now func() time.Time
}

func New(p Provider) *Fetcher {
	if p == nil {
		panic("fetcher: provider must not be nil")
	}
	return &Fetcher{p: p, now: time.Now}
}

// History 历史 K 线
func (f *Fetcher) History(ctx context.Context, code string, hp HistoryParams) (*model.Table, error) {
	if hp.Start == "" {
		hp.Start = defaultStart
	}
	if hp.End == "" {
		hp.End = f.now().Format(model.DateLayout)
	}
	trace.Log(ctx, "fetcher: 下载 %s 历史行情 %s ~ %s ktype=%d adjust=%d", code, hp.Start, hp.End, hp.KType, hp.Adjust)
	t, err := f.p.GetMarket(ctx, code, hp.Start, hp.End, hp.KType, hp.Adjust)
	if err != nil {
		return nil, fmt.Errorf("get history %s: %w", code, err)
	}
	if t.Empty() {
		trace.Log(ctx, "fetcher: %s 无历史行情，请检查股票代码或调整日期范围", code)
		return orEmpty(t), nil
	}
	trace.Log(ctx, "fetcher: %s 历史行情 %d 条", code, t.Len())
	return t, nil
}

func (f *Fetcher) Current(ctx context.Context, code string) (*model.Table, error) {
	return f.single(ctx, model.Current, code, func() (*model.Table, error) {
		return f.p.ListMarketCurrent(ctx, []string{code})
	})
}

func (f *Fetcher) Minute(ctx context.Context, code string) (*model.Table, error) {
	return f.single(ctx, model.Minute, code, func() (*model.Table, error) {
		return f.p.GetMarketMin(ctx, code)
	})
}

func (f *Fetcher) FiveLevel(ctx context.Context, code string) (*model.Table, error) {
	return f.single(ctx, model.FiveLevel, code, func() (*model.Table, error) {
		return f.p.GetMarketFive(ctx, code)
	})
}

func (f *Fetcher) CapitalFlow(ctx context.Context, code string) (*model.Table, error) {
	return f.single(ctx, model.CapitalFlow, code, func() (*model.Table, error) {
		return f.p.GetCapitalFlow(ctx, code)
	})
}

func (f *Fetcher) Dividend(ctx context.Context, code string) (*model.Table, error) {
	return f.single(ctx, model.Dividend, code, func() (*model.Table, error) {
		return f.p.GetDividend(ctx, code)
	})
}

func (f *Fetcher) Shares(ctx context.Context, code string) (*model.Table, error) {
	return f.single(ctx, model.Shares, code, func() (*model.Table, error) {
		return f.p.GetStockShares(ctx, code)
	})
}

func (f *Fetcher) Industry(ctx context.Context, code string) (*model.Table, error) {
	return f.single(ctx, model.Industry, code, func() (*model.Table, error) {
		return f.p.GetIndustry(ctx, code)
	})
}

func (f *Fetcher) Concept(ctx context.Context, code string) (*model.Table, error) {
	return f.single(ctx, model.Concept, code, func() (*model.Table, error) {
		return f.p.GetConcept(ctx, code)
	})
}

// Info 股票基本信息：股本、行业、概念，任一失败即返回错误。
func (f *Fetcher) Info(ctx context.Context, code string) (map[model.Category]*model.Table, error) {
	trace.Log(ctx, "fetcher: 获取 %s 基本信息", code)
	out := make(map[model.Category]*model.Table, 3)
	for _, c := range []model.Category{model.Shares, model.Industry, model.Concept} {
		t, err := f.Fetch(ctx, c, code, HistoryParams{})
		if err != nil {
			return nil, err
		}
		out[c] = t
	}
	return out, nil
}

// Fetch 按类别分发。
func (f *Fetcher) Fetch(ctx context.Context, c model.Category, code string, hp HistoryParams) (*model.Table, error) {
	switch c {
	case model.History:
		return f.History(ctx, code, hp)
	case model.Current:
		return f.Current(ctx, code)
	case model.Minute:
		return f.Minute(ctx, code)
	case model.FiveLevel:
		return f.FiveLevel(ctx, code)
	case model.CapitalFlow:
		return f.CapitalFlow(ctx, code)
	case model.Dividend:
		return f.Dividend(ctx, code)
	case model.Shares:
		return f.Shares(ctx, code)
	case model.Industry:
		return f.Industry(ctx, code)
	case model.Concept:
		return f.Concept(ctx, code)
	}
	return nil, fmt.Errorf("fetcher: unknown category %q", c)
}

func (f *Fetcher) single(ctx context.Context, c model.Category, code string, call func() (*model.Table, error)) (*model.Table, error) {
	trace.Log(ctx, "fetcher: 获取 %s %s", code, c.Label())
	t, err := call()
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", c, code, err)
	}
	if t.Empty() {
		trace.Log(ctx, "fetcher: 未找到 %s 的%s", code, c.Label())
		return orEmpty(t), nil
	}
	trace.Log(ctx, "fetcher: %s %s %d 条", code, c.Label(), t.Len())
	return t, nil
}

func orEmpty(t *model.Table) *model.Table {
	if t == nil {
		return model.NewTable()
	}
	return t
}
