package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"stockdata/internal/model"
)

// KType K 线类型（命令行取值）
type KType int

const (
	KDay     KType = 1
	KWeek    KType = 2
	KMonth   KType = 3
	KQuarter KType = 4
	K5Min    KType = 5
	K15Min   KType = 15
	K30Min   KType = 30
	K60Min   KType = 60
)

// 东方财富 klt 参数
var kltOf = map[KType]string{
	KDay:     "101",
	KWeek:    "102",
	KMonth:   "103",
	KQuarter: "104",
	K5Min:    "5",
	K15Min:   "15",
	K30Min:   "30",
	K60Min:   "60",
}

func (k KType) Valid() bool {
	_, ok := kltOf[k]
	return ok
}

// Adjust 复权类型，与东方财富 fqt 参数取值相同
type Adjust int

const (
	AdjustNone     Adjust = 0
	AdjustForward  Adjust = 1
	AdjustBackward Adjust = 2
)

func (a Adjust) Valid() bool { return a >= AdjustNone && a <= AdjustBackward }

// 各类别输出列
var (
	HistoryColumns = []string{
		"stock_code", "trade_time", "trade_date", "open", "close", "high", "low",
		"volume", "amount", "change_pct", "change", "turnover_ratio", "pre_close",
	}
	CurrentColumns = []string{
		"stock_code", "short_name", "price", "change", "change_pct", "volume", "amount",
	}
	MinuteColumns = []string{
		"stock_code", "trade_time", "price", "change", "change_pct", "volume", "avg_price", "amount",
	}
	FiveLevelColumns = []string{
		"stock_code", "short_name",
		"s5", "s4", "s3", "s2", "s1", "sv5", "sv4", "sv3", "sv2", "sv1",
		"b1", "b2", "b3", "b4", "b5", "bv1", "bv2", "bv3", "bv4", "bv5",
	}
	CapitalFlowColumns = []string{
		"stock_code", "trade_date", "main_net_inflow", "sm_net_inflow",
		"mid_net_inflow", "lg_net_inflow", "max_net_inflow",
	}
)

// K 线 fields2：f51 日期 f52 开 f53 收 f54 高 f55 低 f56 成交量 f57 成交额 f58 振幅 f59 涨跌幅 f60 涨跌额 f61 换手
const (
	klineFields1 = "f1,f2,f3,f4,f5,f6"
	klineFields2 = "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61"
	klineLimit   = "1000000"
	klineMinCols = 11
)

// GetMarket 拉取 [start, end] 区间的历史 K 线，日期格式 YYYY-MM-DD。
func (c *Client) GetMarket(ctx context.Context, code, start, end string, ktype KType, adjust Adjust) (*model.Table, error) {
	klt, ok := kltOf[ktype]
	if !ok {
		return nil, fmt.Errorf("api: unsupported ktype %d", ktype)
	}
	if !adjust.Valid() {
		return nil, fmt.Errorf("api: unsupported adjust %d", adjust)
	}
	q := url.Values{}
	q.Set("secid", FormatCode(code))
	q.Set("fields1", klineFields1)
	q.Set("fields2", klineFields2)
	q.Set("klt", klt)
	q.Set("fqt", strconv.Itoa(int(adjust)))
	q.Set("beg", compactDate(start))
	q.Set("end", compactDate(end))
	q.Set("lmt", klineLimit)
	body, err := c.get(ctx, c.historyURL, pathKLine, q)
	if err != nil {
		return nil, err
	}
	return parseHistory(body, code), nil
}

// compactDate 2020-01-01 -> 20200101；空串为不限。
func compactDate(s string) string {
	if s == "" {
		return "20500101"
	}
	return strings.ReplaceAll(s, "-", "")
}

func parseHistory(body []byte, code string) *model.Table {
	t := model.NewTable(HistoryColumns...)
	klines, ok := dataArray(body, "data.klines")
	if !ok {
		return t
	}
	for _, v := range klines.Array() {
		p := splitCSV(v.String(), klineMinCols)
		if p == nil {
			continue
		}
		closeVal := model.ParseNumber(p[2])
		change := model.ParseNumber(p[9])
		t.AppendMap(map[string]model.Value{
			"stock_code":     model.String(code),
			"trade_time":     fullTime(p[0]),
			"trade_date":     datePart(p[0]),
			"open":           model.ParseNumber(p[1]),
			"close":          closeVal,
			"high":           model.ParseNumber(p[3]),
			"low":            model.ParseNumber(p[4]),
			"volume":         lots(model.ParseNumber(p[5])),
			"amount":         model.ParseNumber(p[6]),
			"change_pct":     model.ParseNumber(p[8]),
			"change":         change,
			"turnover_ratio": model.ParseNumber(p[10]),
			"pre_close":      sub(closeVal, change),
		})
	}
	return t
}

// 行情列表字段：f12 代码 f14 名称 f2 现价 f4 涨跌额 f3 涨跌幅 f5 成交量 f6 成交额
const currentFields = "f12,f14,f2,f4,f3,f5,f6"

// ListMarketCurrent 批量获取当前行情。
func (c *Client) ListMarketCurrent(ctx context.Context, codes []string) (*model.Table, error) {
	secids := make([]string, 0, len(codes))
	for _, code := range codes {
		secids = append(secids, FormatCode(code))
	}
	q := url.Values{}
	q.Set("fltt", "2")
	q.Set("secids", strings.Join(secids, ","))
	q.Set("fields", currentFields)
	body, err := c.get(ctx, c.quoteURL, pathQuoteList, q)
	if err != nil {
		return nil, err
	}
	return parseCurrent(body), nil
}

func parseCurrent(body []byte) *model.Table {
	t := model.NewTable(CurrentColumns...)
	diff, ok := dataArray(body, "data.diff")
	if !ok {
		return t
	}
	diff.ForEach(func(_, v gjson.Result) bool {
		code := str(v.Get("f12"))
		if code.IsNull() {
			return true
		}
		t.AppendMap(map[string]model.Value{
			"stock_code": code,
			"short_name": str(v.Get("f14")),
			"price":      num(v.Get("f2")),
			"change":     num(v.Get("f4")),
			"change_pct": num(v.Get("f3")),
			"volume":     lots(num(v.Get("f5"))),
			"amount":     num(v.Get("f6")),
		})
		return true
	})
	return t
}

// 分时 fields2：f51 时间 f52 开 f53 收(现价) f54 高 f55 低 f56 成交量 f57 成交额 f58 均价
const (
	trendsFields1 = "f1,f2,f3,f4,f5,f6,f7,f8,f9,f10,f11,f12,f13"
	trendsFields2 = "f51,f52,f53,f54,f55,f56,f57,f58"
	trendsMinCols = 8
)

// GetMarketMin 当日分时行情。
func (c *Client) GetMarketMin(ctx context.Context, code string) (*model.Table, error) {
	q := url.Values{}
	q.Set("secid", FormatCode(code))
	q.Set("fields1", trendsFields1)
	q.Set("fields2", trendsFields2)
	q.Set("iscr", "0")
	q.Set("ndays", "1")
	body, err := c.get(ctx, c.quoteURL, pathTrends, q)
	if err != nil {
		return nil, err
	}
	return parseMinute(body, code), nil
}

func parseMinute(body []byte, code string) *model.Table {
	t := model.NewTable(MinuteColumns...)
	trends, ok := dataArray(body, "data.trends")
	if !ok {
		return t
	}
	preClose := num(gjson.GetBytes(body, "data.preClose"))
	for _, v := range trends.Array() {
		p := splitCSV(v.String(), trendsMinCols)
		if p == nil {
			continue
		}
		price := model.ParseNumber(p[2])
		t.AppendMap(map[string]model.Value{
			"stock_code": model.String(code),
			"trade_time": fullTime(p[0]),
			"price":      price,
			"change":     sub(price, preClose),
			"change_pct": pct(price, preClose),
			"volume":     lots(model.ParseNumber(p[5])),
			"avg_price":  model.ParseNumber(p[7]),
			"amount":     model.ParseNumber(p[6]),
		})
	}
	return t
}

// 五档字段：卖五~卖一 f31..f40（价、量交替），买一~买五 f19/f20、f17/f18、f15/f16、f13/f14、f11/f12
var fiveLevelFields = map[string]string{
	"s5": "f31", "sv5": "f32",
	"s4": "f33", "sv4": "f34",
	"s3": "f35", "sv3": "f36",
	"s2": "f37", "sv2": "f38",
	"s1": "f39", "sv1": "f40",
	"b1": "f19", "bv1": "f20",
	"b2": "f17", "bv2": "f18",
	"b3": "f15", "bv3": "f16",
	"b4": "f13", "bv4": "f14",
	"b5": "f11", "bv5": "f12",
}

const fiveLevelQueryFields = "f57,f58,f11,f12,f13,f14,f15,f16,f17,f18,f19,f20,f31,f32,f33,f34,f35,f36,f37,f38,f39,f40"

// GetMarketFive 五档盘口，量单位为手换算成股。
func (c *Client) GetMarketFive(ctx context.Context, code string) (*model.Table, error) {
	q := url.Values{}
	q.Set("secid", FormatCode(code))
	q.Set("fltt", "2")
	q.Set("fields", fiveLevelQueryFields)
	body, err := c.get(ctx, c.quoteURL, pathStock, q)
	if err != nil {
		return nil, err
	}
	return parseFiveLevel(body, code), nil
}

func parseFiveLevel(body []byte, code string) *model.Table {
	t := model.NewTable(FiveLevelColumns...)
	data, ok := dataArray(body, "data")
	if !ok {
		return t
	}
	row := map[string]model.Value{
		"stock_code": model.String(code),
		"short_name": str(data.Get("f58")),
	}
	for col, f := range fiveLevelFields {
		v := num(data.Get(f))
		if strings.HasPrefix(col, "sv") || strings.HasPrefix(col, "bv") {
			v = lots(v)
		}
		row[col] = v
	}
	t.AppendMap(row)
	return t
}

// 资金流向 fields2：f51 日期 f52 主力 f53 小单 f54 中单 f55 大单 f56 超大单 净流入
const (
	flowFields1 = "f1,f2,f3,f7"
	flowFields2 = "f51,f52,f53,f54,f55,f56"
	flowMinCols = 6
)

// GetCapitalFlow 历史每日资金流向。
func (c *Client) GetCapitalFlow(ctx context.Context, code string) (*model.Table, error) {
	q := url.Values{}
	q.Set("secid", FormatCode(code))
	q.Set("lmt", "0")
	q.Set("klt", kltOf[KDay])
	q.Set("fields1", flowFields1)
	q.Set("fields2", flowFields2)
	body, err := c.get(ctx, c.historyURL, pathFlowKLine, q)
	if err != nil {
		return nil, err
	}
	return parseCapitalFlow(body, code), nil
}

func parseCapitalFlow(body []byte, code string) *model.Table {
	t := model.NewTable(CapitalFlowColumns...)
	klines, ok := dataArray(body, "data.klines")
	if !ok {
		return t
	}
	for _, v := range klines.Array() {
		p := splitCSV(v.String(), flowMinCols)
		if p == nil {
			continue
		}
		t.AppendMap(map[string]model.Value{
			"stock_code":      model.String(code),
			"trade_date":      datePart(p[0]),
			"main_net_inflow": model.ParseNumber(p[1]),
			"sm_net_inflow":   model.ParseNumber(p[2]),
			"mid_net_inflow":  model.ParseNumber(p[3]),
			"lg_net_inflow":   model.ParseNumber(p[4]),
			"max_net_inflow":  model.ParseNumber(p[5]),
		})
	}
	return t
}
