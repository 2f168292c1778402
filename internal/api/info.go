package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"stockdata/internal/model"
)

var (
	DividendColumns = []string{"stock_code", "report_date", "dividend_plan", "ex_dividend_date"}
	SharesColumns   = []string{"stock_code", "change_date", "total_shares", "limit_shares", "list_a_shares", "change_reason"}
	IndustryColumns = []string{"stock_code", "industry_code", "industry_name", "industry_type", "source"}
	ConceptColumns  = []string{"stock_code", "concept_code", "name", "source"}
)

// 数据中心报表名
const (
	reportDividend = "RPT_SHAREBONUS_DET"
	reportShares   = "RPT_F10_EH_EQUITY"
	dcPageSize     = "500"
)

// dataCenter 查询数据中心报表，结果在 result.data；无数据时 result 为 null。
func (c *Client) dataCenter(ctx context.Context, report, filter, sortColumn string) ([]gjson.Result, error) {
	q := url.Values{}
	q.Set("reportName", report)
	q.Set("columns", "ALL")
	q.Set("filter", filter)
	q.Set("sortColumns", sortColumn)
	q.Set("sortTypes", "-1")
	q.Set("pageNumber", "1")
	q.Set("pageSize", dcPageSize)
	q.Set("source", "WEB")
	q.Set("client", "WEB")
	body, err := c.get(ctx, c.dataCenterURL, pathDataCenter, q)
	if err != nil {
		return nil, err
	}
	data, ok := dataArray(body, "result.data")
	if !ok {
		return nil, nil
	}
	return data.Array(), nil
}

// GetDividend 历年分红方案，按报告期倒序。
func (c *Client) GetDividend(ctx context.Context, code string) (*model.Table, error) {
	rows, err := c.dataCenter(ctx, reportDividend, fmt.Sprintf(`(SECURITY_CODE="%s")`, code), "REPORT_DATE")
	if err != nil {
		return nil, err
	}
	t := model.NewTable(DividendColumns...)
	for _, v := range rows {
		t.AppendMap(map[string]model.Value{
			"stock_code":       model.String(code),
			"report_date":      datePart(v.Get("REPORT_DATE").String()),
			"dividend_plan":    str(v.Get("IMPL_PLAN_PROFILE")),
			"ex_dividend_date": datePart(v.Get("EX_DIVIDEND_DATE").String()),
		})
	}
	return t, nil
}

// GetStockShares 股本变动记录。
func (c *Client) GetStockShares(ctx context.Context, code string) (*model.Table, error) {
	rows, err := c.dataCenter(ctx, reportShares, fmt.Sprintf(`(SECUCODE="%s")`, SecuCode(code)), "END_DATE")
	if err != nil {
		return nil, err
	}
	t := model.NewTable(SharesColumns...)
	for _, v := range rows {
		t.AppendMap(map[string]model.Value{
			"stock_code":    model.String(code),
			"change_date":   datePart(v.Get("END_DATE").String()),
			"total_shares":  num(v.Get("TOTAL_SHARES")),
			"limit_shares":  num(v.Get("LIMITED_SHARES")),
			"list_a_shares": num(v.Get("LISTED_A_SHARES")),
			"change_reason": str(v.Get("CHANGE_REASON")),
		})
	}
	return t, nil
}

// 个股字段：f127 所属行业 f198 行业板块代码
const (
	industryQueryFields = "f57,f127,f198"
	industryType        = "东财行业"
)

// GetIndustry 所属行业，单行。
func (c *Client) GetIndustry(ctx context.Context, code string) (*model.Table, error) {
	q := url.Values{}
	q.Set("secid", FormatCode(code))
	q.Set("fltt", "2")
	q.Set("fields", industryQueryFields)
	body, err := c.get(ctx, c.quoteURL, pathStock, q)
	if err != nil {
		return nil, err
	}
	t := model.NewTable(IndustryColumns...)
	data, ok := dataArray(body, "data")
	if !ok {
		return t, nil
	}
	name := str(data.Get("f127"))
	if name.IsNull() {
		return t, nil
	}
	t.AppendMap(map[string]model.Value{
		"stock_code":    model.String(code),
		"industry_code": str(data.Get("f198")),
		"industry_name": name,
		"industry_type": model.String(industryType),
		"source":        model.String(sourceName),
	})
	return t, nil
}

// GetConcept 所属板块（概念、地域、行业），data.diff 可能是数组或 {"0":{},"1":{}} 对象。
func (c *Client) GetConcept(ctx context.Context, code string) (*model.Table, error) {
	q := url.Values{}
	q.Set("secid", FormatCode(code))
	q.Set("spt", "3")
	q.Set("fields", "f12,f14")
	q.Set("pi", "0")
	q.Set("pz", "200")
	q.Set("po", "1")
	body, err := c.get(ctx, c.quoteURL, pathBoardList, q)
	if err != nil {
		return nil, err
	}
	t := model.NewTable(ConceptColumns...)
	diff, ok := dataArray(body, "data.diff")
	if !ok {
		return t, nil
	}
	diff.ForEach(func(_, v gjson.Result) bool {
		conceptCode := str(v.Get("f12"))
		if conceptCode.IsNull() {
			return true
		}
		t.AppendMap(map[string]model.Value{
			"stock_code":   model.String(code),
			"concept_code": conceptCode,
			"name":         str(v.Get("f14")),
			"source":       model.String(sourceName),
		})
		return true
	})
	return t, nil
}
