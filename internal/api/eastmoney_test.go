package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdata/internal/config"
	"stockdata/internal/model"
)

// fakeEastMoney 按路径返回预置 body，并记录最近一次请求参数。
type fakeEastMoney struct {
	t       *testing.T
	bodies  map[string]string
	status  int
	lastURL map[string]url.Values
	headers http.Header
}

func newFakeServer(t *testing.T, bodies map[string]string) (*fakeEastMoney, *Client) {
	t.Helper()
	f := &fakeEastMoney{t: t, bodies: bodies, status: http.StatusOK, lastURL: map[string]url.Values{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastURL[r.URL.Path] = r.URL.Query()
		f.headers = r.Header.Clone()
		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			return
		}
		body, ok := f.bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := config.DefaultProvider()
	cfg.QuoteURL = srv.URL
	cfg.HistoryURL = srv.URL + "/"
	cfg.DatacenterURL = srv.URL
	cfg.RequestGap = 0
	cfg.Timeout = 5 * time.Second
	return f, NewClient(cfg)
}

func cell(t *testing.T, tb *model.Table, i int, col string) string {
	t.Helper()
	v, ok := tb.Get(i, col)
	require.True(t, ok, "column %s", col)
	return v.String()
}

func TestFormatCode(t *testing.T) {
	assert.Equal(t, "1.600519", FormatCode("600519"))
	assert.Equal(t, "0.000001", FormatCode(" 000001 "))
	assert.Equal(t, "0.300750", FormatCode("300750"))
	assert.Equal(t, "0.830799", FormatCode("830799"))
	assert.Equal(t, "000001.SZ", SecuCode("000001"))
	assert.Equal(t, "600519.SH", SecuCode("600519"))
	assert.Equal(t, "830799.BJ", SecuCode("830799"))
}

const klineBody = `{"rc":0,"data":{"code":"000001","market":0,"name":"平安银行","klines":[
"2021-01-04,19.10,18.60,19.10,18.26,1554216,2891682010.00,4.43,-2.72,-0.52,0.80",
"2021-01-05,18.40,18.17,18.48,17.80,1821352,3284606208.00,3.66,-2.31,-0.43,0.94",
"broken,line"]}}`

func TestGetMarket(t *testing.T) {
	f, c := newFakeServer(t, map[string]string{pathKLine: klineBody})

	tb, err := c.GetMarket(context.Background(), "000001", "2021-01-01", "2021-01-31", KWeek, AdjustBackward)
	require.NoError(t, err)

	q := f.lastURL[pathKLine]
	assert.Equal(t, "0.000001", q.Get("secid"))
	assert.Equal(t, "102", q.Get("klt"))
	assert.Equal(t, "2", q.Get("fqt"))
	assert.Equal(t, "20210101", q.Get("beg"))
	assert.Equal(t, "20210131", q.Get("end"))
	assert.Equal(t, userAgent, f.headers.Get("User-Agent"))
	assert.Equal(t, referer, f.headers.Get("Referer"))

	assert.Equal(t, HistoryColumns, tb.Columns())
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, "000001", cell(t, tb, 0, "stock_code"))
	assert.Equal(t, "2021-01-04 00:00:00", cell(t, tb, 0, "trade_time"))
	assert.Equal(t, "2021-01-04", cell(t, tb, 0, "trade_date"))
	assert.Equal(t, "18.6", cell(t, tb, 0, "close"))
	assert.Equal(t, "155421600", cell(t, tb, 0, "volume"))
	assert.Equal(t, "-0.52", cell(t, tb, 0, "change"))
	assert.Equal(t, "19.12", cell(t, tb, 0, "pre_close"))
	assert.Equal(t, "0.94", cell(t, tb, 1, "turnover_ratio"))
}

func TestGetMarket_MinuteTimes(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathKLine: `{"data":{"klines":[
"2021-01-04 09:35,19.10,18.60,19.10,18.26,1554,2891682.00,4.43,-2.72,-0.52,0.80"]}}`})
	tb, err := c.GetMarket(context.Background(), "000001", "2021-01-01", "", K5Min, AdjustNone)
	require.NoError(t, err)
	require.Equal(t, 1, tb.Len())
	assert.Equal(t, "2021-01-04 09:35:00", cell(t, tb, 0, "trade_time"))
	assert.Equal(t, "2021-01-04", cell(t, tb, 0, "trade_date"))
}

func TestGetMarket_NoData(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathKLine: `{"rc":0,"data":null}`})
	tb, err := c.GetMarket(context.Background(), "999999", "2021-01-01", "2021-01-31", KDay, AdjustForward)
	require.NoError(t, err)
	assert.True(t, tb.Empty())
	assert.Equal(t, HistoryColumns, tb.Columns())
}

func TestGetMarket_InvalidSelectors(t *testing.T) {
	_, c := newFakeServer(t, nil)
	_, err := c.GetMarket(context.Background(), "000001", "", "", KType(7), AdjustForward)
	assert.Error(t, err)
	_, err = c.GetMarket(context.Background(), "000001", "", "", KDay, Adjust(3))
	assert.Error(t, err)
}

func TestGet_StatusError(t *testing.T) {
	f, c := newFakeServer(t, map[string]string{pathKLine: klineBody})
	f.status = http.StatusTooManyRequests
	_, err := c.GetMarket(context.Background(), "000001", "", "", KDay, AdjustForward)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

func TestGet_ContextCanceled(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathKLine: klineBody})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetMarket(ctx, "000001", "", "", KDay, AdjustForward)
	assert.Error(t, err)
}

func TestListMarketCurrent(t *testing.T) {
	f, c := newFakeServer(t, map[string]string{pathQuoteList: `{"data":{"total":1,"diff":[
{"f2":10.52,"f3":-1.22,"f4":-0.13,"f5":812345,"f6":857321456.0,"f12":"000001","f14":"平安银行"}]}}`})
	tb, err := c.ListMarketCurrent(context.Background(), []string{"000001"})
	require.NoError(t, err)
	assert.Equal(t, "0.000001", f.lastURL[pathQuoteList].Get("secids"))
	assert.Equal(t, "2", f.lastURL[pathQuoteList].Get("fltt"))
	require.Equal(t, 1, tb.Len())
	assert.Equal(t, "平安银行", cell(t, tb, 0, "short_name"))
	assert.Equal(t, "10.52", cell(t, tb, 0, "price"))
	assert.Equal(t, "-0.13", cell(t, tb, 0, "change"))
	assert.Equal(t, "81234500", cell(t, tb, 0, "volume"))
}

func TestListMarketCurrent_Suspended(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathQuoteList: `{"data":{"total":1,"diff":[
{"f2":"-","f3":"-","f4":"-","f5":"-","f6":"-","f12":"000001","f14":"平安银行"}]}}`})
	tb, err := c.ListMarketCurrent(context.Background(), []string{"000001"})
	require.NoError(t, err)
	require.Equal(t, 1, tb.Len())
	v, _ := tb.Get(0, "price")
	assert.True(t, v.IsNull())
}

func TestGetMarketMin(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathTrends: `{"data":{"preClose":10.00,"trends":[
"2024-06-03 09:31,10.00,10.10,10.12,10.00,1200,1212000.00,10.05",
"2024-06-03 09:32,10.10,9.90,10.10,9.88,800,792000.00,10.01"]}}`})
	tb, err := c.GetMarketMin(context.Background(), "000001")
	require.NoError(t, err)
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, "2024-06-03 09:31:00", cell(t, tb, 0, "trade_time"))
	assert.Equal(t, "10.1", cell(t, tb, 0, "price"))
	assert.Equal(t, "0.1", cell(t, tb, 0, "change"))
	assert.Equal(t, "1", cell(t, tb, 0, "change_pct"))
	assert.Equal(t, "-1", cell(t, tb, 1, "change_pct"))
	assert.Equal(t, "120000", cell(t, tb, 0, "volume"))
	assert.Equal(t, "10.05", cell(t, tb, 0, "avg_price"))
}

func TestGetMarketFive(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathStock: `{"data":{"f57":"000001","f58":"平安银行",
"f11":10.46,"f12":50,"f13":10.47,"f14":40,"f15":10.48,"f16":30,"f17":10.49,"f18":20,"f19":10.50,"f20":10,
"f31":10.55,"f32":5,"f33":10.54,"f34":4,"f35":10.53,"f36":3,"f37":10.52,"f38":2,"f39":10.51,"f40":1}}`})
	tb, err := c.GetMarketFive(context.Background(), "000001")
	require.NoError(t, err)
	require.Equal(t, 1, tb.Len())
	assert.Equal(t, FiveLevelColumns, tb.Columns())
	assert.Equal(t, "10.51", cell(t, tb, 0, "s1"))
	assert.Equal(t, "100", cell(t, tb, 0, "sv1"))
	assert.Equal(t, "10.55", cell(t, tb, 0, "s5"))
	assert.Equal(t, "10.5", cell(t, tb, 0, "b1"))
	assert.Equal(t, "1000", cell(t, tb, 0, "bv1"))
	assert.Equal(t, "10.46", cell(t, tb, 0, "b5"))
	assert.Equal(t, "5000", cell(t, tb, 0, "bv5"))
}

func TestGetCapitalFlow(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathFlowKLine: `{"data":{"klines":[
"2024-05-31,-12345678.0,2345678.0,10000000.0,-5000000.0,-7345678.0"]}}`})
	tb, err := c.GetCapitalFlow(context.Background(), "000001")
	require.NoError(t, err)
	require.Equal(t, 1, tb.Len())
	assert.Equal(t, "2024-05-31", cell(t, tb, 0, "trade_date"))
	assert.Equal(t, "-12345678", cell(t, tb, 0, "main_net_inflow"))
	assert.Equal(t, "-7345678", cell(t, tb, 0, "max_net_inflow"))
}

func TestGetDividend(t *testing.T) {
	f, c := newFakeServer(t, map[string]string{pathDataCenter: `{"result":{"pages":1,"data":[
{"SECURITY_CODE":"000001","REPORT_DATE":"2020-12-31 00:00:00","IMPL_PLAN_PROFILE":"10派1.8元(含税)","EX_DIVIDEND_DATE":"2021-05-14 00:00:00"},
{"SECURITY_CODE":"000001","REPORT_DATE":"2021-06-30 00:00:00","IMPL_PLAN_PROFILE":"不分配不转增","EX_DIVIDEND_DATE":null}]},"success":true}`})
	tb, err := c.GetDividend(context.Background(), "000001")
	require.NoError(t, err)

	q := f.lastURL[pathDataCenter]
	assert.Equal(t, reportDividend, q.Get("reportName"))
	assert.Equal(t, `(SECURITY_CODE="000001")`, q.Get("filter"))

	require.Equal(t, 2, tb.Len())
	assert.Equal(t, "2020-12-31", cell(t, tb, 0, "report_date"))
	assert.Equal(t, "10派1.8元(含税)", cell(t, tb, 0, "dividend_plan"))
	assert.Equal(t, "2021-05-14", cell(t, tb, 0, "ex_dividend_date"))
	v, _ := tb.Get(1, "ex_dividend_date")
	assert.True(t, v.IsNull())
}

func TestGetDividend_Empty(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathDataCenter: `{"result":null,"success":false,"message":"返回数据为空","code":9201}`})
	tb, err := c.GetDividend(context.Background(), "000001")
	require.NoError(t, err)
	assert.True(t, tb.Empty())
}

func TestGetStockShares(t *testing.T) {
	f, c := newFakeServer(t, map[string]string{pathDataCenter: `{"result":{"data":[
{"END_DATE":"2023-06-30 00:00:00","TOTAL_SHARES":19405918198,"LIMITED_SHARES":0,"LISTED_A_SHARES":19405600653,"CHANGE_REASON":"定期报告"}]}}`})
	tb, err := c.GetStockShares(context.Background(), "000001")
	require.NoError(t, err)
	assert.Equal(t, `(SECUCODE="000001.SZ")`, f.lastURL[pathDataCenter].Get("filter"))
	require.Equal(t, 1, tb.Len())
	assert.Equal(t, "2023-06-30", cell(t, tb, 0, "change_date"))
	assert.Equal(t, "19405918198", cell(t, tb, 0, "total_shares"))
	assert.Equal(t, "定期报告", cell(t, tb, 0, "change_reason"))
}

func TestGetIndustry(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathStock: `{"data":{"f57":"000001","f127":"银行","f198":"BK0475"}}`})
	tb, err := c.GetIndustry(context.Background(), "000001")
	require.NoError(t, err)
	require.Equal(t, 1, tb.Len())
	assert.Equal(t, "BK0475", cell(t, tb, 0, "industry_code"))
	assert.Equal(t, "银行", cell(t, tb, 0, "industry_name"))
	assert.Equal(t, sourceName, cell(t, tb, 0, "source"))
}

func TestGetIndustry_Missing(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathStock: `{"data":{"f57":"000001","f127":"-"}}`})
	tb, err := c.GetIndustry(context.Background(), "000001")
	require.NoError(t, err)
	assert.True(t, tb.Empty())
}

func TestGetConcept_ObjectDiff(t *testing.T) {
	_, c := newFakeServer(t, map[string]string{pathBoardList: `{"data":{"total":2,"diff":{
"0":{"f12":"BK0475","f14":"银行"},"1":{"f12":"BK0707","f14":"沪股通"},"2":{"f14":"no code"}}}}`})
	tb, err := c.GetConcept(context.Background(), "000001")
	require.NoError(t, err)
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, "BK0707", cell(t, tb, 1, "concept_code"))
	assert.Equal(t, "沪股通", cell(t, tb, 1, "name"))
	assert.Equal(t, []string{"stock_code", "concept_code", "name", "source"}, tb.Columns())
}

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, 1, newLimiter(0).Burst())
	l := newLimiter(time.Hour)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
