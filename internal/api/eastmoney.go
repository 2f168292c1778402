// Package api 封装东方财富行情、资金流向、分红、股本、行业与概念接口，含请求节流与 trace 日志。
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"stockdata/internal/config"
	"stockdata/internal/trace"
)

// 接口路径（拼在配置的 QuoteURL / HistoryURL / DatacenterURL 后）
const (
	pathKLine      = "/api/qt/stock/kline/get"
	pathQuoteList  = "/api/qt/ulist.np/get"
	pathTrends     = "/api/qt/stock/trends2/get"
	pathStock      = "/api/qt/stock/get"
	pathFlowKLine  = "/api/qt/stock/fflow/daykline/get"
	pathBoardList  = "/api/qt/slist/get"
	pathDataCenter = "/api/data/v1/get"
)

// 请求头（模拟浏览器）
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer        = "https://quote.eastmoney.com/"
	acceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
)

const maxRespLogLen = 300

// 数据来源标识，写入行业、概念表的 source 列
const sourceName = "东方财富"

// Client 东方财富接口客户端。单次请求，不重试；失败直接返回错误。
type Client struct {
	HTTPClient    *http.Client
	quoteURL      string
	historyURL    string
	dataCenterURL string
	limiter       *rate.Limiter
}

func NewClient(cfg config.Provider) *Client {
	return &Client{
		HTTPClient:    &http.Client{Timeout: cfg.Timeout},
		quoteURL:      strings.TrimRight(cfg.QuoteURL, "/"),
		historyURL:    strings.TrimRight(cfg.HistoryURL, "/"),
		dataCenterURL: strings.TrimRight(cfg.DatacenterURL, "/"),
		limiter:       newLimiter(cfg.RequestGap),
	}
}

// newLimiter 两次请求至少间隔 gap，gap<=0 不限速。
func newLimiter(gap time.Duration) *rate.Limiter {
	if gap <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(gap), 1)
}

// get 发起 GET 请求并返回 body；非 200 视为错误。
func (c *Client) get(ctx context.Context, base, path string, q url.Values) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("api client is nil")
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	u := base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", acceptLanguage)
	trace.Log(ctx, "api: req GET %s", u)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", path, err)
	}
	trace.Log(ctx, "api: resp status=%d len=%d body=%s", resp.StatusCode, len(body), truncateForLog(body))
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode}
	}
	return body, nil
}

// StatusError 接口返回非 200
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %s http %d", e.Path, e.StatusCode)
}

func truncateForLog(b []byte) string {
	s := string(b)
	if len(s) > maxRespLogLen {
		s = s[:maxRespLogLen] + "..."
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " ")
}

// Market 交易所
type Market string

const (
	MarketSH Market = "SH"
	MarketSZ Market = "SZ"
	MarketBJ Market = "BJ"
)

// MarketOf 按代码首位判断交易所：6/5/9 上海，8/4 北京，其余深圳。
func MarketOf(code string) Market {
	code = strings.TrimSpace(code)
	if code == "" {
		return MarketSZ
	}
	switch code[0] {
	case '6', '5', '9':
		return MarketSH
	case '8', '4':
		return MarketBJ
	}
	return MarketSZ
}

// FormatCode 转为东方财富 secid：上海 1.600519，深圳/北京 0.000001
func FormatCode(code string) string {
	code = strings.TrimSpace(code)
	if MarketOf(code) == MarketSH {
		return "1." + code
	}
	return "0." + code
}

// SecuCode 数据中心使用的代码：000001.SZ
func SecuCode(code string) string {
	code = strings.TrimSpace(code)
	return code + "." + string(MarketOf(code))
}
