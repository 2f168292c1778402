// Package integrate 把下载好的各类数据合并为两种产物：
// 按 basic_info / market_data / financial_data 分组的 JSON 记录，以及以历史行情为底、
// 附加行业与分红列的宽表 CSV。
//
// 写文件失败、分红日期无法解析等属于可恢复错误，记录在 Outcome 中，结果仍然返回。
package integrate

import (
	"context"
	"fmt"
	"time"

	"stockdata/internal/trace"
)

const (
	integrationTimeLayout = "2006-01-02 15:04:05"
	filePerm              = 0o644
)

// Outcome 可恢复错误的汇总。Partial 为 true 表示结果不完整或未能落盘。
type Outcome struct {
	Partial     bool
	Diagnostics []string
}

// OK 没有任何可恢复错误。
func (o Outcome) OK() bool { return !o.Partial }

func (o *Outcome) fail(ctx context.Context, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	trace.Log(ctx, "integrate: %s", msg)
	o.Partial = true
	o.Diagnostics = append(o.Diagnostics, msg)
}

// Integrator 无状态，now 可在测试中替换。
type Integrator struct {
	now func() time.Time
}

func New() *Integrator {
	return &Integrator{now: time.Now}
}

func logf(ctx context.Context, format string, args ...any) {
	trace.Log(ctx, "integrate: "+format, args...)
}
