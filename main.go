// Package main 是单只 A 股数据下载与整合工具的入口：按类别拉取历史/实时行情、分红、股本、
// 行业与概念数据，各自保存为 CSV，再整合为 JSON 记录与宽表 CSV。
//
//	stockdata --code 000001 --start 2020-01-01 --ktype 1 --adjust 1 --output ./data --format both
//
// 数据源地址与节流见 stockdata.yaml / .env / STOCKDATA_* 环境变量。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"stockdata/internal/api"
	"stockdata/internal/config"
	"stockdata/internal/download"
	"stockdata/internal/fetcher"
	"stockdata/internal/integrate"
	"stockdata/internal/model"
	"stockdata/internal/trace"
)

const appName = "stockdata"

// 退出码：参数错误沿用 flag 包约定
const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

// 单次运行总超时
const runTimeout = 10 * time.Minute

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := config.ParseOptions(appName, args, time.Now())
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n使用 -h 查看全部参数\n", appName, err)
		return exitUsage
	}

	cfg, err := config.LoadProvider()
	if err != nil {
		log.Printf("LoadProvider: %v", err)
		return exitFatal
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	ctx = trace.WithTraceID(ctx, trace.NewTraceID())

	if _, err := runOnce(ctx, opts, api.NewClient(*cfg)); err != nil {
		trace.Log(ctx, "main: err=%v", err)
		log.Printf("run: %v", err)
		return exitFatal
	}
	fmt.Fprintf(stdout, "\n所有操作已完成！数据已保存到 %s 目录。\n", opts.Output)
	return exitOK
}

// runOnce 下载全部类别后按 --format 整合。下载阶段的错误直接返回，整合阶段的失败只记录在 Outcome 中。
func runOnce(ctx context.Context, opts *config.Options, p fetcher.Provider) (integrate.Outcome, error) {
	trace.Log(ctx, "main: start code=%s %s~%s ktype=%d adjust=%d format=%s",
		opts.Code, opts.Start, opts.End, opts.KType, opts.Adjust, opts.Format)

	runner := download.NewRunner(download.DefaultConfig(), fetcher.New(p))
	bundle, err := runner.Run(ctx, download.Request{
		Code: opts.Code,
		History: fetcher.HistoryParams{
			Start:  opts.Start,
			End:    opts.End,
			KType:  api.KType(opts.KType),
			Adjust: api.Adjust(opts.Adjust),
		},
		OutputDir: opts.Output,
	})
	if err != nil {
		return integrate.Outcome{}, err
	}

	var total integrate.Outcome
	in := integrate.New()
	if opts.WantJSON() {
		_, out := in.ToJSON(ctx, opts.Code, bundle, model.IntegratedJSONPath(opts.Output, opts.Code))
		total = merge(total, out)
	}
	if opts.WantCSV() {
		_, out := in.ToCSV(ctx, opts.Code, bundle, model.IntegratedCSVPath(opts.Output, opts.Code))
		total = merge(total, out)
	}
	trace.Log(ctx, "main: end, 类别 %d 个, partial=%v", len(bundle), total.Partial)
	return total, nil
}

func merge(a, b integrate.Outcome) integrate.Outcome {
	return integrate.Outcome{
		Partial:     a.Partial || b.Partial,
		Diagnostics: append(a.Diagnostics, b.Diagnostics...),
	}
}
