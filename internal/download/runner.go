// Package download 按固定顺序拉取单只股票的全部数据类别，非空结果各自落盘为 CSV 并汇总为 Bundle。
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"stockdata/internal/export"
	"stockdata/internal/fetcher"
	"stockdata/internal/model"
	"stockdata/internal/trace"
)

const (
	defaultOutputDir = "."
	dirPerm          = 0o755
)

// 逐个拉取的类别；股本、行业、概念作为基本信息一次拉取。
var marketCategories = []model.Category{
	model.History, model.Current, model.Minute, model.FiveLevel, model.CapitalFlow, model.Dividend,
}

var infoCategories = []model.Category{model.Shares, model.Industry, model.Concept}

// SaveFunc 表落盘，默认 export.SaveCSV。
type SaveFunc func(ctx context.Context, t *model.Table, path string) error

// Config 控制落盘方式。
type Config struct {
	Save SaveFunc
}

func DefaultConfig() Config {
	return Config{Save: export.SaveCSV}
}

// Request 单次下载参数
type Request struct {
	Code      string
	History   fetcher.HistoryParams
	OutputDir string
}

type Runner struct {
	f    *fetcher.Fetcher
	save SaveFunc
}

func NewRunner(cfg Config, f *fetcher.Fetcher) *Runner {
	if f == nil {
		panic("download: fetcher must not be nil")
	}
	if cfg.Save == nil {
		cfg.Save = export.SaveCSV
	}
	return &Runner{f: f, save: cfg.Save}
}

// Run 数据源或落盘出错即停止并返回错误；空结果不算错误，只是不进入 Bundle。
func (r *Runner) Run(ctx context.Context, req Request) (model.Bundle, error) {
	dir := req.OutputDir
	if dir == "" {
		dir = defaultOutputDir
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	trace.Log(ctx, "download: 开始下载 %s 的所有数据 -> %s", req.Code, dir)

	b := make(model.Bundle, len(model.Categories))
	for _, c := range marketCategories {
		t, err := r.f.Fetch(ctx, c, req.Code, req.History)
		if err != nil {
			return nil, err
		}
		if err := r.keep(ctx, b, c, t, dir, req); err != nil {
			return nil, err
		}
	}

	info, err := r.f.Info(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	for _, c := range infoCategories {
		if err := r.keep(ctx, b, c, info[c], dir, req); err != nil {
			return nil, err
		}
	}
	trace.Log(ctx, "download: %s 完成，非空类别 %d/%d", req.Code, len(b), len(model.Categories))
	return b, nil
}

func (r *Runner) keep(ctx context.Context, b model.Bundle, c model.Category, t *model.Table, dir string, req Request) error {
	if t.Empty() {
		return nil
	}
	path := filepath.Join(dir, model.FileName(req.Code, c, int(req.History.KType), int(req.History.Adjust)))
	if err := r.save(ctx, t, path); err != nil {
		return fmt.Errorf("save %s: %w", c, err)
	}
	b.Put(c, t)
	return nil
}
