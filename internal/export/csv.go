// Package export 把表格写成带 UTF-8 BOM 的 CSV，便于 Excel 直接打开中文内容。
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"stockdata/internal/model"
	"stockdata/internal/trace"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// SaveCSV 空表只记日志不写文件；否则按需创建目录并覆盖写入，I/O 错误原样返回。
func SaveCSV(ctx context.Context, t *model.Table, path string) error {
	if t.Empty() {
		trace.Log(ctx, "export: 没有数据可保存 %s", path)
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	trace.Log(ctx, "export: 已保存 %d 行至 %s", t.Len(), path)
	return nil
}

// WriteCSV 写 BOM + 表头 + 数据行。nil 表只写 BOM 与空表头。
func WriteCSV(w io.Writer, t *model.Table) error {
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range t.Records() {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Close()
}
