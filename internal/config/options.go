package config

import (
	"errors"
	"flag"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// 命令行默认值
const (
	DefaultStart  = "2020-01-01"
	DefaultKType  = 1
	DefaultAdjust = 1
	DefaultOutput = "."
	DefaultFormat = FormatBoth
)

// 整合输出格式
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatBoth = "both"
)

// Options 单次运行参数，字段 tag 中的 flag 名用于校验错误提示。
type Options struct {
	Code   string `flag:"code" validate:"required"`
	Start  string `flag:"start" validate:"required,datetime=2006-01-02"`
	End    string `flag:"end" validate:"omitempty,datetime=2006-01-02"`
	KType  int    `flag:"ktype" validate:"oneof=1 2 3 4 5 15 30 60"`
	Adjust int    `flag:"adjust" validate:"oneof=0 1 2"`
	Output string `flag:"output" validate:"required"`
	Format string `flag:"format" validate:"oneof=json csv both"`
}

func (o *Options) WantJSON() bool { return o.Format == FormatJSON || o.Format == FormatBoth }

func (o *Options) WantCSV() bool { return o.Format == FormatCSV || o.Format == FormatBoth }

// NewFlagSet 注册全部参数，解析结果写入 o。
func NewFlagSet(name string, o *Options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&o.Code, "code", "", "股票代码，例如：000001（必填）")
	fs.StringVar(&o.Start, "start", DefaultStart, "开始日期，格式：YYYY-MM-DD")
	fs.StringVar(&o.End, "end", "", "结束日期，格式：YYYY-MM-DD，默认为当前日期")
	fs.IntVar(&o.KType, "ktype", DefaultKType, "K线类型：1.日；2.周；3.月；4.季度；5.5分钟；15.15分钟；30.30分钟；60.60分钟")
	fs.IntVar(&o.Adjust, "adjust", DefaultAdjust, "复权类型：0.不复权；1.前复权；2.后复权")
	fs.StringVar(&o.Output, "output", DefaultOutput, "输出目录，默认为当前目录")
	fs.StringVar(&o.Format, "format", DefaultFormat, "整合数据的输出格式：json、csv 或 both")
	return fs
}

// ParseOptions 解析并校验命令行参数；end 为空时取 now 当天。
func ParseOptions(name string, args []string, now time.Time) (*Options, error) {
	o := &Options{}
	fs := NewFlagSet(name, o)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.Code = strings.TrimSpace(o.Code)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o.End == "" {
		o.End = now.Format("2006-01-02")
	}
	return o, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("flag"); name != "" {
			return "--" + name
		}
		return fld.Name
	})
	return v
}

// Validate 校验参数，错误信息按 flag 名逐条列出。
func (o *Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid options: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "datetime":
		return fmt.Sprintf("%s must be YYYY-MM-DD, got %q", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
