// Package config 加载运行参数（命令行）与数据源配置（文件 + .env + 环境变量）。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// 配置路径与环境变量前缀
const (
	defaultConfigPath = "stockdata.yaml"
	envConfigPath     = "STOCKDATA_CONFIG"
	envPrefix         = "STOCKDATA"
)

// 东方财富接口默认地址与节流
const (
	DefaultQuoteURL      = "https://push2.eastmoney.com"
	DefaultHistoryURL    = "https://push2his.eastmoney.com"
	DefaultDataCenterURL = "https://datacenter-web.eastmoney.com"
	defaultTimeout       = 10 * time.Second
	defaultRequestGap    = 200 * time.Millisecond
)

// Provider 数据源配置，环境变量只认带前缀的名字，形如 STOCKDATA_QUOTE_URL、STOCKDATA_REQUEST_GAP=300ms。
type Provider struct {
	QuoteURL      string        `yaml:"quote_url" split_words:"true" validate:"required,url"`
	HistoryURL    string        `yaml:"history_url" split_words:"true" validate:"required,url"`
	DatacenterURL string        `yaml:"datacenter_url" split_words:"true" validate:"required,url"`
	Timeout       time.Duration `yaml:"timeout" split_words:"true" validate:"gt=0"`
	RequestGap    time.Duration `yaml:"request_gap" split_words:"true" validate:"gte=0"`
}

func DefaultProvider() Provider {
	return Provider{
		QuoteURL:      DefaultQuoteURL,
		HistoryURL:    DefaultHistoryURL,
		DatacenterURL: DefaultDataCenterURL,
		Timeout:       defaultTimeout,
		RequestGap:    defaultRequestGap,
	}
}

// LoadProvider 默认值 -> envConfigPath 指定的 yaml 文件（默认 stockdata.yaml，可不存在）
// -> .env 与环境变量覆盖。
func LoadProvider() (*Provider, error) {
	cfg := DefaultProvider()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	configPath := os.Getenv(envConfigPath)
	if configPath == "" {
		configPath = defaultConfigPath
	}
	b, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", configPath, err)
	}

	// 未设置的变量不会覆盖文件中的值
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("provider config: %w", err)
	}
	return &cfg, nil
}
