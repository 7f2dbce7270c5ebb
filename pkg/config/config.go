package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/betbot/bithumbkit/bithumb/client"
	"github.com/betbot/bithumbkit/bithumb/stream"
	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/pkg/logger"
	"github.com/betbot/bithumbkit/pkg/ratelimit"
)

// 环境变量
const (
	EnvAccessKey     = "BITHUMB_ACCESS_KEY"
	EnvSecretKey     = "BITHUMB_SECRET_KEY"
	EnvAPIURL        = "BITHUMB_API_URL"
	EnvStreamURL     = "BITHUMB_WS_URL"
	EnvTimeout       = "BITHUMB_TIMEOUT" // 秒
	EnvMaxRetries    = "BITHUMB_MAX_RETRIES"
	EnvMinOrderValue = "BITHUMB_MIN_ORDER_VALUE"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFile       = "LOG_FILE"
)

// APIConfig 接口配置
type APIConfig struct {
	BaseURL        string
	StreamURL      string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimit      ratelimit.Limits
}

// TradingConfig 下单配置
type TradingConfig struct {
	MinOrderValue          decimal.Decimal // 本地最小下单金额（KRW）
	UseExchangeConstraints bool            // 读取 /v1/orders/chance 的市场限制
	ConstraintsTTL         time.Duration
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Config 应用配置
//
// 凭证只来自环境变量（含 .env）或命令行参数，从不写入或读取配置文件。
type Config struct {
	Credentials types.Credentials `yaml:"-" json:"-"`
	API         APIConfig
	Trading     TradingConfig
	Log         LogConfig
}

// ConfigFile 配置文件结构（用于 YAML/JSON 解析），未出现的字段为 nil
type ConfigFile struct {
	API struct {
		BaseURL          *string           `yaml:"base_url" json:"base_url"`
		StreamURL        *string           `yaml:"stream_url" json:"stream_url"`
		TimeoutSeconds   *float64          `yaml:"timeout_seconds" json:"timeout_seconds"`
		MaxRetries       *int              `yaml:"max_retries" json:"max_retries"`
		RetryBaseDelayMs *int              `yaml:"retry_base_delay_ms" json:"retry_base_delay_ms"`
		RetryMaxDelayMs  *int              `yaml:"retry_max_delay_ms" json:"retry_max_delay_ms"`
		RateLimit        *ratelimit.Limits `yaml:"rate_limit" json:"rate_limit"`
	} `yaml:"api" json:"api"`
	Trading struct {
		MinOrderValue          *string `yaml:"min_order_value" json:"min_order_value"`
		UseExchangeConstraints *bool   `yaml:"use_exchange_constraints" json:"use_exchange_constraints"`
		ConstraintsTTLSeconds  *int    `yaml:"constraints_ttl_seconds" json:"constraints_ttl_seconds"`
	} `yaml:"trading" json:"trading"`
	Log struct {
		Level      *string `yaml:"level" json:"level"`
		File       *string `yaml:"file" json:"file"`
		MaxSize    *int    `yaml:"max_size" json:"max_size"`
		MaxBackups *int    `yaml:"max_backups" json:"max_backups"`
		MaxAge     *int    `yaml:"max_age" json:"max_age"`
		Compress   *bool   `yaml:"compress" json:"compress"`
	} `yaml:"log" json:"log"`
}

// Default 默认配置
func Default() *Config {
	def := client.DefaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL:        def.BaseURL,
			StreamURL:      stream.DefaultURL,
			Timeout:        def.Timeout,
			MaxRetries:     def.MaxRetries,
			RetryBaseDelay: def.RetryBaseDelay,
			RetryMaxDelay:  def.RetryMaxDelay,
			RateLimit:      ratelimit.DefaultLimits(),
		},
		Trading: TradingConfig{
			MinOrderValue:  decimal.NewFromInt(5000),
			ConstraintsTTL: 10 * time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// LoadDotEnv 加载 .env 到环境变量（不覆盖已有值），文件不存在时忽略
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logger.Warnf("加载 %s 失败: %v", p, err)
		}
	}
}

// Load 加载配置，优先级：环境变量 > 配置文件 > 默认值
// filePath 为空时只使用环境变量与默认值。
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		configFile, err := loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
		if err := cfg.applyFile(configFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var configFile ConfigFile
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}

	return &configFile, nil
}

func (c *Config) applyFile(f *ConfigFile) error {
	if f.API.BaseURL != nil {
		c.API.BaseURL = *f.API.BaseURL
	}
	if f.API.StreamURL != nil {
		c.API.StreamURL = *f.API.StreamURL
	}
	if f.API.TimeoutSeconds != nil {
		c.API.Timeout = seconds(*f.API.TimeoutSeconds)
	}
	if f.API.MaxRetries != nil {
		c.API.MaxRetries = *f.API.MaxRetries
	}
	if f.API.RetryBaseDelayMs != nil {
		c.API.RetryBaseDelay = time.Duration(*f.API.RetryBaseDelayMs) * time.Millisecond
	}
	if f.API.RetryMaxDelayMs != nil {
		c.API.RetryMaxDelay = time.Duration(*f.API.RetryMaxDelayMs) * time.Millisecond
	}
	if f.API.RateLimit != nil {
		c.API.RateLimit = *f.API.RateLimit
	}

	if f.Trading.MinOrderValue != nil {
		v, err := decimal.NewFromString(*f.Trading.MinOrderValue)
		if err != nil {
			return fmt.Errorf("trading.min_order_value 无效: %w", err)
		}
		c.Trading.MinOrderValue = v
	}
	if f.Trading.UseExchangeConstraints != nil {
		c.Trading.UseExchangeConstraints = *f.Trading.UseExchangeConstraints
	}
	if f.Trading.ConstraintsTTLSeconds != nil {
		c.Trading.ConstraintsTTL = time.Duration(*f.Trading.ConstraintsTTLSeconds) * time.Second
	}

	if f.Log.Level != nil {
		c.Log.Level = *f.Log.Level
	}
	if f.Log.File != nil {
		c.Log.File = *f.Log.File
	}
	if f.Log.MaxSize != nil {
		c.Log.MaxSize = *f.Log.MaxSize
	}
	if f.Log.MaxBackups != nil {
		c.Log.MaxBackups = *f.Log.MaxBackups
	}
	if f.Log.MaxAge != nil {
		c.Log.MaxAge = *f.Log.MaxAge
	}
	if f.Log.Compress != nil {
		c.Log.Compress = *f.Log.Compress
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Credentials = types.Credentials{
		AccessKey: strings.TrimSpace(os.Getenv(EnvAccessKey)),
		SecretKey: strings.TrimSpace(os.Getenv(EnvSecretKey)),
	}
	c.API.BaseURL = getEnv(EnvAPIURL, c.API.BaseURL)
	c.API.StreamURL = getEnv(EnvStreamURL, c.API.StreamURL)
	c.API.Timeout = seconds(parseFloatEnv(EnvTimeout, c.API.Timeout.Seconds()))
	c.API.MaxRetries = parseIntEnv(EnvMaxRetries, c.API.MaxRetries)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
	c.Log.File = getEnv(EnvLogFile, c.Log.File)

	if v := os.Getenv(EnvMinOrderValue); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("%s 无效: %w", EnvMinOrderValue, err)
		}
		c.Trading.MinOrderValue = d
	}
	return nil
}

// Validate 验证配置；凭证缺失不是错误（只能调用公共接口），只填一半是错误
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return types.NewError(types.KindConfiguration, "invalid api base url %q", c.API.BaseURL)
	}
	if u, err := url.Parse(c.API.StreamURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return types.NewError(types.KindConfiguration, "invalid stream url %q", c.API.StreamURL)
	}
	if c.API.Timeout <= 0 {
		return types.NewError(types.KindConfiguration, "api timeout must be positive")
	}
	if c.API.MaxRetries < 0 {
		return types.NewError(types.KindConfiguration, "max retries must not be negative")
	}
	if c.API.RateLimit.Public < 0 || c.API.RateLimit.Private < 0 || c.API.RateLimit.Order < 0 {
		return types.NewError(types.KindConfiguration, "rate limits must not be negative")
	}
	if !c.Trading.MinOrderValue.IsPositive() {
		return types.NewError(types.KindConfiguration, "min order value must be positive")
	}
	if (c.Credentials.AccessKey == "") != (c.Credentials.SecretKey == "") {
		return types.NewError(types.KindConfiguration, "%s and %s must be set together", EnvAccessKey, EnvSecretKey)
	}
	return nil
}

// RequireCredentials 私有接口调用前检查
func (c *Config) RequireCredentials() error {
	if !c.Credentials.Valid() {
		return types.NewError(types.KindConfiguration, "API credentials are not configured: set %s and %s", EnvAccessKey, EnvSecretKey)
	}
	return nil
}

// StreamConfig 推送客户端配置
func (c *Config) StreamConfig() stream.Config {
	sc := stream.DefaultConfig()
	sc.URL = c.API.StreamURL
	return sc
}

// ClientConfig 转换为客户端配置
func (c *Config) ClientConfig() client.Config {
	cc := client.DefaultConfig()
	cc.BaseURL = c.API.BaseURL
	cc.Timeout = c.API.Timeout
	cc.MaxRetries = c.API.MaxRetries
	cc.RetryBaseDelay = c.API.RetryBaseDelay
	cc.RetryMaxDelay = c.API.RetryMaxDelay
	cc.Limits = c.API.RateLimit
	return cc
}

// LoggerConfig 转换为日志配置
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		OutputFile: c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量
func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logger.Warnf("%s=%q 不是整数，使用 %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// parseFloatEnv 解析浮点数环境变量
func parseFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logger.Warnf("%s=%q 不是数字，使用 %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
