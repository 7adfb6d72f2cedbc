// Package config 提供了统一的配置加载与校验能力.
// 优先级: 命令行参数 > 环境变量 (TREELIFT_ 前缀) > TOML 配置文件 > 默认值。
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wyfcoding/treelift/logging"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 TREELIFT_QUERY_WORKERS。
const EnvPrefix = "TREELIFT"

// Config 全局顶级配置结构.
type Config struct {
	Version string        `mapstructure:"version" toml:"version"`
	Log     LogConfig     `mapstructure:"log"     toml:"log"`
	Query   QueryConfig   `mapstructure:"query"   toml:"query"`
	Metrics MetricsConfig `mapstructure:"metrics" toml:"metrics"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"oneof=debug info warn error"` // 日志级别。
	File       string `mapstructure:"file"        toml:"file"`                                              // 日志文件路径。
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"    validate:"gte=0"`                       // 单个文件最大大小 (MB)。
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" validate:"gte=0"`                       // 最大备份数。
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"     validate:"gte=0"`                       // 最大保留天数。
	Compress   bool   `mapstructure:"compress"    toml:"compress"`                                          // 是否启用压缩。
	Quiet      bool   `mapstructure:"quiet"       toml:"quiet"`                                             // 关闭控制台日志。
}

// QueryConfig 定义批量查询的行为.
type QueryConfig struct {
	Root        int  `mapstructure:"root"         toml:"root"         validate:"gte=0"`
	Workers     int  `mapstructure:"workers"      toml:"workers"      validate:"gte=1,lte=256"`
	StrictEdges bool `mapstructure:"strict_edges" toml:"strict_edges"`
}

// MetricsConfig 定义指标导出.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"  toml:"enabled"`
	Textfile string `mapstructure:"textfile" toml:"textfile" validate:"required_if=Enabled true"`
}

// FlagBindings 命令行参数名到配置键的映射.
var FlagBindings = map[string]string{
	"root":         "query.root",
	"workers":      "query.workers",
	"strict":       "query.strict_edges",
	"log-level":    "log.level",
	"log-file":     "log.file",
	"metrics-file": "metrics.textfile",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.quiet", false)
	v.SetDefault("query.root", 0)
	v.SetDefault("query.workers", 1)
	v.SetDefault("query.strict_edges", false)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.textfile", "")
}

// Load 加载配置. path 为空时跳过配置文件；flags 为 nil 时不绑定命令行参数.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagBindings {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s error: %w", name, err)
			}
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}

	// 指定了导出文件即视为开启指标.
	if conf.Metrics.Textfile != "" {
		conf.Metrics.Enabled = true
	}

	if err := Validate(&conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate 执行结构体校验.
func Validate(conf *Config) error {
	if err := validator.New().Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// LoggingConfig 转换为 logging 包的配置.
func (c *Config) LoggingConfig(service, module string) logging.Config {
	return logging.Config{
		Service:    service,
		Module:     module,
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
		Quiet:      c.Log.Quiet,
	}
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(logger *slog.Logger, conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		logger.Error("failed to marshal config for printing", "error", err)

		return
	}

	var configMap map[string]any
	if unmarshalErr := json.Unmarshal(data, &configMap); unmarshalErr != nil {
		logger.Error("failed to unmarshal config for masking", "error", unmarshalErr)

		return
	}

	mask(configMap)

	maskedJSON, marshalErr := json.Marshal(configMap)
	if marshalErr != nil {
		logger.Error("failed to marshal masked config", "error", marshalErr)

		return
	}

	logger.Debug("current effective configuration", "config", string(maskedJSON))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)

			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"

				break
			}
		}
	}
}
