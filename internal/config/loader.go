package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	for i := range cfg.Resources {
		applyResourceDefaults(&cfg.Resources[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := resolveTokenPath(&cfg.Global); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default 返回一份仅含默认值的配置，供未提供配置文件的 CLI 场景使用。
func Default() (*Config, error) {
	cfg := &Config{}
	applyGlobalDefaults(&cfg.Global)
	if err := resolveTokenPath(&cfg.Global); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BaseURL", "http://127.0.0.1:8085")
	v.SetDefault("RequestTimeout", "30s")
	v.SetDefault("StaleTime", "30s")
	v.SetDefault("TokenPath", "")
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("ServePort", 8085)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.BaseURL == "" {
		g.BaseURL = "http://127.0.0.1:8085"
	}
	if g.RequestTimeout.DurationValue() == 0 {
		g.RequestTimeout = Duration(30 * time.Second)
	}
	if g.StaleTime.DurationValue() == 0 {
		g.StaleTime = Duration(30 * time.Second)
	}
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	if g.LogMaxSize == 0 {
		g.LogMaxSize = 100
	}
	if g.LogMaxBackups == 0 {
		g.LogMaxBackups = 10
	}
	if g.ServePort == 0 {
		g.ServePort = 8085
	}
}

func applyResourceDefaults(rc *ResourceConfig) {
	if rc.StaleTime.DurationValue() < 0 {
		rc.StaleTime = Duration(0)
	}
	if rc.PageSize < 0 {
		rc.PageSize = 0
	}
}

// resolveTokenPath 将空 TokenPath 解析为用户目录下的默认位置，并保证最终为绝对路径。
func resolveTokenPath(g *GlobalConfig) error {
	if g.TokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("无法确定用户目录: %w", err)
		}
		g.TokenPath = filepath.Join(home, ".config", "blogctl", "token")
		return nil
	}

	abs, err := filepath.Abs(g.TokenPath)
	if err != nil {
		return fmt.Errorf("无法解析令牌路径: %w", err)
	}
	g.TokenPath = abs
	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
