package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述客户端全局行为，所有资源共享同一份参数。
type GlobalConfig struct {
	BaseURL        string   `mapstructure:"BaseURL"`
	RequestTimeout Duration `mapstructure:"RequestTimeout"`
	StaleTime      Duration `mapstructure:"StaleTime"`
	TokenPath      string   `mapstructure:"TokenPath"`
	LogLevel       string   `mapstructure:"LogLevel"`
	LogFilePath    string   `mapstructure:"LogFilePath"`
	LogMaxSize     int      `mapstructure:"LogMaxSize"`
	LogMaxBackups  int      `mapstructure:"LogMaxBackups"`
	LogCompress    bool     `mapstructure:"LogCompress"`
	ServePort      int      `mapstructure:"ServePort"`
}

// ResourceConfig 允许按资源覆盖缓存新鲜度与默认分页大小。
type ResourceConfig struct {
	Name      string   `mapstructure:"Name"`
	StaleTime Duration `mapstructure:"StaleTime"`
	PageSize  int      `mapstructure:"PageSize"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global    GlobalConfig     `mapstructure:",squash"`
	Resources []ResourceConfig `mapstructure:"Resource"`
}

// StaleTimeFor 返回对指定资源生效的新鲜度窗口，未覆盖时回退全局值。
func (c *Config) StaleTimeFor(resource string) time.Duration {
	normalized := normalizeResourceName(resource)
	for _, rc := range c.Resources {
		if normalizeResourceName(rc.Name) == normalized && rc.StaleTime.DurationValue() > 0 {
			return rc.StaleTime.DurationValue()
		}
	}
	return c.Global.StaleTime.DurationValue()
}

// PageSizeFor 返回指定资源的默认分页大小；0 表示交由服务端缺省值决定。
func (c *Config) PageSizeFor(resource string) int {
	normalized := normalizeResourceName(resource)
	for _, rc := range c.Resources {
		if normalizeResourceName(rc.Name) == normalized && rc.PageSize > 0 {
			return rc.PageSize
		}
	}
	return 0
}

// ResourceOverrides 返回所有资源覆盖的摘要，例如 profile:5m0s，供启动日志使用。
func ResourceOverrides(resources []ResourceConfig) []string {
	if len(resources) == 0 {
		return nil
	}
	result := make([]string, len(resources))
	for i, rc := range resources {
		result[i] = fmt.Sprintf("%s:%s", rc.Name, rc.StaleTime.DurationValue())
	}
	return result
}

func normalizeResourceName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
