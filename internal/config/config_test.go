package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `BaseURL = "http://api.blog.local"`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Global.BaseURL != "http://api.blog.local" {
		t.Fatalf("BaseURL 未生效: %s", cfg.Global.BaseURL)
	}
	if cfg.Global.RequestTimeout.DurationValue() != 30*time.Second {
		t.Fatalf("RequestTimeout 默认值错误: %v", cfg.Global.RequestTimeout.DurationValue())
	}
	if cfg.Global.StaleTime.DurationValue() != 30*time.Second {
		t.Fatalf("StaleTime 默认值错误: %v", cfg.Global.StaleTime.DurationValue())
	}
	if cfg.Global.TokenPath == "" {
		t.Fatalf("TokenPath 应解析为默认位置")
	}
	if !filepath.IsAbs(cfg.Global.TokenPath) {
		t.Fatalf("TokenPath 应为绝对路径: %s", cfg.Global.TokenPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("缺失配置文件应当报错")
	}
}

func TestLoadDurationFormats(t *testing.T) {
	path := writeTempConfig(t, `
BaseURL = "http://api.blog.local"
RequestTimeout = "5s"
StaleTime = 120
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Global.RequestTimeout.DurationValue() != 5*time.Second {
		t.Fatalf("duration 字符串解析失败: %v", cfg.Global.RequestTimeout.DurationValue())
	}
	if cfg.Global.StaleTime.DurationValue() != 120*time.Second {
		t.Fatalf("整数秒解析失败: %v", cfg.Global.StaleTime.DurationValue())
	}
}

func TestLoadResourceOverrides(t *testing.T) {
	path := writeTempConfig(t, `
BaseURL = "http://api.blog.local"
StaleTime = "30s"

[[Resource]]
Name = "profile"
StaleTime = "5m"

[[Resource]]
Name = "posts"
PageSize = 20
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if got := cfg.StaleTimeFor("profile"); got != 5*time.Minute {
		t.Fatalf("profile 覆盖未生效: %v", got)
	}
	if got := cfg.StaleTimeFor("items"); got != 30*time.Second {
		t.Fatalf("未覆盖资源应回退全局值: %v", got)
	}
	if got := cfg.PageSizeFor("posts"); got != 20 {
		t.Fatalf("PageSize 覆盖未生效: %d", got)
	}
	if got := cfg.PageSizeFor("items"); got != 0 {
		t.Fatalf("未配置 PageSize 应返回 0: %d", got)
	}
}

func TestValidateRejectsUnknownResource(t *testing.T) {
	path := writeTempConfig(t, `
BaseURL = "http://api.blog.local"

[[Resource]]
Name = "users"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatalf("未知资源应当报错")
	}
	fieldErr, ok := err.(FieldError)
	if !ok {
		t.Fatalf("expected FieldError, got %T", err)
	}
	if !strings.Contains(fieldErr.Field, "Resource[users]") {
		t.Fatalf("字段路径不符合预期: %s", fieldErr.Field)
	}
}

func TestValidateRejectsDuplicateResource(t *testing.T) {
	path := writeTempConfig(t, `
BaseURL = "http://api.blog.local"

[[Resource]]
Name = "posts"

[[Resource]]
Name = "posts"
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("资源重复声明应当报错")
	}
}

func TestValidateRejectsBadBaseURL(t *testing.T) {
	cases := []string{
		`BaseURL = "ftp://api.blog.local"`,
		`BaseURL = "not a url"`,
	}
	for _, body := range cases {
		if _, err := Load(writeTempConfig(t, body)); err == nil {
			t.Fatalf("非法 BaseURL 应当报错: %s", body)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("default error: %v", err)
	}
	if cfg.Global.BaseURL == "" {
		t.Fatalf("默认配置应包含 BaseURL")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("默认配置应通过校验: %v", err)
	}
}
