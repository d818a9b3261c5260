package config

import (
	"errors"
	"net/url"
	"strings"
)

var supportedResources = map[string]struct{}{
	"items":     {},
	"itemcount": {},
	"posts":     {},
	"profile":   {},
	"auth":      {},
}

const supportedResourceList = "items|itemcount|posts|profile|auth"

// Validate 针对语义级别做进一步校验，防止非法配置启动客户端。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.BaseURL == "" {
		return newFieldError("BaseURL", "不能为空")
	}
	parsed, err := url.Parse(g.BaseURL)
	if err != nil || parsed.Host == "" {
		return newFieldError("BaseURL", "必须是合法的 http/https 地址")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return newFieldError("BaseURL", "仅支持 http 或 https")
	}
	if g.RequestTimeout.DurationValue() <= 0 {
		return newFieldError("RequestTimeout", "必须大于 0")
	}
	if g.StaleTime.DurationValue() < 0 {
		return newFieldError("StaleTime", "不能为负数")
	}
	if g.LogMaxSize < 0 {
		return newFieldError("LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("LogMaxBackups", "不能为负数")
	}
	if g.ServePort <= 0 || g.ServePort > 65535 {
		return newFieldError("ServePort", "必须在 1-65535")
	}

	seen := make(map[string]struct{}, len(c.Resources))
	for _, rc := range c.Resources {
		name := normalizeResourceName(rc.Name)
		if name == "" {
			return newFieldError(resourceField("", "Name"), "不能为空")
		}
		if _, ok := supportedResources[name]; !ok {
			return newFieldError(resourceField(rc.Name, "Name"), "不支持的资源，可选: "+supportedResourceList)
		}
		if _, dup := seen[name]; dup {
			return newFieldError(resourceField(rc.Name, "Name"), "资源重复声明")
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(rc.Name) != rc.Name {
			return newFieldError(resourceField(rc.Name, "Name"), "不能包含首尾空白")
		}
	}

	return nil
}
