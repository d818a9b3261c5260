package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogctl/blogctl/internal/config"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// TokenSource 提供当前请求应携带的 bearer token；返回空串表示匿名请求。
// 实现方（会话层）必须保证每次调用读到最新值，客户端自身不做任何缓存，
// 这样登录/登出后紧接着的下一个请求就能携带正确凭证。
type TokenSource interface {
	Token() string
}

// Client 封装 REST 服务的 JSON 请求，统一附加认证头并归一化错误。
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	logger *logrus.Logger
}

// NewClient 根据配置构造共享 Client；tokens 可为 nil（纯匿名客户端）。
func NewClient(cfg *config.Config, tokens TokenSource, logger *logrus.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	base, err := url.Parse(cfg.Global.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("解析 BaseURL 失败: %w", err)
	}

	timeout := 30 * time.Second
	if cfg.Global.RequestTimeout.DurationValue() > 0 {
		timeout = cfg.Global.RequestTimeout.DurationValue()
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: defaultTransport.Clone(),
		},
		tokens: tokens,
		logger: logger,
	}, nil
}

// Get 发起 GET 请求，query 可为 nil；out 为 nil 时丢弃响应体。
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post 发起 JSON POST 请求。
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put 发起 JSON PUT 请求。
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete 发起 DELETE 请求，服务端约定返回 204/空体。
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.resolve(path, query)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Kind: KindValidation, Detail: "请求体无法序列化", Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &RequestError{Kind: KindValidation, Detail: "构造请求失败", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"action": "api_request",
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("request completed")
	}

	if resp.StatusCode >= 400 {
		return newHTTPError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Kind: KindValidation, Detail: "响应解析失败", Err: err}
	}
	return nil
}

// resolve 将请求路径拼接到 BaseURL 上，保留 base 自带的路径前缀。
func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

// newHTTPError 解析服务端错误响应，兼容 {"detail": "..."} 与任意 JSON/纯文本。
func newHTTPError(resp *http.Response) *RequestError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	detail := ""
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case len(payload.Detail) > 0:
			var text string
			if json.Unmarshal(payload.Detail, &text) == nil {
				detail = text
			} else {
				detail = string(payload.Detail)
			}
		case payload.Error != "":
			detail = payload.Error
		}
	}
	if detail == "" {
		detail = strings.TrimSpace(string(raw))
	}

	return &RequestError{Kind: KindHTTP, Status: resp.StatusCode, Detail: detail}
}
