package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// 上游HTTP调用的统一出口：提示词优化、对话补全、图像生成都走这里。
// 502/503/504 和连接类错误重试，其他HTTP错误状态立即返回。

const maxRetries = 3

// Response 已读完body的响应
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError 非2xx状态码
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, truncate(string(e.Body), 200))
}

// RetriesExhaustedError 重试耗尽后的聚合错误，携带最后一次失败的信息
type RetriesExhaustedError struct {
	Attempts int
	LastErr  error
	Body     string
}

func (e *RetriesExhaustedError) Error() string {
	detail := ""
	if e.Body != "" {
		detail = " - Detail: " + truncate(e.Body, 500)
	}
	return fmt.Sprintf("API请求失败(已重试%d次): %v%s", maxRetries, e.LastErr, detail)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.LastErr }

// attemptConfig 单次尝试的配置。TLS/连接类错误后，本次调用
// 剩余的尝试关闭证书校验；对下一次调用无影响。
type attemptConfig struct {
	insecureTLS bool
}

// Client 带重试的HTTP客户端
type Client struct {
	backoffUnit time.Duration
	sleep       func(time.Duration)
}

func New() *Client {
	return &Client{
		backoffUnit: time.Second,
		sleep:       time.Sleep,
	}
}

// Do 发送请求。body 可为 nil；timeout 是单次尝试的超时。
func (c *Client) Do(ctx context.Context, method, rawurl string, header http.Header, body []byte, timeout time.Duration) (*Response, error) {
	cfg := attemptConfig{}
	var lastErr error
	var lastBody string

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// 线性退避：2 × 尝试次数
			c.sleep(time.Duration(2*attempt) * c.backoffUnit)
		}

		resp, err := c.attempt(ctx, method, rawurl, header, body, timeout, cfg)
		if err == nil {
			return resp, nil
		}
		if !retryable(err) {
			return nil, err
		}

		lastErr = err
		var se *StatusError
		if errors.As(err, &se) {
			lastBody = string(se.Body)
		}
		if isConnOrTLS(err) {
			zap.L().Warn("connection/tls error, disabling certificate verification for remaining attempts",
				zap.String("url", rawurl), zap.Error(err))
			cfg.insecureTLS = true
		}
		zap.L().Warn("upstream request failed",
			zap.String("url", rawurl),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries+1),
			zap.Error(err))
	}

	return nil, &RetriesExhaustedError{Attempts: maxRetries + 1, LastErr: lastErr, Body: lastBody}
}

func (c *Client) attempt(ctx context.Context, method, rawurl string, header http.Header, body []byte, timeout time.Duration, cfg attemptConfig) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawurl, reader)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	tr := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.insecureTLS},
	}
	hc := &http.Client{Transport: tr, Timeout: timeout}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: b}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

// retryable 判断失败是否可重试：502/503/504 与传输层错误可重试，
// 其他HTTP错误状态立即向上传播。
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return true
}

// isConnOrTLS 判断是否属于连接/TLS类错误（触发证书校验降级）。
// 超时可重试但不触发降级。
func isConnOrTLS(err error) bool {
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return false
		}
		err = ue.Err
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rhe tls.RecordHeaderError
	if errors.As(err, &rhe) {
		return true
	}
	var uae x509.UnknownAuthorityError
	if errors.As(err, &uae) {
		return true
	}
	var hne x509.HostnameError
	if errors.As(err, &hne) {
		return true
	}
	var cie x509.CertificateInvalidError
	if errors.As(err, &cie) {
		return true
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "x509:") || strings.Contains(msg, "tls:") ||
		strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
