package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

// ErrRetriesExhausted помечает ошибку, оставшуюся после исчерпания всех
// попыток. Исходная причина сохраняется в цепочке для errors.As.
var ErrRetriesExhausted = errors.New("retry attempts exhausted")

// StatusError — ответ получен, но статус не 2xx/3xx.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

// RetryPolicy — явный объект-политика ретраев, передается в клиент снаружи,
// чтобы тесты могли работать с почти нулевыми задержками.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration // фиксированная пауза между попытками, без экспоненты
	RetryStatus func(statusCode int) bool
}

// DefaultRetryPolicy — до 20 попыток с паузой 2 секунды; из HTTP-статусов
// ретраится только 502, остальные ошибки статуса возвращаются сразу.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 20,
		Delay:       2 * time.Second,
		RetryStatus: func(statusCode int) bool { return statusCode == http.StatusBadGateway },
	}
}

// Config для Client
type Config struct {
	Policy   RetryPolicy
	ProxyURL string        // опциональный upstream-прокси для всех запросов
	Timeout  time.Duration // таймаут одного вызова по умолчанию (30s)
}

// Request описывает один HTTP-вызов.
type Request struct {
	URL     string
	Method  string // по умолчанию GET
	Params  url.Values
	Headers map[string]string
	Body    []byte
	Cookies map[string]string
	Timeout time.Duration // 0 — использовать таймаут клиента
}

// Response — прочитанный целиком ответ.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Client — общий HTTP-клиент всех адаптеров: единый прокси, случайный
// User-Agent и политика ретраев на каждый запрос. Знание про сайты и
// форматы данных остается в адаптерах.
type Client struct {
	httpClient *http.Client
	policy     RetryPolicy
	timeout    time.Duration
}

// NewClient создает клиент с указанной политикой ретраев.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Policy.MaxAttempts < 1 {
		return nil, fmt.Errorf("httpclient: retry policy must allow at least one attempt")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("httpclient: invalid proxy URL %q: %w", cfg.ProxyURL, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		policy:     cfg.Policy,
		timeout:    timeout,
	}, nil
}

// Policy возвращает активную политику ретраев.
func (c *Client) Policy() RetryPolicy { return c.policy }

// Send выполняет запрос с ретраями. Ретраятся сетевые ошибки, таймауты и
// статусы, разрешенные политикой (по умолчанию только 502); прочие не-2xx
// статусы возвращаются как *StatusError сразу. После исчерпания попыток
// исходная ошибка поднимается наверх, обернутая в ErrRetriesExhausted.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "HTTPClient",
		"url":       req.URL,
	})

	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			logger.Warn("Retrying request", port.Fields{
				"attempt":      attempt,
				"max_attempts": c.policy.MaxAttempts,
				"last_error":   lastErr.Error(),
			})

			timer := time.NewTimer(c.policy.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		resp, err := c.do(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if c.policy.RetryStatus != nil && c.policy.RetryStatus(resp.StatusCode) {
			lastErr = &StatusError{StatusCode: resp.StatusCode, URL: req.URL}
			continue
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL}
		}

		return resp, nil
	}

	return nil, fmt.Errorf("httpclient: request to %s: %w: %w", req.URL, ErrRetriesExhausted, lastErr)
}

// do выполняет одну попытку с таймаутом этого вызова.
func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	targetURL, err := buildURL(req.URL, req.Params)
	if err != nil {
		return nil, fmt.Errorf("httpclient: invalid URL %q: %w", req.URL, err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, method, targetURL, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: failed to build request: %w", err)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	// На каждый запрос подставляется User-Agent реального браузера,
	// если адаптер не задал свой
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", randomUserAgent())
	}
	for name, value := range req.Cookies {
		httpReq.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Header:     httpResp.Header,
	}, nil
}

func buildURL(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	for key, values := range params {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
