// Package apiclient содержит HTTP-клиент API витрины. Любой ответ приводится к
// единому Result; 401 на запрос с токеном вызывает обработчик выхода.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marazul/internal/metrics"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultRetryBackoff = 200 * time.Millisecond
	maxResponseBytes    = 4 << 20
)

// ErrResponseTooLarge: тело ответа больше допустимого, ответ отброшен целиком.
var ErrResponseTooLarge = errors.New("response too large")

// DefaultRetryStatuses: статусы, после которых запрос можно повторить.
var DefaultRetryStatuses = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Config: настройки клиента.
type Config struct {
	// BaseURL: адрес сервера, например http://localhost:8080. Пути запросов начинаются с /api.
	BaseURL string
	// Timeout ограничивает одну попытку запроса.
	Timeout time.Duration
	// MaxAttempts: число попыток; 1 означает без повторов.
	MaxAttempts int
	// RetryStatuses: статусы, при которых допускается повтор.
	RetryStatuses []int
	// RetryBackoff: пауза перед второй попыткой, далее удваивается.
	RetryBackoff time.Duration
	// UserAgent добавляется в каждый запрос, если не пуст.
	UserAgent string
}

// DefaultConfig возвращает конфигурацию по умолчанию: одна попытка, таймаут 10s.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "http://localhost:8080",
		Timeout:       defaultTimeout,
		MaxAttempts:   1,
		RetryStatuses: append([]int(nil), DefaultRetryStatuses...),
		RetryBackoff:  defaultRetryBackoff,
		UserAgent:     "marazul-client",
	}
}

// TokenFunc возвращает текущий токен сессии или пустую строку.
type TokenFunc func(ctx context.Context) string

// UnauthorizedFunc вызывается, когда сервер отверг токен.
type UnauthorizedFunc func(ctx context.Context)

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент (например, в тестах).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.WithField("component", "api-client")
		}
	}
}

// WithMetrics подключает метрики запросов.
func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTokenSource задаёт источник bearer-токена.
func WithTokenSource(fn TokenFunc) Option {
	return func(c *Client) {
		c.tokenSource = fn
	}
}

// WithUnauthorizedHandler задаёт обработчик ответа 401.
func WithUnauthorizedHandler(fn UnauthorizedFunc) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// Client выполняет запросы к API витрины.
type Client struct {
	baseURL *url.URL
	cfg     Config
	http    *http.Client
	logger  *log.Entry
	metrics *metrics.StorefrontMetrics

	retryable map[int]struct{}

	mu             sync.RWMutex
	tokenSource    TokenFunc
	onUnauthorized UnauthorizedFunc
}

// New создаёт клиент. BaseURL обязателен и должен быть абсолютным http(s) адресом.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url, got %q", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.RetryStatuses == nil {
		cfg.RetryStatuses = append([]int(nil), DefaultRetryStatuses...)
	}

	c := &Client{
		baseURL:   base,
		cfg:       cfg,
		http:      &http.Client{},
		logger:    log.WithField("component", "api-client"),
		retryable: make(map[int]struct{}, len(cfg.RetryStatuses)),
	}
	for _, status := range cfg.RetryStatuses {
		c.retryable[status] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL возвращает адрес сервера.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetTokenSource заменяет источник токена после создания клиента.
// Нужен, когда сервис сессии создаётся позже клиента.
func (c *Client) SetTokenSource(fn TokenFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenSource = fn
}

// SetUnauthorizedHandler заменяет обработчик 401.
func (c *Client) SetUnauthorizedHandler(fn UnauthorizedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// Get выполняет GET-запрос.
func (c *Client) Get(ctx context.Context, path string) Result {
	return c.Request(ctx, http.MethodGet, path, nil)
}

// Post выполняет POST-запрос с JSON-телом.
func (c *Client) Post(ctx context.Context, path string, body any) Result {
	return c.Request(ctx, http.MethodPost, path, body)
}

// Put выполняет PUT-запрос с JSON-телом.
func (c *Client) Put(ctx context.Context, path string, body any) Result {
	return c.Request(ctx, http.MethodPut, path, body)
}

// Delete выполняет DELETE-запрос.
func (c *Client) Delete(ctx context.Context, path string) Result {
	return c.Request(ctx, http.MethodDelete, path, nil)
}

// Request отправляет запрос и нормализует ответ. Не паникует и не возвращает
// голую ошибку: всё, включая сетевые сбои, выражено в Result.
func (c *Client) Request(ctx context.Context, method, path string, body any) Result {
	return c.request(ctx, method, path, body, true)
}

// postAnonymous отправляет POST без токена сессии. 401 на такой запрос
// означает отказ в учётных данных, а не протухшую сессию, поэтому
// обработчик выхода не вызывается.
func (c *Client) postAnonymous(ctx context.Context, path string, body any) Result {
	return c.request(ctx, http.MethodPost, path, body, false)
}

func (c *Client) request(ctx context.Context, method, path string, body any, withSession bool) Result {
	started := time.Now()
	method = strings.ToUpper(method)

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Result{Err: &Error{Kind: KindNetwork, Message: "encode request body", Err: err}}
		}
		payload = encoded
	}

	c.mu.RLock()
	tokenSource, onUnauthorized := c.tokenSource, c.onUnauthorized
	c.mu.RUnlock()

	var token string
	if withSession && tokenSource != nil {
		token = tokenSource(ctx)
	}

	var res Result
	for attempt := 1; ; attempt++ {
		var retry bool
		res, retry = c.attempt(ctx, method, path, payload, token)
		if !retry || attempt >= c.cfg.MaxAttempts || !idempotent(method) {
			break
		}

		delay := c.cfg.RetryBackoff << (attempt - 1)
		c.logger.WithFields(log.Fields{
			"method":  method,
			"path":    path,
			"status":  res.Status,
			"attempt": attempt,
			"delay":   delay,
		}).Warn("retrying api request")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			res = networkResult(ctx.Err())
			c.record(method, res, started)
			return res
		case <-timer.C:
		}
	}

	if res.Status == http.StatusUnauthorized && token != "" && onUnauthorized != nil {
		c.logger.WithFields(log.Fields{"method": method, "path": path}).Warn("session rejected by server")
		onUnauthorized(ctx)
	}

	c.record(method, res, started)
	return res
}

// attempt выполняет одну попытку; второй результат сообщает, можно ли повторить.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, token string) (Result, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.resolve(path), reader)
	if err != nil {
		return networkResult(err), false
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Отмена внешним контекстом повторять бессмысленно.
		return networkResult(err), ctx.Err() == nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return networkResult(fmt.Errorf("read response body: %w", err)), ctx.Err() == nil
	}
	if len(raw) > maxResponseBytes {
		c.logger.WithFields(log.Fields{"path": path, "status": resp.StatusCode}).
			Warnf("response body exceeds %d bytes", maxResponseBytes)
		return Result{
			Status:  resp.StatusCode,
			Message: ErrResponseTooLarge.Error(),
			Err:     &Error{Kind: KindHTTP, Status: resp.StatusCode, Message: ErrResponseTooLarge.Error(), Err: ErrResponseTooLarge},
		}, false
	}

	res := normalize(resp.StatusCode, raw)
	_, retry := c.retryable[resp.StatusCode]
	return res, retry
}

func (c *Client) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}

func (c *Client) record(method string, res Result, started time.Time) {
	outcome := metrics.OutcomeSuccess
	if res.Err != nil {
		switch res.Err.Kind {
		case KindNetwork:
			outcome = metrics.OutcomeNetworkError
		case KindHTTP:
			outcome = metrics.OutcomeHTTPError
		default:
			outcome = metrics.OutcomeApplicationError
		}
		entry := c.logger.WithFields(log.Fields{"method": method, "status": res.Status, "kind": res.Err.Kind})
		if errors.Is(res.Err, context.Canceled) {
			entry.Debug("api request canceled")
		} else {
			entry.WithError(res.Err).Debug("api request failed")
		}
	}
	c.metrics.RecordAPIRequest(method, outcome, time.Since(started))
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}
