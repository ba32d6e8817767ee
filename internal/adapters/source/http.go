package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"archive-viewer/internal/ports"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotFound возвращается, когда ресурса нет в источнике (404 или отсутствующий файл).
var ErrNotFound = errors.New("resource not found")

// StatusError описывает неуспешный HTTP-ответ.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}

// HTTPOption определяет функциональную опцию для HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient задает HTTP-клиент.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithMaxRetries задает число повторов при временных сбоях (сетевые ошибки, 5xx).
func WithMaxRetries(n int) HTTPOption {
	return func(s *HTTPSource) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryInterval задает начальный интервал между повторами.
func WithRetryInterval(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.retryInterval = d
		}
	}
}

// WithHTTPLogger задает логгер.
func WithHTTPLogger(l *slog.Logger) HTTPOption {
	return func(s *HTTPSource) {
		if l != nil {
			s.log = l
		}
	}
}

// HTTPSource реализует интерфейс DataSource для чтения ресурсов архива по HTTP.
type HTTPSource struct {
	baseURL       string
	client        *http.Client
	maxRetries    int
	retryInterval time.Duration
	log           *slog.Logger
}

// NewHTTPSource создает новый экземпляр HTTPSource.
func NewHTTPSource(baseURL string, opts ...HTTPOption) ports.DataSource {
	s := &HTTPSource{
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        &http.Client{Timeout: 30 * time.Second},
		maxRetries:    2,
		retryInterval: 200 * time.Millisecond,
		log:           slog.Default().With("component", "http_source"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch загружает ресурс по пути относительно базового URL.
func (s *HTTPSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	target := s.baseURL + "/" + strings.TrimLeft(path, "/")

	var body []byte
	operation := func() error {
		data, err := s.get(ctx, target)
		if err != nil {
			if isPermanent(ctx, err) {
				return backoff.Permanent(err)
			}
			s.log.DebugContext(ctx, "Временная ошибка загрузки, повтор", "url", target, "error", err)
			return err
		}
		body = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryInterval
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.maxRetries)), ctx)

	if err := backoff.Retry(operation, retry); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", target, ctxErr)
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	return body, nil
}

func (s *HTTPSource) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: redactURL(target), StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// isPermanent решает, имеет ли смысл повторять запрос.
func isPermanent(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ErrNotFound) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < 500
	}
	var permanent *backoff.PermanentError
	return errors.As(err, &permanent)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
