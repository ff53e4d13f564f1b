package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"stocknews-client/src/helpers"
	"stocknews-client/src/interfaces"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const RequestIDHeader = "X-Request-ID"

type AsyncNetworkManager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Logger       *logger.Logger
	limiter      *rate.Limiter
	client       *http.Client
	mu           sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	var proxies []string
	if cfg.Network.Enabled {
		proxies = cfg.Network.Proxies
	}

	limit := rate.Inf
	burst := cfg.Network.ConcurrentRequests
	if cfg.Network.RateLimitPerSecond > 0 {
		limit = rate.Limit(cfg.Network.RateLimitPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	nm := &AsyncNetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(proxies, cfg.Network.UserAgent, log.Named("ProxyManager")),
		Logger:       log,
		limiter:      rate.NewLimiter(limit, burst),
	}
	nm.client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			proxyURL, err := url.Parse(proxyStr)
			if err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Network.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) httpClient() *http.Client {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.client
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}

	nm.ProxyManager.RotateProxy()
	nm.mu.Lock()
	nm.client = nm.createClient()
	nm.mu.Unlock()
}

// -----------------------------------------------------------------------------

// retryableStatus marks a completed response that is worth another attempt.
type retryableStatus struct {
	status int
}

func (e *retryableStatus) Error() string {
	return fmt.Sprintf("retryable status %d", e.status)
}

// -----------------------------------------------------------------------------

// Do performs the request. Only GETs are retried, on transport failures, 429 and 5xx.
func (nm *AsyncNetworkManager) Do(ctx context.Context, req *models.MHTTPRequest) (*models.MHTTPResponse, error) {
	reqURL, err := url.Parse(req.URL)
	if err != nil {
		return nil, helpers.NewValidationError(fmt.Sprintf("invalid url %q", req.URL))
	}

	q := reqURL.Query()
	for k, v := range req.Query {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = nm.Config.Network.MaxRetries + 1
	}
	baseDelay := time.Duration(nm.Config.Network.RetryBaseDelayMs) * time.Millisecond

	var lastResp *models.MHTTPResponse
	retryable := func(err error) bool {
		var rs *retryableStatus
		if errors.As(err, &rs) {
			return true
		}
		// Transport failures are retried; a cancelled caller is not.
		return ctx.Err() == nil
	}

	err = helpers.RetryWithBackoff(ctx, attempts, baseDelay, retryable, func(attempt int) error {
		if attempt > 0 {
			nm.rotateProxy()
		}

		resp, err := nm.doOnce(ctx, method, finalURL, req)
		if err != nil {
			nm.Logger.Info("Request failed (attempt %d/%d): %s %s: %v", attempt+1, attempts, method, finalURL, err)
			return err
		}
		lastResp = resp

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			nm.Logger.Info("Bad status %d (attempt %d/%d): %s %s", resp.StatusCode, attempt+1, attempts, method, finalURL)
			return &retryableStatus{status: resp.StatusCode}
		}
		return nil
	})

	if err == nil {
		return lastResp, nil
	}

	var rs *retryableStatus
	if errors.As(err, &rs) && lastResp != nil {
		// The caller maps the final status into its own error.
		return lastResp, nil
	}
	return nil, helpers.NewNetworkError(fmt.Sprintf("%s %s failed", method, finalURL), err)
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) doOnce(ctx context.Context, method, finalURL string, req *models.MHTTPRequest) (*models.MHTTPResponse, error) {
	if err := nm.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, finalURL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}

	resp, err := nm.httpClient().Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &models.MHTTPResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
