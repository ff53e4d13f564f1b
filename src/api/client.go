package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"stocknews-client/src/helpers"
	"stocknews-client/src/interfaces"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Client is the typed wrapper over the backend REST contract.
type Client struct {
	BaseURL string
	Network interfaces.INetworkManager
	Logger  *logger.Logger

	tokensMu sync.RWMutex
	tokens   interfaces.ITokenProvider
}

// -----------------------------------------------------------------------------

// NewClient builds a client rooted at baseURL, e.g. http://localhost:8000/api.
func NewClient(baseURL string, netMgr interfaces.INetworkManager, log *logger.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// SetTokenProvider injects the source of the bearer token for authenticated calls.
// The session manager is constructed after the client, so this is a setter.
func (c *Client) SetTokenProvider(p interfaces.ITokenProvider) {
	c.tokensMu.Lock()
	c.tokens = p
	c.tokensMu.Unlock()
}

// -----------------------------------------------------------------------------

func (c *Client) requireToken() (string, error) {
	c.tokensMu.RLock()
	p := c.tokens
	c.tokensMu.RUnlock()

	if p == nil {
		return "", helpers.NewValidationError("login required")
	}
	token := p.Token()
	if token == "" {
		return "", helpers.NewValidationError("login required")
	}
	return token, nil
}

// -----------------------------------------------------------------------------

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.BaseURL + "/" + strings.Join(escaped, "/")
}

// -----------------------------------------------------------------------------

// call sends req and decodes a 2xx body into out (when out is non-nil).
// Non-2xx responses become an APIError classified by status.
func (c *Client) call(ctx context.Context, req *models.MHTTPRequest, out interface{}) error {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	resp, err := c.Network.Do(ctx, req)
	if err != nil {
		return err
	}

	if !resp.OK() {
		apiErr := &helpers.APIError{
			Method: req.Method,
			URL:    req.URL,
			Status: resp.StatusCode,
			Detail: helpers.ParseDetail(resp.Body),
		}
		c.Logger.Debug("%v", apiErr)
		return helpers.ClassifyStatus(apiErr)
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *Client) get(ctx context.Context, u string, query map[string]string, out interface{}) error {
	return c.call(ctx, &models.MHTTPRequest{Method: http.MethodGet, URL: u, Query: query}, out)
}

// -----------------------------------------------------------------------------

func (c *Client) sendJSON(ctx context.Context, method, u, token string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, u, err)
		}
	}

	return c.call(ctx, &models.MHTTPRequest{
		Method:      method,
		URL:         u,
		Body:        body,
		ContentType: contentTypeJSON,
		BearerToken: token,
	}, out)
}

// -----------------------------------------------------------------------------

func (c *Client) sendForm(ctx context.Context, u string, form url.Values, out interface{}) error {
	return c.call(ctx, &models.MHTTPRequest{
		Method:      http.MethodPost,
		URL:         u,
		Body:        []byte(form.Encode()),
		ContentType: contentTypeForm,
	}, out)
}

var (
	_ interfaces.IAccountAPI       = (*Client)(nil)
	_ interfaces.IMarketDataSource = (*Client)(nil)
)
