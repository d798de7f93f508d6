package zammad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

const (
	apiPrefix       = "/api/v1"
	csrfHeader      = "X-CSRF-Token"
	csrfReplyHeader = "CSRF-Token"

	defaultPerPage  = 100
	defaultMaxPages = 50
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	SessionCookie string
	PerPage       int
	MaxPages      int
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client talks to the helpdesk REST API using cookie-based session
// credentials. It owns small response caches for reference tables and users
// that live as long as the client does.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	logger   *zap.Logger
	perPage  int
	maxPages int

	csrfMu sync.RWMutex
	csrf   string

	cacheMu      sync.Mutex
	states       []domain.State
	priorities   []domain.Priority
	articleTypes []domain.ArticleType
	currentUser  *domain.User
	users        map[int]domain.User
}

// New builds a Client. A fresh cookie jar is attached unless the supplied
// http.Client already has one.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}
	if opts.SessionCookie != "" {
		cookie, err := parseCookie(opts.SessionCookie)
		if err != nil {
			return nil, err
		}
		httpClient.Jar.SetCookies(base, []*http.Cookie{cookie})
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	return &Client{
		baseURL:  base,
		http:     httpClient,
		logger:   logger,
		perPage:  perPage,
		maxPages: maxPages,
		users:    make(map[int]domain.User),
	}, nil
}

func parseCookie(raw string) (*http.Cookie, error) {
	name, value, ok := strings.Cut(strings.TrimSpace(raw), "=")
	if !ok || name == "" {
		return nil, fmt.Errorf("session cookie must be name=value")
	}
	return &http.Cookie{Name: name, Value: value, Path: "/"}, nil
}

// CSRFToken returns the most recent anti-forgery token echoed by the backend.
func (c *Client) CSRFToken() string {
	c.csrfMu.RLock()
	defer c.csrfMu.RUnlock()
	return c.csrf
}

// request issues an API call and decodes the JSON response into out (which
// may be nil). The endpoint is relative to /api/v1.
func (c *Client) request(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+apiPrefix+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.CSRFToken(); token != "" {
		req.Header.Set(csrfHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if token := resp.Header.Get(csrfReplyHeader); token != "" {
		c.csrfMu.Lock()
		c.csrf = token
		c.csrfMu.Unlock()
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &RequestFailedError{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", endpoint, err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
