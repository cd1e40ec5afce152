package api

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog"

	"github.com/dmribeiro/geminiweb/internal/browser"
	"github.com/dmribeiro/geminiweb/internal/config"
	"github.com/dmribeiro/geminiweb/internal/models"
)

// maxBodySize caps how much of a response body we buffer
const maxBodySize = 8 * 1024 * 1024

// GeminiClient is a cookie-authenticated client for the Gemini web interface
type GeminiClient struct {
	httpClient  tls_client.HttpClient
	cookies     *config.Cookies
	accessToken string
	model       models.Model
	log         zerolog.Logger

	proxyURL       string
	timeoutSeconds int

	rotator         *CookieRotator
	autoRefresh     bool
	refreshInterval time.Duration

	// Browser-based cookie refresh on auth failure
	browserRefresh        bool
	browserRefreshType    browser.SupportedBrowser
	lastBrowserRefresh    time.Time
	browserRefreshMinWait time.Duration
	refreshFunc           func() (bool, error) // test hook

	mu     sync.RWMutex
	closed bool
}

// ClientOption configures the client
type ClientOption func(*GeminiClient)

// WithModel sets the default model for the client
func WithModel(model models.Model) ClientOption {
	return func(c *GeminiClient) {
		c.model = model
	}
}

// WithProxy routes all requests through the given proxy URL
func WithProxy(proxyURL string) ClientOption {
	return func(c *GeminiClient) {
		c.proxyURL = proxyURL
	}
}

// WithTimeout sets the per-request timeout in seconds
func WithTimeout(seconds int) ClientOption {
	return func(c *GeminiClient) {
		if seconds > 0 {
			c.timeoutSeconds = seconds
		}
	}
}

// WithAutoRefresh enables background __Secure-1PSIDTS rotation
func WithAutoRefresh(enabled bool) ClientOption {
	return func(c *GeminiClient) {
		c.autoRefresh = enabled
	}
}

// WithRefreshInterval sets the cookie rotation interval
func WithRefreshInterval(interval time.Duration) ClientOption {
	return func(c *GeminiClient) {
		c.refreshInterval = interval
	}
}

// WithBrowserRefresh enables re-extracting cookies from the browser
// when a request fails with an authentication error
func WithBrowserRefresh(browserType browser.SupportedBrowser) ClientOption {
	return func(c *GeminiClient) {
		c.browserRefresh = true
		c.browserRefreshType = browserType
	}
}

// WithLogger sets the structured logger used for diagnostics
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *GeminiClient) {
		c.log = log
	}
}

// WithHTTPClient replaces the underlying HTTP client (used in tests)
func WithHTTPClient(httpClient tls_client.HttpClient) ClientOption {
	return func(c *GeminiClient) {
		c.httpClient = httpClient
	}
}

// NewClient creates a GeminiClient authenticated by the given cookies
func NewClient(cookies *config.Cookies, opts ...ClientOption) (*GeminiClient, error) {
	if err := config.ValidateCookies(cookies); err != nil {
		return nil, err
	}

	client := &GeminiClient{
		cookies:               cookies,
		model:                 models.DefaultModel,
		log:                   zerolog.Nop(),
		timeoutSeconds:        300,
		autoRefresh:           true,
		refreshInterval:       9 * time.Minute,
		browserRefreshMinWait: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		// Chrome TLS fingerprint so requests look like a real browser
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(client.timeoutSeconds),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}
		if client.proxyURL != "" {
			options = append(options, tls_client.WithProxyUrl(client.proxyURL))
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// Init fetches the access token and starts background cookie rotation.
// An authentication error here means the cookies are missing or expired.
func (c *GeminiClient) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	token, err := GetAccessToken(c.httpClient, c.cookies)
	if err != nil {
		return err
	}
	c.accessToken = token
	c.log.Debug().Msg("access token acquired")

	if c.autoRefresh && c.rotator == nil {
		c.rotator = NewCookieRotator(c.httpClient, c.cookies, c.refreshInterval, c.log)
		c.rotator.Start()
	}

	return nil
}

// Close shuts down the client and stops background tasks
func (c *GeminiClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if c.rotator != nil {
		c.rotator.Stop()
	}
}

// GetAccessToken returns the current access token
func (c *GeminiClient) GetAccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// GetCookies returns the session cookies
func (c *GeminiClient) GetCookies() *config.Cookies {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cookies
}

// GetModel returns the default model
func (c *GeminiClient) GetModel() models.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel sets the default model
func (c *GeminiClient) SetModel(model models.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// IsClosed reports whether the client is closed
func (c *GeminiClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// StartChat creates a new chat session bound to this client
func (c *GeminiClient) StartChat(model ...models.Model) *ChatSession {
	m := c.GetModel()
	if len(model) > 0 {
		m = model[0]
	}

	return &ChatSession{
		client: c,
		model:  m,
	}
}

// IsBrowserRefreshEnabled reports whether browser refresh is enabled
func (c *GeminiClient) IsBrowserRefreshEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.browserRefresh
}

// RefreshFromBrowser re-extracts cookies from the browser and re-fetches
// the access token. Returns true when cookies were refreshed.
func (c *GeminiClient) RefreshFromBrowser() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.browserRefresh {
		return false, fmt.Errorf("browser refresh is not enabled")
	}

	// Rate limit so repeated auth failures don't hammer cookie stores
	if wait := c.browserRefreshMinWait - time.Since(c.lastBrowserRefresh); wait > 0 {
		return false, fmt.Errorf("browser refresh attempted too recently, wait %v", wait)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := browser.ExtractCookies(ctx, c.browserRefreshType)
	c.lastBrowserRefresh = time.Now()
	if err != nil {
		return false, fmt.Errorf("failed to extract cookies from browser: %w", err)
	}

	psid, psidts := result.Cookies.Snapshot()
	c.cookies.SetBoth(psid, psidts)
	c.log.Info().Str("browser", result.BrowserName).Msg("cookies refreshed from browser")

	if err := config.SaveCookies(c.cookies); err != nil {
		// Cookies are updated in memory; persisting is best effort
		c.log.Warn().Err(err).Msg("failed to save refreshed cookies")
	}

	token, err := GetAccessToken(c.httpClient, c.cookies)
	if err != nil {
		return false, fmt.Errorf("failed to get access token with new cookies: %w", err)
	}
	c.accessToken = token

	return true, nil
}

// attachCookies adds the session cookies to an outgoing request
func attachCookies(req *http.Request, cookies *config.Cookies) {
	psid, psidts := cookies.Snapshot()
	req.AddCookie(&http.Cookie{Name: models.CookiePSID, Value: psid})
	if psidts != "" {
		req.AddCookie(&http.Cookie{Name: models.CookiePSIDTS, Value: psidts})
	}
}

// readBody drains a response body up to maxBodySize
func readBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBodySize))
}

// readErrorBody reads a short prefix of an error response for diagnostics
func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(body)
}
