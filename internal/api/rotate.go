package api

import (
	"fmt"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/rs/zerolog"

	"github.com/dmribeiro/geminiweb/internal/config"
	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/models"
)

// minRotateInterval is the fastest the rotation endpoint may be hit.
// Google throttles this endpoint; excess calls invalidate the session.
const minRotateInterval = time.Minute

// Rotation rate limit state, shared across all clients in the process
var (
	lastRotateTime time.Time
	rotateMutex    sync.Mutex
)

// RotateCookies asks accounts.google.com for a fresh __Secure-1PSIDTS.
// Returns the new value, or "" when the call was skipped by the rate
// limit or the server did not issue a new cookie.
func RotateCookies(client tls_client.HttpClient, cookies *config.Cookies) (string, error) {
	rotateMutex.Lock()
	defer rotateMutex.Unlock()

	if time.Since(lastRotateTime) < minRotateInterval {
		return "", nil
	}

	req, err := http.NewRequest(
		http.MethodPost,
		models.EndpointRotateCookies,
		strings.NewReader(`[000,"-0000000000000000000"]`),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create rotate request: %w", err)
	}

	for key, value := range models.RotateCookiesHeaders() {
		req.Header.Set(key, value)
	}
	attachCookies(req, cookies)

	resp, err := client.Do(req)
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("rotate cookies", models.EndpointRotateCookies, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode == 401 {
		return "", apierrors.NewAuthErrorWithEndpoint("unauthorized during cookie rotation", models.EndpointRotateCookies)
	}
	if resp.StatusCode != 200 {
		return "", apierrors.NewAPIError(resp.StatusCode, models.EndpointRotateCookies, "cookie rotation failed")
	}

	lastRotateTime = time.Now()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == models.CookiePSIDTS {
			return cookie.Value, nil
		}
	}

	return "", nil
}

// CookieRotator refreshes __Secure-1PSIDTS in the background for the
// lifetime of a client. Long-lived sessions expire without it.
type CookieRotator struct {
	client   tls_client.HttpClient
	cookies  *config.Cookies
	interval time.Duration
	log      zerolog.Logger
	stopCh   chan struct{}
	running  bool
	mu       sync.Mutex
}

// NewCookieRotator creates a rotator; call Start to begin rotation
func NewCookieRotator(client tls_client.HttpClient, cookies *config.Cookies, interval time.Duration, log zerolog.Logger) *CookieRotator {
	return &CookieRotator{
		client:   client,
		cookies:  cookies,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start begins background rotation. Safe to call more than once.
func (r *CookieRotator) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				newToken, err := RotateCookies(r.client, r.cookies)
				if err != nil {
					// Rotation failures are transient; keep the ticker alive
					r.log.Warn().Err(err).Msg("cookie rotation failed")
					continue
				}
				if newToken != "" {
					r.cookies.Update1PSIDTS(newToken)
					r.log.Debug().Msg("__Secure-1PSIDTS rotated")
				}
			case <-r.stopCh:
				return
			}
		}
	}()
}

// Stop halts background rotation
func (r *CookieRotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		close(r.stopCh)
		r.running = false
	}
}
