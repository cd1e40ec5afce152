package api

import (
	"testing"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/rs/zerolog"

	"github.com/dmribeiro/geminiweb/internal/config"
	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
)

// resetRotateLimit clears the package-level rotation rate limit
func resetRotateLimit() {
	rotateMutex.Lock()
	lastRotateTime = time.Time{}
	rotateMutex.Unlock()
}

func rotateResponse(statusCode int, newPSIDTS string) *fhttp.Response {
	header := make(fhttp.Header)
	if newPSIDTS != "" {
		header.Add("Set-Cookie", "__Secure-1PSIDTS="+newPSIDTS+"; Path=/; Secure; HttpOnly")
	}
	return &fhttp.Response{
		StatusCode: statusCode,
		Body:       NewMockResponseBody(nil),
		Header:     header,
	}
}

func TestRotateCookies(t *testing.T) {
	cookies := &config.Cookies{
		Secure1PSID:   "test_psid",
		Secure1PSIDTS: "old_psidts",
	}

	t.Run("returns rotated cookie value", func(t *testing.T) {
		resetRotateLimit()
		mock := &MockHttpClient{Response: rotateResponse(200, "new_psidts_value")}

		got, err := RotateCookies(mock, cookies)
		if err != nil {
			t.Fatalf("RotateCookies() unexpected error: %v", err)
		}
		if got != "new_psidts_value" {
			t.Errorf("RotateCookies() = %q, want new_psidts_value", got)
		}
	})

	t.Run("rate limit skips back-to-back calls", func(t *testing.T) {
		resetRotateLimit()
		mock := &MockHttpClient{Response: rotateResponse(200, "first_rotation")}

		if _, err := RotateCookies(mock, cookies); err != nil {
			t.Fatalf("first RotateCookies() error: %v", err)
		}

		// Second call within a minute must be skipped without a request
		before := len(mock.Requests)
		got, err := RotateCookies(mock, cookies)
		if err != nil {
			t.Fatalf("second RotateCookies() error: %v", err)
		}
		if got != "" {
			t.Errorf("RotateCookies() = %q, want empty when rate limited", got)
		}
		if len(mock.Requests) != before {
			t.Error("rate-limited call should not reach the server")
		}
	})

	t.Run("401 is an auth error", func(t *testing.T) {
		resetRotateLimit()
		mock := &MockHttpClient{Response: rotateResponse(401, "")}

		_, err := RotateCookies(mock, cookies)
		if err == nil {
			t.Fatal("RotateCookies() expected error for 401")
		}
		if !apierrors.IsAuthError(err) {
			t.Errorf("error = %T, want auth error", err)
		}
	})

	t.Run("no new cookie in response", func(t *testing.T) {
		resetRotateLimit()
		mock := &MockHttpClient{Response: rotateResponse(200, "")}

		got, err := RotateCookies(mock, cookies)
		if err != nil {
			t.Fatalf("RotateCookies() unexpected error: %v", err)
		}
		if got != "" {
			t.Errorf("RotateCookies() = %q, want empty", got)
		}
	})
}

func TestCookieRotator(t *testing.T) {
	cookies := &config.Cookies{Secure1PSID: "test_psid"}

	t.Run("start and stop are idempotent", func(t *testing.T) {
		rotator := NewCookieRotator(&MockHttpClient{}, cookies, time.Hour, zerolog.Nop())

		rotator.Start()
		rotator.Start() // second start is a no-op
		rotator.Stop()
		rotator.Stop() // second stop must not close the channel twice
	})

	t.Run("stop before start", func(t *testing.T) {
		rotator := NewCookieRotator(&MockHttpClient{}, cookies, time.Hour, zerolog.Nop())
		rotator.Stop()
	})
}
