package api

import (
	"strings"
	"testing"
	"time"

	"github.com/dmribeiro/geminiweb/internal/browser"
	"github.com/dmribeiro/geminiweb/internal/config"
	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/models"
)

func testCookies() *config.Cookies {
	return &config.Cookies{Secure1PSID: "g.test-psid", Secure1PSIDTS: "test-psidts"}
}

func tokenPage(token string) []byte {
	return []byte(`<html><script>window.WIZ_global_data = {"SNlM0e":"` + token + `"};</script></html>`)
}

func TestNewClientValidatesCookies(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Error("NewClient(nil) expected error")
	}
	if _, err := NewClient(&config.Cookies{}); err == nil {
		t.Error("NewClient() expected error for empty cookies")
	}
}

func TestNewClientOptions(t *testing.T) {
	mock := NewMockHttpClient(tokenPage("tok"), 200)

	client, err := NewClient(testCookies(),
		WithHTTPClient(mock),
		WithModel(models.Model30Pro),
		WithTimeout(60),
		WithAutoRefresh(false),
	)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	if client.GetModel().Name != models.Model30Pro.Name {
		t.Errorf("GetModel() = %s, want %s", client.GetModel().Name, models.Model30Pro.Name)
	}
	if client.timeoutSeconds != 60 {
		t.Errorf("timeoutSeconds = %d, want 60", client.timeoutSeconds)
	}
	if client.autoRefresh {
		t.Error("autoRefresh should be disabled")
	}
}

func TestClientInit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := NewMockHttpClient(tokenPage("AB12cd34"), 200)
		client, err := NewClient(testCookies(), WithHTTPClient(mock), WithAutoRefresh(false))
		if err != nil {
			t.Fatalf("NewClient() failed: %v", err)
		}

		if err := client.Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}
		if client.GetAccessToken() != "AB12cd34" {
			t.Errorf("GetAccessToken() = %q, want AB12cd34", client.GetAccessToken())
		}
	})

	t.Run("auth failure surfaces", func(t *testing.T) {
		mock := NewMockHttpClient([]byte("<html>login please</html>"), 200)
		client, _ := NewClient(testCookies(), WithHTTPClient(mock), WithAutoRefresh(false))

		err := client.Init()
		if !apierrors.IsAuthError(err) {
			t.Errorf("Init() = %v, want auth error when token is missing", err)
		}
	})

	t.Run("closed client", func(t *testing.T) {
		mock := NewMockHttpClient(tokenPage("tok"), 200)
		client, _ := NewClient(testCookies(), WithHTTPClient(mock), WithAutoRefresh(false))
		client.Close()

		if err := client.Init(); err == nil {
			t.Error("Init() expected error on closed client")
		}
	})
}

func TestClientCloseIdempotent(t *testing.T) {
	mock := NewMockHttpClient(tokenPage("tok"), 200)
	client, _ := NewClient(testCookies(), WithHTTPClient(mock), WithAutoRefresh(false))

	client.Close()
	client.Close()

	if !client.IsClosed() {
		t.Error("IsClosed() = false after Close()")
	}
}

func TestStartChat(t *testing.T) {
	mock := NewMockHttpClient(tokenPage("tok"), 200)
	client, _ := NewClient(testCookies(),
		WithHTTPClient(mock),
		WithModel(models.Model25Flash),
		WithAutoRefresh(false),
	)

	t.Run("inherits client model", func(t *testing.T) {
		session := client.StartChat()
		if session.GetModel().Name != models.Model25Flash.Name {
			t.Errorf("GetModel() = %s, want client default", session.GetModel().Name)
		}
	})

	t.Run("explicit model wins", func(t *testing.T) {
		session := client.StartChat(models.Model30Pro)
		if session.GetModel().Name != models.Model30Pro.Name {
			t.Errorf("GetModel() = %s, want %s", session.GetModel().Name, models.Model30Pro.Name)
		}
	})
}

func TestRefreshFromBrowser(t *testing.T) {
	mock := NewMockHttpClient(tokenPage("tok"), 200)

	t.Run("disabled", func(t *testing.T) {
		client, _ := NewClient(testCookies(), WithHTTPClient(mock), WithAutoRefresh(false))

		if _, err := client.RefreshFromBrowser(); err == nil {
			t.Error("RefreshFromBrowser() expected error when not enabled")
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		client, _ := NewClient(testCookies(),
			WithHTTPClient(mock),
			WithAutoRefresh(false),
			WithBrowserRefresh(browser.BrowserChrome),
		)
		client.lastBrowserRefresh = time.Now()

		_, err := client.RefreshFromBrowser()
		if err == nil || !strings.Contains(err.Error(), "too recently") {
			t.Errorf("RefreshFromBrowser() = %v, want rate limit error", err)
		}
	})
}
