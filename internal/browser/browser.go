// Package browser extracts Gemini session cookies from installed web browsers.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"

	"github.com/dmribeiro/geminiweb/internal/config"
)

// SupportedBrowser identifies a browser whose cookie store we can read
type SupportedBrowser string

const (
	BrowserAuto     SupportedBrowser = "auto"
	BrowserChrome   SupportedBrowser = "chrome"
	BrowserChromium SupportedBrowser = "chromium"
	BrowserFirefox  SupportedBrowser = "firefox"
	BrowserEdge     SupportedBrowser = "edge"
	BrowserOpera    SupportedBrowser = "opera"
)

// autoOrder is the probe order for BrowserAuto
var autoOrder = []SupportedBrowser{
	BrowserChrome,
	BrowserFirefox,
	BrowserEdge,
	BrowserChromium,
	BrowserOpera,
}

func (b SupportedBrowser) String() string {
	return string(b)
}

// ParseBrowser parses a browser name, accepting common aliases
func ParseBrowser(s string) (SupportedBrowser, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return BrowserAuto, nil
	case "chrome", "google-chrome":
		return BrowserChrome, nil
	case "chromium":
		return BrowserChromium, nil
	case "firefox", "mozilla", "mozilla-firefox":
		return BrowserFirefox, nil
	case "edge", "microsoft-edge", "msedge":
		return BrowserEdge, nil
	case "opera":
		return BrowserOpera, nil
	default:
		return "", fmt.Errorf("unsupported browser: %s. Supported: chrome, chromium, firefox, edge, opera", s)
	}
}

// ExtractResult contains the result of a cookie extraction
type ExtractResult struct {
	Cookies     *config.Cookies
	BrowserName string
}

// ExtractCookies pulls the Gemini session cookies from the given browser,
// or from the first browser that has them when BrowserAuto is passed.
func ExtractCookies(ctx context.Context, browser SupportedBrowser) (*ExtractResult, error) {
	targets := []SupportedBrowser{browser}
	if browser == BrowserAuto {
		targets = autoOrder
	}

	var lastErr error
	for _, target := range targets {
		result, err := extractFromBrowser(ctx, target)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("could not find Gemini cookies in any browser: %w", lastErr)
	}
	return nil, fmt.Errorf("could not find Gemini cookies in any supported browser")
}

// extractFromBrowser tries every profile of a specific browser
func extractFromBrowser(ctx context.Context, browser SupportedBrowser) (*ExtractResult, error) {
	stores := kooky.FindAllCookieStores(ctx)

	var matching []kooky.CookieStore
	var browserName string

	for _, store := range stores {
		name := store.Browser()
		if matchesBrowser(name, browser) {
			matching = append(matching, store)
			if browserName == "" {
				browserName = name
			}
		} else {
			store.Close()
		}
	}

	if len(matching) == 0 {
		return nil, fmt.Errorf("browser %s not found or no cookie store available", browser)
	}

	var lastErr error
	for _, store := range matching {
		result, err := extractFromStore(ctx, store, browserName, store.Profile())
		store.Close()
		if err == nil {
			for _, s := range matching {
				s.Close()
			}
			return result, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

// matchesBrowser checks if a kooky store name matches the target browser
func matchesBrowser(storeName string, target SupportedBrowser) bool {
	name := strings.ToLower(storeName)

	switch target {
	case BrowserChrome:
		return strings.Contains(name, "chrome") && !strings.Contains(name, "chromium")
	case BrowserChromium:
		return strings.Contains(name, "chromium")
	case BrowserFirefox:
		return strings.Contains(name, "firefox")
	case BrowserEdge:
		return strings.Contains(name, "edge")
	case BrowserOpera:
		return strings.Contains(name, "opera")
	default:
		return false
	}
}

// extractFromStore reads the session cookies out of one cookie store
func extractFromStore(ctx context.Context, store kooky.CookieStore, browserName, profile string) (*ExtractResult, error) {
	cookies := store.TraverseCookies(
		kooky.Valid,
		kooky.DomainContains("google.com"),
	).OnlyCookies()

	var psid, psidts string

	for cookie := range cookies {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		switch cookie.Name {
		case "__Secure-1PSID":
			// Prefer .google.com over regional domains
			if psid == "" || cookie.Domain == ".google.com" {
				psid = cookie.Value
			}
		case "__Secure-1PSIDTS":
			if psidts == "" || cookie.Domain == ".google.com" {
				psidts = cookie.Value
			}
		}
	}

	displayName := browserName
	if profile != "" {
		displayName = fmt.Sprintf("%s (profile: %s)", browserName, profile)
	}

	if psid == "" {
		return nil, fmt.Errorf("cookie __Secure-1PSID not found in %s. Make sure you are logged into gemini.google.com", displayName)
	}

	return &ExtractResult{
		Cookies: &config.Cookies{
			Secure1PSID:   psid,
			Secure1PSIDTS: psidts,
		},
		BrowserName: displayName,
	}, nil
}

// ListAvailableBrowsers returns the browsers that have cookie stores on this system
func ListAvailableBrowsers() []string {
	stores := kooky.FindAllCookieStores(context.Background())

	var browsers []string
	seen := make(map[string]bool)
	for _, store := range stores {
		name := store.Browser()
		if !seen[name] {
			browsers = append(browsers, name)
			seen[name] = true
		}
		store.Close()
	}

	return browsers
}
