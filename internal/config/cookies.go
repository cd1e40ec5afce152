package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Cookie names required for authentication
const (
	cookiePSID   = "__Secure-1PSID"
	cookiePSIDTS = "__Secure-1PSIDTS"
)

// Cookies holds the authentication cookies for a session.
// Values are mutable only through explicit refresh (rotation or
// browser re-extraction); accessors are safe for concurrent use.
type Cookies struct {
	mu            sync.RWMutex `json:"-"` // Not serialized
	Secure1PSID   string       `json:"__Secure-1PSID"`
	Secure1PSIDTS string       `json:"__Secure-1PSIDTS,omitempty"`
}

// Snapshot returns both cookie values atomically
func (c *Cookies) Snapshot() (psid, psidts string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Secure1PSID, c.Secure1PSIDTS
}

// SetBoth updates both cookies atomically
func (c *Cookies) SetBoth(psid, psidts string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Secure1PSID = psid
	c.Secure1PSIDTS = psidts
}

// Update1PSIDTS updates the PSIDTS cookie value (thread-safe)
func (c *Cookies) Update1PSIDTS(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Secure1PSIDTS = value
}

// ToMap converts cookies to a name->value mapping
func (c *Cookies) ToMap() map[string]string {
	psid, psidts := c.Snapshot()
	m := map[string]string{
		cookiePSID: psid,
	}
	if psidts != "" {
		m[cookiePSIDTS] = psidts
	}
	return m
}

// FromMap builds Cookies from a name->value mapping
func FromMap(m map[string]string) (*Cookies, error) {
	psid, ok := m[cookiePSID]
	if !ok || psid == "" {
		return nil, fmt.Errorf("missing required cookie: %s", cookiePSID)
	}
	return &Cookies{
		Secure1PSID:   psid,
		Secure1PSIDTS: m[cookiePSIDTS],
	}, nil
}

// CookieListItem represents a cookie in browser export format
type CookieListItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadCookies loads cookies from the default cookies file
func LoadCookies() (*Cookies, error) {
	cookiesPath, err := GetCookiesPath()
	if err != nil {
		return nil, err
	}
	return LoadCookiesFrom(cookiesPath)
}

// LoadCookiesFrom loads cookies from an arbitrary file path
func LoadCookiesFrom(path string) (*Cookies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no cookies found at %s. Import cookies first:\n  geminiweb import-cookies <path-to-cookies.json>", path)
		}
		return nil, fmt.Errorf("failed to read cookies file: %w", err)
	}

	return ParseCookies(data)
}

// ParseCookies parses cookies from JSON data.
// Supports both dict format {name: value} and browser export
// list format [{name, value}].
func ParseCookies(data []byte) (*Cookies, error) {
	// Try dict format first
	var dictFormat map[string]string
	if err := json.Unmarshal(data, &dictFormat); err == nil {
		return FromMap(dictFormat)
	}

	// Try list format (browser export)
	var listFormat []CookieListItem
	if err := json.Unmarshal(data, &listFormat); err == nil {
		m := make(map[string]string, len(listFormat))
		for _, item := range listFormat {
			m[item.Name] = item.Value
		}
		return FromMap(m)
	}

	return nil, fmt.Errorf("invalid cookies format: expected list [{name, value}] or dict {name: value}")
}

// SaveCookies saves cookies to the default cookies file
func SaveCookies(cookies *Cookies) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	cookiesPath := configDir + "/cookies.json"

	psid, psidts := cookies.Snapshot()

	// List format keeps compatibility with browser exports
	listFormat := []CookieListItem{
		{Name: cookiePSID, Value: psid},
	}
	if psidts != "" {
		listFormat = append(listFormat, CookieListItem{
			Name:  cookiePSIDTS,
			Value: psidts,
		})
	}

	data, err := json.MarshalIndent(listFormat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	// 0o600: session cookies grant account access
	if err := os.WriteFile(cookiesPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cookies file: %w", err)
	}

	return nil
}

// ImportCookies imports cookies from a source file into the config dir
func ImportCookies(sourcePath string) error {
	cookies, err := LoadCookiesFrom(sourcePath)
	if err != nil {
		return err
	}

	return SaveCookies(cookies)
}

// ValidateCookies checks if cookies are usable
func ValidateCookies(cookies *Cookies) error {
	if cookies == nil {
		return fmt.Errorf("cookies are nil")
	}
	if cookies.Secure1PSID == "" {
		return fmt.Errorf("missing required cookie: %s", cookiePSID)
	}
	return nil
}
