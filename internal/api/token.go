package api

import (
	"fmt"
	"regexp"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"

	"github.com/dmribeiro/geminiweb/internal/config"
	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/models"
)

// snlm0ePattern extracts the short-lived request token from the app HTML
var snlm0ePattern = regexp.MustCompile(`"SNlM0e":"([^"]+)"`)

// GetAccessToken fetches the SNlM0e request token from the chat page.
// The token is required on every POST; when it cannot be located the
// cookies are treated as expired or invalid.
func GetAccessToken(client tls_client.HttpClient, cookies *config.Cookies) (string, error) {
	req, err := http.NewRequest(http.MethodGet, models.EndpointInit, nil)
	if err != nil {
		return "", apierrors.NewGeminiErrorWithCause("create access token request", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	attachCookies(req, cookies)

	resp, err := client.Do(req)
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("fetch access token", models.EndpointInit, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode != 200 {
		authErr := apierrors.NewAuthErrorWithEndpoint(
			fmt.Sprintf("failed to fetch access token, status: %d", resp.StatusCode),
			models.EndpointInit,
		)
		authErr.GeminiError.HTTPStatus = resp.StatusCode
		authErr.GeminiError.WithBody(readErrorBody(resp.Body))
		return "", authErr
	}

	body, err := readBody(resp.Body)
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("read access token response", models.EndpointInit, err)
	}

	matches := snlm0ePattern.FindSubmatch(body)
	if len(matches) < 2 {
		return "", apierrors.NewAuthErrorWithEndpoint(
			"SNlM0e token not found in response. Cookies may be expired.",
			models.EndpointInit,
		)
	}

	return string(matches[1]), nil
}
