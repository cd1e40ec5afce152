package api

import (
	"io"
	"net/url"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/tls-client/bandwidth"
)

// MockResponseBody is a ReadCloser over a fixed byte slice
type MockResponseBody struct {
	data []byte
	pos  int
}

// NewMockResponseBody creates a response body serving the given data
func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{data: data}
}

func (m *MockResponseBody) Read(p []byte) (n int, err error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n = copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func (m *MockResponseBody) Close() error { return nil }

// MockHttpClient implements tls_client.HttpClient for tests. Every
// request returns the configured Response/Err pair; DoFunc, when set,
// overrides that per request.
type MockHttpClient struct {
	Response *fhttp.Response
	Err      error
	DoFunc   func(req *fhttp.Request) (*fhttp.Response, error)
	Requests []*fhttp.Request
}

func (m *MockHttpClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return m.Response, m.Err
}

func (m *MockHttpClient) Get(url string) (*fhttp.Response, error) {
	return m.Response, m.Err
}

func (m *MockHttpClient) Head(url string) (*fhttp.Response, error) {
	return m.Response, m.Err
}

func (m *MockHttpClient) Post(url, contentType string, body io.Reader) (*fhttp.Response, error) {
	return m.Response, m.Err
}

func (m *MockHttpClient) GetCookies(u *url.URL) []*fhttp.Cookie                 { return nil }
func (m *MockHttpClient) SetCookies(u *url.URL, cookies []*fhttp.Cookie)        {}
func (m *MockHttpClient) SetCookieJar(jar fhttp.CookieJar)                      {}
func (m *MockHttpClient) GetCookieJar() fhttp.CookieJar                         { return nil }
func (m *MockHttpClient) SetProxy(proxyUrl string) error                        { return nil }
func (m *MockHttpClient) GetProxy() string                                      { return "" }
func (m *MockHttpClient) SetFollowRedirect(followRedirect bool)                 {}
func (m *MockHttpClient) GetFollowRedirect() bool                               { return false }
func (m *MockHttpClient) CloseIdleConnections()                                 {}
func (m *MockHttpClient) GetBandwidthTracker() bandwidth.BandwidthTracker       { return nil }

// NewMockHttpClient returns a mock serving one canned response
func NewMockHttpClient(body []byte, statusCode int) *MockHttpClient {
	return &MockHttpClient{
		Response: &fhttp.Response{
			StatusCode: statusCode,
			Body:       NewMockResponseBody(body),
			Header:     make(fhttp.Header),
		},
	}
}

// NewMockHttpClientWithError returns a mock that fails every request
func NewMockHttpClientWithError(err error) *MockHttpClient {
	return &MockHttpClient{Err: err}
}
