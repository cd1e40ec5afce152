package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/models"
)

// GenerateOptions contains options for one content generation call
type GenerateOptions struct {
	Model    models.Model
	Metadata []string         // [cid, rid, rcid] for chat context
	Images   []*UploadedImage // Uploaded images referenced by the prompt
}

// GenerateContent sends a prompt to Gemini and returns the parsed response
func (c *GeminiClient) GenerateContent(prompt string, opts *GenerateOptions) (*models.ModelOutput, error) {
	result, err := c.doGenerateContent(prompt, opts)

	// On auth failure, optionally pull fresh cookies from the browser
	// and retry once. Nothing else is retried internally.
	if err != nil && c.IsBrowserRefreshEnabled() && apierrors.IsAuthError(err) {
		refresh := c.refreshFunc
		if refresh == nil {
			refresh = c.RefreshFromBrowser
		}

		refreshed, refreshErr := refresh()
		if refreshErr == nil && refreshed {
			return c.doGenerateContent(prompt, opts)
		}
	}

	return result, err
}

// doGenerateContent performs the actual generation request
func (c *GeminiClient) doGenerateContent(prompt string, opts *GenerateOptions) (*models.ModelOutput, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	model := c.GetModel()
	var metadata []string
	var images []*UploadedImage

	if opts != nil {
		if opts.Model.Name != "" {
			model = opts.Model
		}
		metadata = opts.Metadata
		images = opts.Images
	}

	payload, err := buildPayload(prompt, metadata, images)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}

	form := url.Values{}
	form.Set("at", c.GetAccessToken())
	form.Set("f.req", payload)

	req, err := http.NewRequest(
		http.MethodPost,
		models.EndpointGenerate,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	for key, value := range model.Header {
		req.Header.Set(key, value)
	}
	attachCookies(req, c.GetCookies())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("generate content", models.EndpointGenerate, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		authErr := apierrors.NewAuthErrorWithEndpoint(
			fmt.Sprintf("generate content rejected with status %d", resp.StatusCode),
			models.EndpointGenerate,
		)
		authErr.GeminiError.HTTPStatus = resp.StatusCode
		return nil, authErr
	}
	if resp.StatusCode != 200 {
		return nil, apierrors.NewAPIErrorWithBody(
			resp.StatusCode, models.EndpointGenerate,
			"generate content failed", readErrorBody(resp.Body),
		)
	}

	body, err := readBody(resp.Body)
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("read generate response", models.EndpointGenerate, err)
	}

	c.log.Debug().
		Str("model", model.Name).
		Int("body_bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("generate request complete")

	return ParseResponse(body, model.Name)
}

// buildPayload creates the f.req payload for the generate request.
// The body is a positional nested array; the inner structure differs
// when uploaded files are referenced.
func buildPayload(prompt string, metadata []string, images []*UploadedImage) (string, error) {
	var inner []interface{}

	if len(images) > 0 {
		// File parts: [[file_id], filename] per file
		var fileParts []interface{}
		for _, img := range images {
			fileParts = append(fileParts, []interface{}{
				[]interface{}{img.ResourceID},
				img.FileName,
			})
		}

		// With files: [prompt, 0, null, files], null, metadata
		inner = []interface{}{
			[]interface{}{prompt, 0, nil, fileParts},
			nil,
			metadata,
		}
	} else {
		// Without files: [[prompt]], null, metadata
		inner = []interface{}{
			[]interface{}{prompt},
			nil,
			metadata,
		}
	}

	innerJSON, err := json.Marshal(inner)
	if err != nil {
		return "", err
	}

	// Outer envelope: [null, "<inner JSON>"]
	outer := []interface{}{
		nil,
		string(innerJSON),
	}

	outerJSON, err := json.Marshal(outer)
	if err != nil {
		return "", err
	}

	return string(outerJSON), nil
}
