package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/models"
)

// MaxImageSize is the upload size limit enforced client-side
const MaxImageSize = 20 * 1024 * 1024

// SupportedImageTypes returns the MIME types accepted for upload
func SupportedImageTypes() []string {
	return []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	}
}

// UploadedImage is an uploaded file ready to be referenced in a prompt
type UploadedImage struct {
	ResourceID string
	FileName   string
	MIMEType   string
	Size       int64
}

// UploadImage uploads an image file from disk
func (c *GeminiClient) UploadImage(filePath string) (*UploadedImage, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.Size() > MaxImageSize {
		return nil, fmt.Errorf("file size %d exceeds maximum %d bytes", fileInfo.Size(), MaxImageSize)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(filePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if !isSupportedImageType(mimeType) {
		return nil, fmt.Errorf("unsupported image type: %s", mimeType)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return c.uploadStream(file, filepath.Base(filePath), mimeType, fileInfo.Size())
}

// UploadImageFromReader uploads image data from a reader
func (c *GeminiClient) UploadImageFromReader(reader io.Reader, fileName, mimeType string) (*UploadedImage, error) {
	// Buffer the whole payload; the multipart body needs a known size
	data, err := io.ReadAll(io.LimitReader(reader, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if int64(len(data)) > MaxImageSize {
		return nil, fmt.Errorf("data size exceeds maximum %d bytes", MaxImageSize)
	}
	if !isSupportedImageType(mimeType) {
		return nil, fmt.Errorf("unsupported image type: %s", mimeType)
	}

	return c.uploadStream(bytes.NewReader(data), fileName, mimeType, int64(len(data)))
}

// uploadStream performs the multipart POST against the upload endpoint
func (c *GeminiClient) uploadStream(reader io.Reader, fileName, mimeType string, size int64) (*UploadedImage, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, reader); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}
	_ = writer.Close()

	uploadID := newUploadID()
	uploadURL := fmt.Sprintf("%s?upload_id=%s&upload_protocol=resumable", models.EndpointUpload, uploadID)

	req, err := http.NewRequest(http.MethodPost, uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.UploadHeaders() {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	attachCookies(req, c.GetCookies())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("upload image", models.EndpointUpload, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 && resp.StatusCode != 201 {
		return nil, apierrors.NewAPIErrorWithBody(
			resp.StatusCode, models.EndpointUpload,
			"upload failed", readErrorBody(resp.Body),
		)
	}

	respBody, err := readBody(resp.Body)
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("read upload response", models.EndpointUpload, err)
	}

	return &UploadedImage{
		ResourceID: resolveResourceID(respBody, resp.Header.Get("X-Goog-Upload-URL"), uploadID),
		FileName:   fileName,
		MIMEType:   mimeType,
		Size:       size,
	}, nil
}

// resolveResourceID picks the uploaded resource identifier. The server
// answers either a JSON object or a bare identifier in a header.
func resolveResourceID(body []byte, headerURL, uploadID string) string {
	var uploadResp struct {
		ResourceID string `json:"resourceId"`
	}
	if err := json.Unmarshal(body, &uploadResp); err == nil && uploadResp.ResourceID != "" {
		return uploadResp.ResourceID
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" && !strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	if headerURL != "" {
		return headerURL
	}
	return uploadID
}

func isSupportedImageType(mimeType string) bool {
	for _, supported := range SupportedImageTypes() {
		if strings.HasPrefix(mimeType, supported) {
			return true
		}
	}
	return false
}

func newUploadID() string {
	return fmt.Sprintf("geminiweb-%d", time.Now().UnixNano())
}
