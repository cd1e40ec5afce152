package api

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/models"
)

// ImageDownloadOptions configures image download behavior
type ImageDownloadOptions struct {
	// Directory is the destination directory (default: ~/.geminiweb/images)
	Directory string
	// Filename is the output filename (derived from URL/title if empty)
	Filename string
	// FullSize requests maximum resolution (generated images only)
	FullSize bool
}

// DefaultDownloadOptions returns the default download options
func DefaultDownloadOptions() ImageDownloadOptions {
	homeDir, _ := os.UserHomeDir()
	return ImageDownloadOptions{
		Directory: filepath.Join(homeDir, ".geminiweb", "images"),
		FullSize:  true,
	}
}

// DownloadResult is the outcome of one image download
type DownloadResult struct {
	Title string
	Path  string
	Err   error
}

// DownloadImage downloads a web image to disk. Web images are public
// search results and need no authentication.
func (c *GeminiClient) DownloadImage(img models.WebImage, opts ImageDownloadOptions) (string, error) {
	return c.download(img.URL, img.Title, false, opts)
}

// DownloadGeneratedImage downloads a generated image to disk. Generated
// images sit behind authenticated URLs, so the session cookies ride along.
func (c *GeminiClient) DownloadGeneratedImage(img models.GeneratedImage, opts ImageDownloadOptions) (string, error) {
	url := img.URL
	if opts.FullSize && !strings.Contains(url, "=s") {
		url += "=s2048"
	}
	return c.download(url, img.Title, true, opts)
}

// FetchImage fetches image bytes without writing to disk
func (c *GeminiClient) FetchImage(url string, withCookies bool) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, apierrors.NewDownloadError("failed to create request: "+err.Error(), url)
	}

	for key, value := range models.ImageFetchHeaders() {
		req.Header.Set(key, value)
	}
	if withCookies {
		attachCookies(req, c.GetCookies())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.NewDownloadNetworkError(url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return nil, apierrors.NewDownloadErrorWithStatus(url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "image") {
		return nil, apierrors.NewDownloadError("response is not an image: "+contentType, url)
	}

	body, err := readBody(resp.Body)
	if err != nil {
		return nil, apierrors.NewDownloadError("failed to read response: "+err.Error(), url)
	}

	return body, nil
}

// FetchImages fetches a name->URL mapping and returns name->bytes.
// Each image fails independently; failures are reported in the second
// map and never abort the rest of the batch.
func (c *GeminiClient) FetchImages(urls map[string]string, withCookies bool) (map[string][]byte, map[string]error) {
	fetched := make(map[string][]byte)
	failed := make(map[string]error)

	for name, url := range urls {
		data, err := c.FetchImage(url, withCookies)
		if err != nil {
			failed[name] = err
			continue
		}
		fetched[name] = data
	}

	return fetched, failed
}

// FetchImagesAsync is the concurrent variant of FetchImages. Same
// observable outcome, one goroutine per image.
func (c *GeminiClient) FetchImagesAsync(urls map[string]string, withCookies bool) (map[string][]byte, map[string]error) {
	fetched := make(map[string][]byte)
	failed := make(map[string]error)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, url := range urls {
		wg.Add(1)
		go func(name, url string) {
			defer wg.Done()
			data, err := c.FetchImage(url, withCookies)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[name] = err
				return
			}
			fetched[name] = data
		}(name, url)
	}
	wg.Wait()

	return fetched, failed
}

// download fetches one image and writes it under opts.Directory
func (c *GeminiClient) download(url, title string, withCookies bool, opts ImageDownloadOptions) (string, error) {
	if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
		return "", apierrors.NewDownloadError("failed to create directory: "+err.Error(), url)
	}

	body, err := c.FetchImage(url, withCookies)
	if err != nil {
		return "", err
	}

	filename := opts.Filename
	if filename == "" {
		filename = deriveFilename(url, title)
	}

	destPath := filepath.Join(opts.Directory, filename)
	if err := os.WriteFile(destPath, body, 0o644); err != nil {
		return "", apierrors.NewDownloadError("failed to save file: "+err.Error(), url)
	}

	absPath, err := filepath.Abs(destPath)
	if err != nil {
		return destPath, nil
	}
	return absPath, nil
}

// DownloadAllImages downloads every image of the chosen candidate,
// sequentially, pausing briefly between downloads. Per-image failures
// are collected and returned alongside the successes.
func (c *GeminiClient) DownloadAllImages(output *models.ModelOutput, opts ImageDownloadOptions) ([]DownloadResult, error) {
	candidate := chosenCandidateOf(output)
	if candidate == nil {
		return nil, nil
	}

	var results []DownloadResult
	total := len(candidate.WebImages) + len(candidate.GeneratedImages)
	done := 0

	for _, img := range candidate.WebImages {
		path, err := c.DownloadImage(img, opts)
		results = append(results, DownloadResult{Title: img.Title, Path: path, Err: err})
		done++
		if done < total {
			time.Sleep(100 * time.Millisecond) // avoid rate limiting
		}
	}

	for _, img := range candidate.GeneratedImages {
		path, err := c.DownloadGeneratedImage(img, opts)
		results = append(results, DownloadResult{Title: img.Title, Path: path, Err: err})
		done++
		if done < total {
			time.Sleep(100 * time.Millisecond)
		}
	}

	return results, firstBatchError(results)
}

// DownloadAllImagesAsync downloads every image of the chosen candidate
// concurrently. Destination filenames are fixed up front so concurrent
// writes never contend on the same file.
func (c *GeminiClient) DownloadAllImagesAsync(output *models.ModelOutput, opts ImageDownloadOptions) ([]DownloadResult, error) {
	candidate := chosenCandidateOf(output)
	if candidate == nil {
		return nil, nil
	}

	total := len(candidate.WebImages) + len(candidate.GeneratedImages)
	results := make([]DownloadResult, total)

	var wg sync.WaitGroup
	slot := 0

	for _, img := range candidate.WebImages {
		wg.Add(1)
		go func(slot int, img models.WebImage) {
			defer wg.Done()
			path, err := c.DownloadImage(img, opts)
			results[slot] = DownloadResult{Title: img.Title, Path: path, Err: err}
		}(slot, img)
		slot++
	}

	for _, img := range candidate.GeneratedImages {
		wg.Add(1)
		go func(slot int, img models.GeneratedImage) {
			defer wg.Done()
			path, err := c.DownloadGeneratedImage(img, opts)
			results[slot] = DownloadResult{Title: img.Title, Path: path, Err: err}
		}(slot, img)
		slot++
	}

	wg.Wait()
	return results, firstBatchError(results)
}

// chosenCandidateOf safely resolves the chosen candidate of an output
func chosenCandidateOf(output *models.ModelOutput) *models.Candidate {
	if output == nil {
		return nil
	}
	return output.ChosenCandidate()
}

// firstBatchError returns an error only when every download failed
func firstBatchError(results []DownloadResult) error {
	if len(results) == 0 {
		return nil
	}
	var firstErr error
	for _, r := range results {
		if r.Err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = r.Err
		}
	}
	return firstErr
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// deriveFilename builds a filename from the URL path or the image title
func deriveFilename(url, title string) string {
	urlPath := strings.Split(url, "?")[0]
	parts := strings.Split(urlPath, "/")
	if len(parts) > 0 {
		last := parts[len(parts)-1]
		if matched, _ := regexp.MatchString(`\.\w+$`, last); matched {
			return sanitizeFilename(last)
		}
	}

	if title != "" {
		safe := sanitizeFilename(title)
		if len(safe) > 50 {
			safe = safe[:50]
		}
		return safe + ".jpg"
	}

	return fmt.Sprintf("image_%s.jpg", time.Now().Format("20060102_150405"))
}

// sanitizeFilename strips characters not allowed in filenames
func sanitizeFilename(name string) string {
	return strings.TrimSpace(invalidFilenameChars.ReplaceAllString(name, "_"))
}
