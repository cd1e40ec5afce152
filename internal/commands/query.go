package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/dmribeiro/geminiweb/internal/api"
	"github.com/dmribeiro/geminiweb/internal/config"
	apierrors "github.com/dmribeiro/geminiweb/internal/errors"
	"github.com/dmribeiro/geminiweb/internal/models"
	"github.com/dmribeiro/geminiweb/internal/render"
)

// Gradient colors for the spinner animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorPrimary  = lipgloss.Color("#7aa2f7")
	colorError    = lipgloss.Color("#f7768e")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	thoughtsStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorTextDim).
			BorderLeft(true).
			Foreground(colorTextDim).
			PaddingLeft(1).
			MarginLeft(1).
			Italic(true)
)

// spinner is the animated loading indicator for one-shot commands
type spinner struct {
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(message string) *spinner {
	return &spinner{
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(os.Stderr, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(os.Stderr, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	spinIdx := s.frame % len(chars)
	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(os.Stderr, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
}

// stopOnce closes the stop channel exactly once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(os.Stderr, "%s %s\n", checkmark, msg)
}

func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// newClient builds a GeminiClient from the loaded cookies, config and
// global flags. Shared by the one-shot and subcommand paths.
func newClient(cfg config.Config, extraOpts ...api.ClientOption) (*api.GeminiClient, error) {
	cookies, err := config.LoadCookies()
	if err != nil {
		return nil, fmt.Errorf("no valid cookies found: %w\nRun 'geminiweb auto-login' or 'geminiweb import-cookies <file>' first", err)
	}

	opts := []api.ClientOption{
		api.WithModel(models.ModelFromName(getModel())),
		api.WithTimeout(cfg.TimeoutSeconds),
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, api.WithProxy(cfg.ProxyURL))
	}
	if cfg.Verbose {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
		opts = append(opts, api.WithLogger(logger))
	}
	if browserType, enabled := getBrowserRefresh(); enabled {
		opts = append(opts, api.WithBrowserRefresh(browserType))
	}
	opts = append(opts, extraOpts...)

	return api.NewClient(cookies, opts...)
}

// runQuery executes a single query and prints the response. When stdout
// is not a terminal only the raw response text is written.
func runQuery(prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	rawOutput := !isStdoutTTY()

	cfg, _ := config.LoadConfig()

	// One-shot queries don't need background cookie rotation
	client, err := newClient(cfg, api.WithAutoRefresh(false))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	var spin *spinner
	if !rawOutput {
		spin = newSpinner("Connecting to Gemini")
		spin.start()
	}

	if err := client.Init(); err != nil {
		if !rawOutput {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to initialize"))
		}
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if !rawOutput {
		spin.stopWithSuccess("Connected")
	}

	// Upload image if provided
	var images []*api.UploadedImage
	if imageFlag != "" {
		if !rawOutput {
			spin = newSpinner("Uploading image")
			spin.start()
		}

		img, err := client.UploadImage(imageFlag)
		if err != nil {
			if !rawOutput {
				spin.stopWithError()
				fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to upload image"))
			}
			return fmt.Errorf("failed to upload image: %w", err)
		}
		images = append(images, img)
		if !rawOutput {
			spin.stopWithSuccess("Image uploaded")
		}
	}

	if !rawOutput {
		spin = newSpinner("Generating response")
		spin.start()
	}

	output, err := client.GenerateContent(prompt, &api.GenerateOptions{Images: images})
	if err != nil {
		if !rawOutput {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Generation failed"))
		}
		return fmt.Errorf("generation failed: %w", err)
	}
	if !rawOutput {
		spin.stopWithSuccess("Done")
	}

	if saveImagesFlag != "" {
		saveResponseImages(client, output, rawOutput)
	}

	text := output.Text()

	// Raw output mode: only the response text
	if rawOutput {
		if outputFlag != "" {
			if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		}
		fmt.Print(text)
		return nil
	}

	fmt.Fprintln(os.Stderr)

	if cfg.CopyToClipboard {
		if err := clipboard.WriteAll(text); err != nil {
			warnMsg := lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			)
			fmt.Fprintln(os.Stderr, warnMsg)
		} else {
			clipMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard")
			fmt.Fprintln(os.Stderr, clipMsg)
		}
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		successMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Response saved to %s", outputFlag),
		)
		fmt.Fprintln(os.Stderr, successMsg)
		return nil
	}

	// Decorated terminal output
	termWidth := getTerminalWidth()
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Println(assistantLabelStyle.Render("✦ Gemini"))

	if thoughts := output.Thoughts(); thoughts != "" {
		fmt.Println(thoughtsStyle.Width(contentWidth).Render("💭 " + thoughts))
	}

	renderOpts := render.LoadOptionsFromConfig()
	renderOpts.Width = contentWidth
	rendered, err := render.Markdown(text, renderOpts)
	if err != nil {
		rendered = text
	}
	rendered = strings.TrimRight(rendered, "\n")

	fmt.Println(assistantBubbleStyle.Width(bubbleWidth).Render(rendered))

	return nil
}

// saveResponseImages downloads every image from the response into the
// --save-images directory. Failures never abort the query output.
func saveResponseImages(client *api.GeminiClient, output *models.ModelOutput, rawOutput bool) {
	generated := 0
	if candidate := output.ChosenCandidate(); candidate != nil {
		generated = len(candidate.GeneratedImages)
	}
	if len(output.Images()) == 0 && generated == 0 {
		return
	}

	var spin *spinner
	if !rawOutput {
		spin = newSpinner("Downloading images")
		spin.start()
	}

	opts := api.ImageDownloadOptions{
		Directory: saveImagesFlag,
		FullSize:  true,
	}
	results, err := client.DownloadAllImagesAsync(output, opts)

	saved := 0
	for _, r := range results {
		if r.Err == nil {
			saved++
		}
	}

	if !rawOutput {
		switch {
		case err != nil:
			spin.stopWithError()
			fmt.Fprintf(os.Stderr, "Warning: failed to save images: %v\n", err)
		case saved < len(results):
			spin.stopWithSuccess(fmt.Sprintf("Saved %d of %d images to %s", saved, len(results), saveImagesFlag))
		default:
			spin.stopWithSuccess(fmt.Sprintf("Saved %d images to %s", saved, saveImagesFlag))
		}
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY reports whether stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with context from the typed errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	var gemErr *apierrors.GeminiError
	if errors.As(err, &gemErr) {
		if gemErr.HTTPStatus > 0 {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", gemErr.HTTPStatus)))
		}
		if gemErr.Endpoint != "" {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", gemErr.Endpoint)))
		}
		// Response bodies carry details like blocking URLs
		if gemErr.Body != "" {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(gemErr.Body, "\n", "\n  "))))
			return sb.String()
		}
	}

	var usageErr *apierrors.UsageLimitError
	var netErr *apierrors.NetworkError
	var timeoutErr *apierrors.TimeoutError
	var blockedErr *apierrors.BlockedError
	var downloadErr *apierrors.DownloadError

	switch {
	case apierrors.IsAuthError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Try running 'geminiweb auto-login' to refresh your session"))
	case errors.As(err, &usageErr):
		sb.WriteString(dimStyle.Render("\n  Hint: You've hit the usage limit. Try again later or use a different model"))
	case errors.As(err, &blockedErr):
		sb.WriteString(dimStyle.Render("\n  Hint: Requests from this IP are temporarily blocked. Try again later"))
	case errors.As(err, &netErr):
		sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and try again"))
	case errors.As(err, &timeoutErr):
		sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Try again or check your connection"))
	case errors.As(err, &downloadErr):
		sb.WriteString(dimStyle.Render("\n  Hint: Image download failed. The response text is unaffected"))
	}

	return sb.String()
}
