package render

import (
	"strings"
	"sync"
	"testing"
)

func TestMarkdown(t *testing.T) {
	t.Cleanup(ClearCache)

	t.Run("renders basic markdown", func(t *testing.T) {
		out, err := Markdown("# Title\n\nSome **bold** text.", DefaultOptions())
		if err != nil {
			t.Fatalf("Markdown() unexpected error: %v", err)
		}
		if !strings.Contains(out, "Title") {
			t.Errorf("output missing heading text: %q", out)
		}
		if !strings.Contains(out, "bold") {
			t.Errorf("output missing body text: %q", out)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		if _, err := Markdown("", DefaultOptions()); err != nil {
			t.Errorf("Markdown() unexpected error for empty input: %v", err)
		}
	})

	t.Run("code blocks survive rendering", func(t *testing.T) {
		content := "```go\nfunc main() {}\n```"
		out, err := Markdown(content, DefaultOptions())
		if err != nil {
			t.Fatalf("Markdown() unexpected error: %v", err)
		}
		if !strings.Contains(out, "func main()") {
			t.Errorf("output missing code: %q", out)
		}
	})

	t.Run("concurrent rendering is safe", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := Markdown("*hello*", DefaultOptions()); err != nil {
					t.Errorf("Markdown() error: %v", err)
				}
			}()
		}
		wg.Wait()
	})
}

func TestMarkdownWithWidth(t *testing.T) {
	t.Cleanup(ClearCache)

	long := strings.Repeat("word ", 50)
	out, err := MarkdownWithWidth(long, 40)
	if err != nil {
		t.Fatalf("MarkdownWithWidth() unexpected error: %v", err)
	}

	for _, line := range strings.Split(out, "\n") {
		if len(line) > 60 { // ANSI codes add some slack over the word wrap
			t.Errorf("line longer than expected for width 40: %q", line)
		}
	}
}

func TestRendererPool(t *testing.T) {
	t.Cleanup(ClearCache)
	ClearCache()

	if CacheSize() != 0 {
		t.Fatalf("CacheSize() = %d after clear, want 0", CacheSize())
	}

	if _, err := Markdown("text", DefaultOptions()); err != nil {
		t.Fatalf("Markdown() error: %v", err)
	}
	if _, err := Markdown("text", DefaultOptions().WithWidth(120)); err != nil {
		t.Fatalf("Markdown() error: %v", err)
	}

	if CacheSize() != 2 {
		t.Errorf("CacheSize() = %d, want 2 distinct option sets", CacheSize())
	}
}

func TestOptions(t *testing.T) {
	opts := DefaultOptions()

	if got := opts.WithWidth(100); got.Width != 100 {
		t.Errorf("WithWidth(100).Width = %d", got.Width)
	}
	if got := opts.WithStyle(StyleLight); got.Style != StyleLight {
		t.Errorf("WithStyle(light).Style = %q", got.Style)
	}
	// Originals are untouched
	if opts.Width != 80 || opts.Style != StyleDark {
		t.Errorf("DefaultOptions mutated: %+v", opts)
	}
}
