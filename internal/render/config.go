package render

import (
	"os"

	"github.com/dmribeiro/geminiweb/internal/config"
)

// LoadOptionsFromConfig builds render options from the user config.
// The GLAMOUR_STYLE environment variable overrides the configured style.
func LoadOptionsFromConfig() Options {
	opts := DefaultOptions()

	cfg, err := config.LoadConfig()
	if err == nil {
		md := cfg.Markdown
		if md.Style != "" {
			opts.Style = md.Style
		}
		opts.EnableEmoji = md.EnableEmoji
		opts.PreserveNewLines = md.PreserveNewLines
	}

	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}

	return opts
}
