package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmribeiro/geminiweb/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `View and change geminiweb settings.

Settings are stored in ~/.geminiweb/config.json.

Available keys:
  model              Default model alias (fast, pro)
  proxy              Proxy URL (http, https or socks5), empty to disable
  timeout            Request timeout in seconds
  auto-refresh       Background cookie rotation (true/false)
  verbose            Structured request logging (true/false)
  clipboard          Copy responses to clipboard (true/false)
  download-dir       Directory for downloaded images
  style              Markdown style (dark, light, dracula, auto, notty, or a theme path)
  emoji              Render :emoji: codes (true/false)`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSet(args[0], args[1])
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("model:         %s\n", cfg.DefaultModel)
	fmt.Printf("proxy:         %s\n", orUnset(cfg.ProxyURL))
	fmt.Printf("timeout:       %d\n", cfg.TimeoutSeconds)
	fmt.Printf("auto-refresh:  %t\n", cfg.AutoRefresh)
	fmt.Printf("verbose:       %t\n", cfg.Verbose)
	fmt.Printf("clipboard:     %t\n", cfg.CopyToClipboard)
	fmt.Printf("download-dir:  %s\n", orUnset(cfg.DownloadDir))
	fmt.Printf("style:         %s\n", cfg.Markdown.Style)
	fmt.Printf("emoji:         %t\n", cfg.Markdown.EnableEmoji)
	return nil
}

func runConfigSet(key, value string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := applyConfigValue(&cfg, key, value); err != nil {
		return err
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

// applyConfigValue validates and applies one key/value pair
func applyConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "model":
		for _, m := range config.AvailableModels() {
			if value == m {
				cfg.DefaultModel = value
				return nil
			}
		}
		return fmt.Errorf("unknown model %q, available: %s", value, strings.Join(config.AvailableModels(), ", "))

	case "proxy":
		cfg.ProxyURL = value
		return nil

	case "timeout":
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("timeout must be a positive number of seconds")
		}
		cfg.TimeoutSeconds = seconds
		return nil

	case "auto-refresh":
		return setBool(&cfg.AutoRefresh, value)

	case "verbose":
		return setBool(&cfg.Verbose, value)

	case "clipboard":
		return setBool(&cfg.CopyToClipboard, value)

	case "download-dir":
		cfg.DownloadDir = value
		return nil

	case "style":
		cfg.Markdown.Style = value
		return nil

	case "emoji":
		return setBool(&cfg.Markdown.EnableEmoji, value)

	default:
		return fmt.Errorf("unknown key %q, see 'geminiweb config --help'", key)
	}
}

func setBool(target *bool, value string) error {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("value must be true or false")
	}
	*target = parsed
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
