package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmribeiro/geminiweb/internal/api"
	"github.com/dmribeiro/geminiweb/internal/config"
)

var (
	speechLang   string
	speechOutput string
)

var speechCmd = &cobra.Command{
	Use:   "speech <text>",
	Short: "Generate speech audio from text",
	Long: `Generate spoken audio for the given text using Gemini's
text-to-speech and save it to a file.

Examples:
  geminiweb speech "Hello there"
  geminiweb speech "Bonjour" --lang fr-FR -o bonjour.mp3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSpeech(args[0])
	},
}

func init() {
	speechCmd.Flags().StringVar(&speechLang, "lang", "en-US", "Voice language code")
	speechCmd.Flags().StringVarP(&speechOutput, "output", "o", "speech.mp3", "Output audio file")
}

func runSpeech(text string) error {
	cfg, _ := config.LoadConfig()

	client, err := newClient(cfg, api.WithAutoRefresh(false))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	spin := newSpinner("Generating speech")
	spin.start()

	if err := client.Init(); err != nil {
		spin.stopWithError()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to initialize"))
		return fmt.Errorf("failed to initialize: %w", err)
	}

	audio, err := client.Speech(text, speechLang)
	if err != nil {
		spin.stopWithError()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Speech generation failed"))
		return fmt.Errorf("speech generation failed: %w", err)
	}

	if err := os.WriteFile(speechOutput, audio, 0o644); err != nil {
		spin.stopWithError()
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	spin.stopWithSuccess(fmt.Sprintf("Audio saved to %s (%d KB)", speechOutput, len(audio)/1024))
	return nil
}
