package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmribeiro/geminiweb/internal/api"
	"github.com/dmribeiro/geminiweb/internal/config"
	"github.com/dmribeiro/geminiweb/internal/history"
	"github.com/dmribeiro/geminiweb/internal/models"
	"github.com/dmribeiro/geminiweb/internal/tui"
)

var resumeFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with Gemini.

The chat maintains conversation context across messages and saves the
transcript to local history. Resume an earlier conversation with
--resume:

  geminiweb chat --resume @last
  geminiweb chat --resume "trip to japan"
  geminiweb chat --resume conv-20250817

Type 'exit', 'quit', or press Ctrl+C to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	chatCmd.Flags().StringVar(&resumeFlag, "resume", "", "Resume a conversation (@last, @first, index, id, or title)")
}

func runChat() error {
	cfg, _ := config.LoadConfig()

	client, err := newClient(cfg, api.WithAutoRefresh(cfg.AutoRefresh))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	spin := newSpinner("Connecting to Gemini")
	spin.start()
	if err := client.Init(); err != nil {
		spin.stopWithError()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to initialize"))
		return fmt.Errorf("failed to initialize: %w", err)
	}
	spin.stopWithSuccess("Connected")

	modelName := getModel()

	store, err := history.DefaultStore()
	if err != nil {
		// History is best effort: chat still works without persistence
		fmt.Fprintf(os.Stderr, "Warning: history disabled: %v\n", err)
		return tui.RunChat(client, modelName)
	}

	if resumeFlag != "" {
		return resumeChat(client, store, modelName)
	}

	conv, err := store.Create(modelName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history disabled: %v\n", err)
		return tui.RunChat(client, modelName)
	}

	return tui.RunChatWithConversation(client.StartChat(), modelName, conv, store)
}

// resumeChat reopens a stored conversation and restores its server-side
// context in a fresh session.
func resumeChat(client *api.GeminiClient, store *history.Store, modelName string) error {
	resolver := history.NewResolver(store)
	conv, err := resolver.ResolveConversation(resumeFlag)
	if err != nil {
		return fmt.Errorf("cannot resume: %w\n\n%s", err, history.ReferenceHelp())
	}

	// The stored conversation remembers which model it was using
	if conv.Model != "" {
		modelName = conv.Model
	}

	session := client.StartChat(models.ModelFromName(modelName))
	if md := conv.Metadata(); md != nil {
		session.SetMetadata(md[0], md[1], md[2])
	}

	return tui.RunChatWithConversation(session, modelName, conv, store)
}
