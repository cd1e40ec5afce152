package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmribeiro/geminiweb/internal/api"
	"github.com/dmribeiro/geminiweb/internal/config"
	"github.com/dmribeiro/geminiweb/internal/history"
)

var shareTitle string

var shareCmd = &cobra.Command{
	Use:   "share <ref>",
	Short: "Publish a conversation as a public share link",
	Long: `Publish a stored conversation and print its public share URL.

The conversation must have been sent to Gemini at least once; brand new
or empty conversations cannot be shared.

` + history.ReferenceHelp(),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShare(args[0])
	},
}

func init() {
	shareCmd.Flags().StringVarP(&shareTitle, "title", "t", "", "Title for the shared page (defaults to the conversation title)")
}

func runShare(ref string) error {
	_, resolver, err := openHistory()
	if err != nil {
		return err
	}

	conv, err := resolver.ResolveConversation(ref)
	if err != nil {
		return err
	}

	metadata := conv.Metadata()
	if metadata == nil {
		return fmt.Errorf("conversation %s has no server-side context and cannot be shared", conv.ID)
	}

	title := shareTitle
	if title == "" {
		title = conv.Title
	}

	cfg, _ := config.LoadConfig()
	client, err := newClient(cfg, api.WithAutoRefresh(false))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	spin := newSpinner("Publishing conversation")
	spin.start()

	if err := client.Init(); err != nil {
		spin.stopWithError()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Failed to initialize"))
		return fmt.Errorf("failed to initialize: %w", err)
	}

	url, err := client.ShareConversation(metadata, title)
	if err != nil {
		spin.stopWithError()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Share failed"))
		return fmt.Errorf("share failed: %w", err)
	}

	spin.stopWithSuccess("Conversation published")
	fmt.Println(url)
	return nil
}
