package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmribeiro/geminiweb/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage conversation history",
	Long: `View and manage your local conversation history.

Commands that take a conversation accept flexible references:

` + history.ReferenceHelp(),
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all conversations",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyRenameCmd = &cobra.Command{
	Use:   "rename <ref> <title>",
	Short: "Rename a conversation",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryRename,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all conversations",
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyRenameCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func openHistory() (*history.Store, *history.Resolver, error) {
	store, err := history.DefaultStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, history.NewResolver(store), nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}

	conversations, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(conversations) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tID\tTITLE\tMODEL\tMESSAGES\tUPDATED")

	for i, conv := range conversations {
		title := conv.Title
		if len(title) > 40 {
			title = title[:40] + "..."
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			i+1, conv.ID, title, conv.Model, len(conv.Messages),
			conv.UpdatedAt.Format("2006-01-02 15:04"))
	}

	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	_, resolver, err := openHistory()
	if err != nil {
		return err
	}

	conv, err := resolver.ResolveConversation(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ID: %s\n", conv.ID)
	fmt.Printf("Title: %s\n", conv.Title)
	fmt.Printf("Model: %s\n", conv.Model)
	fmt.Printf("Created: %s\n", conv.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated: %s\n", conv.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Messages: %d\n", len(conv.Messages))
	fmt.Println()

	for i, msg := range conv.Messages {
		role := "You"
		if msg.Role == "assistant" {
			role = "Gemini"
		}
		fmt.Printf("[%d] %s (%s):\n", i+1, role, msg.Timestamp.Format("15:04"))

		if msg.Thoughts != "" {
			fmt.Printf("  💭 %s\n", msg.Thoughts)
		}

		content := msg.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		fmt.Printf("  %s\n\n", content)
	}

	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, resolver, err := openHistory()
	if err != nil {
		return err
	}

	id, err := resolver.Resolve(args[0])
	if err != nil {
		return err
	}

	if err := store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	fmt.Printf("Deleted conversation: %s\n", id)
	return nil
}

func runHistoryRename(cmd *cobra.Command, args []string) error {
	store, resolver, err := openHistory()
	if err != nil {
		return err
	}

	id, err := resolver.Resolve(args[0])
	if err != nil {
		return err
	}

	if err := store.Rename(id, args[1]); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}

	fmt.Printf("Renamed conversation %s to %q\n", id, args[1])
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Println("All conversations deleted.")
	return nil
}
