package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/aetherchat/internal/state"
	"github.com/user/aetherchat/internal/types"
)

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "Manage stored conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		index := state.NewIndex(cfg.DataDir)

		list, err := index.List(context.Background())
		if err != nil {
			return fmt.Errorf("list conversations: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No conversations found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tMODEL\tSTATUS\tMESSAGES\tUPDATED")
		for _, c := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				c.ConversationID,
				c.Title,
				c.Model,
				c.Status,
				c.MessageCount,
				c.UpdatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the transcript of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		transcripts := state.NewTranscripts(cfg.DataDir)

		msgs, err := transcripts.Tail(context.Background(), types.ConversationID(args[0]), 200)
		if err != nil {
			return fmt.Errorf("load transcript: %w", err)
		}
		for _, msg := range msgs {
			fmt.Printf("[%s] %s:\n%s\n\n", msg.CreatedAt.Format("2006-01-02 15:04:05"), msg.Role, msg.Content)
		}
		return nil
	},
}

var conversationsClearCmd = &cobra.Command{
	Use:   "clear <id|all>",
	Short: "Delete a conversation or all conversations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		conversationsDir := filepath.Join(cfg.DataDir, "conversations")

		if args[0] == "all" {
			if err := os.RemoveAll(conversationsDir); err != nil {
				return fmt.Errorf("remove conversations directory: %w", err)
			}
			fmt.Println("All conversations cleared.")
			return nil
		}

		// Remove specific conversation directory (validate path to prevent traversal)
		convDir := filepath.Join(conversationsDir, args[0])
		resolved, err := filepath.Abs(convDir)
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		absConversationsDir, _ := filepath.Abs(conversationsDir)
		if !strings.HasPrefix(resolved, absConversationsDir+string(filepath.Separator)) {
			return fmt.Errorf("invalid conversation ID: %s", args[0])
		}
		if _, err := os.Stat(convDir); os.IsNotExist(err) {
			return fmt.Errorf("conversation not found: %s", args[0])
		}
		if err := os.RemoveAll(convDir); err != nil {
			return fmt.Errorf("remove conversation directory: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Conversation %s cleared.\n", args[0])
		return nil
	},
}

func init() {
	conversationsCmd.AddCommand(conversationsListCmd, conversationsShowCmd, conversationsClearCmd)
	rootCmd.AddCommand(conversationsCmd)
}
