package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/aetherchat/internal/gateway"
	"github.com/user/aetherchat/internal/search"
	"github.com/user/aetherchat/internal/state"
	"github.com/user/aetherchat/internal/stream"
	"github.com/user/aetherchat/internal/types"
)

var chatShowActivity bool

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message and print the reply (reads stdin when no args)",
	Args:  cobra.ArbitraryArgs,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatShowActivity, "activity", false, "print the activity timeline after the reply")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		message = strings.TrimSpace(string(data))
	}
	if message == "" {
		return fmt.Errorf("message is required")
	}

	client := gateway.New(&gateway.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		APIKey:      cfg.Gateway.APIKey,
		AppID:       cfg.Gateway.AppID,
		Model:       cfg.Gateway.Model,
		MaxTokens:   cfg.Gateway.MaxTokens,
		Temperature: cfg.Gateway.Temperature,
	})

	conversation := state.NewConversation(types.NewConversationID())

	var enricher stream.Enricher
	if cfg.Search.Enabled && cfg.Search.BraveAPIKey != "" {
		enricher = search.NewWebEnricher(search.NewBraveClient(cfg.Search.BraveAPIKey), search.NewPageReader())
	}

	var turnErr error
	controller := stream.NewController(client, conversation, stream.Options{
		Model:       cfg.Gateway.Model,
		Temperature: cfg.Gateway.Temperature,
		MaxTokens:   cfg.Gateway.MaxTokens,
		User:        os.Getenv("USER"),
		AppID:       cfg.Gateway.AppID,
		Enricher:    enricher,
		OnError:     func(err error) { turnErr = err },
	})

	controller.SendMessage(context.Background(), message)
	if turnErr != nil {
		return turnErr
	}

	msgs := conversation.Messages()
	if len(msgs) < 2 {
		return fmt.Errorf("no reply received")
	}
	reply := msgs[len(msgs)-1]
	fmt.Println(reply.Content)

	if reply.Metadata != nil && reply.Metadata.Tokens != nil {
		fmt.Fprintf(os.Stderr, "\n[%s, %d input + %d output tokens, %dms]\n",
			reply.Metadata.Model,
			reply.Metadata.Tokens.Input,
			reply.Metadata.Tokens.Output,
			reply.Metadata.LatencyMS,
		)
	}

	if chatShowActivity {
		for _, event := range conversation.Activity() {
			fmt.Fprintf(os.Stderr, "%s  %-10s %-8s %s", event.At.Format("15:04:05"), event.Type, event.Status, event.Title)
			if event.Description != "" {
				fmt.Fprintf(os.Stderr, " (%s)", event.Description)
			}
			fmt.Fprintln(os.Stderr)
		}
	}
	return nil
}
