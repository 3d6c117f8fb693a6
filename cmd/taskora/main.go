package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"Taskora/internal/chatclient"
	"Taskora/internal/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serverURL string
	socketURL string
	userID    string
)

func main() {
	root := &cobra.Command{
		Use:   "taskora",
		Short: "Taskora chat client",
		Long:  "Command line client for the Taskora messaging server.",
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "application server base URL")
	root.PersistentFlags().StringVar(&socketURL, "socket", "ws://localhost:8081/ws", "message feed URL")
	root.PersistentFlags().StringVar(&userID, "user", "", "acting user id")
	_ = root.MarkPersistentFlagRequired("user")

	root.AddCommand(conversationsCmd(), watchCmd(), sendCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildClient() (*chatclient.APIBackend, *zap.Logger) {
	logger, _ := zap.NewDevelopment()
	return chatclient.NewAPIBackend(serverURL, socketURL, userID, logger), logger
}

func conversationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conversations [query]",
		Short: "List conversations, optionally filtered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, logger := buildClient()
			defer logger.Sync()

			resolver := chatclient.NewParticipantResolver()
			store := chatclient.NewListStore(backend, resolver, userID, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := store.Load(ctx); err != nil {
				return err
			}

			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			now := time.Now()
			for _, conv := range store.View(query) {
				other := resolver.Resolve(&conv, userID)

				marker := " "
				if conv.IsPinned {
					marker = "*"
				}
				preview := ""
				if conv.LastMessage != nil {
					preview = conv.LastMessage.Content
				}
				unread := ""
				if conv.UnreadCount > 0 {
					unread = fmt.Sprintf(" (%d unread)", conv.UnreadCount)
				}

				fmt.Printf("%s %s  %-24s %-12s %s%s\n",
					marker,
					conv.ID.Hex(),
					other.DisplayName,
					chatclient.RelativeTime(conv.LastMessageAt, now),
					preview,
					unread,
				)
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <conversationId>",
		Short: "Stream a conversation, marking it read as messages settle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, logger := buildClient()
			defer logger.Sync()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			stream := chatclient.NewStreamController(backend, userID, 0, logger)
			stream.SetOnChange(func(msgs []model.Message) {
				printMessages(msgs)
			})

			if err := stream.Open(ctx, args[0]); err != nil {
				return err
			}
			defer stream.Close()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			return nil
		},
	}
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <recipientId> <message...>",
		Short: "Send a message, creating the conversation if needed",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, logger := buildClient()
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			conv, err := backend.CreateConversation(ctx, args[0], "", "")
			if err != nil {
				return err
			}

			resolver := chatclient.NewParticipantResolver()
			store := chatclient.NewListStore(backend, resolver, userID, logger)
			store.Upsert(*conv)

			stream := chatclient.NewStreamController(backend, userID, 0, logger)
			if err := stream.Open(ctx, conv.ID.Hex()); err != nil {
				return err
			}
			defer stream.Close()

			sender := chatclient.NewSender(backend, stream, store, userID, logger)
			sender.SetDraft(conv.ID.Hex(), strings.Join(args[1:], " "))

			sent, err := sender.Send(ctx, conv)
			if err != nil {
				return err
			}

			fmt.Printf("sent %s\n", sent.MessageID)
			return nil
		},
	}
}

func printMessages(msgs []model.Message) {
	fmt.Println(strings.Repeat("-", 60))
	now := time.Now()
	for _, m := range msgs {
		state := ""
		if m.Provisional() {
			state = " (sending)"
		}
		fmt.Printf("[%s] %s: %s%s\n",
			chatclient.RelativeTime(m.SentAt, now),
			m.SenderID,
			m.Content,
			state,
		)
	}
}
