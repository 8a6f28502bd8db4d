package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var messagesCmd = &cobra.Command{
	Use:     "messages",
	Aliases: []string{"ls", "inbox"},
	Short:   "List the mailbox",
	Long: `List one page of the mailbox, newest first.

Examples:
  mailtm messages                  # First page
  mailtm messages --page 2         # Later pages
  mailtm messages --unread         # Only unread messages`,
	RunE: runMessages,
}

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Act on a single message",
}

var messageViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show a message's full content",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessageView,
}

var messageReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a message as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessageRead,
}

var messageDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a message",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessageDelete,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refetch the inbox, bypassing the cache",
	RunE:  runRefresh,
}

func init() {
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(messageCmd)
	rootCmd.AddCommand(refreshCmd)
	messageCmd.AddCommand(messageViewCmd)
	messageCmd.AddCommand(messageReadCmd)
	messageCmd.AddCommand(messageDeleteCmd)

	messagesCmd.Flags().Int("page", 1, "mailbox page")
	messagesCmd.Flags().Bool("unread", false, "only unread messages")
}

func runMessages(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := ensureLogin(ctx)
	if err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	unreadOnly, _ := cmd.Flags().GetBool("unread")

	messages, err := client.Messages(ctx, page)
	if err != nil {
		return err
	}

	table := NewTable([]string{"", "ID", "FROM", "SUBJECT", "DATE"})
	shown := 0
	for _, m := range messages {
		if unreadOnly && m.Seen {
			continue
		}
		from := m.From
		if m.FromName != "" {
			from = m.FromName
		}
		table.AddRow([]string{
			printer.SeenBadge(m.Seen),
			m.ID,
			truncate(from, 30),
			truncate(m.Subject, 50),
			m.CreatedAt.Format("Jan 02 15:04"),
		})
		shown++
	}

	if shown == 0 {
		if unreadOnly {
			printer.Info("no unread messages")
		} else {
			printer.Info("mailbox is empty")
		}
		return nil
	}
	table.Render()
	return nil
}

func runMessageView(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := ensureLogin(ctx)
	if err != nil {
		return err
	}

	msg, err := client.Message(ctx, args[0])
	if err != nil {
		return err
	}

	printer.Header(msg.Subject)
	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}
	printer.Print("from: %s", from)
	printer.Print("to:   %s", msg.To)
	if len(msg.CC) > 0 {
		printer.Print("cc:   %s", strings.Join(msg.CC, ", "))
	}
	if !msg.CreatedAt.IsZero() {
		printer.Print("date: %s", msg.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	printer.Print("")
	body := msg.Text
	if body == "" {
		body = msg.HTML
	}
	printer.Print("%s", body)

	if len(msg.Attachments) > 0 {
		printer.Header("Attachments")
		for _, a := range msg.Attachments {
			printer.Print("%s  %s (%d bytes)", a.ID, a.Filename, a.Size)
		}
	}
	return nil
}

func runMessageRead(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := ensureLogin(ctx)
	if err != nil {
		return err
	}
	if err := client.MarkMessageSeen(ctx, args[0]); err != nil {
		return err
	}
	printer.Success("marked %s as read", args[0])
	return nil
}

func runMessageDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := ensureLogin(ctx)
	if err != nil {
		return err
	}
	if err := client.DeleteMessage(ctx, args[0]); err != nil {
		return err
	}
	printer.Success("deleted %s", args[0])
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := ensureLogin(ctx)
	if err != nil {
		return err
	}

	messages, err := client.RefreshMailbox(ctx)
	if err != nil {
		return err
	}
	unread := 0
	for _, m := range messages {
		if !m.Seen {
			unread++
		}
	}
	printer.Success("mailbox refreshed: %d messages, %d unread", len(messages), unread)
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
