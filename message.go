package mailtm

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pryvon/mailtm-go/internal/api"
)

// MessageSummary is one row of a mailbox listing.
// Use Client methods to act on messages:
//   - client.Message(ctx, id) — fetches the full content
//   - client.MarkMessageSeen(ctx, id) — marks it read
//   - client.DeleteMessage(ctx, id) — deletes it
type MessageSummary struct {
	ID             string
	From           string
	FromName       string
	To             string
	Subject        string
	Intro          string
	Seen           bool
	HasAttachments bool
	Size           int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Message is the full content of a message.
type Message struct {
	MessageSummary
	CC          []string
	BCC         []string
	Text        string
	HTML        string
	Attachments []Attachment
	DownloadURL string
}

// Attachment describes a message attachment.
type Attachment struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
	DownloadURL string
}

func newMessageSummary(m *api.MessageSummary) MessageSummary {
	s := MessageSummary{
		ID:             m.ID,
		From:           m.From.Address,
		FromName:       m.From.Name,
		Subject:        m.Subject,
		Intro:          m.Intro,
		Seen:           m.Seen,
		HasAttachments: m.HasAttachments,
		Size:           m.Size,
		CreatedAt:      parseTime(m.CreatedAt),
		UpdatedAt:      parseTime(m.UpdatedAt),
	}
	if len(m.To) > 0 {
		s.To = m.To[0].Address
	}
	return s
}

func newMessageSummaries(ms []api.MessageSummary) []MessageSummary {
	out := make([]MessageSummary, 0, len(ms))
	for i := range ms {
		out = append(out, newMessageSummary(&ms[i]))
	}
	return out
}

func newMessage(m *api.Message) *Message {
	if m == nil {
		return nil
	}
	msg := &Message{
		MessageSummary: newMessageSummary(&m.MessageSummary),
		Text:           m.Text,
		HTML:           flattenHTML(m.HTML),
		DownloadURL:    m.DownloadURL,
	}
	for _, a := range m.CC {
		msg.CC = append(msg.CC, a.Address)
	}
	for _, a := range m.BCC {
		msg.BCC = append(msg.BCC, a.Address)
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, Attachment{
			ID:          a.ID,
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Size:        a.Size,
			DownloadURL: a.DownloadURL,
		})
	}
	return msg
}

// flattenHTML accepts the html field as either a string or an array of
// strings, depending on provider version. Anything else decodes to "".
func flattenHTML(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return one
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return strings.Join(many, "\n")
	}
	return ""
}
