package mailtm

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pryvon/mailtm-go/internal/api"
)

func TestNewMessageSummary_Flattening(t *testing.T) {
	raw := &api.MessageSummary{
		ID:             "m1",
		From:           api.Address{Address: "sender@x.test", Name: "Sender"},
		To:             []api.Address{{Address: "a@x.test"}, {Address: "b@x.test"}},
		Subject:        "hello",
		Intro:          "hi",
		Seen:           true,
		HasAttachments: true,
		Size:           512,
		CreatedAt:      "2024-01-02T03:04:05Z",
	}

	s := newMessageSummary(raw)
	if s.From != "sender@x.test" || s.FromName != "Sender" {
		t.Errorf("from = %q / %q", s.From, s.FromName)
	}
	if s.To != "a@x.test" {
		t.Errorf("to = %q, want first recipient", s.To)
	}
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if !s.CreatedAt.Equal(want) {
		t.Errorf("createdAt = %v, want %v", s.CreatedAt, want)
	}
}

func TestNewMessageSummary_MissingFields(t *testing.T) {
	s := newMessageSummary(&api.MessageSummary{ID: "m2"})
	if s.From != "" || s.To != "" {
		t.Errorf("empty addresses flattened to %q / %q", s.From, s.To)
	}
	if !s.CreatedAt.IsZero() {
		t.Errorf("missing createdAt parsed to %v", s.CreatedAt)
	}
}

func TestNewMessage_Recipients(t *testing.T) {
	raw := &api.Message{
		MessageSummary: api.MessageSummary{ID: "m3"},
		CC:             []api.Address{{Address: "cc@x.test"}},
		BCC:            []api.Address{{Address: "bcc@x.test"}},
		Text:           "plain",
		Attachments: []api.Attachment{
			{ID: "a1", Filename: "file.pdf", ContentType: "application/pdf", Size: 2048},
		},
	}

	msg := newMessage(raw)
	if len(msg.CC) != 1 || msg.CC[0] != "cc@x.test" {
		t.Errorf("cc = %v", msg.CC)
	}
	if len(msg.BCC) != 1 || msg.BCC[0] != "bcc@x.test" {
		t.Errorf("bcc = %v", msg.BCC)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "file.pdf" {
		t.Errorf("attachments = %+v", msg.Attachments)
	}
}

func TestFlattenHTML(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"<p>one</p>"`, "<p>one</p>"},
		{"array", `["<p>one</p>","<p>two</p>"]`, "<p>one</p>\n<p>two</p>"},
		{"empty array", `[]`, ""},
		{"absent", ``, ""},
		{"null", `null`, ""},
		{"unexpected object", `{"html":"x"}`, ""},
	}
	for _, tt := range tests {
		if got := flattenHTML(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("%s: flattenHTML(%s) = %q, want %q", tt.name, tt.raw, got, tt.want)
		}
	}
}

func TestParseTime_Formats(t *testing.T) {
	tests := []struct {
		in   string
		zero bool
	}{
		{"2024-01-02T03:04:05Z", false},
		{"2024-01-02T03:04:05.123456Z", false},
		{"2024-01-02 03:04:05", false},
		{"not a timestamp", true},
		{"", true},
	}
	for _, tt := range tests {
		got := parseTime(tt.in)
		if got.IsZero() != tt.zero {
			t.Errorf("parseTime(%q) = %v, zero = %v", tt.in, got, tt.zero)
		}
	}
}
