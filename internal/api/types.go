package api

import "encoding/json"

// The provider wraps collections in hydra-style envelopes. Unknown and
// missing fields are tolerated everywhere; decoding never fails a
// response over schema drift.

// collection is the hydra collection envelope.
type collection[T any] struct {
	Members []T `json:"hydra:member"`
	Total   int `json:"hydra:totalItems"`
}

// Domain is a provider domain available for account creation.
type Domain struct {
	ID        string `json:"id"`
	Domain    string `json:"domain"`
	IsActive  bool   `json:"isActive"`
	IsPrivate bool   `json:"isPrivate"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Account is the provider's account representation.
type Account struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	Quota      int64  `json:"quota"`
	Used       int64  `json:"used"`
	IsDisabled bool   `json:"isDisabled"`
	IsDeleted  bool   `json:"isDeleted"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// Address is a name/address pair as it appears in message envelopes.
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// MessageSummary is one entry of the message list.
type MessageSummary struct {
	ID             string    `json:"id"`
	From           Address   `json:"from"`
	To             []Address `json:"to"`
	Subject        string    `json:"subject"`
	Intro          string    `json:"intro"`
	Seen           bool      `json:"seen"`
	IsDeleted      bool      `json:"isDeleted"`
	HasAttachments bool      `json:"hasAttachments"`
	Size           int64     `json:"size"`
	DownloadURL    string    `json:"downloadUrl"`
	CreatedAt      string    `json:"createdAt"`
	UpdatedAt      string    `json:"updatedAt"`
}

// Message is the full message payload. HTML arrives as either a string
// or an array of strings depending on provider version, so it is kept
// raw and flattened by the caller.
type Message struct {
	MessageSummary
	CC          []Address       `json:"cc"`
	BCC         []Address       `json:"bcc"`
	Text        string          `json:"text"`
	HTML        json.RawMessage `json:"html"`
	Attachments []Attachment    `json:"attachments"`
}

// Attachment describes a message attachment.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

// tokenResponse is the POST /token payload.
type tokenResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
}

// errorResponse is the provider's error body shape.
type errorResponse struct {
	Message     string `json:"message"`
	Detail      string `json:"detail"`
	Description string `json:"hydra:description"`
}
