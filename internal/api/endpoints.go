package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pryvon/mailtm-go/internal/apierrors"
)

// GetDomains lists the domains available for account creation.
func (c *Client) GetDomains(ctx context.Context) ([]Domain, error) {
	var result collection[Domain]
	if err := c.do(ctx, http.MethodGet, "/domains", nil, &result); err != nil {
		return nil, tagResource(err, apierrors.ResourceDomain)
	}
	return result.Members, nil
}

// CreateAccount registers a new account. It does not issue a token;
// follow with GetToken to authenticate.
func (c *Client) CreateAccount(ctx context.Context, address, password string) (*Account, error) {
	body := map[string]string{"address": address, "password": password}
	var result Account
	if err := c.do(ctx, http.MethodPost, "/accounts", body, &result); err != nil {
		return nil, tagResource(err, apierrors.ResourceAccount)
	}
	return &result, nil
}

// GetToken exchanges credentials for a bearer token and the account id.
func (c *Client) GetToken(ctx context.Context, address, password string) (token, accountID string, err error) {
	body := map[string]string{"address": address, "password": password}
	var result tokenResponse
	if err := c.do(ctx, http.MethodPost, "/token", body, &result); err != nil {
		return "", "", tagResource(err, apierrors.ResourceAccount)
	}
	return result.Token, result.ID, nil
}

// GetMe returns the account behind the current token.
func (c *Client) GetMe(ctx context.Context) (*Account, error) {
	var result Account
	if err := c.do(ctx, http.MethodGet, "/me", nil, &result); err != nil {
		return nil, tagResource(err, apierrors.ResourceAccount)
	}
	return &result, nil
}

// DeleteAccount deletes the account by id.
func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	path := fmt.Sprintf("/accounts/%s", url.PathEscape(accountID))
	return tagResource(c.do(ctx, http.MethodDelete, path, nil, nil), apierrors.ResourceAccount)
}

// GetMessages lists one page of the current account's messages.
func (c *Client) GetMessages(ctx context.Context, page int) ([]MessageSummary, error) {
	path := "/messages"
	if page > 1 {
		path = fmt.Sprintf("/messages?page=%d", page)
	}
	var result collection[MessageSummary]
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, tagResource(err, apierrors.ResourceMessage)
	}
	return result.Members, nil
}

// GetMessage fetches the full content of a message.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	path := fmt.Sprintf("/messages/%s", url.PathEscape(messageID))
	var result Message
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, tagResource(err, apierrors.ResourceMessage)
	}
	return &result, nil
}

// MarkMessageSeen marks a message as read.
func (c *Client) MarkMessageSeen(ctx context.Context, messageID string) error {
	path := fmt.Sprintf("/messages/%s", url.PathEscape(messageID))
	body := map[string]bool{"seen": true}
	return tagResource(c.do(ctx, http.MethodPatch, path, body, nil), apierrors.ResourceMessage)
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	path := fmt.Sprintf("/messages/%s", url.PathEscape(messageID))
	return tagResource(c.do(ctx, http.MethodDelete, path, nil, nil), apierrors.ResourceMessage)
}

// tagResource annotates a taxonomy error with the resource it relates
// to, so callers can tell a missing message from a missing account.
func tagResource(err error, r apierrors.Resource) error {
	if err == nil {
		return nil
	}
	var apiErr *apierrors.Error
	if errors.As(err, &apiErr) {
		return apiErr.WithResource(r)
	}
	return err
}
