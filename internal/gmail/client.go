package gmail

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client wraps the Gmail Users service for the authorized account ("me").
type Client struct {
	svc    *gmail.UsersService
	logger *slog.Logger
}

// NewClient creates a Gmail client from an OAuth2 token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := oauth2.NewClient(ctx, ts)
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{svc: svc.Users, logger: logger}, nil
}

// Send submits a composed message and returns the provider-assigned message
// id. Provider rejections come back as *SendError.
func (c *Client) Send(msg *Message) (string, error) {
	raw, err := ComposeRaw(msg)
	if err != nil {
		return "", err
	}

	sent, err := c.svc.Messages.Send("me", &gmail.Message{Raw: raw}).Do()
	if err != nil {
		return "", newSendError(msg.To, err)
	}

	return sent.Id, nil
}

// SendMail is a convenience wrapper matching the campaign runner's Sender
// contract.
func (c *Client) SendMail(to, subject, body string, html bool, attachmentPath string) (string, error) {
	return c.Send(&Message{
		To:             to,
		Subject:        subject,
		Body:           body,
		HTML:           html,
		AttachmentPath: attachmentPath,
	})
}

// newSendError extracts the provider detail from a Gmail API error.
func newSendError(recipient string, err error) *SendError {
	se := &SendError{Recipient: recipient, Err: err}
	if apiErr, ok := err.(*googleapi.Error); ok {
		se.Code = apiErr.Code
		se.Reason = apiErr.Message
	}
	return se
}
