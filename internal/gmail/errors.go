package gmail

import "fmt"

// SendError reports a message the Gmail API refused to accept: invalid
// recipient, quota exceeded, expired auth, oversized payload and the like.
type SendError struct {
	// Recipient is the address the message was meant for.
	Recipient string

	// Code is the HTTP status the API returned, if known.
	Code int

	// Reason is the provider's error detail, if known.
	Reason string

	// Err is the underlying error.
	Err error
}

func (e *SendError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("send to %s rejected (%d): %s", e.Recipient, e.Code, e.Reason)
	}
	return fmt.Sprintf("send to %s failed: %v", e.Recipient, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
