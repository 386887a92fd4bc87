package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Message describes a single outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string

	// HTML selects a text/html body part instead of text/plain.
	HTML bool

	// AttachmentPath, if it points at a readable file, adds a binary
	// attachment part carrying the file's raw bytes under its base name.
	AttachmentPath string
}

// ComposeRaw builds the RFC 2822 message and encodes it in the base64url
// raw envelope the Gmail API requires. The body always travels as a
// multipart/alternative part inside a multipart/mixed envelope, with the
// optional attachment as a sibling part.
func ComposeRaw(msg *Message) (string, error) {
	if msg.To == "" {
		return "", fmt.Errorf("recipient is required")
	}
	if msg.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	attachment, err := readAttachment(msg.AttachmentPath)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("To: ")
	b.WriteString(msg.To)
	b.WriteString("\r\n")
	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(msg.Subject))
	b.WriteString("\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	mixed := "mixed-" + uuid.NewString()
	alternative := "alt-" + uuid.NewString()
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed)

	fmt.Fprintf(&b, "--%s\r\n", mixed)
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", alternative)
	fmt.Fprintf(&b, "--%s\r\n", alternative)
	writeBodyHeaders(&b, msg.HTML)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "--%s--\r\n", alternative)

	if attachment != nil {
		fmt.Fprintf(&b, "--%s\r\n", mixed)
		fmt.Fprintf(&b, "Content-Type: application/octet-stream; name=%q\r\n", attachment.name)
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n\r\n", attachment.name)
		writeBase64Wrapped(&b, attachment.data)
		b.WriteString("\r\n")
	}

	fmt.Fprintf(&b, "--%s--", mixed)

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

type attachmentPart struct {
	name string
	data []byte
}

// readAttachment loads the attachment file if the path names a readable
// regular file, and returns nil otherwise. A set-but-unreadable path is an
// error so a campaign's static attachment cannot silently go missing.
func readAttachment(path string) (*attachmentPart, error) {
	if path == "" {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment %s: %w", path, err)
	}

	return &attachmentPart{name: filepath.Base(path), data: data}, nil
}

func writeBodyHeaders(b *strings.Builder, html bool) {
	if html {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
}

// writeBase64Wrapped emits standard base64 folded at 76 columns per RFC 2045.
func writeBase64Wrapped(b *strings.Builder, data []byte) {
	const lineLen = 76
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > lineLen {
		b.WriteString(encoded[:lineLen])
		b.WriteString("\r\n")
		encoded = encoded[lineLen:]
	}
	b.WriteString(encoded)
}

// encodeRFC2047 encodes a header value when it contains non-ASCII runes.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
