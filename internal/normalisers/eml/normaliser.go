package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles RFC 822 email messages.
type Normaliser struct{}

// New creates a new email normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Type returns the file type this normaliser handles.
func (n *Normaliser) Type() domain.FileType {
	return domain.FileTypeEmail
}

// Normalise renders a header block (Subject, From, To, Date) followed by a
// blank line and the plain-text body.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.LoadedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse email: %v", domain.ErrInvalidInput, err)
	}

	headers := map[string]string{
		"subject": decodeHeader(msg.Header.Get("Subject")),
		"from":    decodeHeader(msg.Header.Get("From")),
		"to":      decodeHeader(msg.Header.Get("To")),
		"date":    msg.Header.Get("Date"),
	}

	body, err := extractBody(msg)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	fmt.Fprintf(&content, "Subject: %s\n", headers["subject"])
	fmt.Fprintf(&content, "From: %s\n", headers["from"])
	fmt.Fprintf(&content, "To: %s\n", headers["to"])
	fmt.Fprintf(&content, "Date: %s\n\n", headers["date"])
	content.WriteString(body)

	metadata := make(map[string]any, len(headers))
	for k, v := range headers {
		metadata[k] = v
	}

	return &domain.LoadedDocument{
		Text:     strings.TrimSpace(content.String()),
		Metadata: metadata,
	}, nil
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// extractBody extracts the text content from an email message.
func extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	body, err := io.ReadAll(decodeTransfer(msg.Body, msg.Header.Get("Content-Transfer-Encoding")))
	if err != nil {
		return "", fmt.Errorf("%w: read email body: %v", domain.ErrInvalidInput, err)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body), nil
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		return extractMultipartBody(bytes.NewReader(body), params["boundary"]), nil
	case mediaType == "text/html":
		return stripHTMLTags(string(body)), nil
	default:
		return string(body), nil
	}
}

// decodeTransfer undoes a single-part Content-Transfer-Encoding.
// Multipart readers decode quoted-printable parts themselves.
func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// newlineStripper drops CR and LF so wrapped base64 decodes.
type newlineStripper struct {
	r io.Reader
}

func (s newlineStripper) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	out := p[:0]
	for _, b := range p[:n] {
		if b != '\r' && b != '\n' {
			out = append(out, b)
		}
	}
	return len(out), err
}

// extractMultipartBody collects text/plain parts, falling back to
// stripped text/html parts when there are none.
func extractMultipartBody(r io.Reader, boundary string) string {
	if boundary == "" {
		return ""
	}

	mr := multipart.NewReader(r, boundary)
	var textParts []string
	var htmlParts []string

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		mediaType, params, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = "text/plain"
		}

		content, readErr := io.ReadAll(decodeTransfer(part, partEncoding(part)))
		part.Close()
		if readErr != nil {
			continue
		}

		switch {
		case mediaType == "text/plain":
			textParts = append(textParts, string(content))
		case mediaType == "text/html":
			htmlParts = append(htmlParts, stripHTMLTags(string(content)))
		case strings.HasPrefix(mediaType, "multipart/"):
			if nested := extractMultipartBody(bytes.NewReader(content), params["boundary"]); nested != "" {
				textParts = append(textParts, nested)
			}
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n")
	}
	return strings.Join(htmlParts, "\n")
}

// partEncoding returns the transfer encoding still to be undone for a part.
// The multipart reader strips the header once it has decoded quoted-printable.
func partEncoding(part *multipart.Part) string {
	return part.Header.Get("Content-Transfer-Encoding")
}

// stripHTMLTags removes HTML tags for basic text extraction.
func stripHTMLTags(html string) string {
	var result strings.Builder
	inTag := false

	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	lines := strings.Split(result.String(), "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
