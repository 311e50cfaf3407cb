package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/teemow/mailgate/internal/provider"
)

// encodeRFC2047 encodes non-ASCII header values.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

func appendSignature(body, signature string, isHTML bool) string {
	if signature == "" || body == "" {
		return body
	}
	if isHTML {
		return body + "<br><br>-- <br>" + signature
	}
	return body + "\n\n-- \n" + signature
}

// buildRawMessage renders msg as RFC 2822 and base64url-encodes it. Messages
// with HTML become multipart/alternative with the text part first.
func buildRawMessage(msg provider.Message, signature string) (string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", encodeRFC2047(msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	text := appendSignature(msg.Text, signature, false)

	if msg.HTML == "" {
		buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		if err := writeQuotedPrintable(&buf, text); err != nil {
			return "", err
		}
		return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
	}

	html := appendSignature(msg.HTML, signature, true)

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=\"UTF-8\"", text},
		{"text/html; charset=\"UTF-8\"", html},
	}
	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Type", p.contentType)
		header.Set("Content-Transfer-Encoding", "quoted-printable")
		w, err := mw.CreatePart(header)
		if err != nil {
			return "", fmt.Errorf("create part: %w", err)
		}
		if err := writeQuotedPrintable(w, p.body); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

func writeQuotedPrintable(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(strings.ReplaceAll(body, "\n", "\r\n"))); err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	return qp.Close()
}
