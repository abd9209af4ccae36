// Package mail delivers outgoing messages. The file backend writes one file
// per message, for development and tests.
package mail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Message struct {
	To      []string
	Subject string
	Body    string
}

// FileMailer writes messages under dir as <timestamp>-<id>.log files.
type FileMailer struct {
	dir  string
	from string
}

func NewFileMailer(dir, from string) (*FileMailer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("mail dir: %w", err)
	}
	return &FileMailer{dir: dir, from: from}, nil
}

func (m *FileMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	now := time.Now().UTC()
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")

	name := now.Format("20060102-150405") + "-" + uuid.NewString() + ".log"
	return os.WriteFile(filepath.Join(m.dir, name), []byte(b.String()), 0644)
}
