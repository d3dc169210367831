// Package mailer delivers magic-link e-mails. The services only see the
// Sender interface, so the delivery channel can be swapped freely.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"
)

// Message is the data rendered into a magic-link e-mail.
type Message struct {
	To        string
	Link      string
	ExpiresAt time.Time
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

const DefaultSubject = "Your sign-in link"

// DefaultEmailTemplate is the plain-text body of the magic-link e-mail.
const DefaultEmailTemplate = `Hello,

Use the link below to sign in. It works once and expires at {{ .ExpiresAt.UTC.Format "2006-01-02 15:04 MST" }}.

{{ .Link }}

If you did not ask for this e-mail you can ignore it.
`

// Renderer turns a Message into a subject and body.
type Renderer struct {
	subject string
	tmpl    *template.Template
}

func NewRenderer(subject, body string) (*Renderer, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if body == "" {
		body = DefaultEmailTemplate
	}
	t, err := template.New("magic-link").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &Renderer{subject: subject, tmpl: t}, nil
}

func (r *Renderer) Render(m Message) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, m); err != nil {
		return "", "", fmt.Errorf("render email: %w", err)
	}
	return r.subject, buf.String(), nil
}
