// Package email delivers workflow notifications over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

var bodyTemplate = template.Must(template.New("body").Parse(`<html>
<body style="font-family: sans-serif; color: #1f2933;">
	<h2>{{.Heading}}</h2>
	<p>{{.Body}}</p>
	{{if .LinkURL}}<p><a href="{{.LinkURL}}">{{.LinkLabel}}</a></p>{{end}}
</body>
</html>`))

type messageData struct {
	Heading   string
	Body      string
	LinkURL   string
	LinkLabel string
}

// SMTPSender delivers emails via a direct SMTP connection using go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates an SMTPSender with the given credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send delivers one message. The body is wrapped in the shared HTML frame.
func (s *SMTPSender) Send(ctx context.Context, toEmail, subject, body, linkURL, linkLabel string) error {
	var content bytes.Buffer
	if err := bodyTemplate.Execute(&content, messageData{
		Heading:   subject,
		Body:      body,
		LinkURL:   linkURL,
		LinkLabel: linkLabel,
	}); err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, content.String())

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
