// Package mail delivers one-time codes and welcome messages.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/caasmo/notespieces/config"
	"github.com/domodwyer/mailyak/v3"
)

// Purpose selects the wording of an otp mail.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeSignin Purpose = "signin"
)

// Sender is what the auth flows need from a mail backend.
type Sender interface {
	SendOtp(ctx context.Context, to, name, code string, purpose Purpose, ttl time.Duration) error
	SendWelcome(ctx context.Context, to, name string) error
}

var (
	otpTmpl = template.Must(template.New("otp").Parse(`<h1>{{.AppName}}</h1>
<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
<p>{{if eq .Purpose "signup"}}Use this code to verify your email address:{{else}}Use this code to sign in:{{end}}</p>
<p style="font-size:24px;letter-spacing:4px"><strong>{{.Code}}</strong></p>
<p>The code expires in {{.Minutes}} minutes. If you did not request it, ignore this message.</p>
`))

	welcomeTmpl = template.Must(template.New("welcome").Parse(`<h1>Welcome to {{.AppName}}</h1>
<p>Hi{{if .Name}} {{.Name}}{{end}}, your account is ready.</p>
<p><a href="{{.AppURL}}">Open {{.AppName}}</a></p>
`))
)

// Mailer sends mail through the SMTP server of the current configuration.
type Mailer struct {
	configProvider *config.Provider
	// send delivers a prepared message to one recipient, tests replace it.
	send func(ctx context.Context, cfg config.Smtp, to string, mail *mailyak.MailYak) error
}

var _ Sender = (*Mailer)(nil)

func New(configProvider *config.Provider) (*Mailer, error) {
	if configProvider == nil {
		return nil, errors.New("mail: config provider cannot be nil")
	}
	return &Mailer{
		configProvider: configProvider,
		send:           smtpSend,
	}, nil
}

// newMail composes the message with mailyak. The transport is smtpSend,
// mailyak's own Send has no deadline.
func newMail(cfg config.Smtp) *mailyak.MailYak {
	mail := mailyak.New(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), nil)
	mail.From(cfg.FromAddress)
	mail.FromName(cfg.FromName)
	return mail
}

func (m *Mailer) SendOtp(ctx context.Context, to, name, code string, purpose Purpose, ttl time.Duration) error {
	cfg := m.configProvider.Get().Smtp

	subject := fmt.Sprintf("Your %s sign-in code", cfg.AppName)
	if purpose == PurposeSignup {
		subject = fmt.Sprintf("Verify your %s email", cfg.AppName)
	}

	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return m.deliver(ctx, cfg, to, subject, otpTmpl, map[string]any{
		"AppName": cfg.AppName,
		"Name":    name,
		"Code":    code,
		"Purpose": string(purpose),
		"Minutes": minutes,
	})
}

func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	cfg := m.configProvider.Get().Smtp
	return m.deliver(ctx, cfg, to, fmt.Sprintf("Welcome to %s", cfg.AppName), welcomeTmpl, map[string]any{
		"AppName": cfg.AppName,
		"AppURL":  cfg.AppURL,
		"Name":    name,
	})
}

// deliver renders tmpl and sends the message. The whole exchange, dial
// included, ends with the configured timeout or when ctx is done; nothing
// is left running afterwards.
func (m *Mailer) deliver(ctx context.Context, cfg config.Smtp, to, subject string, tmpl *template.Template, data any) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("mail: failed to render %s: %w", tmpl.Name(), err)
	}

	mail := newMail(cfg)
	mail.To(to)
	mail.Subject(subject)
	mail.HTML().Set(body.String())

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout.Duration)
	defer cancel()

	if err := m.send(ctx, cfg, to, mail); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return fmt.Errorf("mail: sending %s to %s: %w", tmpl.Name(), to, err)
	}
	return nil
}

// LogMailer logs codes instead of sending them. It stands in for the
// Mailer when SMTP is disabled, during development.
type LogMailer struct {
	logger *slog.Logger
}

var _ Sender = (*LogMailer)(nil)

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (l *LogMailer) SendOtp(ctx context.Context, to, name, code string, purpose Purpose, ttl time.Duration) error {
	l.logger.DebugContext(ctx, "mail: otp not sent, smtp disabled",
		"to", to, "purpose", purpose, "code", code, "ttl", ttl)
	return nil
}

func (l *LogMailer) SendWelcome(ctx context.Context, to, name string) error {
	l.logger.DebugContext(ctx, "mail: welcome not sent, smtp disabled", "to", to)
	return nil
}
