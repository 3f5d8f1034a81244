// Package mail envía las notificaciones del servicio por SMTP. El envío es
// best-effort: un SMTP caído no voltea la operación que lo disparó.
package mail

import (
	"crypto/tls"
	"fmt"

	gomail "github.com/go-mail/mail"

	"github.com/dropDatabas3/depotmaster/internal/observability/logger"
)

type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPSender implementa Sender contra un servidor SMTP real.
type SMTPSender struct {
	Host    string
	Port    int
	From    string
	User    string
	Pass    string
	TLSMode string // "auto" | "starttls" | "ssl" | "none"
}

func NewSMTPSender(host string, port int, from, user, pass, tlsMode string) *SMTPSender {
	if tlsMode == "" {
		tlsMode = "auto"
	}
	return &SMTPSender{Host: host, Port: port, From: from, User: user, Pass: pass, TLSMode: tlsMode}
}

func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	// multipart/alternative cuando hay ambas partes
	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{ServerName: s.Host}

	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = nil
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si el server lo ofrece
	}

	if err := d.DialAndSend(m); err != nil {
		logger.Named("mail").Error("falló el envío", logger.String("to", to), logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	logger.Named("mail").Info("mail enviado", logger.String("to", to), logger.String("subject", subject))
	return nil
}

// NopSender descarta todo. Para dev sin SMTP configurado.
type NopSender struct{}

func (NopSender) Send(to, subject, _, _ string) error {
	logger.Named("mail").Debug("mail descartado (sender nop)",
		logger.String("to", to), logger.String("subject", subject))
	return nil
}
