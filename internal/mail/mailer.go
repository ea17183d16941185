// Package mail implementa o envio de e-mails best-effort.
// Falhas de envio são logadas e nunca bloqueiam a resposta ao chamador.
package mail

import (
	"fmt"
	"log"
	"net/smtp"
)

// Mailer é a interface consumida pelos serviços
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer envia e-mails via SMTP com autenticação PLAIN
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPMailer cria um mailer SMTP
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: smtp.PlainAuth("", username, password, host),
		from: from,
	}
}

// Send monta e envia a mensagem
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n",
		m.from, to, subject, body,
	))

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("falha ao enviar e-mail para %s: %w", to, err)
	}
	return nil
}

// LogMailer apenas loga a mensagem; usado quando SMTP não está configurado
// e como dublê nos testes
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("E-mail (simulado) para %s: %s", to, subject)
	return nil
}
