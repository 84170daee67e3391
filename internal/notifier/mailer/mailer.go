package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Sender abstrai o envio de e-mail HTML. O worker recebe a interface pra
// permitir o fake dos testes.
type Sender interface {
	Send(to, subject, html string) error
}

// SMTP envia via relay autenticado (AUTH PLAIN). Porta 587 com STARTTLS
// implícito do pacote net/smtp.
type SMTP struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func NewSMTP(host, port, user, pass, from string) *SMTP {
	return &SMTP{Host: host, Port: port, User: user, Pass: pass, From: from}
}

func (m *SMTP) Send(to, subject, html string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)

	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	return smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, []byte(b.String()))
}
