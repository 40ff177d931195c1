package notifier

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"
)

// 中文说明：
// SMTP 邮件通知器。正文为 HTML，主题带动作与合约，失败返回错误由上层记录。

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

type Email struct {
	cfg EmailConfig
}

func NewEmail(cfg EmailConfig) *Email {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Email{cfg: cfg}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(alert Alert) error {
	if e.cfg.Host == "" || len(e.cfg.To) == 0 {
		return fmt.Errorf("邮件配置不完整")
	}
	msg := BuildAlertMessage(alert)
	subject := fmt.Sprintf("[%s] %s %s", alert.Instrument, alert.Recommendation.Action,
		time.Now().Format("01-02 15:04"))
	body := e.buildMIME(subject, msg.RenderHTML())

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, e.cfg.From, e.cfg.To, body); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

func (e *Email) buildMIME(subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
