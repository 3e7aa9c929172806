package delivery

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"
)

// SMTPConfig carries the SMTP provider settings, read once at startup.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender delivers OTP emails over SMTP with implicit TLS.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender returns an email sender. An empty host is valid and yields a
// sender that reports every dispatch as failed.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg}
}

// SendOTP sends the code to address. It reports false on any failure,
// including an unconfigured provider.
func (s *SMTPSender) SendOTP(ctx context.Context, address, code, appID, appName string) bool {
	if s.cfg.Host == "" {
		logrus.WithFields(logrus.Fields{"app_id": appID}).Warn("email provider not configured, skipping dispatch")
		return false
	}

	subject := fmt.Sprintf("Your %s verification code", appName)
	body := fmt.Sprintf(
		"<p>Your one-time verification code for <b>%s</b> is <b>%s</b>.</p><p>It expires in 10 minutes. If you did not request this code, ignore this email.</p>",
		appName, code,
	)
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", s.cfg.From) +
			fmt.Sprintf("To: %s\r\n", address) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	if err := s.transmit(ctx, address, msg); err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "app_id": appID}).Error("Failed to send OTP email")
		return false
	}
	return true
}

// transmit speaks SMTP over implicit TLS (port 465 style).
func (s *SMTPSender) transmit(ctx context.Context, to string, msg []byte) error {
	serverAddr := s.cfg.Host + ":" + s.cfg.Port

	tlsConfig := &tls.Config{ServerName: s.cfg.Host}
	dialer := &tls.Dialer{Config: tlsConfig}
	conn, err := dialer.DialContext(ctx, "tcp", serverAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}
