// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sts-platform/kpipulse/internal/config"
	"github.com/sts-platform/kpipulse/internal/logging"
	"github.com/sts-platform/kpipulse/internal/models"
)

// EmailNotifier delivers reminders via SMTP with STARTTLS and PLAIN auth.
type EmailNotifier struct {
	cfg     config.SMTPConfig
	baseURL string
	logger  zerolog.Logger
}

// NewEmailNotifier creates an email notifier. baseURL is the externally
// reachable base used for form links.
func NewEmailNotifier(cfg config.SMTPConfig, baseURL string) *EmailNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &EmailNotifier{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logging.With().Str("component", "notifier").Logger(),
	}
}

// Send renders and delivers one reminder. The SMTP exchange is bounded by
// the configured timeout on top of any caller deadline.
func (n *EmailNotifier) Send(ctx context.Context, group models.NotificationGroup) error {
	if group.Email == "" {
		return fmt.Errorf("notification group for responsible %d has no email", group.ResponsibleID)
	}

	body, err := RenderBody(n.baseURL, group)
	if err != nil {
		return err
	}
	msg := n.buildMessage(group, body)

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	if err := n.sendSMTP(ctx, group.Email, msg); err != nil {
		return fmt.Errorf("deliver reminder to %s: %w", group.Email, err)
	}

	n.logger.Info().
		Str("recipient", group.Email).
		Str("period", group.Period).
		Int("kpi_count", len(group.Kpis)).
		Msg("Reminder delivered")
	return nil
}

// buildMessage constructs the email message with headers.
func (n *EmailNotifier) buildMessage(group models.NotificationGroup, body string) string {
	var msg strings.Builder

	fromName := n.cfg.FromName
	if fromName == "" {
		fromName = "KPI Reminder"
	}

	msg.WriteString(fmt.Sprintf("From: %q <%s>\r\n", fromName, n.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", group.Email))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", Subject(group)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return msg.String()
}

// sendSMTP runs the SMTP exchange: dial with timeout, STARTTLS when
// configured, authenticate when credentials are set, send.
func (n *EmailNotifier) sendSMTP(ctx context.Context, to, msg string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	dialer := &net.Dialer{Timeout: n.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }() //nolint:errcheck // Best effort cleanup

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }() //nolint:errcheck // Best effort cleanup

	if n.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: n.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if n.cfg.Username != "" && n.cfg.Password != "" {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	if err := client.Quit(); err != nil {
		// Message was accepted; a noisy QUIT is not a delivery failure.
		return nil
	}
	return nil
}
