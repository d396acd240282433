package email

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/akanaz/exitpass-backend-go/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// Sender delivers workflow notification emails. Every method takes
// pre-formatted display strings (localized date, "Full Day" or a wall time);
// the caller owns formatting. Delivery is best-effort: a failure is logged by
// the caller and never rolls back the transition that triggered it.
type Sender interface {
	SendRequestSubmitted(to, facultyName, dateStr, timeStr string) error
	SendRequestApproved(to, facultyName, passNumber, dateStr, timeStr, approverName string, qrPNG []byte) error
	SendRequestRejected(to, facultyName, dateStr, reason string) error
}

type senderImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
}

// NewSender creates a new email sender instance
func NewSender(cfg config.SMTPConfig) (Sender, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &senderImpl{
		cfg:       cfg,
		templates: tmpl,
	}, nil
}

type submittedEmailData struct {
	FacultyName string
	Date        string
	Time        string
}

func (s *senderImpl) SendRequestSubmitted(to, facultyName, dateStr, timeStr string) error {
	data := submittedEmailData{FacultyName: facultyName, Date: dateStr, Time: timeStr}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "request_submitted.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.send(to, "Early Departure Request Submitted", body.String(), nil)
}

type approvedEmailData struct {
	FacultyName  string
	PassNumber   string
	Date         string
	Time         string
	ApproverName string
}

func (s *senderImpl) SendRequestApproved(to, facultyName, passNumber, dateStr, timeStr, approverName string, qrPNG []byte) error {
	data := approvedEmailData{
		FacultyName:  facultyName,
		PassNumber:   passNumber,
		Date:         dateStr,
		Time:         timeStr,
		ApproverName: approverName,
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "request_approved.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.send(to, fmt.Sprintf("Exit Pass %s Approved", passNumber), body.String(), qrPNG)
}

type rejectedEmailData struct {
	FacultyName string
	Date        string
	Reason      string
}

func (s *senderImpl) SendRequestRejected(to, facultyName, dateStr, reason string) error {
	data := rejectedEmailData{FacultyName: facultyName, Date: dateStr, Reason: reason}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "request_rejected.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.send(to, "Early Departure Request Rejected", body.String(), nil)
}

// send delivers an HTML message; when qrPNG is non-nil it is embedded as an
// inline image referenced from the template via cid:exit-pass-qr.
func (s *senderImpl) send(to, subject, htmlBody string, qrPNG []byte) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := s.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"

	var message []byte
	if qrPNG == nil {
		headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n"
		message = []byte(headers + htmlBody)
	} else {
		const boundary = "exitpass-mime-boundary"
		headers += fmt.Sprintf("Content-Type: multipart/related; boundary=%q\r\n\r\n", boundary)

		var b bytes.Buffer
		b.WriteString(headers)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n", boundary)
		b.WriteString(htmlBody)
		fmt.Fprintf(&b, "\r\n--%s\r\n", boundary)
		b.WriteString("Content-Type: image/png\r\n")
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		b.WriteString("Content-ID: <exit-pass-qr>\r\n\r\n")
		b.WriteString(base64.StdEncoding.EncodeToString(qrPNG))
		fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)
		message = b.Bytes()
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := smtp.SendMail(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		if attempt < maxRetries {
			time.Sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
