package smtp

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/emersion/go-smtp"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/pipeline"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/validator"
)

// Replies returned to the sending MTA.
var (
	replyBadRecipient = &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 1, 3}, Message: "Invalid recipient address"}
	replyRelayDenied  = &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 7, 1}, Message: "Relaying denied"}
	replyNoRecipients = &smtp.SMTPError{Code: 503, EnhancedCode: smtp.EnhancedCode{5, 5, 1}, Message: "No recipients specified"}
	replyUnparseable  = &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 6, 0}, Message: "Message could not be parsed"}
	replyRetryLater   = &smtp.SMTPError{Code: 451, EnhancedCode: smtp.EnhancedCode{4, 3, 0}, Message: "Enquiry not recorded, please retry"}
)

// Session is one SMTP transaction: an envelope sender, the inbox
// addresses it was sent to, and the message body.
type Session struct {
	backend    *Backend
	from       string
	recipients []string
}

func NewSession(backend *Backend) *Session {
	return &Session{backend: backend}
}

// Mail records the envelope sender. It only stands in for the From
// header when the message carries none.
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	return nil
}

// Rcpt accepts any local-part at a served domain. Unknown tenants still
// reach the admin review queue, so the inbox is not checked here.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	addr, err := recipientAddress(to)
	if err != nil {
		return replyBadRecipient
	}
	_, domain, _ := validator.SplitAddress(addr)
	if !s.backend.accepts(domain) {
		s.backend.logger.Debug("recipient domain not served", slog.String("to", addr))
		return replyRelayDenied
	}
	if !slices.Contains(s.recipients, addr) {
		s.recipients = append(s.recipients, addr)
	}
	return nil
}

// Data runs the message through the pipeline once per inbox. When any
// inbox could not record its outcome the sender is asked to retry;
// inboxes already handled resolve as duplicates on the second delivery.
func (s *Session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return replyNoRecipients
	}

	parsed, err := ParseEmail(r)
	if err != nil {
		s.backend.logger.Warn("unparseable message", slog.String("from", s.from), slog.Any("error", err))
		return replyUnparseable
	}
	if parsed.SenderEmail == "" {
		parsed.SenderEmail = s.from
	}

	retry := false
	for _, inbox := range s.recipients {
		res := s.backend.processor.Process(context.Background(), parsed.Payload(inbox))
		s.backend.logger.Info("enquiry processed",
			slog.String("run_id", res.RunID),
			slog.String("inbox", inbox),
			slog.String("outcome", string(res.Outcome)))
		retry = retry || res.Outcome == pipeline.OutcomeFailed
	}
	if retry {
		return replyRetryLater
	}
	return nil
}

func (s *Session) Reset() {
	s.from = ""
	s.recipients = nil
}

func (s *Session) Logout() error {
	return nil
}

// recipientAddress normalizes a RCPT TO argument, with or without angle
// brackets, to a lower-case address with a non-empty local part and domain.
func recipientAddress(to string) (string, error) {
	addr, _, err := validator.ParseAddress(to)
	if err != nil {
		return "", err
	}
	if _, _, err := validator.SplitAddress(addr); err != nil {
		return "", err
	}
	return addr, nil
}
