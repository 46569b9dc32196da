package review

import (
	"context"
	"fmt"
	"strings"

	mg "github.com/mailgun/mailgun-go/v5"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
)

// MailgunConfig configures a MailgunNotifier.
type MailgunConfig struct {
	APIKey string
	Domain string
	From   string
	EU     bool
	// APIBase overrides the API endpoint, mainly for tests.
	APIBase string
}

// MailgunNotifier emails the tenant through Mailgun when a message lands in
// their review queue.
type MailgunNotifier struct {
	client *mg.Client
	domain string
	from   string
}

// NewMailgunNotifier creates a MailgunNotifier.
func NewMailgunNotifier(cfg MailgunConfig) *MailgunNotifier {
	client := mg.NewMailgun(cfg.APIKey)
	switch {
	case cfg.APIBase != "":
		client.SetAPIBase(cfg.APIBase)
	case cfg.EU:
		client.SetAPIBase(mg.APIBaseEU)
	}
	from := cfg.From
	if from == "" {
		from = fmt.Sprintf("noreply@%s", cfg.Domain)
	}
	return &MailgunNotifier{client: client, domain: cfg.Domain, from: from}
}

// NotifyReview sends the notification. Tenants without an email address are
// skipped.
func (n *MailgunNotifier) NotifyReview(ctx context.Context, tenant *models.Tenant, review *models.ReviewMessage) error {
	if tenant == nil || tenant.Email == "" {
		return nil
	}

	m := mg.NewMessage(n.domain, n.from, reviewSubject(review), reviewBody(tenant, review), tenant.Email)
	if _, err := n.client.Send(ctx, m); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}

func reviewSubject(r *models.ReviewMessage) string {
	if r.Subject == "" {
		return "New enquiry needs your review"
	}
	return "Needs review: " + r.Subject
}

func reviewBody(t *models.Tenant, r *models.ReviewMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", t.Name)
	b.WriteString("An inbound message could not be turned into a booking automatically.\n\n")
	if r.Sender != "" {
		fmt.Fprintf(&b, "From: %s\n", r.Sender)
	}
	if r.ClientName != nil {
		fmt.Fprintf(&b, "Client: %s\n", *r.ClientName)
	}
	fmt.Fprintf(&b, "Reason: %s\n", r.Reason)
	fmt.Fprintf(&b, "Reference: %s\n", r.PublicID)
	return b.String()
}
