package models

import (
	"time"
)

// Review statuses. Only ReviewPending is written by the ingestion pipeline;
// the rest are set by human review actions.
const (
	ReviewPending     = "pending"
	ReviewConverted   = "converted"
	ReviewDismissed   = "dismissed"
	ReviewReprocessed = "reprocessed"
)

// ReviewMessage is an inbound message the pipeline could not confidently turn
// into a booking, kept with enough context for a human to finish the job.
type ReviewMessage struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	PublicID         string    `gorm:"uniqueIndex;not null;size:36" json:"public_id"`
	TenantID         uint      `gorm:"not null;index:idx_reviews_dedup,priority:1" json:"tenant_id"`
	Status           string    `gorm:"not null;size:32;default:'pending';index" json:"status"`
	Stage            string    `gorm:"not null;size:32" json:"stage"`
	Reason           string    `gorm:"not null" json:"reason"`
	ErrorCode        string    `gorm:"size:64" json:"error_code,omitempty"`
	Channel          string    `gorm:"size:32" json:"channel,omitempty"`
	Sender           string    `gorm:"size:255" json:"sender,omitempty"`
	Subject          string    `json:"subject,omitempty"`
	Body             string    `gorm:"type:text" json:"body,omitempty"`
	RecipientAddress string    `gorm:"size:255" json:"recipient_address,omitempty"`
	ReceivedAt       time.Time `json:"received_at"`
	ClientName       *string   `gorm:"size:255" json:"client_name,omitempty"`
	ClientEmail      *string   `gorm:"size:255" json:"client_email,omitempty"`
	Confidence       *float64  `json:"confidence,omitempty"`
	Extraction       string    `gorm:"type:text" json:"extraction,omitempty"`
	Payload          string    `gorm:"type:text" json:"payload,omitempty"`
	RawPayload       string    `gorm:"type:text" json:"-"`
	BookingID        *uint     `json:"booking_id,omitempty"`
	DuplicateKey     string    `gorm:"size:255;index:idx_reviews_dedup,priority:2" json:"-"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index:idx_reviews_dedup,priority:3" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for ReviewMessage
func (ReviewMessage) TableName() string {
	return "review_messages"
}

// ReviewListItem is a lightweight version for list views
type ReviewListItem struct {
	ID          uint      `json:"id"`
	PublicID    string    `json:"public_id"`
	TenantID    uint      `json:"tenant_id"`
	Status      string    `json:"status"`
	Stage       string    `json:"stage"`
	Reason      string    `json:"reason"`
	Sender      string    `json:"sender,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	ClientName  *string   `json:"client_name,omitempty"`
	ClientEmail *string   `json:"client_email,omitempty"`
	Confidence  *float64  `json:"confidence,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
