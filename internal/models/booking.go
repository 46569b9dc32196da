package models

import (
	"time"
)

// Booking is a materialized enquiry. Optional fields are nil rather than
// empty so "not supplied" stays distinguishable from a blank value.
type Booking struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	PublicID            string     `gorm:"uniqueIndex;not null;size:36" json:"public_id"`
	TenantID            uint       `gorm:"not null;index:idx_bookings_dedup,priority:1" json:"tenant_id" validate:"required"`
	Title               string     `gorm:"not null;size:255" json:"title" validate:"required,max=255"`
	Status              string     `gorm:"not null;size:32;default:'enquiry'" json:"status"`
	Channel             string     `gorm:"not null;size:32" json:"channel" validate:"required,oneof=form marketplace email"`
	ClientName          *string    `gorm:"size:255" json:"client_name,omitempty" validate:"omitempty,max=255"`
	ClientEmail         *string    `gorm:"size:255" json:"client_email,omitempty" validate:"omitempty,email"`
	ClientPhone         *string    `gorm:"size:64" json:"client_phone,omitempty" validate:"omitempty,max=64"`
	EventDate           *string    `gorm:"size:10" json:"event_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EventTime           *string    `gorm:"size:5" json:"event_time,omitempty" validate:"omitempty,datetime=15:04"`
	EventEndTime        *string    `gorm:"size:5" json:"event_end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Venue               *string    `gorm:"size:255" json:"venue,omitempty"`
	VenueAddress        *string    `json:"venue_address,omitempty"`
	EventType           *string    `gorm:"size:64" json:"event_type,omitempty"`
	Fee                 *float64   `json:"fee,omitempty" validate:"omitempty,gte=0"`
	Deposit             *float64   `json:"deposit,omitempty" validate:"omitempty,gte=0"`
	SpecialRequirements *string    `json:"special_requirements,omitempty"`
	Confidence          float64    `gorm:"not null" json:"confidence" validate:"gte=0,lte=1"`
	ExtractionSource    string     `gorm:"size:32" json:"extraction_source"`
	DatePlaceholder     bool       `gorm:"default:false;index" json:"date_placeholder"`
	Metadata            string     `gorm:"type:text" json:"metadata,omitempty"`
	SourceSender        string     `gorm:"size:255" json:"source_sender,omitempty"`
	SourceSubject       string     `json:"source_subject,omitempty"`
	DuplicateKey        string     `gorm:"not null;size:255;index:idx_bookings_dedup,priority:2" json:"-"`
	PlaceholderReviewAt *time.Time `json:"placeholder_reviewed_at,omitempty"`
	CreatedAt           time.Time  `gorm:"autoCreateTime;index:idx_bookings_dedup,priority:3" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-" validate:"-"`
}

// TableName returns the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}
