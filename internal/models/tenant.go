package models

import (
	"time"
)

// Tenant is a musician account whose inbound address receives enquiries.
// Slug is the routable local-part of that address.
type Tenant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"uniqueIndex;not null;size:64" json:"slug"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	IsAdmin   bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}
