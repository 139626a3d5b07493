package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer roles. Admins may read, update and delete any short link;
// regular users only their own.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Customer represents an account that owns short links.
// Signup, login and session issuance live in an external service; this
// model only carries what authorization and ownership need.
type Customer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid" json:"uuid"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:uk_customers_email" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FullName     *string   `gorm:"size:255" json:"full_name,omitempty"`
	Role         string    `gorm:"size:16;not null;default:'user'" json:"role"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Customer
func (Customer) TableName() string { return "customers" }

// IsAdmin reports whether the customer carries the admin role
func (c *Customer) IsAdmin() bool { return c.Role == RoleAdmin }

// CustomerFilter provides filter fields for repository queries
type CustomerFilter struct {
	ID       *uint
	Email    *string
	Role     *string
	IsActive *bool
}
