package models

import "time"

// ShortLink represents a shortened URL record owned by a customer.
// ShortCode is the system-generated public identifier; CustomSlug is the
// optional caller-chosen one. IsCustom selects which of the two resolves
// the link publicly. The effective identifier must stay unique across
// BOTH columns; each column carries its own unique index and the
// allocator enforces the combined namespace.
type ShortLink struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CustomerID  uint       `gorm:"not null;index:idx_short_links_customer_id" json:"customer_id"`
	OriginalURL string     `gorm:"size:2048;not null" json:"original_url"`
	ShortCode   string     `gorm:"size:10;not null;uniqueIndex:uk_short_links_short_code" json:"short_code"`
	CustomSlug  *string    `gorm:"size:100;uniqueIndex:uk_short_links_custom_slug" json:"custom_slug,omitempty"`
	IsCustom    bool       `gorm:"not null;default:false" json:"is_custom"`
	Title       *string    `gorm:"size:255" json:"title,omitempty"`
	Description *string    `gorm:"type:text" json:"description,omitempty"`
	ClickCount  int64      `gorm:"not null;default:0" json:"click_count"`
	IsActive    *bool      `gorm:"not null;default:true;index:idx_short_links_is_active" json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`

	Visits []ShortLinkVisit `gorm:"foreignKey:ShortLinkID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `gorm:"index:idx_short_links_created_at" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for ShortLink
func (ShortLink) TableName() string { return "short_links" }

// PublicCode returns the identifier that resolves this link publicly
func (s *ShortLink) PublicCode() string {
	if s.IsCustom && s.CustomSlug != nil {
		return *s.CustomSlug
	}
	return s.ShortCode
}

// IsExpired reports whether ExpiresAt is set and not after now
func (s *ShortLink) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// ShortLinkFilter provides filter fields for repository queries
type ShortLinkFilter struct {
	ID            *uint
	CustomerID    *uint
	ShortCode     *string
	CustomSlug    *string
	IsCustom      *bool
	IsActive      *bool
	Search        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
