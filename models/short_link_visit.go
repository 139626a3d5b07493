package models

import "time"

// Device type values derived from the visitor's user agent
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

// ShortLinkVisit is one immutable record of a single redirect.
// Rows are append-only: created exactly once per successful redirect,
// never updated, and removed only by the FK cascade when the parent
// short link is deleted. Country and City stay null unless an upstream
// geo component fills them in.
type ShortLinkVisit struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	ShortLinkID uint    `gorm:"not null;index:idx_short_link_visits_short_link_id" json:"short_link_id"`
	IPAddress   *string `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent   *string `gorm:"type:text" json:"user_agent,omitempty"`
	Referer     *string `gorm:"size:2048" json:"referer,omitempty"`
	Country     *string `gorm:"size:2" json:"country,omitempty"`
	City        *string `gorm:"size:255" json:"city,omitempty"`
	DeviceType  string  `gorm:"size:16;not null;default:'unknown'" json:"device_type"`
	Browser     *string `gorm:"size:64" json:"browser,omitempty"`
	Platform    *string `gorm:"size:64" json:"platform,omitempty"`

	ClickedAt time.Time `gorm:"not null;index:idx_short_link_visits_clicked_at" json:"clicked_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for ShortLinkVisit
func (ShortLinkVisit) TableName() string { return "short_link_visits" }

// ShortLinkVisitFilter provides filter fields for repository queries
type ShortLinkVisitFilter struct {
	ShortLinkID   *uint
	DeviceType    *string
	Country       *string
	ClickedAfter  *time.Time
	ClickedBefore *time.Time
}
