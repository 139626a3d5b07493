// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/models"
)

// ClientMetadata holds the request-side context of a visit: the raw
// values the tracking service derives analytics fields from.
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Referer   string `json:"referer"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent, referer string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Referer:   referer,
	}
}

// ToShortLinkDTO converts a short link model to its API representation.
// publicBase is the externally visible scheme+host used to render the
// full short URL, e.g. https://ksng.ir
func ToShortLinkDTO(link *models.ShortLink, publicBase string) dto.ShortLinkDTO {
	d := dto.ShortLinkDTO{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		CustomSlug:  link.CustomSlug,
		IsCustom:    link.IsCustom,
		ShortURL:    publicBase + "/s/" + link.PublicCode(),
		Title:       link.Title,
		Description: link.Description,
		ClickCount:  link.ClickCount,
		IsActive:    link.IsActive != nil && *link.IsActive,
		CreatedAt:   link.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   link.UpdatedAt.Format(time.RFC3339),
	}
	if link.ExpiresAt != nil {
		s := link.ExpiresAt.Format(time.RFC3339)
		d.ExpiresAt = &s
	}
	return d
}
