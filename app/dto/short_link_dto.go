package dto

import "time"

// CreateShortLinkRequest defines input for creating a short link.
// CustomSlug is optional; when present the allocator validates it and
// the link resolves under the slug instead of the generated code.
type CreateShortLinkRequest struct {
	OriginalURL string     `json:"original_url" validate:"required,max=2048"`
	CustomSlug  *string    `json:"custom_slug,omitempty" validate:"omitempty,min=3,max=50"`
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// UpdateShortLinkRequest defines input for updating a short link.
// All fields are optional; at least one must be present.
type UpdateShortLinkRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	CustomSlug  *string    `json:"custom_slug,omitempty" validate:"omitempty,min=3,max=50"`
	IsActive    *bool      `json:"is_active,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClearExpiry bool       `json:"clear_expiry,omitempty"`
}

// ShortLinkDTO is the API representation of a short link
type ShortLinkDTO struct {
	ID          uint    `json:"id"`
	OriginalURL string  `json:"original_url"`
	ShortCode   string  `json:"short_code"`
	CustomSlug  *string `json:"custom_slug,omitempty"`
	IsCustom    bool    `json:"is_custom"`
	ShortURL    string  `json:"short_url"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	ClickCount  int64   `json:"click_count"`
	IsActive    bool    `json:"is_active"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ListShortLinksResponse is a paginated page of short links
type ListShortLinksResponse struct {
	Items      []ShortLinkDTO `json:"items"`
	Pagination PaginationDTO  `json:"pagination"`
}

// SlugAvailabilityResponse answers the pre-validation query for a
// candidate custom slug. Reason is set only when Available is false:
// InvalidFormat, Reserved or AlreadyTaken.
type SlugAvailabilityResponse struct {
	Slug      string `json:"slug"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
