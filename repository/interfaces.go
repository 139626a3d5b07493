// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Kusanagi/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByEmail(ctx context.Context, email string) (*models.Customer, error)
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
}

// ShortLinkRepository defines operations for short links
type ShortLinkRepository interface {
	Repository[models.ShortLink, models.ShortLinkFilter]
	// ByPublicCode resolves the effective public identifier: custom_slug
	// for custom links, short_code otherwise.
	ByPublicCode(ctx context.Context, code string) (*models.ShortLink, error)
	// IdentifierExists checks the combined identifier namespace
	// (short_code union custom_slug), optionally excluding one record for
	// update-in-place validation.
	IdentifierExists(ctx context.Context, candidate string, excludeID *uint) (bool, error)
	// IncrementClickCount applies a relative +1 at the storage layer so
	// concurrent redirects never lose updates.
	IncrementClickCount(ctx context.Context, id uint) error
	Update(ctx context.Context, link *models.ShortLink) error
	Delete(ctx context.Context, id uint) error
	SumClickCounts(ctx context.Context, customerID *uint) (int64, error)
}

// VisitStatRow is one bucket of a grouped visit aggregation
type VisitStatRow struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// DailyVisitRow is one day of visit counts
type DailyVisitRow struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ShortLinkVisitRepository defines operations for visit events.
// Visits are append-only; there is deliberately no update method.
type ShortLinkVisitRepository interface {
	Repository[models.ShortLinkVisit, models.ShortLinkVisitFilter]
	CountByLink(ctx context.Context, linkID uint, since *time.Time) (int64, error)
	CountByCustomer(ctx context.Context, customerID uint, since *time.Time) (int64, error)
	DailyCountsByLink(ctx context.Context, linkID uint, since time.Time) ([]DailyVisitRow, error)
	DailyCountsByCustomer(ctx context.Context, customerID uint, since time.Time) ([]DailyVisitRow, error)
	// CountByDimension groups visits of one link by a whitelisted column
	// (device_type, browser, platform, country, referer).
	CountByDimension(ctx context.Context, linkID uint, dimension string, since time.Time, limit int) ([]VisitStatRow, error)
}
