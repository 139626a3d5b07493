package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"gorm.io/gorm"
)

// Whitelist of groupable visit columns. Guards the dynamic Group clause
// against anything that isn't a known low-cardinality dimension.
var visitDimensions = map[string]bool{
	"device_type": true,
	"browser":     true,
	"platform":    true,
	"country":     true,
	"referer":     true,
}

// ShortLinkVisitRepositoryImpl implements ShortLinkVisitRepository
type ShortLinkVisitRepositoryImpl struct {
	*BaseRepository[models.ShortLinkVisit, models.ShortLinkVisitFilter]
}

func NewShortLinkVisitRepository(db *gorm.DB) ShortLinkVisitRepository {
	return &ShortLinkVisitRepositoryImpl{BaseRepository: NewBaseRepository[models.ShortLinkVisit, models.ShortLinkVisitFilter](db)}
}

func (r *ShortLinkVisitRepositoryImpl) ByID(ctx context.Context, id uint) (*models.ShortLinkVisit, error) {
	db := r.getDB(ctx)
	var row models.ShortLinkVisit
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *ShortLinkVisitRepositoryImpl) applyFilter(db *gorm.DB, f models.ShortLinkVisitFilter) *gorm.DB {
	if f.ShortLinkID != nil {
		db = db.Where("short_link_id = ?", *f.ShortLinkID)
	}
	if f.DeviceType != nil {
		db = db.Where("device_type = ?", *f.DeviceType)
	}
	if f.Country != nil {
		db = db.Where("country = ?", *f.Country)
	}
	if f.ClickedAfter != nil {
		db = db.Where("clicked_at >= ?", *f.ClickedAfter)
	}
	if f.ClickedBefore != nil {
		db = db.Where("clicked_at < ?", *f.ClickedBefore)
	}
	return db
}

func (r *ShortLinkVisitRepositoryImpl) ByFilter(ctx context.Context, filter models.ShortLinkVisitFilter, orderBy string, limit, offset int) ([]*models.ShortLinkVisit, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ShortLinkVisit{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.ShortLinkVisit
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ShortLinkVisitRepositoryImpl) Count(ctx context.Context, filter models.ShortLinkVisitFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ShortLinkVisit{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ShortLinkVisitRepositoryImpl) Exists(ctx context.Context, filter models.ShortLinkVisitFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *ShortLinkVisitRepositoryImpl) CountByLink(ctx context.Context, linkID uint, since *time.Time) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ShortLinkVisit{}).Where("short_link_id = ?", linkID)
	if since != nil {
		query = query.Where("clicked_at >= ?", *since)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ShortLinkVisitRepositoryImpl) CountByCustomer(ctx context.Context, customerID uint, since *time.Time) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ShortLinkVisit{}).
		Joins("JOIN short_links ON short_links.id = short_link_visits.short_link_id").
		Where("short_links.customer_id = ?", customerID)
	if since != nil {
		query = query.Where("short_link_visits.clicked_at >= ?", *since)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ShortLinkVisitRepositoryImpl) DailyCountsByLink(ctx context.Context, linkID uint, since time.Time) ([]DailyVisitRow, error) {
	db := r.getDB(ctx)
	var rows []DailyVisitRow
	err := db.Model(&models.ShortLinkVisit{}).
		Select("CAST(DATE(clicked_at) AS TEXT) AS date, COUNT(*) AS count").
		Where("short_link_id = ? AND clicked_at >= ?", linkID, since).
		Group("DATE(clicked_at)").
		Order("date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ShortLinkVisitRepositoryImpl) DailyCountsByCustomer(ctx context.Context, customerID uint, since time.Time) ([]DailyVisitRow, error) {
	db := r.getDB(ctx)
	var rows []DailyVisitRow
	err := db.Model(&models.ShortLinkVisit{}).
		Select("CAST(DATE(short_link_visits.clicked_at) AS TEXT) AS date, COUNT(*) AS count").
		Joins("JOIN short_links ON short_links.id = short_link_visits.short_link_id").
		Where("short_links.customer_id = ? AND short_link_visits.clicked_at >= ?", customerID, since).
		Group("DATE(short_link_visits.clicked_at)").
		Order("date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ShortLinkVisitRepositoryImpl) CountByDimension(ctx context.Context, linkID uint, dimension string, since time.Time, limit int) ([]VisitStatRow, error) {
	if !visitDimensions[dimension] {
		return nil, fmt.Errorf("unsupported visit dimension: %s", dimension)
	}
	db := r.getDB(ctx)
	query := db.Model(&models.ShortLinkVisit{}).
		Select(fmt.Sprintf("%s AS value, COUNT(*) AS count", dimension)).
		Where("short_link_id = ? AND clicked_at >= ?", linkID, since)
	if dimension != "device_type" {
		query = query.Where(fmt.Sprintf("%s IS NOT NULL AND %s <> ''", dimension, dimension))
	}
	query = query.Group(dimension).Order("count DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []VisitStatRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
