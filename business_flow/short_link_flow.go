package businessflow

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"gorm.io/gorm"
)

// createInsertAttempts bounds reinsertion after a duplicate-key race on
// the generated code. Each attempt draws a fresh code first.
const createInsertAttempts = 3

// ShortLinkFlow covers the customer-facing link lifecycle: create with
// identifier allocation, read, list, update and delete, plus the
// read-only slug availability query. Authorization is owner-or-admin,
// enforced here rather than in handlers.
type ShortLinkFlow interface {
	CreateShortLink(ctx context.Context, customerID uint, req *dto.CreateShortLinkRequest) (*dto.ShortLinkDTO, error)
	GetShortLink(ctx context.Context, customerID uint, isAdmin bool, linkID uint) (*dto.ShortLinkDTO, error)
	ListShortLinks(ctx context.Context, customerID uint, page, pageSize int) (*dto.ListShortLinksResponse, error)
	UpdateShortLink(ctx context.Context, customerID uint, isAdmin bool, linkID uint, req *dto.UpdateShortLinkRequest) (*dto.ShortLinkDTO, error)
	DeleteShortLink(ctx context.Context, customerID uint, isAdmin bool, linkID uint) error
	CheckSlugAvailability(ctx context.Context, slug string) (*dto.SlugAvailabilityResponse, error)
}

type ShortLinkFlowImpl struct {
	repo       repository.ShortLinkRepository
	allocator  SlugAllocator
	cache      *LinkCache
	db         *gorm.DB
	publicBase string
}

func NewShortLinkFlow(repo repository.ShortLinkRepository, allocator SlugAllocator, cache *LinkCache, db *gorm.DB, publicBase string) ShortLinkFlow {
	return &ShortLinkFlowImpl{
		repo:       repo,
		allocator:  allocator,
		cache:      cache,
		db:         db,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

func (f *ShortLinkFlowImpl) CreateShortLink(ctx context.Context, customerID uint, req *dto.CreateShortLinkRequest) (*dto.ShortLinkDTO, error) {
	if req == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", nil)
	}
	if err := validateOriginalURL(req.OriginalURL); err != nil {
		return nil, err
	}
	if req.ExpiresAt != nil && !utils.IsValid(*req.ExpiresAt) {
		return nil, ErrExpiryNotFuture
	}
	var slug *string
	if req.CustomSlug != nil && strings.TrimSpace(*req.CustomSlug) != "" {
		s := strings.TrimSpace(*req.CustomSlug)
		if err := f.allocator.ValidateCustomSlug(ctx, s, nil); err != nil {
			return nil, err
		}
		slug = &s
	}

	// The availability pre-checks above are a fast-path UX optimization;
	// the unique indexes decide races. A duplicate key caused by the
	// generated code retries with a fresh draw, one caused by the custom
	// slug surfaces as AlreadyTaken.
	var row *models.ShortLink
	for attempt := 0; attempt < createInsertAttempts; attempt++ {
		code, err := f.allocator.GenerateCode(ctx)
		if err != nil {
			return nil, err
		}
		row = &models.ShortLink{
			CustomerID:  customerID,
			OriginalURL: req.OriginalURL,
			ShortCode:   code,
			CustomSlug:  slug,
			IsCustom:    slug != nil,
			Title:       req.Title,
			Description: req.Description,
			IsActive:    utils.ToPtr(true),
			ExpiresAt:   req.ExpiresAt,
		}
		err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
			if slug != nil {
				if err := f.allocator.ValidateCustomSlug(txCtx, *slug, nil); err != nil {
					return err
				}
			}
			return f.repo.Save(txCtx, row)
		})
		if err == nil {
			return utils.ToPtr(ToShortLinkDTO(row, f.publicBase)), nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, wrapCreateError(err)
		}
		if slug != nil {
			taken, lookupErr := f.repo.IdentifierExists(ctx, *slug, nil)
			if lookupErr != nil {
				return nil, NewBusinessError("SLUG_LOOKUP_FAILED", "Failed to check slug availability", lookupErr)
			}
			if taken {
				return nil, ErrSlugTaken
			}
		}
		// generated-code collision, loop with a fresh draw
	}
	return nil, ErrCodeAllocationExhausted
}

func (f *ShortLinkFlowImpl) GetShortLink(ctx context.Context, customerID uint, isAdmin bool, linkID uint) (*dto.ShortLinkDTO, error) {
	row, err := f.authorizedLink(ctx, customerID, isAdmin, linkID)
	if err != nil {
		return nil, err
	}
	return utils.ToPtr(ToShortLinkDTO(row, f.publicBase)), nil
}

func (f *ShortLinkFlowImpl) ListShortLinks(ctx context.Context, customerID uint, page, pageSize int) (*dto.ListShortLinksResponse, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > utils.MaxPageSize {
		return nil, ErrInvalidPageSize
	}
	filter := models.ShortLinkFilter{CustomerID: &customerID}
	total, err := f.repo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_SHORT_LINKS_FAILED", "Failed to count short links", err)
	}
	rows, err := f.repo.ByFilter(ctx, filter, "created_at DESC, id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_SHORT_LINKS_FAILED", "Failed to list short links", err)
	}
	items := make([]dto.ShortLinkDTO, 0, len(rows))
	for _, r := range rows {
		items = append(items, ToShortLinkDTO(r, f.publicBase))
	}
	return &dto.ListShortLinksResponse{
		Items:      items,
		Pagination: dto.PaginationDTO{Page: page, PageSize: pageSize, Total: total},
	}, nil
}

func (f *ShortLinkFlowImpl) UpdateShortLink(ctx context.Context, customerID uint, isAdmin bool, linkID uint, req *dto.UpdateShortLinkRequest) (*dto.ShortLinkDTO, error) {
	if req == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", nil)
	}
	if req.Title == nil && req.Description == nil && req.CustomSlug == nil &&
		req.IsActive == nil && req.ExpiresAt == nil && !req.ClearExpiry {
		return nil, ErrUpdateRequired
	}
	if req.ExpiresAt != nil && !utils.IsValid(*req.ExpiresAt) {
		return nil, ErrExpiryNotFuture
	}

	row, err := f.authorizedLink(ctx, customerID, isAdmin, linkID)
	if err != nil {
		return nil, err
	}
	staleCodes := []string{row.ShortCode}
	if row.CustomSlug != nil {
		staleCodes = append(staleCodes, *row.CustomSlug)
	}

	if req.Title != nil {
		row.Title = req.Title
	}
	if req.Description != nil {
		row.Description = req.Description
	}
	if req.IsActive != nil {
		row.IsActive = req.IsActive
	}
	if req.ClearExpiry {
		row.ExpiresAt = nil
	} else if req.ExpiresAt != nil {
		row.ExpiresAt = req.ExpiresAt
	}

	var newSlug *string
	if req.CustomSlug != nil && strings.TrimSpace(*req.CustomSlug) != "" {
		s := strings.TrimSpace(*req.CustomSlug)
		newSlug = &s
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if newSlug != nil {
			if err := f.allocator.ValidateCustomSlug(txCtx, *newSlug, &row.ID); err != nil {
				return err
			}
			row.CustomSlug = newSlug
			row.IsCustom = true
		}
		return f.repo.Update(txCtx, row)
	})
	if err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrSlugTaken
		}
		return nil, wrapCreateError(err)
	}

	f.cache.Invalidate(ctx, staleCodes...)
	return utils.ToPtr(ToShortLinkDTO(row, f.publicBase)), nil
}

func (f *ShortLinkFlowImpl) DeleteShortLink(ctx context.Context, customerID uint, isAdmin bool, linkID uint) error {
	row, err := f.authorizedLink(ctx, customerID, isAdmin, linkID)
	if err != nil {
		return err
	}
	if err := f.repo.Delete(ctx, row.ID); err != nil {
		return NewBusinessError("DELETE_SHORT_LINK_FAILED", "Failed to delete short link", err)
	}
	codes := []string{row.ShortCode}
	if row.CustomSlug != nil {
		codes = append(codes, *row.CustomSlug)
	}
	f.cache.Invalidate(ctx, codes...)
	return nil
}

func (f *ShortLinkFlowImpl) CheckSlugAvailability(ctx context.Context, slug string) (*dto.SlugAvailabilityResponse, error) {
	slug = strings.TrimSpace(slug)
	err := f.allocator.ValidateCustomSlug(ctx, slug, nil)
	if err == nil {
		return &dto.SlugAvailabilityResponse{Slug: slug, Available: true}, nil
	}
	if reason := SlugRejection(err); reason != "" {
		return &dto.SlugAvailabilityResponse{Slug: slug, Available: false, Reason: reason}, nil
	}
	return nil, err
}

// authorizedLink loads a link and enforces the owner-or-admin policy
func (f *ShortLinkFlowImpl) authorizedLink(ctx context.Context, customerID uint, isAdmin bool, linkID uint) (*models.ShortLink, error) {
	row, err := f.repo.ByID(ctx, linkID)
	if err != nil {
		return nil, NewBusinessError("SHORT_LINK_LOOKUP_FAILED", "Failed to lookup short link", err)
	}
	if row == nil {
		return nil, ErrShortLinkNotFound
	}
	if row.CustomerID != customerID && !isAdmin {
		return nil, ErrLinkAccessDenied
	}
	return row, nil
}

func validateOriginalURL(raw string) error {
	if len(raw) > 2048 {
		return ErrOriginalURLTooLong
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return ErrInvalidOriginalURL
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ErrInvalidOriginalURL
	}
	return nil
}

// wrapCreateError keeps slug pipeline sentinels intact and wraps the rest
func wrapCreateError(err error) error {
	switch {
	case err == nil:
		return nil
	case SlugRejection(err) != "":
		return err
	default:
		var be *BusinessError
		if errors.As(err, &be) {
			return err
		}
		return NewBusinessError("SHORT_LINK_WRITE_FAILED", "Failed to persist short link", err)
	}
}
