package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"gorm.io/gorm"
)

const (
	// DefaultVisitWriteAttempts bounds retries of the visit write unit
	DefaultVisitWriteAttempts = 3

	visitWriteBackoff = 50 * time.Millisecond
)

// ShortLinkVisitFlow resolves a public identifier and records the visit.
// The visit row and the click counter move in one transaction: a visitor
// is never redirected with half the tracking applied, and a tracking
// failure returns an error instead of a destination.
type ShortLinkVisitFlow interface {
	Visit(ctx context.Context, code string, metadata *ClientMetadata) (string, error)
}

type ShortLinkVisitFlowImpl struct {
	linkRepo      repository.ShortLinkRepository
	visitRepo     repository.ShortLinkVisitRepository
	cache         *LinkCache
	db            *gorm.DB
	writeAttempts int
}

func NewShortLinkVisitFlow(linkRepo repository.ShortLinkRepository, visitRepo repository.ShortLinkVisitRepository, cache *LinkCache, db *gorm.DB, writeAttempts int) ShortLinkVisitFlow {
	if writeAttempts <= 0 {
		writeAttempts = DefaultVisitWriteAttempts
	}
	return &ShortLinkVisitFlowImpl{
		linkRepo:      linkRepo,
		visitRepo:     visitRepo,
		cache:         cache,
		db:            db,
		writeAttempts: writeAttempts,
	}
}

// Visit returns the destination URL for code after recording the visit.
// Missing, inactive and expired links all come back as
// ErrShortLinkNotFound so the three cases are indistinguishable to the
// visitor.
func (f *ShortLinkVisitFlowImpl) Visit(ctx context.Context, code string, metadata *ClientMetadata) (string, error) {
	if code == "" {
		return "", ErrShortLinkNotFound
	}

	link, err := f.resolve(ctx, code)
	if err != nil {
		return "", NewBusinessError("SHORT_LINK_LOOKUP_FAILED", "Failed to lookup short link", err)
	}
	if link == nil || !utils.IsTrue(link.IsActive) || link.IsExpired(utils.UTCNow()) {
		return "", ErrShortLinkNotFound
	}

	visit := f.buildVisit(link.ID, metadata)
	if err := f.recordVisit(ctx, visit, link.ID); err != nil {
		// the row may have been deleted between resolve and record: the
		// visit insert hits a dangling FK, or the increment finds nothing
		if linkGone(err) {
			f.cache.Invalidate(ctx, code)
			return "", ErrShortLinkNotFound
		}
		return "", NewBusinessError("VISIT_TRACKING_FAILED", "Failed to record visit", err)
	}

	return link.OriginalURL, nil
}

func (f *ShortLinkVisitFlowImpl) resolve(ctx context.Context, code string) (*models.ShortLink, error) {
	if cached := f.cache.Get(ctx, code); cached != nil {
		return cached, nil
	}
	link, err := f.linkRepo.ByPublicCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if link != nil {
		f.cache.Set(ctx, link)
	}
	return link, nil
}

func (f *ShortLinkVisitFlowImpl) buildVisit(linkID uint, metadata *ClientMetadata) *models.ShortLinkVisit {
	visit := &models.ShortLinkVisit{
		ShortLinkID: linkID,
		DeviceType:  models.DeviceUnknown,
		ClickedAt:   utils.UTCNow(),
	}
	if metadata == nil {
		return visit
	}
	if metadata.IPAddress != "" {
		visit.IPAddress = utils.ToPtr(metadata.IPAddress)
	}
	if metadata.Referer != "" {
		visit.Referer = utils.ToPtr(metadata.Referer)
	}
	if metadata.UserAgent != "" {
		visit.UserAgent = utils.ToPtr(metadata.UserAgent)
		agent := ClassifyUserAgent(metadata.UserAgent)
		visit.DeviceType = agent.DeviceType
		if agent.Browser != "" {
			visit.Browser = utils.ToPtr(agent.Browser)
		}
		if agent.Platform != "" {
			visit.Platform = utils.ToPtr(agent.Platform)
		}
	}
	return visit
}

// recordVisit persists the visit row and bumps the click counter
// atomically, retrying transient failures with a short linear backoff.
func (f *ShortLinkVisitFlowImpl) recordVisit(ctx context.Context, visit *models.ShortLinkVisit, linkID uint) error {
	var lastErr error
	for attempt := 1; attempt <= f.writeAttempts; attempt++ {
		lastErr = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
			// fresh row per attempt, a failed tx may leave a stale ID behind
			row := *visit
			row.ID = 0
			if err := f.visitRepo.Save(txCtx, &row); err != nil {
				return err
			}
			return f.linkRepo.IncrementClickCount(txCtx, linkID)
		})
		if lastErr == nil {
			return nil
		}
		if linkGone(lastErr) {
			return lastErr
		}
		if attempt < f.writeAttempts {
			log.Printf("visit write attempt %d/%d for link %d failed: %v", attempt, f.writeAttempts, linkID, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(visitWriteBackoff):
			}
		}
	}
	return lastErr
}

// linkGone reports whether a write-unit failure means the link row no
// longer exists. Retrying cannot help either case.
func linkGone(err error) bool {
	return repository.IsNotFound(err) || repository.IsForeignKeyViolated(err)
}
