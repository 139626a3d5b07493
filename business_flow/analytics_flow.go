package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
)

const (
	// DefaultAnalyticsWindowDays is the per-link breakdown window when the
	// caller does not ask for one.
	DefaultAnalyticsWindowDays = 30
	maxAnalyticsWindowDays     = 365
	topLinksLimit              = 5
	dimensionRowsLimit         = 10
)

// AnalyticsFlow builds the dashboard aggregations: the per-customer
// overview and the per-link breakdowns. All numbers come from the visits
// table except the lifetime totals, which read the denormalized
// click_count column.
type AnalyticsFlow interface {
	GetOverview(ctx context.Context, customerID uint) (*dto.AnalyticsOverviewResponse, error)
	GetLinkAnalytics(ctx context.Context, customerID uint, isAdmin bool, linkID uint, days int) (*dto.LinkAnalyticsResponse, error)
}

type AnalyticsFlowImpl struct {
	linkRepo   repository.ShortLinkRepository
	visitRepo  repository.ShortLinkVisitRepository
	publicBase string
}

func NewAnalyticsFlow(linkRepo repository.ShortLinkRepository, visitRepo repository.ShortLinkVisitRepository, publicBase string) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		linkRepo:   linkRepo,
		visitRepo:  visitRepo,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

func (f *AnalyticsFlowImpl) GetOverview(ctx context.Context, customerID uint) (*dto.AnalyticsOverviewResponse, error) {
	now := utils.UTCNow()

	totalLinks, err := f.linkRepo.Count(ctx, models.ShortLinkFilter{CustomerID: &customerID})
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count short links", err)
	}
	activeLinks, err := f.linkRepo.Count(ctx, models.ShortLinkFilter{CustomerID: &customerID, IsActive: utils.ToPtr(true)})
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count active short links", err)
	}
	totalClicks, err := f.linkRepo.SumClickCounts(ctx, &customerID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to sum click counts", err)
	}

	startOfDay := utils.StartOfDay(now)
	clicksToday, err := f.visitRepo.CountByCustomer(ctx, customerID, &startOfDay)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count today's visits", err)
	}
	startOfMonth := utils.StartOfMonth(now)
	clicksThisMonth, err := f.visitRepo.CountByCustomer(ctx, customerID, &startOfMonth)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count this month's visits", err)
	}

	since := utils.StartOfDay(now.AddDate(0, 0, -(DefaultAnalyticsWindowDays - 1)))
	daily, err := f.visitRepo.DailyCountsByCustomer(ctx, customerID, since)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to load daily visit counts", err)
	}

	topRows, err := f.linkRepo.ByFilter(ctx, models.ShortLinkFilter{CustomerID: &customerID}, "click_count DESC, id ASC", topLinksLimit, 0)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to load top links", err)
	}
	topLinks := make([]dto.ShortLinkDTO, 0, len(topRows))
	for _, r := range topRows {
		topLinks = append(topLinks, ToShortLinkDTO(r, f.publicBase))
	}

	return &dto.AnalyticsOverviewResponse{
		TotalLinks:      totalLinks,
		ActiveLinks:     activeLinks,
		TotalClicks:     totalClicks,
		ClicksToday:     clicksToday,
		ClicksThisMonth: clicksThisMonth,
		DailyClicks:     toDailyClicks(daily),
		TopLinks:        topLinks,
	}, nil
}

func (f *AnalyticsFlowImpl) GetLinkAnalytics(ctx context.Context, customerID uint, isAdmin bool, linkID uint, days int) (*dto.LinkAnalyticsResponse, error) {
	if days <= 0 {
		days = DefaultAnalyticsWindowDays
	}
	if days > maxAnalyticsWindowDays {
		days = maxAnalyticsWindowDays
	}

	link, err := f.linkRepo.ByID(ctx, linkID)
	if err != nil {
		return nil, NewBusinessError("SHORT_LINK_LOOKUP_FAILED", "Failed to lookup short link", err)
	}
	if link == nil {
		return nil, ErrShortLinkNotFound
	}
	if link.CustomerID != customerID && !isAdmin {
		return nil, ErrLinkAccessDenied
	}

	since := utils.StartOfDay(utils.UTCNow().AddDate(0, 0, -(days - 1)))

	total, err := f.visitRepo.CountByLink(ctx, link.ID, &since)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to count visits", err)
	}
	daily, err := f.visitRepo.DailyCountsByLink(ctx, link.ID, since)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to load daily visit counts", err)
	}

	resp := &dto.LinkAnalyticsResponse{
		Link:        ToShortLinkDTO(link, f.publicBase),
		WindowDays:  days,
		TotalVisits: total,
		DailyClicks: toDailyClicks(daily),
	}

	dims := []struct {
		name string
		dest *[]dto.StatRowDTO
	}{
		{"device_type", &resp.Devices},
		{"browser", &resp.Browsers},
		{"platform", &resp.Platforms},
		{"country", &resp.Countries},
		{"referer", &resp.Referers},
	}
	for _, d := range dims {
		rows, err := f.visitRepo.CountByDimension(ctx, link.ID, d.name, since, dimensionRowsLimit)
		if err != nil {
			return nil, NewBusinessError("ANALYTICS_FAILED", "Failed to load "+d.name+" breakdown", err)
		}
		*d.dest = toStatRows(rows)
	}

	return resp, nil
}

func toDailyClicks(rows []repository.DailyVisitRow) []dto.DailyClicksDTO {
	out := make([]dto.DailyClicksDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.DailyClicksDTO{Date: r.Date, Clicks: r.Count})
	}
	return out
}

func toStatRows(rows []repository.VisitStatRow) []dto.StatRowDTO {
	out := make([]dto.StatRowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.StatRowDTO{Value: r.Value, Count: r.Count})
	}
	return out
}
