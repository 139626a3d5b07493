package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/Kusanagi/app/dto"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/repository"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/xuri/excelize/v2"
)

// exportBatchSize pages the export query so a large table never loads
// into memory at once.
const exportBatchSize = 500

// AdminShortLinkFlow exposes the cross-customer views reserved for the
// admin role: listing every short link and exporting them to Excel.
type AdminShortLinkFlow interface {
	ListAllShortLinks(ctx context.Context, filter models.ShortLinkFilter, page, pageSize int) (*dto.ListShortLinksResponse, error)
	ExportShortLinksExcel(ctx context.Context, filter models.ShortLinkFilter) (string, []byte, error)
}

type AdminShortLinkFlowImpl struct {
	repo       repository.ShortLinkRepository
	publicBase string
}

func NewAdminShortLinkFlow(repo repository.ShortLinkRepository, publicBase string) AdminShortLinkFlow {
	return &AdminShortLinkFlowImpl{
		repo:       repo,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

func (f *AdminShortLinkFlowImpl) ListAllShortLinks(ctx context.Context, filter models.ShortLinkFilter, page, pageSize int) (*dto.ListShortLinksResponse, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > utils.MaxPageSize {
		return nil, ErrInvalidPageSize
	}
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

var exportHeaders = []string{
	"ID", "Customer ID", "Original URL", "Short Code", "Custom Slug",
	"Short URL", "Title", "Click Count", "Active", "Expires At", "Created At",
}

// ExportShortLinksExcel renders the filtered links to a single-sheet
// workbook and returns the suggested filename plus the file bytes.
func (f *AdminShortLinkFlowImpl) ExportShortLinksExcel(ctx context.Context, filter models.ShortLinkFilter) (string, []byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Short Links"
	index, err := file.NewSheet(sheet)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to create worksheet", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to prepare workbook", err)
	}

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to write header row", err)
		}
	}

	rowNum := 2
	for offset := 0; ; offset += exportBatchSize {
		batch, err := f.repo.ByFilter(ctx, filter, "id ASC", exportBatchSize, offset)
		if err != nil {
			return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to load short links", err)
		}
		for _, link := range batch {
			if err := f.writeRow(file, sheet, rowNum, link); err != nil {
				return "", nil, err
			}
			rowNum++
		}
		if len(batch) < exportBatchSize {
			break
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to render workbook", err)
	}

	filename := fmt.Sprintf("short_links_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

func (f *AdminShortLinkFlowImpl) writeRow(file *excelize.File, sheet string, rowNum int, link *models.ShortLink) error {
	values := []any{
		link.ID,
		link.CustomerID,
		link.OriginalURL,
		link.ShortCode,
		derefOr(link.CustomSlug, ""),
		f.publicBase + "/s/" + link.PublicCode(),
		derefOr(link.Title, ""),
		link.ClickCount,
		utils.IsTrue(link.IsActive),
		formatTimePtr(link.ExpiresAt),
		link.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
		if err := file.SetCellValue(sheet, cell, v); err != nil {
			return NewBusinessError("EXPORT_FAILED", "Failed to write export row", err)
		}
	}
	return nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
