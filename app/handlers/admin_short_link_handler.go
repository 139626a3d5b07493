package handlers

import (
	"errors"

	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/amirphl/Kusanagi/models"
	"github.com/amirphl/Kusanagi/utils"
	"github.com/gofiber/fiber/v3"
)

// AdminShortLinkHandlerInterface defines the contract for admin short link handlers
type AdminShortLinkHandlerInterface interface {
	ListAll(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// AdminShortLinkHandler handles the admin-only cross-customer views.
// Role enforcement happens in the middleware; these handlers assume an
// admin identity is already in locals.
type AdminShortLinkHandler struct {
	flow businessflow.AdminShortLinkFlow
}

func NewAdminShortLinkHandler(flow businessflow.AdminShortLinkFlow) AdminShortLinkHandlerInterface {
	return &AdminShortLinkHandler{flow: flow}
}

// ListAll lists every short link across customers
// @Description Paginated cross-customer listing with optional filters
// @Tags Admin
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 10, max 100)"
// @Param customer_id query int false "Filter by owning customer"
// @Param is_active query bool false "Filter by active flag"
// @Param search query string false "Substring match on title and original URL"
// @Success 200 {object} dto.APIResponse{data=dto.ListShortLinksResponse}
// @Failure 403 {object} dto.APIResponse "Admin role required"
// @Router /api/v1/admin/links [get]
func (h *AdminShortLinkHandler) ListAll(c fiber.Ctx) error {
	page, pageSize := pageParams(c)
	filter := adminListFilter(c)

	result, err := h.flow.ListAllShortLinks(createRequestContext(c, "/api/v1/admin/links"), filter, page, pageSize)
	if err != nil {
		return h.mapError(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Short links retrieved successfully", result)
}

// Export downloads the filtered short links as an Excel workbook
// @Description Streams an xlsx file containing every matching short link
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param customer_id query int false "Filter by owning customer"
// @Param is_active query bool false "Filter by active flag"
// @Success 200 {file} file "Excel workbook"
// @Failure 403 {object} dto.APIResponse "Admin role required"
// @Router /api/v1/admin/links/export [get]
func (h *AdminShortLinkHandler) Export(c fiber.Ctx) error {
	filter := adminListFilter(c)

	filename, payload, err := h.flow.ExportShortLinksExcel(createRequestContext(c, "/api/v1/admin/links/export"), filter)
	if err != nil {
		return h.mapError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(payload)
}

func adminListFilter(c fiber.Ctx) models.ShortLinkFilter {
	var filter models.ShortLinkFilter
	if v := queryInt(c, "customer_id", 0); v > 0 {
		filter.CustomerID = utils.ToPtr(uint(v))
	}
	switch c.Query("is_active") {
	case "true":
		filter.IsActive = utils.ToPtr(true)
	case "false":
		filter.IsActive = utils.ToPtr(false)
	}
	if search := c.Query("search"); search != "" {
		filter.Search = &search
	}
	return filter
}

func (h *AdminShortLinkHandler) mapError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, businessflow.ErrInvalidPage), errors.Is(err, businessflow.ErrInvalidPageSize):
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	default:
		var be *businessflow.BusinessError
		if errors.As(err, &be) {
			return errorResponse(c, fiber.StatusInternalServerError, be.Message, be.Code, nil)
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR", nil)
	}
}
