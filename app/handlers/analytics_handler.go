package handlers

import (
	"errors"

	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/gofiber/fiber/v3"
)

// AnalyticsHandlerInterface defines the contract for dashboard handlers
type AnalyticsHandlerInterface interface {
	Overview(c fiber.Ctx) error
	LinkAnalytics(c fiber.Ctx) error
}

// AnalyticsHandler handles analytics HTTP requests
type AnalyticsHandler struct {
	flow businessflow.AnalyticsFlow
}

func NewAnalyticsHandler(flow businessflow.AnalyticsFlow) AnalyticsHandlerInterface {
	return &AnalyticsHandler{flow: flow}
}

// Overview returns the caller's dashboard summary
// @Description Totals, today's and this month's clicks, daily series and top links
// @Tags Analytics
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsOverviewResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/analytics/overview [get]
func (h *AnalyticsHandler) Overview(c fiber.Ctx) error {
	customerID, _, ok := authenticatedCustomer(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	result, err := h.flow.GetOverview(createRequestContext(c, "/api/v1/analytics/overview"), customerID)
	if err != nil {
		return h.mapError(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Analytics overview retrieved successfully", result)
}

// LinkAnalytics returns the per-link breakdowns over a day window
// @Description Daily series plus device, browser, platform, country and referer breakdowns
// @Tags Analytics
// @Produce json
// @Param id path int true "Short link ID"
// @Param days query int false "Window size in days (default 30, max 365)"
// @Success 200 {object} dto.APIResponse{data=dto.LinkAnalyticsResponse}
// @Failure 403 {object} dto.APIResponse "Access denied"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Router /api/v1/links/{id}/analytics [get]
func (h *AnalyticsHandler) LinkAnalytics(c fiber.Ctx) error {
	customerID, isAdmin, ok := authenticatedCustomer(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	linkID, err := pathID(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid short link ID", "INVALID_LINK_ID", nil)
	}
	days := queryInt(c, "days", 0)

	result, err := h.flow.GetLinkAnalytics(createRequestContext(c, "/api/v1/links/:id/analytics"), customerID, isAdmin, linkID, days)
	if err != nil {
		return h.mapError(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Link analytics retrieved successfully", result)
}

func (h *AnalyticsHandler) mapError(c fiber.Ctx, err error) error {
	switch {
	case businessflow.IsShortLinkNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Short link not found", "SHORT_LINK_NOT_FOUND", nil)
	case businessflow.IsAccessDenied(err):
		return errorResponse(c, fiber.StatusForbidden, "Access denied", "ACCESS_DENIED", nil)
	default:
		var be *businessflow.BusinessError
		if errors.As(err, &be) {
			return errorResponse(c, fiber.StatusInternalServerError, be.Message, be.Code, nil)
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR", nil)
	}
}
