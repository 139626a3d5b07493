package handlers

import (
	"errors"

	"github.com/amirphl/Kusanagi/app/dto"
	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ShortLinkHandlerInterface defines the contract for short link CRUD handlers
type ShortLinkHandlerInterface interface {
	Create(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	CheckSlug(c fiber.Ctx) error
}

// ShortLinkHandler handles short link management HTTP requests
type ShortLinkHandler struct {
	flow      businessflow.ShortLinkFlow
	validator *validator.Validate
}

// NewShortLinkHandler creates a new short link handler
func NewShortLinkHandler(flow businessflow.ShortLinkFlow) ShortLinkHandlerInterface {
	return &ShortLinkHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// Create Short Link
// @Description Create a new short link with a generated code or a custom slug
// @Tags ShortLinks
// @Accept json
// @Produce json
// @Param request body dto.CreateShortLinkRequest true "Short link definition"
// @Success 201 {object} dto.APIResponse{data=dto.ShortLinkDTO} "Short link created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 409 {object} dto.APIResponse "Custom slug already taken"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/links [post]
func (h *ShortLinkHandler) Create(c fiber.Ctx) error {
	customerID, _, ok := authenticatedCustomer(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}

	var req dto.CreateShortLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	result, err := h.flow.CreateShortLink(createRequestContext(c, "/api/v1/links"), customerID, &req)
	if err != nil {
		return h.mapError(c, err)
	}
	return successResponse(c, fiber.StatusCreated, "Short link created successfully", result)
}

// Get Short Link
// @Description Fetch one short link owned by the caller (admins may fetch any)
// @Tags ShortLinks
// @Produce json
// @Param id path int true "Short link ID"
// @Success 200 {object} dto.APIResponse{data=dto.ShortLinkDTO}
// @Failure 403 {object} dto.APIResponse "Access denied"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Router /api/v1/links/{id} [get]
func (h *ShortLinkHandler) Get(c fiber.Ctx) error {
	customerID, isAdmin, ok := authenticatedCustomer(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	linkID, err := pathID(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid short link ID", "INVALID_LINK_ID", nil)
	}

	result, err := h.flow.GetShortLink(createRequestContext(c, "/api/v1/links/:id"), customerID, isAdmin, linkID)
	if err != nil {
		return h.mapError(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Short link retrieved successfully", result)
}

// List Short Links
// @Description List the caller's short links, newest first
// @Tags ShortLinks
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 10, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListShortLinksResponse}
// @Router /api/v1/links [get]
func (h *ShortLinkHandler) List(c fiber.Ctx) error {
	customerID, _, ok := authenticatedCustomer(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	page, pageSize := pageParams(c)

	result, err := h.flow.ListShortLinks(createRequestContext(c, "/api/v1/links"), customerID, page, pageSize)
	if err != nil {
		return h.mapError(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Short links retrieved successfully", result)
}

// Update Short Link
// @Description Update title, description, custom slug, active flag or expiry
// @Tags ShortLinks
// @Accept json
// @Produce json
// @Param id path int true "Short link ID"
// @Param request body dto.UpdateShortLinkRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.ShortLinkDTO}
// @Failure 403 {object} dto.APIResponse "Access denied"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Failure 409 {object} dto.APIResponse "Custom slug already taken"
// @Router /api/v1/links/{id} [put]
func (h *ShortLinkHandler) Update(c fiber.Ctx) error {
	customerID, isAdmin, ok := authenticatedCustomer(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	linkID, err := pathID(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid short link ID", "INVALID_LINK_ID", nil)
	}

	var req dto.UpdateShortLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	result, err := h.flow.UpdateShortLink(createRequestContext(c, "/api/v1/links/:id"), customerID, isAdmin, linkID, &req)
	if err != nil {
		return h.mapError(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Short link updated successfully", result)
}

// Delete Short Link
// @Description Delete a short link and its visit history
// @Tags ShortLinks
// @Produce json
// @Param id path int true "Short link ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse "Access denied"
// @Failure 404 {object} dto.APIResponse "Not found"
// @Router /api/v1/links/{id} [delete]
func (h *ShortLinkHandler) Delete(c fiber.Ctx) error {
	customerID, isAdmin, ok := authenticatedCustomer(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	linkID, err := pathID(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid short link ID", "INVALID_LINK_ID", nil)
	}

	if err := h.flow.DeleteShortLink(createRequestContext(c, "/api/v1/links/:id"), customerID, isAdmin, linkID); err != nil {
		return h.mapError(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Short link deleted successfully", nil)
}

// Check Slug Availability
// @Description Check whether a candidate custom slug can be claimed
// @Tags ShortLinks
// @Produce json
// @Param slug query string true "Candidate slug"
// @Success 200 {object} dto.APIResponse{data=dto.SlugAvailabilityResponse}
// @Router /api/v1/links/check-slug [get]
func (h *ShortLinkHandler) CheckSlug(c fiber.Ctx) error {
	if _, _, ok := authenticatedCustomer(c); !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Customer ID not found in context", "MISSING_CUSTOMER_ID", nil)
	}
	slug := c.Query("slug")
	if slug == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Slug query parameter is required", "MISSING_SLUG", nil)
	}

	result, err := h.flow.CheckSlugAvailability(createRequestContext(c, "/api/v1/links/check-slug"), slug)
	if err != nil {
		return h.mapError(c, err)
	}
	return successResponse(c, fiber.StatusOK, "Slug availability checked", result)
}

func (h *ShortLinkHandler) mapError(c fiber.Ctx, err error) error {
	switch {
	case businessflow.IsShortLinkNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Short link not found", "SHORT_LINK_NOT_FOUND", nil)
	case businessflow.IsAccessDenied(err):
		return errorResponse(c, fiber.StatusForbidden, "Access denied", "ACCESS_DENIED", nil)
	case errors.Is(err, businessflow.ErrSlugTaken):
		return errorResponse(c, fiber.StatusConflict, "Custom slug is already taken", "SLUG_TAKEN", nil)
	case errors.Is(err, businessflow.ErrSlugReserved):
		return errorResponse(c, fiber.StatusBadRequest, "Custom slug is reserved", "SLUG_RESERVED", nil)
	case errors.Is(err, businessflow.ErrSlugInvalidFormat):
		return errorResponse(c, fiber.StatusBadRequest, "Custom slug format is invalid", "SLUG_INVALID_FORMAT", err.Error())
	case errors.Is(err, businessflow.ErrInvalidOriginalURL),
		errors.Is(err, businessflow.ErrOriginalURLTooLong),
		errors.Is(err, businessflow.ErrExpiryNotFuture),
		errors.Is(err, businessflow.ErrUpdateRequired),
		errors.Is(err, businessflow.ErrInvalidPage),
		errors.Is(err, businessflow.ErrInvalidPageSize):
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	case errors.Is(err, businessflow.ErrCodeAllocationExhausted):
		return errorResponse(c, fiber.StatusServiceUnavailable, "Could not allocate a short code", "CODE_ALLOCATION_EXHAUSTED", nil)
	default:
		var be *businessflow.BusinessError
		if errors.As(err, &be) {
			return errorResponse(c, fiber.StatusInternalServerError, be.Message, be.Code, nil)
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR", nil)
	}
}
