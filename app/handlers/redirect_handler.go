package handlers

import (
	"log"

	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/gofiber/fiber/v3"
)

// RedirectHandlerInterface defines the contract for the public visit endpoint
type RedirectHandlerInterface interface {
	Visit(c fiber.Ctx) error
}

// RedirectHandler serves the public redirect path. It is deliberately
// plain-text: visitors are browsers following a link, not API clients.
type RedirectHandler struct {
	flow businessflow.ShortLinkVisitFlow
}

func NewRedirectHandler(flow businessflow.ShortLinkVisitFlow) RedirectHandlerInterface {
	return &RedirectHandler{flow: flow}
}

// Visit resolves a short link, records the visit and redirects
// @Summary Visit Short Link
// @Tags ShortLinks
// @Produce plain
// @Param code path string true "Short code or custom slug"
// @Success 302 {string} string "Redirect"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /s/{code} [get]
func (h *RedirectHandler) Visit(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusNotFound).SendString("not found")
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"), c.Get("Referer"))
	metadata.RequestID = c.Get("X-Request-ID")

	destination, err := h.flow.Visit(createRequestContext(c, "/s/:code"), code, metadata)
	if err != nil {
		if businessflow.IsShortLinkNotFound(err) {
			return c.Status(fiber.StatusNotFound).SendString("not found")
		}
		log.Println("Visit short link failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString("internal error")
	}

	return c.Redirect().Status(fiber.StatusFound).To(destination)
}
