package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flashdash-service/internal/api/dto"
	"github.com/spec-kit/flashdash-service/internal/crm"
	apperrors "github.com/spec-kit/flashdash-service/pkg/util"
)

// CrmHandler proxies CRM lookups for authenticated agents.
type CrmHandler struct {
	gateway *crm.Gateway
}

// NewCrmHandler constructs handler.
func NewCrmHandler(gateway *crm.Gateway) *CrmHandler {
	return &CrmHandler{gateway: gateway}
}

// CreditReport handles POST /api/forthcrm/credit-report.
func (h *CrmHandler) CreditReport(c *fiber.Ctx) error {
	var req dto.CreditReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ClientIDOrName == "" {
		return apperrors.NewValidationError("Missing clientIdOrName in request body", nil)
	}

	report, err := h.gateway.FetchCreditReport(c.UserContext(), req.ClientIDOrName)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// SearchClients handles GET /api/forthcrm/clients/search?query=...
func (h *CrmHandler) SearchClients(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return apperrors.NewValidationError("missing query parameter", nil)
	}

	result, err := h.gateway.SearchClients(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// DebtTypes handles GET /api/forthcrm/debts/types.
func (h *CrmHandler) DebtTypes(c *fiber.Ctx) error {
	result, err := h.gateway.DebtTypes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(result)
}
