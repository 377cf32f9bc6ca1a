package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/unexbilletera/unex-api/internal/http/response"
	"github.com/unexbilletera/unex-api/internal/services"
)

type ComplianceHandler struct {
	compliance services.ComplianceService
}

func NewComplianceHandler(compliance services.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{compliance: compliance}
}

// GET /compliance/cvu-summary
func (h *ComplianceHandler) CvuSummary(c *gin.Context) {
	out, err := h.compliance.GetCvuSummary(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "cvu_summary_failed")
		return
	}
	response.RespondOK(c, out)
}

// GET /compliance/cvu-history
func (h *ComplianceHandler) CvuHistory(c *gin.Context) {
	out, err := h.compliance.GetCvuHistory(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "cvu_history_failed")
		return
	}
	response.RespondOK(c, out)
}
