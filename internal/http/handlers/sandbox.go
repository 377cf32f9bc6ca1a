package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unexbilletera/unex-api/internal/http/response"
	"github.com/unexbilletera/unex-api/internal/services"
)

type SandboxHandler struct {
	sandbox services.SandboxService
}

func NewSandboxHandler(sandbox services.SandboxService) *SandboxHandler {
	return &SandboxHandler{sandbox: sandbox}
}

// POST /sandbox/operations
// body: { "externalId"?: "...", "amount": "100.00", "currency"?: "ARS", "type"?: "transfer_out" }
func (h *SandboxHandler) CreateOperation(c *gin.Context) {
	var req services.SandboxOperationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	op, err := h.sandbox.CreateOperation(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "sandbox_create_failed")
		return
	}
	response.RespondCreated(c, op)
}

// POST /sandbox/webhook/:action
func (h *SandboxHandler) ReplayWebhook(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	res, err := h.sandbox.ReplayWebhook(c.Request.Context(), c.Param("action"), raw)
	if err != nil {
		response.RespondAPIError(c, err, "sandbox_replay_failed")
		return
	}
	response.RespondOK(c, res)
}
