package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unexbilletera/unex-api/internal/data/pagination"
	"github.com/unexbilletera/unex-api/internal/http/response"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
	"github.com/unexbilletera/unex-api/internal/platform/apierr"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
	"github.com/unexbilletera/unex-api/internal/services"
)

// maxBodyBytes caps inbound webhook and proxy payloads.
const maxBodyBytes = 1 << 20

type CoelsaHandler struct {
	log    *logger.Logger
	coelsa services.CoelsaService
}

func NewCoelsaHandler(log *logger.Logger, coelsa services.CoelsaService) *CoelsaHandler {
	return &CoelsaHandler{log: log.With("handler", "CoelsaHandler"), coelsa: coelsa}
}

// POST /coelsa/webhook/:action
// Business misses still answer 200 with a structured body.
func (h *CoelsaHandler) Webhook(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		h.log.Warn("webhook body unreadable", "action", c.Param("action"), "error", err)
		raw = nil
	}
	res, err := h.coelsa.ProcessWebhook(c.Request.Context(), c.Param("action"), raw)
	if err != nil {
		response.RespondAPIError(c, err, "webhook_failed")
		return
	}
	response.RespondOK(c, res)
}

// GET /coelsa/operations
func (h *CoelsaHandler) ListOperations(c *gin.Context) {
	var p pagination.Params
	if err := c.ShouldBindQuery(&p); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	var filter services.OperationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	page, err := h.coelsa.ListOperations(c.Request.Context(), filter, p)
	if err != nil {
		response.RespondAPIError(c, err, "list_operations_failed")
		return
	}
	response.RespondOK(c, page)
}

// GET /coelsa/operations/:id
func (h *CoelsaHandler) GetOperationStatus(c *gin.Context) {
	op, err := h.coelsa.GetOperationStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err, "get_operation_failed")
		return
	}
	response.RespondOK(c, op)
}

// GET /coelsa/merchants/:cuit
func (h *CoelsaHandler) GetMerchant(c *gin.Context) {
	m, err := h.coelsa.GetMerchantByIdentifier(c.Request.Context(), c.Param("cuit"))
	if err != nil {
		response.RespondAPIError(c, err, "get_merchant_failed")
		return
	}
	response.RespondOK(c, m)
}

// POST /coelsa/proxy/*api
// The upstream status, content type and body are relayed as-is.
func (h *CoelsaHandler) Proxy(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	res, err := h.coelsa.ProxyRequest(c.Request.Context(), c.Param("api"), raw)
	if err != nil {
		if apierr.From(err, "").Status >= http.StatusInternalServerError && !errors.Is(err, pkgerrors.ErrNotConfigured) {
			h.log.Warn("coelsa proxy failed", "api", c.Param("api"), "error", err)
			response.RespondError(c, http.StatusBadGateway, "upstream_unavailable", errors.New("coelsa upstream unavailable"))
			return
		}
		response.RespondAPIError(c, err, "proxy_failed")
		return
	}
	ct := res.ContentType
	if ct == "" {
		ct = "application/json"
	}
	c.Data(res.Status, ct, res.Body)
}

// GET|POST /coelsa/echo
func (h *CoelsaHandler) Echo(c *gin.Context) {
	var raw []byte
	if c.Request.Method != http.MethodGet {
		b, err := readBody(c)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
			return
		}
		raw = b
	}
	res := h.coelsa.Echo(c.Request.Context(), services.EchoRequest{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
		Body:   raw,
	})
	response.RespondOK(c, res)
}

func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("body exceeds %d bytes: %w", maxBodyBytes, pkgerrors.ErrInvalidArgument)
		}
		return nil, err
	}
	if strings.TrimSpace(string(b)) == "" {
		return nil, nil
	}
	return b, nil
}
