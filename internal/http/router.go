package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/unexbilletera/unex-api/internal/http/handlers"
	httpMW "github.com/unexbilletera/unex-api/internal/http/middleware"
	"github.com/unexbilletera/unex-api/internal/observability"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
	"github.com/unexbilletera/unex-api/internal/services"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	Compliance     services.ComplianceService
	Sandbox        services.SandboxService

	HealthHandler     *httpH.HealthHandler
	CoelsaHandler     *httpH.CoelsaHandler
	ComplianceHandler *httpH.ComplianceHandler
	SandboxHandler    *httpH.SandboxHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	coelsa := r.Group("/coelsa")
	{
		// Webhook (public, always 200 for business misses)
		if cfg.CoelsaHandler != nil {
			coelsa.POST("/webhook/:action", cfg.CoelsaHandler.Webhook)
		}
	}

	protected := coelsa.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		if cfg.CoelsaHandler != nil {
			protected.GET("/operations", cfg.CoelsaHandler.ListOperations)
			protected.GET("/operations/:id", cfg.CoelsaHandler.GetOperationStatus)
			protected.GET("/merchants/:cuit", cfg.CoelsaHandler.GetMerchant)
			protected.POST("/proxy/*api", cfg.CoelsaHandler.Proxy)
			protected.GET("/echo", cfg.CoelsaHandler.Echo)
			protected.POST("/echo", cfg.CoelsaHandler.Echo)
		}
	}

	// Compliance (header credentials, no bearer)
	if cfg.ComplianceHandler != nil && cfg.Compliance != nil {
		compliance := r.Group("/compliance")
		compliance.GET("/cvu-summary",
			httpMW.RequireComplianceCredentials(cfg.Compliance, services.ComplianceSummary),
			cfg.ComplianceHandler.CvuSummary)
		compliance.GET("/cvu-history",
			httpMW.RequireComplianceCredentials(cfg.Compliance, services.ComplianceHistory),
			cfg.ComplianceHandler.CvuHistory)
	}

	// Sandbox
	if cfg.SandboxHandler != nil {
		sandbox := r.Group("/sandbox")
		sandbox.Use(httpMW.RequireSandbox(cfg.Sandbox))
		if cfg.AuthMiddleware != nil {
			sandbox.Use(cfg.AuthMiddleware.RequireAuth())
		}
		sandbox.POST("/operations", cfg.SandboxHandler.CreateOperation)
		sandbox.POST("/webhook/:action", cfg.SandboxHandler.ReplayWebhook)
	}

	return r
}
