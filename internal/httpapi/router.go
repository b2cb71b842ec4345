// Package httpapi serves the storefront Engine over HTTP with gin.
package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/internal/httpapi/handler"
	mdw "github.com/MrEthical07/storefront/internal/httpapi/middleware"
	resp "github.com/MrEthical07/storefront/internal/httpapi/response"
	promexport "github.com/MrEthical07/storefront/metrics/export/prometheus"
	authmw "github.com/MrEthical07/storefront/middleware"
)

// Options tunes the middleware chain. Zero values disable the matching limit.
type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int64
	CORSOrigins    []string
}

// NewRouter mounts every route on a fresh gin engine. The returned registry
// backs /metrics and already holds the engine and HTTP collectors.
func NewRouter(engine *storefront.Engine, l *zap.Logger, opt Options) (*gin.Engine, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		promexport.NewPrometheusExporter(engine),
	)
	httpMetrics := mdw.NewHTTPMetrics(reg)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, resp.CodeNotFound, "") })

	r.Use(
		mdw.RequestID(),
		ginzap.GinzapWithConfig(l, &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			SkipPaths:  []string{"/health"},
			Context: func(c *gin.Context) []zapcore.Field {
				return []zapcore.Field{zap.String("request_id", c.GetString(mdw.KeyRequestID))}
			},
		}),
		ginzap.RecoveryWithZap(l, true),
		corsMiddleware(opt.CORSOrigins),
		mdw.RateLimitPerIP(rate.Limit(opt.RateLimitRPS), opt.RateLimitBurst),
		mdw.ConcurrencyLimit(opt.MaxConcurrent),
		mdw.MaxBodyBytes(opt.MaxBodyBytes),
		mdw.Timeout(opt.RequestTimeout),
		httpMetrics.Handler(),
		authmw.ClientIP(),
	)

	h := handler.New(engine)

	r.GET("/health", h.Health)
	metrics := authmw.Guard(engine, storefront.RoleAdministrador, storefront.RoleSupervisor)(
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	)
	r.GET("/metrics", gin.WrapH(metrics))

	api := r.Group("/api/v1")
	mountAuth(api, engine, h)
	mountOrders(api, h)
	mountAdmin(api, engine, h)

	return r, reg
}

func mountAuth(api *gin.RouterGroup, engine *storefront.Engine, h *handler.Handler) {
	g := api.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/verify", h.Verify)
	g.POST("/resend-code", h.ResendCode)
	g.POST("/login", h.Login)
	g.POST("/password-reset/request", h.RequestPasswordReset)
	g.POST("/password-reset/confirm", h.ConfirmPasswordReset)
	g.POST("/logout", authmw.RequireToken(), h.Logout)
	g.GET("/session", authmw.RequireSession(engine), h.Session)
}

// Order routes only require a token; the Engine checks the session and the
// permission of each call.
func mountOrders(api *gin.RouterGroup, h *handler.Handler) {
	g := api.Group("")
	g.Use(authmw.RequireToken())
	g.POST("/orders", h.CreateOrder)
	g.GET("/orders", h.ListOrders)
	g.GET("/orders/:number", h.GetOrder)
	g.POST("/orders/:number/confirm-payment", h.ConfirmPayment)
	g.GET("/deliveries", h.ListDeliveries)
}

func mountAdmin(api *gin.RouterGroup, engine *storefront.Engine, h *handler.Handler) {
	g := api.Group("/admin")
	g.Use(
		authmw.RequireSession(engine),
		authmw.RequireRoles(storefront.RoleAdministrador, storefront.RoleSupervisor),
	)
	g.GET("/users", h.ListUsers)
	g.PUT("/users/:email/role", h.UpdateUserRole)
	g.PUT("/orders/:number/status", h.UpdateOrderStatus)
	g.PUT("/orders/:number/payment-status", h.UpdatePaymentStatus)
	g.GET("/orders/export", h.ExportOrders)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", mdw.KeyRequestID)
	cfg.ExposeHeaders = []string{mdw.KeyRequestID, "Content-Disposition"}
	return cors.New(cfg)
}
