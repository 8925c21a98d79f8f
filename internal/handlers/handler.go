package handlers

import (
	"net/http"

	_ "environment_controller/internal/docs"
	"environment_controller/internal/logger"
	"environment_controller/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options tunes optional routes and the WebSocket upgrade.
type Options struct {
	// AllowedOrigins restricts the WebSocket Origin header. Empty allows any.
	AllowedOrigins []string
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	ws       WSServer
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, ws WSServer, log *logger.Logger, opts Options) *Handler {
	return &Handler{services: services, ws: ws, log: log, opts: opts}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	if h.opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.opts.Metrics))
	}

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	// Control channel (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerControllerRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerControllerRoutes(api *gin.RouterGroup) {
	api.GET("/state", h.getState)
	api.GET("/status", h.getStatus)
	api.GET("/snapshot", h.getSnapshot)
	// Body is one protocol message, e.g. {"id":"LogActuatorPower","name":"Heater"}
	api.POST("/messages", h.postMessage)
	api.POST("/persist", h.persist)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
