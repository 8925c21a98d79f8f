package handlers

import (
	"errors"
	"io"
	"net/http"

	"environment_controller/internal/protocol"
	"environment_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusPersisted = "persisted"

	errGetState     = "failed to load state"
	errGetStatus    = "failed to load status"
	errPersist      = "failed to persist state"
	errReadBody     = "failed to read body"
	errDispatch     = "failed to dispatch message"
	errMalformedMsg = "malformed message: "

	maxBodyBytes = 1 << 12
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// MessageResponse documents the result of POST /api/v1/messages.
type MessageResponse struct {
	// Route id of the inbound message
	ID string `json:"id" example:"LogActuatorPower"`
	// Outbound message broadcast to every client
	Payload string `json:"payload" example:"{\"id\":\"UpdateActuatorPower\",\"name\":\"Heater\",\"state\":\"On\"}"`
	// Inbound message was an Update* message echoed verbatim
	Canonical bool `json:"canonical"`
	// Model changed
	Applied bool `json:"applied"`
	// Name that matched no configured entity
	UnknownName string `json:"unknown_name,omitempty"`
	// Clients the payload was queued for
	Receivers int `json:"receivers"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get controller state
// @Description  Full device model: overview, actuators, pumps, water levels and sensors.
// @Tags         controller
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/state [get]
func (h *Handler) getState(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "controller_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Get controller status
// @Tags         controller
// @Produce      json
// @Success      200  {object}  service.Status
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.Status(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "controller_get_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Get snapshot
// @Description  The ordered canonical messages a newly connected client receives.
// @Tags         controller
// @Produce      json
// @Success      200  {array}   map[string]interface{}
// @Router       /api/v1/snapshot [get]
func (h *Handler) getSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Controller.Snapshot())
}

// @Summary      Dispatch a message
// @Description  Applies one protocol message exactly as if a WebSocket client had sent it and broadcasts the result.
// @Tags         controller
// @Accept       json
// @Produce      json
// @Param        body  body      object           true  "Protocol message"
// @Success      200   {object}  MessageResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/messages [post]
func (h *Handler) postMessage(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errReadBody, "message_read_failed", err)
		return
	}
	out, err := h.services.Controller.HandleMessage(c.Request.Context(), body, service.OriginHTTP)
	if err != nil {
		if errors.Is(err, protocol.ErrMalformedMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errMalformedMsg + err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errDispatch, "message_dispatch_failed", err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse(out))
}

// @Summary      Persist state
// @Tags         controller
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/persist [post]
func (h *Handler) persist(c *gin.Context) {
	if err := h.services.Controller.Persist(c.Request.Context(), "api"); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errPersist, "controller_persist_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusPersisted})
}
