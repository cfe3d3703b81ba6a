// Package web serves the HTTP diagnostic and control surface: daemon
// state, the advisory event log, static/mode control, and a websocket
// stream of live snapshots.
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sweeney/triac-dimmer/internal/logger"
	"github.com/sweeney/triac-dimmer/internal/status"
	"github.com/sweeney/triac-dimmer/internal/store"
)

// Controls is the control surface the HTTP layer drives.
type Controls interface {
	// SetStatic applies and persists a static frame.
	SetStatic(values []uint8)

	// ForceMode switches the arbiter mode. Returns false for an unknown
	// mode name.
	ForceMode(mode string) bool
}

// EventSource reads the advisory event log.
type EventSource interface {
	RecentEvents(ctx context.Context, limit int) ([]store.Event, error)
}

// Handler wires the HTTP layer to the tracker and controls.
type Handler struct {
	tracker  *status.Tracker
	controls Controls
	events   EventSource
	log      *logger.Logger
}

// NewHandler constructs the HTTP handler with its dependencies. events may
// be nil, disabling the event-log endpoint.
func NewHandler(tracker *status.Tracker, controls Controls, events EventSource, log *logger.Logger) *Handler {
	return &Handler{tracker: tracker, controls: controls, events: events, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)

	api := router.Group("/api/v1/dimmer")
	{
		api.GET("/state", h.getState)
		api.GET("/events", h.getEvents)
		api.POST("/static", h.postStatic)
		api.POST("/mode", h.postMode)
	}

	// Live snapshot stream (HTTP upgrade) — same port.
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// stateResponse is the JSON shape of one snapshot.
type stateResponse struct {
	Mode             string `json:"mode"`
	Frame            []int  `json:"frame"`
	Levels           []int  `json:"levels"`
	ZeroCrossHealthy bool   `json:"zero_cross_healthy"`
	MQTTConnected    bool   `json:"mqtt_connected"`
	UptimeSec        int64  `json:"uptime_s"`

	FastPackets     uint64 `json:"fast_packets"`
	PlanSteps       uint64 `json:"plan_steps"`
	SignalLosses    uint64 `json:"signal_losses"`
	DroppedMessages uint64 `json:"dropped_messages"`
}

func snapshotResponse(snap status.Snapshot) stateResponse {
	resp := stateResponse{
		Mode:             snap.Mode,
		ZeroCrossHealthy: snap.ZeroCrossHealthy,
		MQTTConnected:    snap.MQTTConnected,
		UptimeSec:        int64(snap.Uptime().Seconds()),
		FastPackets:      snap.Counters.FastPackets,
		PlanSteps:        snap.Counters.PlanSteps,
		SignalLosses:     snap.Counters.SignalLosses,
		DroppedMessages:  snap.Counters.DroppedMessages,
	}
	for _, v := range snap.Frame {
		resp.Frame = append(resp.Frame, int(v))
	}
	for _, l := range snap.Levels {
		resp.Levels = append(resp.Levels, l)
	}
	return resp
}

func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, snapshotResponse(h.tracker.Snapshot()))
}

func (h *Handler) getEvents(c *gin.Context) {
	if h.events == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event log disabled"})
		return
	}
	events, err := h.events.RecentEvents(c.Request.Context(), 100)
	if err != nil {
		h.log.Errorw("read events failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type staticRequest struct {
	Values []uint8 `json:"values" binding:"required,min=1"`
}

func (h *Handler) postStatic(c *gin.Context) {
	var req staticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "values must be a non-empty array of 0-255"})
		return
	}
	h.controls.SetStatic(req.Values)
	c.JSON(http.StatusOK, gin.H{"status": "applied"})
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

func (h *Handler) postMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
		return
	}
	if !h.controls.ForceMode(req.Mode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mode"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "switched", "mode": req.Mode})
}
