package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"evmalert/backend/services/alert-service/internal/http/middleware"
	"evmalert/backend/services/alert-service/internal/service"
)

// MonitorController is the part of service.Controller the API exposes.
type MonitorController interface {
	Start(origin string) error
	Status() service.Status
}

// MonitorHandlers serves the poll loop endpoints.
type MonitorHandlers struct {
	controller MonitorController
	logger     *zap.Logger
}

// NewMonitorHandlers returns handler struct.
func NewMonitorHandlers(controller MonitorController, logger *zap.Logger) *MonitorHandlers {
	return &MonitorHandlers{controller: controller, logger: logger}
}

type startRequest struct {
	ChatID string `json:"chat_id"`
}

// Start handles POST /api/monitor/start.
func (h *MonitorHandlers) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	chatID := strings.TrimSpace(req.ChatID)
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	login, _ := middleware.LoginFromContext(r.Context())
	if err := h.controller.Start(chatID); err != nil {
		if errors.Is(err, service.ErrAlreadyRunning) {
			writeJSON(w, http.StatusConflict, map[string]string{"status": "already running"})
			return
		}
		h.logger.Error("monitor start failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "monitor start failed")
		return
	}
	h.logger.Info("monitor started via api", zap.String("login", login), zap.String("chat_id", chatID))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// Status handles GET /api/monitor/status.
func (h *MonitorHandlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Status())
}
