// Package handlers exposes the pipeline over HTTP with {success,data,error} envelopes.
package handlers

import (
	"errors"
	"net/http"

	"github.com/PortNumber53/content-strategy-engine/internal/logging"
	"github.com/PortNumber53/content-strategy-engine/internal/middleware"
	"github.com/PortNumber53/content-strategy-engine/internal/pipeline"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	p      *pipeline.Pipeline
	logger *logrus.Logger
}

func New(p *pipeline.Pipeline, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{p: p, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// fail maps a pipeline error onto a response. Client faults keep their message;
// anything else is logged and answered with serverMsg.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, serverMsg string) {
	if ie, ok := pipeline.AsInputError(err); ok {
		status := http.StatusBadRequest
		if ie.NotFound() {
			status = http.StatusNotFound
		}
		writeError(w, status, ie.Message)
		return
	}
	h.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"user":   middleware.UserID(r.Context()),
	}).WithError(err).Error("[API] request failed")
	if errors.Is(err, pipeline.ErrGapAnalysisFailed) {
		serverMsg = pipeline.ErrGapAnalysisFailed.Error()
	}
	writeError(w, http.StatusInternalServerError, serverMsg)
}
