package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zenGate-Global/hello-audit/domains/greeting/be/service"
	platformlogging "github.com/zenGate-Global/hello-audit/platform/go/logging"
)

// Handler wires the greeting service to the HTTP contract.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("greeting service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// SayHello serves GET /hello?name=.
func (h *Handler) SayHello(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	logger := platformlogging.FromRequest(r, h.logger)
	logger.Info("Calling sayHello Method from " + name)

	greeting, err := h.svc.Greet(r.Context(), name)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("sayHello abandoned", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		logger.Error("sayHello failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(greeting))
}
