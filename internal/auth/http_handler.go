package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPHandler exposes the token state over HTTP: a masked status view and a
// forced-refresh trigger.
type HTTPHandler struct {
	tok *TokenManager
	log *zap.Logger
}

// NewHTTPHandler creates a status handler for the token manager.
func NewHTTPHandler(tok *TokenManager, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{tok: tok, log: log}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") != "" {
		h.tok.Invalidate()
		if _, err := h.tok.GetToken(r.Context()); err != nil {
			h.log.Error("forced token refresh failed", zap.Error(err))
			http.Error(w, "Unable to refresh token", http.StatusBadGateway)
			return
		}
	}

	t, expiry, err := h.tok.Status()
	if errors.Is(err, ErrTokenNotSet) {
		http.Error(w, "Token not found", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Token: %s, expires: %s", Mask(t), expiry.Format(time.RFC3339))
}
