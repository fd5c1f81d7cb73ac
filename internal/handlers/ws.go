package handlers

import (
	"net/http"

	"github.com/bedehampo/banking-transaction-api/internal/auth"
	"github.com/bedehampo/banking-transaction-api/internal/websocket"
)

// WSBalances subscribes a client to its own balance updates. Browsers
// cannot set headers on websocket dials, so the token rides in a query
// parameter.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
