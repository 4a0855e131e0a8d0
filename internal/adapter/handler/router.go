package handler

import "net/http"

// NewRouter registers the API routes and wraps them with request-id and
// logging middleware.
func NewRouter(h *HTTPHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}/history", h.ProductHistory)
	mux.HandleFunc("POST /api/products/{id}/reprice", h.Reprice)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("POST /api/track/view", h.TrackView)
	mux.HandleFunc("GET /api/sim/state", h.SimState)
	mux.HandleFunc("POST /api/sim/start", h.SimStart)
	mux.HandleFunc("POST /api/sim/pause", h.SimPause)
	mux.HandleFunc("POST /api/sim/step", h.SimStep)
	mux.HandleFunc("GET /api/health", h.Health)
	return WithRequestID(WithLogging(mux))
}
