package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rl1809/crypto-shop/internal/core/domain"
	"github.com/rl1809/crypto-shop/internal/core/service"
	"github.com/rl1809/crypto-shop/internal/port"
)

type HTTPHandler struct {
	products   *service.ProductService
	checkout   *service.CheckoutService
	tracking   *service.TrackingService
	sim        *service.Simulator
	db         port.DatabaseRepository
	cache      port.CacheRepository
	appName    string
	appVersion string
}

func NewHTTPHandler(
	products *service.ProductService,
	checkout *service.CheckoutService,
	tracking *service.TrackingService,
	sim *service.Simulator,
	db port.DatabaseRepository,
	cache port.CacheRepository,
	appName, appVersion string,
) *HTTPHandler {
	return &HTTPHandler{
		products:   products,
		checkout:   checkout,
		tracking:   tracking,
		sim:        sim,
		db:         db,
		cache:      cache,
		appName:    appName,
		appVersion: appVersion,
	}
}

type productView struct {
	ID           string  `json:"id"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"currentPrice"`
	Stock        int     `json:"stock"`
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	prods, err := h.products.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]productView, 0, len(prods))
	for _, p := range prods {
		out = append(out, productView{
			ID:           p.ID,
			SKU:          p.SKU,
			Name:         p.Name,
			CurrentPrice: p.CurrentPrice,
			Stock:        p.Stock,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) ProductHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	series, err := h.products.History(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *HTTPHandler) Reprice(w http.ResponseWriter, r *http.Request) {
	result, err := h.products.Reprice(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type checkoutRequest struct {
	SessionID string                `json:"sessionId"`
	Items     []domain.CheckoutItem `json:"items"`
}

type checkoutItemView struct {
	ProductID string  `json:"productId"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
}

type checkoutResponse struct {
	OK      bool               `json:"ok"`
	OrderID string             `json:"orderId"`
	Total   float64            `json:"total"`
	Items   []checkoutItemView `json:"items"`
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	order, err := h.checkout.Checkout(r.Context(), req.SessionID, req.Items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := checkoutResponse{OK: true, OrderID: order.ID, Total: order.Total}
	for _, it := range order.Items {
		resp.Items = append(resp.Items, checkoutItemView{
			ProductID: it.ProductID,
			Qty:       it.Qty,
			Price:     it.PriceAtPurchase,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type trackViewRequest struct {
	ProductID string `json:"productId"`
	SessionID string `json:"sessionId"`
}

func (h *HTTPHandler) TrackView(w http.ResponseWriter, r *http.Request) {
	var req trackViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	throttled, err := h.tracking.TrackView(r.Context(), req.ProductID, req.SessionID, clientIP(r), r.UserAgent())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if throttled {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "throttled": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type simStateResponse struct {
	Status string `json:"status"`
	Tick   int64  `json:"tick"`
}

func (h *HTTPHandler) SimState(w http.ResponseWriter, r *http.Request) {
	status, tick := h.sim.State()
	writeJSON(w, http.StatusOK, simStateResponse{Status: status, Tick: tick})
}

func (h *HTTPHandler) SimStart(w http.ResponseWriter, r *http.Request) {
	h.sim.Start()
	h.SimState(w, r)
}

func (h *HTTPHandler) SimPause(w http.ResponseWriter, r *http.Request) {
	h.sim.Pause()
	h.SimState(w, r)
}

func (h *HTTPHandler) SimStep(w http.ResponseWriter, r *http.Request) {
	tick, updated, err := h.sim.TickOnce(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tick": tick, "updated": updated})
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbOK := h.db.Ping(r.Context()) == nil
	cacheOK := h.cache.Ping(r.Context()) == nil
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"db":      dbOK,
		"cache":   cacheOK,
		"app":     h.appName,
		"version": h.appVersion,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

type errorBody struct {
	Error     string `json:"error"`
	ProductID string `json:"productId,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	var insufficient *service.InsufficientStockError
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "product not found"})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, errorBody{
			Error:     "insufficient stock",
			ProductID: insufficient.ProductID,
			Available: &insufficient.Available,
		})
	case errors.Is(err, service.ErrConcurrentStockChange):
		writeJSON(w, http.StatusConflict, errorBody{Error: "concurrent stock change; please retry"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
