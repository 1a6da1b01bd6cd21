package purchasing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fixbench-erp/fixbench/internal/catalog"
	"github.com/fixbench-erp/fixbench/internal/platform/httpx"
	"github.com/fixbench-erp/fixbench/internal/shared"
)

const mutationRateLimit = 30

// Handler manages purchasing endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers purchasing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/lines", h.getOrderLines)

	r.Get("/sessions/{sid}/candidates", h.sessionCandidates)
	r.Get("/sessions/{sid}/aggregate", h.sessionAggregate)
	r.Get("/sessions/{sid}/order", h.sessionOrder)

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(mutationRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/sessions", h.startSession)
		r.Delete("/sessions/{sid}", h.dropSession)
		r.Patch("/sessions/{sid}/candidates/{key}", h.patchCandidate)
		r.Post("/sessions/{sid}/select-all", h.selectAll)
		r.Post("/orders", h.createOrder)
		r.Put("/orders/{id}", h.updateOrder)
		r.Post("/orders/{id}/submit", h.transition(ActionSubmit))
		r.Post("/orders/{id}/approve", h.transition(ActionApprove))
		r.Post("/orders/{id}/receive", h.transition(ActionReceive))
		r.Post("/orders/{id}/cancel", h.transition(ActionCancel))
		r.Post("/orders/{id}/reopen", h.transition(ActionReopen))
		r.Delete("/orders/{id}", h.deleteOrder)
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	pg := shared.NewPagination(page, perPage, 0)
	limit, offset := pg.LimitOffset()
	supplierID, _ := strconv.ParseInt(q.Get("supplier_id"), 10, 64)
	locationID, _ := strconv.ParseInt(q.Get("location_id"), 10, 64)
	filters := ListFilters{
		Status:     q.Get("status"),
		SupplierID: supplierID,
		LocationID: locationID,
		Search:     q.Get("search"),
	}
	orders, total, err := h.service.ListOrders(r.Context(), limit, offset, filters)
	if err != nil {
		h.respondError(w, "list orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders":     orders,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) getOrderLines(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	lines, err := h.service.GetOrderLines(r.Context(), id)
	if err != nil {
		h.respondError(w, "get order lines", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"lines": lines})
}

type startSessionPayload struct {
	LocationID int64 `json:"location_id"`
	OrderID    int64 `json:"order_id"`
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var payload startSessionPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	sess, err := h.service.StartSession(r.Context(), payload.LocationID, payload.OrderID)
	if err != nil {
		h.respondError(w, "start session", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID(),
		"order":      sess.Order(),
		"candidates": sess.Candidates(Filter{}),
		"aggregate":  sess.Aggregate(),
	})
}

func (h *Handler) dropSession(w http.ResponseWriter, r *http.Request) {
	h.service.DropSession(chi.URLParam(r, "sid"))
	httpx.NoContent(w)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *Session {
	sess, err := h.service.Session(chi.URLParam(r, "sid"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "editing session not found or expired")
		return nil
	}
	return sess
}

func (h *Handler) sessionCandidates(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	f := Filter{
		Search:   r.URL.Query().Get("search"),
		Priority: r.URL.Query().Get("priority"),
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"candidates": sess.Candidates(f)})
}

func (h *Handler) sessionAggregate(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	httpx.JSON(w, http.StatusOK, sess.Aggregate())
}

func (h *Handler) sessionOrder(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	httpx.JSON(w, http.StatusOK, sess.Order())
}

type patchCandidatePayload struct {
	Included *bool   `json:"included"`
	Qty      *int    `json:"qty"`
	Price    *string `json:"unit_price"`
	Priority *string `json:"priority"`
}

func (h *Handler) patchCandidate(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	var payload patchCandidatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	key := chi.URLParam(r, "key")
	if payload.Included != nil {
		sess.SetIncluded(key, *payload.Included)
	}
	if payload.Qty != nil {
		sess.SetQuantity(key, *payload.Qty)
	}
	if payload.Price != nil {
		price, err := decimal.NewFromString(*payload.Price)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid unit price")
			return
		}
		sess.SetPrice(key, price)
	}
	if payload.Priority != nil {
		p := Priority(*payload.Priority)
		if !ValidPriority(p) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown priority")
			return
		}
		sess.SetPriority(key, p)
	}
	httpx.JSON(w, http.StatusOK, sess.Aggregate())
}

type selectAllPayload struct {
	Included bool `json:"included"`
}

func (h *Handler) selectAll(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	var payload selectAllPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	sess.SelectAll(payload.Included)
	httpx.JSON(w, http.StatusOK, sess.Aggregate())
}

type orderPayload struct {
	SessionID    string `json:"session_id" validate:"required"`
	Number       string `json:"number"`
	SupplierID   int64  `json:"supplier_id"`
	Priority     string `json:"priority"`
	ExpectedDate string `json:"expected_date"`
	Notes        string `json:"notes"`
}

func (p orderPayload) toInput() (HeaderInput, error) {
	input := HeaderInput{
		Number:     p.Number,
		SupplierID: p.SupplierID,
		Priority:   Priority(p.Priority),
		Notes:      p.Notes,
	}
	if p.ExpectedDate != "" {
		date, err := time.Parse("2006-01-02", p.ExpectedDate)
		if err != nil {
			return HeaderInput{}, err
		}
		input.ExpectedDate = date
	}
	return input, nil
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := payload.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expected date")
		return
	}
	order, err := h.service.CreateOrder(r.Context(), payload.SessionID, input)
	if err != nil {
		h.respondError(w, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var payload orderPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := payload.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expected date")
		return
	}
	order, err := h.service.UpdateOrder(r.Context(), id, payload.SessionID, input)
	if err != nil {
		h.respondError(w, "update order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

type transitionPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) transition(action Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		// Decode regardless of Content-Length so chunked bodies keep
		// their payload; an empty body decodes to the zero payload.
		var payload transitionPayload
		if err := httpx.DecodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
		order, err := h.service.Transition(r.Context(), id, action, payload.Reason)
		if err != nil {
			h.respondError(w, string(action)+" order", err)
			return
		}
		httpx.JSON(w, http.StatusOK, order)
	}
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.respondError(w, "delete order", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", "order was already received")
	case errors.Is(err, ErrValidation), errors.Is(err, catalog.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
