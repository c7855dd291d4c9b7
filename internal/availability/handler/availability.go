package handler

import (
	"net/http"
	"strconv"
	"time"

	"reservations/internal/availability/service"
	"reservations/pkg/config"
	apperrors "reservations/pkg/errors"
	httputil "reservations/pkg/http"
	"reservations/pkg/logger"
	"reservations/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	cfg     *config.Config
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, cfg *config.Config) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AvailabilityHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

// List handles listAvailability: every resource with an is_available flag.
func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	interval, err := httputil.ExtractInterval(r, h.cfg.Location)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	results, err := h.service.ListAvailability(r.Context(), interval, r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	views := make([]model.ResourceAvailabilityView, 0, len(results))
	for _, a := range results {
		views = append(views, model.NewAvailabilityView(a, h.cfg.Location))
	}
	h.writeSuccess(w, "List", views)
}

func (h *AvailabilityHandler) ListAvailableResources(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	interval, err := httputil.ExtractInterval(r, h.cfg.Location)
	if err != nil {
		h.writeError(w, "ListAvailableResources", err)
		return
	}

	resources, err := h.service.ListAvailableResources(r.Context(), interval, r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, "ListAvailableResources", err)
		return
	}
	h.writeSuccess(w, "ListAvailableResources", resources)
}

// Check handles checkAvailability for a single resource.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ExtractID(ps, "id")
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}
	interval, err := httputil.ExtractInterval(r, h.cfg.Location)
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}

	result, err := h.service.FindResourceAvailability(r.Context(), id, interval)
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}
	h.writeSuccess(w, "Check", model.NewAvailabilityView(result, h.cfg.Location))
}

// Slots lists free slots for ?date=yyyy-MM-dd. Business hours and slot width
// default to the configured values and may be overridden with from, to and
// slot_minutes.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ExtractID(ps, "id")
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	query, err := h.slotQuery(r)
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	seq, err := h.service.FindAvailableSlots(r.Context(), id, query)
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	views := []model.SlotView{}
	for slot := range seq {
		views = append(views, model.NewSlotView(slot, h.cfg.Location))
	}
	h.writeSuccess(w, "Slots", views)
}

func (h *AvailabilityHandler) slotQuery(r *http.Request) (model.SlotQuery, error) {
	params := r.URL.Query()

	dateStr := params.Get("date")
	if dateStr == "" {
		return model.SlotQuery{}, apperrors.InvalidInput("query parameter 'date' is required")
	}
	day, err := model.ParseDay(dateStr, h.cfg.Location)
	if err != nil {
		return model.SlotQuery{}, apperrors.InvalidInput(err.Error())
	}

	query := model.SlotQuery{
		Day:           day,
		SlotDuration:  h.cfg.SlotDuration,
		BusinessStart: h.cfg.BusinessStartOffset,
		BusinessEnd:   h.cfg.BusinessEndOffset,
	}

	if v := params.Get("slot_minutes"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return model.SlotQuery{}, apperrors.InvalidInput("invalid slot_minutes parameter: " + v)
		}
		query.SlotDuration = time.Duration(minutes) * time.Minute
	}
	if v := params.Get("from"); v != "" {
		if query.BusinessStart, err = model.ParseClock(v); err != nil {
			return model.SlotQuery{}, apperrors.InvalidInput(err.Error())
		}
	}
	if v := params.Get("to"); v != "" {
		if query.BusinessEnd, err = model.ParseClock(v); err != nil {
			return model.SlotQuery{}, apperrors.InvalidInput(err.Error())
		}
	}
	return query, nil
}

func (h *AvailabilityHandler) Status(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ExtractID(ps, "id")
	if err != nil {
		h.writeError(w, "Status", err)
		return
	}

	status, err := h.service.ResourceStatusNow(r.Context(), id)
	if err != nil {
		h.writeError(w, "Status", err)
		return
	}
	h.writeSuccess(w, "Status", status)
}

func (h *AvailabilityHandler) Statuses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	statuses, err := h.service.ResourceStatuses(r.Context())
	if err != nil {
		h.writeError(w, "Statuses", err)
		return
	}
	h.writeSuccess(w, "Statuses", statuses)
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.List)
	router.GET("/api/v1/availability/resources", h.ListAvailableResources)
	router.GET("/api/v1/resources/:id/availability", h.Check)
	router.GET("/api/v1/resources/:id/slots", h.Slots)
	router.GET("/api/v1/status/resources", h.Statuses)
	router.GET("/api/v1/status/resources/:id", h.Status)
}
