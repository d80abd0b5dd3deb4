package canteen

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/canteenclub/canteen/pkg/event"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
	service  *Service
	ledger   *StrikeLedger
	policies *PolicyStore
	orders   OrderRepo
	people   PersonRepo
	shifts   ShiftRepo
	emitter  *Emitter
	stream   *StreamServer
}

type HandlerDeps struct {
	Service  *Service
	Ledger   *StrikeLedger
	Policies *PolicyStore
	Orders   OrderRepo
	People   PersonRepo
	Shifts   ShiftRepo
	Emitter  *Emitter
	Stream   *StreamServer
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return &Handler{
		config:   config,
		logger:   logger,
		tlm:      telemetry.NewHTTP(),
		service:  hd.Service,
		ledger:   hd.Ledger,
		policies: hd.Policies,
		orders:   hd.Orders,
		people:   hd.People,
		shifts:   hd.Shifts,
		emitter:  hd.Emitter,
		stream:   hd.Stream,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/collect", h.CollectOrder)
		r.Post("/{id}/cancel", h.CancelOrder)
	})

	r.Route("/policy", func(r chi.Router) {
		r.Get("/", h.GetPolicy)
		r.Put("/", h.PutPolicy)
	})

	r.Route("/people", func(r chi.Router) {
		r.Get("/{id}", h.GetPerson)
		r.Post("/{id}/strikes/reduce", h.ReduceStrikes)
		r.Post("/{id}/restriction/lift", h.LiftRestriction)
	})

	r.Get("/shifts", h.ListShifts)

	if h.stream != nil {
		r.Get("/events/stream", h.stream.ServeHTTP)
	}
}

// Order handlers

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req OrderCreateRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	if errs := ValidateOrderCreate(req); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	o, err := h.service.PlaceOrder(ctx, req.PersonID, req.ShiftID, req.Date, req.PlacedBy)
	if err != nil {
		h.respondOrderError(w, log, err, "cannot place order")
		return
	}

	links := apt.RESTfulLinksFor(o)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	o, err := h.orders.Get(ctx, id)
	if err != nil {
		log.Error("error loading order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if o == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	personIDStr := r.URL.Query().Get("person_id")
	status := r.URL.Query().Get("status")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	var orders []*Order
	var err error

	switch {
	case personIDStr != "":
		personID, parseErr := uuid.Parse(personIDStr)
		if parseErr != nil {
			log.Debug("invalid person_id parameter", "person_id", personIDStr)
			apt.RespondError(w, http.StatusBadRequest, "Invalid person_id parameter")
			return
		}
		orders, err = h.orders.ListByPerson(ctx, personID)
	case from != "" || to != "":
		if from == "" {
			from = to
		}
		if to == "" {
			to = from
		}
		orders, err = h.orders.ListByDateRange(ctx, from, to)
	case status != "":
		if !Status(status).Valid() {
			apt.RespondError(w, http.StatusBadRequest, "Invalid status parameter")
			return
		}
		orders, err = h.orders.ListByStatus(ctx, Status(status))
	default:
		orders, err = h.orders.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving orders", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve orders")
		return
	}

	apt.RespondCollection(w, orders, "order")
}

func (h *Handler) CollectOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CollectOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req OrderCollectRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	if errs := ValidateOrderCollect(req); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	o, err := h.service.CollectOrder(ctx, id, req.CollectedBy, req.CollectionPoint)
	if err != nil {
		h.respondOrderError(w, log, err, "cannot collect order")
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req OrderCancelRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	o, err := h.service.CancelOrder(ctx, id, req.Reason, req.CancelledBy, req.AllowLate)
	if err != nil {
		h.respondOrderError(w, log, err, "cannot cancel order")
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

// Policy handlers

func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetPolicy")
	defer finish()

	policy := h.policies.Current()
	apt.RespondSuccess(w, policy)
}

func (h *Handler) PutPolicy(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PutPolicy")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req PolicyUpdateRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	policy := Policy{
		CutoffLeadHours: req.CutoffLeadHours,
		StrikeThreshold: req.StrikeThreshold,
		RestrictionDays: req.RestrictionDays,
		HorizonDays:     req.HorizonDays,
		UpdatedBy:       req.UpdatedBy,
	}
	if errs := policy.Validate(); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	if h.service != nil {
		policy.UpdatedAt = h.service.clock.Now()
	}
	if err := h.policies.Replace(ctx, policy); err != nil {
		log.Error("cannot update policy", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update policy")
		return
	}

	if h.emitter != nil {
		h.emitter.ConfigChange(ctx, event.EventPolicyUpdated, policy)
	}

	apt.RespondSuccess(w, policy)
}

// Person handlers

func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetPerson")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	person, err := h.people.Get(ctx, id)
	if err != nil || person == nil {
		apt.RespondError(w, http.StatusNotFound, "Person not found")
		return
	}

	apt.RespondSuccess(w, person)
}

func (h *Handler) ReduceStrikes(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ReduceStrikes")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req StrikeReduceRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	if errs := ValidateStrikeReduce(req); len(errs) > 0 {
		apt.RespondError(w, http.StatusBadRequest, strings.Join(errs, "; "))
		return
	}

	count, err := h.ledger.ReduceStrikes(ctx, id, req.Amount, req.ToZero)
	if err != nil {
		log.Error("cannot reduce strikes", "error", err, "person_id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not reduce strikes")
		return
	}

	apt.RespondSuccess(w, map[string]int{"strikes": count})
}

func (h *Handler) LiftRestriction(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.LiftRestriction")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req RestrictionLiftRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	if err := h.ledger.LiftRestriction(ctx, id, req.LiftedBy); err != nil {
		if errors.Is(err, ErrNotFound) {
			apt.RespondError(w, http.StatusNotFound, "No active restriction for person")
			return
		}
		log.Error("cannot lift restriction", "error", err, "person_id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not lift restriction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Shift handlers

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListShifts")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	shifts, err := h.shifts.ListActive(ctx)
	if err != nil {
		log.Error("error retrieving shifts", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve shifts")
		return
	}

	apt.RespondCollection(w, shifts, "shift")
}

// Helpers

// respondOrderError maps domain rejections to specific responses. Policy
// violations keep their reason code so the client can render the right
// message; they are expected outcomes and not logged as failures.
func (h *Handler) respondOrderError(w http.ResponseWriter, log apt.Logger, err error, msg string) {
	var violation *PolicyViolation
	switch {
	case errors.As(err, &violation):
		apt.Respond(w, http.StatusUnprocessableEntity, ErrorPayload{Code: violation.Code, Message: violation.Message}, nil)
	case errors.Is(err, ErrAlreadyFinalized):
		apt.Respond(w, http.StatusConflict, ErrorPayload{Code: "already_finalized", Message: "order has already been finalized"}, nil)
	case errors.Is(err, ErrConflict):
		apt.Respond(w, http.StatusConflict, ErrorPayload{Code: "conflict", Message: "concurrent update, retry the request"}, nil)
	case errors.Is(err, ErrNotFound):
		apt.RespondError(w, http.StatusNotFound, "Order not found")
	default:
		log.Error(msg, "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Internal error")
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target interface{}, log apt.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		log.Debug("cannot decode request payload", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
