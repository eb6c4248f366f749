package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"binoqule/internal/audit"
	"binoqule/internal/team/models"
	dErrors "binoqule/pkg/domain-errors"
	"binoqule/pkg/platform/httputil"
	"binoqule/pkg/requestcontext"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// Service defines the team operations exposed over HTTP.
type Service interface {
	List(ctx context.Context) (*models.Roster, error)
	Get(ctx context.Context, id string) (*models.Member, error)
	Create(ctx context.Context, profile models.Profile) (*models.Member, error)
	Update(ctx context.Context, id string, profile models.Profile) (*models.Member, error)
	Delete(ctx context.Context, id string) (*models.Roster, error)
	Move(ctx context.Context, cmd models.MoveCommand) (*models.Roster, error)
	Reorder(ctx context.Context, ids []string) (*models.Roster, error)
	Repair(ctx context.Context) (*models.Roster, error)
}

// ActivityReader lists recent team changes.
type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler wires team admin endpoints to the team service.
type Handler struct {
	service  Service
	activity ActivityReader
	logger   *slog.Logger
}

// New constructs a team handler. activity may be nil, in which case the
// activity endpoint is not mounted.
func New(service Service, activity ActivityReader, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		activity: activity,
		logger:   logger,
	}
}

// Register mounts team endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/team", h.HandleList)
	r.Post("/admin/team", h.HandleCreate)
	r.Post("/admin/team/move", h.HandleMove)
	r.Put("/admin/team/order", h.HandleReorder)
	r.Post("/admin/team/repair", h.HandleRepair)
	if h.activity != nil {
		r.Get("/admin/team/activity", h.HandleActivity)
	}
	r.Get("/admin/team/{id}", h.HandleGet)
	r.Put("/admin/team/{id}", h.HandleUpdate)
	r.Delete("/admin/team/{id}", h.HandleDelete)
}

// HandleList handles GET /admin/team.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roster, err := h.service.List(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list team", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRosterResponse(roster))
}

// HandleCreate handles POST /admin/team.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MemberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	member, err := h.service.Create(ctx, req.ToProfile())
	if err != nil {
		h.fail(ctx, w, "failed to create team member", err)
		return
	}

	h.logger.InfoContext(ctx, "team member created",
		"request_id", requestID,
		"member_id", member.ID,
		"position", member.Position,
	)
	httputil.WriteJSON(w, http.StatusCreated, toMemberResponse(member))
}

// HandleGet handles GET /admin/team/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	member, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "failed to get team member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMemberResponse(member))
}

// HandleUpdate handles PUT /admin/team/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[MemberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	member, err := h.service.Update(ctx, id, req.ToProfile())
	if err != nil {
		h.fail(ctx, w, "failed to update team member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMemberResponse(member))
}

// HandleDelete handles DELETE /admin/team/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := h.service.Delete(ctx, id); err != nil {
		h.fail(ctx, w, "failed to delete team member", err)
		return
	}
	h.logger.InfoContext(ctx, "team member deleted",
		"request_id", requestcontext.RequestID(ctx),
		"member_id", id,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMove handles POST /admin/team/move.
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[MoveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	roster, err := h.service.Move(ctx, req.ToCommand())
	if err != nil {
		h.fail(ctx, w, "failed to move team member", err)
		return
	}

	h.logger.InfoContext(ctx, "team member moved",
		"request_id", requestID,
		"index", *req.Index,
		"direction", req.Direction,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, toRosterResponse(roster))
}

// HandleReorder handles PUT /admin/team/order.
func (h *Handler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ReorderRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	roster, err := h.service.Reorder(ctx, req.IDs)
	if err != nil {
		h.fail(ctx, w, "failed to reorder team", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRosterResponse(roster))
}

// HandleRepair handles POST /admin/team/repair.
func (h *Handler) HandleRepair(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roster, err := h.service.Repair(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to repair team order", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRosterResponse(roster))
}

// HandleActivity handles GET /admin/team/activity?limit=n.
func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxActivityLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	events, err := h.activity.Recent(ctx, limit)
	if err != nil {
		h.fail(ctx, w, "failed to list team activity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ActivityResponse{Events: events, Count: len(events)})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if !dErrors.HasCode(err, dErrors.CodeNotFound) && !dErrors.HasCode(err, dErrors.CodeValidation) &&
		!dErrors.HasCode(err, dErrors.CodeConflict) {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
