package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"binoqule/internal/audit"
	"binoqule/internal/ordering"
	"binoqule/internal/platform/lock"
	"binoqule/internal/team/metrics"
	"binoqule/internal/team/models"
	"binoqule/pkg/attrs"
	dErrors "binoqule/pkg/domain-errors"
	"binoqule/pkg/platform/sentinel"
	"binoqule/pkg/requestcontext"
)

// LockKey is the lock key guarding the team order.
const LockKey = "team-order"

// Store is the member persistence the service needs: the ordering
// collaborator plus profile reads and writes.
type Store interface {
	ordering.Store[models.Member]
	FindByID(ctx context.Context, id string) (*models.Member, error)
	UpdateProfile(ctx context.Context, member *models.Member) error
	Ping(ctx context.Context) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service orchestrates team member management and ordering.
type Service struct {
	store          Store
	locker         lock.Locker
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithLocker replaces the default in-process lock, e.g. with a Redis lock
// shared by several server instances.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = lock.NewLocal()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("binoqule/internal/team/service")
	}
	return s
}

// List returns the team as stored, ascending by position.
func (s *Service) List(ctx context.Context) (*models.Roster, error) {
	ctx, span := s.tracer.Start(ctx, "team.List")
	defer span.End()
	defer s.observe("list", time.Now())

	items, err := ordering.NewManager[models.Member](s.store).Load(ctx)
	if err != nil {
		return nil, s.traceError(span, s.orderingError(ctx, err))
	}
	return toRoster(items), nil
}

// Get fetches one member.
func (s *Service) Get(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "team member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load team member")
	}
	return member, nil
}

// Create validates profile and appends a new member at the end of the team.
func (s *Service) Create(ctx context.Context, profile models.Profile) (*models.Member, error) {
	ctx, span := s.tracer.Start(ctx, "team.Create")
	defer span.End()
	defer s.observe("create", time.Now())

	member, err := models.NewMember(uuid.NewString(), profile, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	var created models.Member
	err = s.withOrder(ctx, "create", func(mgr *ordering.Manager[models.Member]) error {
		item, err := mgr.Append(ctx, *member)
		if err != nil {
			return err
		}
		created = item.Payload
		created.ID = item.ID
		created.Position = item.Position
		return nil
	})
	if err != nil {
		return nil, s.traceError(span, err)
	}

	span.SetAttributes(attribute.String("member_id", created.ID))
	s.logAudit(ctx, audit.ActionMemberCreated,
		"member_id", created.ID,
		"position", created.Position)
	s.incrementMembersCreated()
	return &created, nil
}

// Update replaces a member's profile. The member's position is not touched.
func (s *Service) Update(ctx context.Context, id string, profile models.Profile) (*models.Member, error) {
	ctx, span := s.tracer.Start(ctx, "team.Update", trace.WithAttributes(attribute.String("member_id", id)))
	defer span.End()
	defer s.observe("update", time.Now())

	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, s.traceError(span, err)
	}
	if err := member.ApplyProfile(profile, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.store.UpdateProfile(ctx, member); err != nil {
		return nil, s.traceError(span, s.storeError(err))
	}

	s.logAudit(ctx, audit.ActionMemberUpdated, "member_id", id)
	return member, nil
}

// Delete removes a member and closes the gap in the order.
func (s *Service) Delete(ctx context.Context, id string) (*models.Roster, error) {
	ctx, span := s.tracer.Start(ctx, "team.Delete", trace.WithAttributes(attribute.String("member_id", id)))
	defer span.End()
	defer s.observe("delete", time.Now())

	var roster *models.Roster
	err := s.withOrder(ctx, "delete", func(mgr *ordering.Manager[models.Member]) error {
		items, err := mgr.Delete(ctx, id)
		if err != nil {
			return err
		}
		roster = toRoster(items)
		return nil
	})
	if err != nil {
		return nil, s.traceError(span, err)
	}

	s.logAudit(ctx, audit.ActionMemberDeleted, "member_id", id)
	s.incrementMembersDeleted()
	return roster, nil
}

// Move swaps the member at cmd.Index with its neighbour in cmd.Direction.
// Moving the first member up or the last member down changes nothing.
func (s *Service) Move(ctx context.Context, cmd models.MoveCommand) (*models.Roster, error) {
	ctx, span := s.tracer.Start(ctx, "team.Move", trace.WithAttributes(
		attribute.Int("index", cmd.Index),
		attribute.String("direction", string(cmd.Direction)),
	))
	defer span.End()
	defer s.observe("move", time.Now())

	var (
		roster *models.Roster
		moved  string
	)
	err := s.withOrder(ctx, "move", func(mgr *ordering.Manager[models.Member]) error {
		ids := mgr.IDs()
		if cmd.Index < 0 || cmd.Index >= len(ids) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no team member at index %d", cmd.Index))
		}
		moved = ids[cmd.Index]
		if cmd.ExpectedID != "" && cmd.ExpectedID != moved {
			return dErrors.New(dErrors.CodeConflict, "team order changed since it was loaded, reload and retry")
		}

		var items []ordering.Item[models.Member]
		var err error
		switch cmd.Direction {
		case models.DirectionUp:
			items, err = mgr.MoveUp(ctx, cmd.Index)
		case models.DirectionDown:
			items, err = mgr.MoveDown(ctx, cmd.Index)
		default:
			return dErrors.New(dErrors.CodeValidation, "direction must be \"up\" or \"down\"")
		}
		if err != nil {
			return err
		}
		roster = toRoster(items)
		return nil
	})
	if err != nil {
		return nil, s.traceError(span, err)
	}

	s.logAudit(ctx, audit.ActionMemberMoved,
		"member_id", moved,
		"index", cmd.Index,
		"direction", string(cmd.Direction))
	s.incrementMoves(cmd.Direction)
	return roster, nil
}

// MoveUp is Move with DirectionUp.
func (s *Service) MoveUp(ctx context.Context, index int) (*models.Roster, error) {
	return s.Move(ctx, models.MoveCommand{Index: index, Direction: models.DirectionUp})
}

// MoveDown is Move with DirectionDown.
func (s *Service) MoveDown(ctx context.Context, index int) (*models.Roster, error) {
	return s.Move(ctx, models.MoveCommand{Index: index, Direction: models.DirectionDown})
}

// Reorder rewrites the team order to ids, which must name every member once.
// It also repairs gaps and duplicates, so it runs on an inconsistent order.
func (s *Service) Reorder(ctx context.Context, ids []string) (*models.Roster, error) {
	ctx, span := s.tracer.Start(ctx, "team.Reorder", trace.WithAttributes(attribute.Int("count", len(ids))))
	defer span.End()
	defer s.observe("reorder", time.Now())

	var roster *models.Roster
	err := s.locked(ctx, func() error {
		items, err := ordering.NewManager[models.Member](s.store).Reconcile(ctx, ids)
		if err != nil {
			return s.orderingError(ctx, err)
		}
		roster = toRoster(items)
		return nil
	})
	if err != nil {
		return nil, s.traceError(span, err)
	}

	s.logAudit(ctx, audit.ActionOrderReplaced, "count", len(ids))
	return roster, nil
}

// Repair renumbers the stored order to 0..N-1 keeping its relative order.
func (s *Service) Repair(ctx context.Context) (*models.Roster, error) {
	ctx, span := s.tracer.Start(ctx, "team.Repair")
	defer span.End()
	defer s.observe("repair", time.Now())

	var roster *models.Roster
	err := s.locked(ctx, func() error {
		items, err := ordering.NewManager[models.Member](s.store).Repair(ctx)
		if err != nil {
			return s.orderingError(ctx, err)
		}
		roster = toRoster(items)
		return nil
	})
	if err != nil {
		return nil, s.traceError(span, err)
	}

	s.logAudit(ctx, audit.ActionOrderRepaired, "count", len(roster.Members))
	return roster, nil
}

// Health reports whether the member store is reachable.
func (s *Service) Health(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "team store unavailable")
	}
	return nil
}

// withOrder runs fn under the collection lock with a freshly loaded manager.
// Mutations are refused while the stored order has gaps or duplicates.
func (s *Service) withOrder(ctx context.Context, op string, fn func(mgr *ordering.Manager[models.Member]) error) error {
	return s.locked(ctx, func() error {
		mgr := ordering.NewManager[models.Member](s.store)
		items, err := mgr.Load(ctx)
		if err != nil {
			return s.orderingError(ctx, err)
		}
		if !ordering.Contiguous(items) {
			s.incrementInconsistentOrder()
			if s.logger != nil {
				s.logger.WarnContext(ctx, "team order is inconsistent, refusing mutation",
					"op", op,
					"count", len(items),
					"request_id", requestcontext.RequestID(ctx),
				)
			}
			return dErrors.New(dErrors.CodeConflict, "team order is inconsistent, run repair first")
		}
		if err := fn(mgr); err != nil {
			if _, ok := dErrors.As(err); ok {
				return err
			}
			return s.orderingError(ctx, err)
		}
		return nil
	})
}

func (s *Service) locked(ctx context.Context, fn func() error) error {
	release, err := s.locker.Lock(ctx, LockKey)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "team order is busy, retry")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "team order lock unavailable")
	}
	defer release()
	return fn()
}

// orderingError converts a manager error to a domain error, recording
// partial failures.
func (s *Service) orderingError(ctx context.Context, err error) error {
	var oe *ordering.Error
	if errors.As(err, &oe) && errors.Is(err, ordering.ErrPartialReorder) {
		s.incrementPartialReorder(string(oe.Op))
		s.logAudit(ctx, audit.ActionPartialReorder,
			"member_id", oe.ID,
			"op", string(oe.Op),
			"applied", oe.Applied,
			"error", oe.Err)
	}

	switch {
	case errors.Is(err, ordering.ErrPartialReorder):
		return dErrors.Wrap(err, dErrors.CodeConflict, "team order was only partly saved and may be stale, reload before reordering")
	case errors.Is(err, ordering.ErrStale):
		return dErrors.Wrap(err, dErrors.CodeConflict, "team order may be stale, reload")
	case errors.Is(err, ordering.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "team member not found")
	case errors.Is(err, ordering.ErrInvalidSequence):
		return dErrors.Wrap(err, dErrors.CodeValidation, "order must list every team member exactly once")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "email already in use")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update team order")
	}
}

func (s *Service) storeError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "team member not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "email already in use")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save team member")
	}
}

func (s *Service) traceError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func toRoster(items []ordering.Item[models.Member]) *models.Roster {
	members := make([]models.Member, len(items))
	for i, it := range items {
		m := it.Payload
		m.ID = it.ID
		m.Position = it.Position
		members[i] = m
	}
	return &models.Roster{Members: members, Consistent: ordering.Contiguous(items)}
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		attributes = append(attributes, "client_ip", ip)
	}
	args := append(attributes, "event", string(action), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    action,
		MemberID:  attrs.ExtractString(attributes, "member_id"),
		RequestID: requestID,
		Detail:    attrs.Summary(attributes, "direction", "index", "op", "applied", "count"),
	})
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

func (s *Service) incrementMembersCreated() {
	if s.metrics != nil {
		s.metrics.IncrementMembersCreated()
	}
}

func (s *Service) incrementMembersDeleted() {
	if s.metrics != nil {
		s.metrics.IncrementMembersDeleted()
	}
}

func (s *Service) incrementMoves(d models.Direction) {
	if s.metrics != nil {
		s.metrics.IncrementMoves(string(d))
	}
}

func (s *Service) incrementPartialReorder(op string) {
	if s.metrics != nil {
		s.metrics.IncrementPartialReorder(op)
	}
}

func (s *Service) incrementInconsistentOrder() {
	if s.metrics != nil {
		s.metrics.IncrementInconsistentOrder()
	}
}
