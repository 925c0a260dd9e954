package priorq

import (
	"context"
	"fmt"
	"path"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/viant/priorq/metrics"
	"github.com/viant/priorq/model"
	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/model/resource"
	"github.com/viant/priorq/queue"
	"github.com/viant/priorq/service/balancer"
	"github.com/viant/priorq/service/dao"
	schedulefs "github.com/viant/priorq/service/dao/schedule/fs"
	schedulemem "github.com/viant/priorq/service/dao/schedule/memory"
	"github.com/viant/priorq/service/event"
	"github.com/viant/priorq/service/ledger"
	"github.com/viant/priorq/service/reprioritizer"
	"github.com/viant/priorq/service/schedule"
	"github.com/viant/priorq/service/stats"
	"github.com/viant/priorq/tracing"
)

// Op identifies an engine operation on the dispatch surface.
type Op string

const (
	OpSubmit           Op = "submit"
	OpNext             Op = "next"
	OpSchedule         Op = "schedule"
	OpPollScheduled    Op = "poll_scheduled"
	OpReprioritize     Op = "reprioritize"
	OpBalance          Op = "balance"
	OpRegisterResource Op = "register_resource"
	OpAllocate         Op = "allocate"
	OpDeallocate       Op = "deallocate"
	OpStats            Op = "stats"
)

// Request carries the union of dispatch operation parameters. Typed
// methods on Service are the primary API; Dispatch serves collaborators
// that route by operation name.
type Request struct {
	Kind         item.Kind              `json:"kind,omitempty"`
	ID           string                 `json:"id,omitempty"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	Priority     *float64               `json:"priority,omitempty"`
	ScheduleTime interface{}            `json:"scheduleTime,omitempty"`
	Dimension    string                 `json:"dimension,omitempty"`
	Resources    []string               `json:"resources,omitempty"`
	Strategy     string                 `json:"strategy,omitempty"`
	ResourceID   string                 `json:"resourceID,omitempty"`
	AllocationID string                 `json:"allocationID,omitempty"`
	ResourceType string                 `json:"resourceType,omitempty"`
	Capacity     float64                `json:"capacity,omitempty"`
	Amount       float64                `json:"amount,omitempty"`
}

type handler func(ctx context.Context, req *Request) (interface{}, error)

// engine bundles the per-kind components.
type engine struct {
	queue         *queue.Queue
	schedules     *schedule.Store
	reprioritizer *reprioritizer.Service
	balancer      *balancer.Service
	reporter      *stats.Reporter
}

// Service is the engine façade: one bounded queue, schedule store,
// reprioritizer and balancer per item kind, plus a shared resource
// ledger. Instances are independent; there is no package-level state.
type Service struct {
	config       *Config
	logger       zerolog.Logger
	hook         metrics.Hook
	events       *event.Service
	engines      map[item.Kind]*engine
	ledger       *ledger.Service
	dispatch     map[Op]handler
	scheduleDAOs map[item.Kind]dao.Service[string, schedule.Entry]
	shutdownCh   chan struct{}
}

// New creates an engine service. The zero configuration serves two kinds
// (task, request) with in-memory schedule stores.
func New(options ...Option) (*Service, error) {
	s := &Service{
		logger:     zerolog.Nop(),
		hook:       metrics.Nop{},
		shutdownCh: make(chan struct{}),
	}
	for _, option := range options {
		option(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) init() error {
	s.ledger = ledger.New(ledger.WithLogger(s.logger))
	s.engines = map[item.Kind]*engine{}
	for _, kind := range item.Kinds() {
		scheduleDAO := s.scheduleDAOs[kind]
		if scheduleDAO == nil {
			if s.config.ScheduleBasePath != "" {
				fsDAO, err := schedulefs.New(path.Join(s.config.ScheduleBasePath, string(kind)))
				if err != nil {
					return fmt.Errorf("failed to create schedule store for %s: %w", kind, err)
				}
				scheduleDAO = fsDAO
			} else {
				scheduleDAO = schedulemem.New()
			}
		}
		q := queue.New(kind,
			queue.Config{MaxQueueSize: s.config.MaxQueueSize},
			queue.WithLogger(s.logger),
			queue.WithHook(s.hook),
		)
		schedules := schedule.New(kind, scheduleDAO, schedule.WithLogger(s.logger))
		s.engines[kind] = &engine{
			queue:     q,
			schedules: schedules,
			reprioritizer: reprioritizer.New(q,
				reprioritizer.WithLogger(s.logger),
				reprioritizer.WithConfig(reprioritizer.Config{
					Interval: s.config.Interval(),
					Auto:     s.config.AutoPrioritize,
				}),
			),
			balancer: balancer.New(q, balancer.WithLogger(s.logger)),
			reporter: stats.New(q, schedules, s.ledger),
		}
	}
	s.dispatch = map[Op]handler{
		OpSubmit: func(ctx context.Context, req *Request) (interface{}, error) {
			return s.Submit(ctx, req.Kind, req.ID, req.Payload, req.Priority)
		},
		OpNext: func(ctx context.Context, req *Request) (interface{}, error) {
			it, ok, err := s.Next(ctx, req.Kind)
			if err != nil || !ok {
				return nil, err
			}
			return it, nil
		},
		OpSchedule: func(ctx context.Context, req *Request) (interface{}, error) {
			return s.Schedule(ctx, req.Kind, req.ID, req.Payload, req.ScheduleTime)
		},
		OpPollScheduled: func(ctx context.Context, req *Request) (interface{}, error) {
			return s.PollScheduled(ctx, req.Kind)
		},
		OpReprioritize: func(ctx context.Context, req *Request) (interface{}, error) {
			return s.Reprioritize(ctx, req.Kind, reprioritizer.Dimension(req.Dimension))
		},
		OpBalance: func(ctx context.Context, req *Request) (interface{}, error) {
			return s.Balance(ctx, req.Kind, req.Resources, balancer.Strategy(req.Strategy))
		},
		OpRegisterResource: func(ctx context.Context, req *Request) (interface{}, error) {
			return nil, s.RegisterResource(ctx, req.ResourceID, req.ResourceType, req.Capacity)
		},
		OpAllocate: func(ctx context.Context, req *Request) (interface{}, error) {
			return s.Allocate(ctx, req.ResourceID, req.AllocationID, req.Amount, req.Priority)
		},
		OpDeallocate: func(ctx context.Context, req *Request) (interface{}, error) {
			return nil, s.Deallocate(ctx, req.AllocationID)
		},
		OpStats: func(ctx context.Context, req *Request) (interface{}, error) {
			return s.Stats(ctx, req.Kind)
		},
	}
	return nil
}

// engineOf resolves the per-kind bundle.
func (s *Service) engineOf(kind item.Kind) (*engine, error) {
	eng, ok := s.engines[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", model.ErrValidation, kind)
	}
	return eng, nil
}

// Dispatch routes an operation by name. Unknown operations are a
// validation error.
func (s *Service) Dispatch(ctx context.Context, op Op, req *Request) (interface{}, error) {
	h, ok := s.dispatch[op]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operation %q", model.ErrValidation, op)
	}
	if req == nil {
		req = &Request{}
	}
	return h(ctx, req)
}

// Submit admits an item to the kind's queue, computing the priority when
// none is supplied, and returns the admitted priority.
func (s *Service) Submit(ctx context.Context, kind item.Kind, id string, payload map[string]interface{}, priority *float64) (float64, error) {
	eng, err := s.engineOf(kind)
	if err != nil {
		return 0, err
	}
	ctx, span := tracing.StartSpan(ctx, "priorq.submit",
		attribute.String("kind", string(kind)),
		attribute.String("item.id", id),
	)
	admitted, err := eng.queue.Submit(item.WorkItem{ID: id, Kind: kind, Payload: payload}, priority)
	tracing.EndSpan(span, err)
	if err != nil {
		return 0, err
	}
	s.events.Publish(ctx, kind, event.OpAdmitted, id, admitted)
	return admitted, nil
}

// Next removes and returns the highest-priority item of the kind. The
// second result is false when the queue is empty.
func (s *Service) Next(ctx context.Context, kind item.Kind) (item.WorkItem, bool, error) {
	eng, err := s.engineOf(kind)
	if err != nil {
		return item.WorkItem{}, false, err
	}
	it, ok := eng.queue.Next()
	if ok {
		s.events.Publish(ctx, kind, event.OpDispatched, it.ID, it.Priority)
	}
	return it, ok, nil
}

// Schedule defers an item until scheduleTime (time.Time or RFC3339
// string) and returns the schedule id.
func (s *Service) Schedule(ctx context.Context, kind item.Kind, id string, payload map[string]interface{}, scheduleTime interface{}) (string, error) {
	eng, err := s.engineOf(kind)
	if err != nil {
		return "", err
	}
	at, err := schedule.ParseTime(scheduleTime)
	if err != nil {
		return "", err
	}
	return eng.schedules.Schedule(ctx, item.WorkItem{ID: id, Kind: kind, Payload: payload}, at)
}

// PollScheduled removes and returns every due schedule entry of the kind.
// Each entry is delivered at most once; re-submission is the caller's
// responsibility.
func (s *Service) PollScheduled(ctx context.Context, kind item.Kind) ([]schedule.Entry, error) {
	eng, err := s.engineOf(kind)
	if err != nil {
		return nil, err
	}
	due, err := eng.schedules.PollDue(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range due {
		s.events.Publish(ctx, kind, event.OpScheduleDue, entry.Item.ID, 0)
	}
	return due, nil
}

// Reprioritize runs one boost pass over the kind's queue and returns the
// priority moves.
func (s *Service) Reprioritize(ctx context.Context, kind item.Kind, dimension reprioritizer.Dimension) (*reprioritizer.Result, error) {
	eng, err := s.engineOf(kind)
	if err != nil {
		return nil, err
	}
	_, span := tracing.StartSpan(ctx, "priorq.reprioritize",
		attribute.String("kind", string(kind)),
		attribute.String("dimension", string(dimension)),
	)
	result, err := eng.reprioritizer.Reprioritize(dimension)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, kind, event.OpReprioritize, "", float64(len(result.Changes)))
	return result, nil
}

// Balance computes a distribution plan of the kind's queued items across
// the named resources. Read-only with respect to the queue.
func (s *Service) Balance(ctx context.Context, kind item.Kind, resourceNames []string, strategy balancer.Strategy) (*balancer.Plan, error) {
	eng, err := s.engineOf(kind)
	if err != nil {
		return nil, err
	}
	_, span := tracing.StartSpan(ctx, "priorq.balance",
		attribute.String("kind", string(kind)),
		attribute.String("strategy", string(strategy)),
	)
	plan, err := eng.balancer.Balance(resourceNames, strategy)
	tracing.EndSpan(span, err)
	return plan, err
}

// RegisterResource adds a resource to the ledger.
func (s *Service) RegisterResource(_ context.Context, resourceID, resourceType string, capacity float64) error {
	return s.ledger.Register(resourceID, resource.ParseType(resourceType), capacity)
}

// Allocate admits an allocation against a registered resource, deriving
// the priority from utilization when none is supplied.
func (s *Service) Allocate(ctx context.Context, resourceID, allocationID string, amount float64, priority *float64) (float64, error) {
	_, span := tracing.StartSpan(ctx, "priorq.allocate",
		attribute.String("resource.id", resourceID),
		attribute.String("allocation.id", allocationID),
	)
	admitted, err := s.ledger.Allocate(resourceID, allocationID, amount, priority)
	tracing.EndSpan(span, err)
	return admitted, err
}

// Deallocate destroys an allocation.
func (s *Service) Deallocate(_ context.Context, allocationID string) error {
	return s.ledger.Deallocate(allocationID)
}

// PrioritizeResources ranks registered resources; an empty or "auto"
// dimension ranks by utilization.
func (s *Service) PrioritizeResources(_ context.Context, dimension string) ([]ledger.Rank, error) {
	switch dimension {
	case "", "auto":
		dimension = string(ledger.DimensionUtilization)
	}
	return s.ledger.Prioritize(ledger.Dimension(dimension))
}

// BalanceResources emits advisory allocation recommendations.
func (s *Service) BalanceResources(_ context.Context, strategy string) (*ledger.Advice, error) {
	return s.ledger.BalanceAdvice(ledger.Strategy(strategy))
}

// Stats returns the aggregate report of the kind's queue and schedules.
func (s *Service) Stats(ctx context.Context, kind item.Kind) (*stats.QueueReport, error) {
	eng, err := s.engineOf(kind)
	if err != nil {
		return nil, err
	}
	return eng.reporter.QueueReport(ctx)
}

// LedgerStats returns the aggregate report of the resource ledger.
func (s *Service) LedgerStats(_ context.Context) *stats.LedgerReport {
	return stats.New(nil, nil, s.ledger).LedgerReport()
}

// Ledger exposes the resource ledger for direct use.
func (s *Service) Ledger() *ledger.Service { return s.ledger }

// Status is a snapshot of engine health.
type Status struct {
	QueueSizes  map[item.Kind]int `json:"queueSizes"`
	Scheduled   map[item.Kind]int `json:"scheduled"`
	Resources   int               `json:"resources"`
	Allocations int               `json:"allocations"`
}

// Status reports per-kind queue sizes and ledger counts.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		QueueSizes: map[item.Kind]int{},
		Scheduled:  map[item.Kind]int{},
	}
	for kind, eng := range s.engines {
		st.QueueSizes[kind] = eng.queue.Len()
		size, err := eng.schedules.Size(ctx)
		if err != nil {
			return nil, err
		}
		st.Scheduled[kind] = size
	}
	st.Resources = len(s.ledger.Resources())
	st.Allocations = len(s.ledger.Allocations())
	return st, nil
}

// Start launches the automatic reprioritization loops when enabled. It
// returns immediately; the loops run until the context is cancelled or
// Shutdown is called.
func (s *Service) Start(ctx context.Context) {
	if !s.config.AutoPrioritize {
		return
	}
	for kind, eng := range s.engines {
		go func(kind item.Kind, eng *engine) {
			if err := eng.reprioritizer.Start(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Str("kind", string(kind)).Msg("reprioritization loop stopped")
			}
		}(kind, eng)
	}
}

// Shutdown stops the automatic loops and the event listener.
func (s *Service) Shutdown() {
	select {
	case <-s.shutdownCh:
		return
	default:
		close(s.shutdownCh)
	}
	for _, eng := range s.engines {
		eng.reprioritizer.Shutdown()
	}
	s.events.Stop()
}
