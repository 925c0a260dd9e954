package priorq

import (
	"github.com/rs/zerolog"
	"github.com/viant/priorq/metrics"
	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/service/dao"
	"github.com/viant/priorq/service/event"
	"github.com/viant/priorq/service/schedule"
)

// Option customises the engine service.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics hook.
func WithMetrics(hook metrics.Hook) Option {
	return func(s *Service) { s.hook = hook }
}

// WithEvents sets the event service engine notifications are published to.
func WithEvents(events *event.Service) Option {
	return func(s *Service) { s.events = events }
}

// WithScheduleDAO overrides the schedule entry store for one kind, e.g.
// with the filesystem-backed implementation.
func WithScheduleDAO(kind item.Kind, service dao.Service[string, schedule.Entry]) Option {
	return func(s *Service) {
		if s.scheduleDAOs == nil {
			s.scheduleDAOs = map[item.Kind]dao.Service[string, schedule.Entry]{}
		}
		s.scheduleDAOs[kind] = service
	}
}
