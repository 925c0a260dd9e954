// Package stats aggregates read-only reports over a queue, its schedule
// store and the resource ledger. Reports are computed from snapshots and
// never touch engine state.
package stats

import (
	"context"
	"time"

	"github.com/viant/priorq/internal/clock"
	"github.com/viant/priorq/model/item"
	"github.com/viant/priorq/queue"
	"github.com/viant/priorq/service/ledger"
	"github.com/viant/priorq/service/schedule"
)

// upcomingLimit caps the schedule preview in a queue report.
const upcomingLimit = 10

// Buckets is a priority histogram: high >0.7, medium [0.3,0.7], low <0.3.
type Buckets struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Upcoming previews one pending schedule entry.
type Upcoming struct {
	ScheduleID   string        `json:"scheduleID"`
	ItemID       string        `json:"itemID"`
	ScheduleTime time.Time     `json:"scheduleTime"`
	Until        time.Duration `json:"until"`
}

// QueueReport aggregates one queue and its schedule store.
type QueueReport struct {
	Kind             item.Kind      `json:"kind"`
	Size             int            `json:"size"`
	Capacity         int            `json:"capacity"`
	Scheduled        int            `json:"scheduled"`
	Buckets          Buckets        `json:"buckets"`
	TypeDistribution map[string]int `json:"typeDistribution"`
	AveragePriority  float64        `json:"averagePriority"`
	MinPriority      float64        `json:"minPriority"`
	MaxPriority      float64        `json:"maxPriority"`
	NextScheduled    []Upcoming     `json:"nextScheduled,omitempty"`
}

// LedgerReport aggregates the resource ledger.
type LedgerReport struct {
	Resources       int                `json:"resources"`
	Allocations     int                `json:"allocations"`
	Buckets         Buckets            `json:"buckets"`
	Utilizations    map[string]float64 `json:"utilizations"`
	AveragePriority float64            `json:"averagePriority"`
	MinPriority     float64            `json:"minPriority"`
	MaxPriority     float64            `json:"maxPriority"`
}

// Reporter computes reports for one queue/schedule pair and, optionally,
// a ledger.
type Reporter struct {
	queue     *queue.Queue
	schedules *schedule.Store
	ledger    *ledger.Service
}

// New creates a reporter. Any collaborator may be nil; the corresponding
// report sections stay empty.
func New(q *queue.Queue, schedules *schedule.Store, ledgerService *ledger.Service) *Reporter {
	return &Reporter{queue: q, schedules: schedules, ledger: ledgerService}
}

// QueueReport builds the aggregate view of the queue and pending
// schedules.
func (r *Reporter) QueueReport(ctx context.Context) (*QueueReport, error) {
	report := &QueueReport{TypeDistribution: map[string]int{}}
	if r.queue != nil {
		items := r.queue.Snapshot()
		report.Kind = r.queue.Kind()
		report.Size = len(items)
		report.Capacity = r.queue.Capacity()
		report.Buckets, report.AveragePriority, report.MinPriority, report.MaxPriority = summarize(priorities(items))
		for _, it := range items {
			report.TypeDistribution[string(it.TypeOf())]++
		}
	}
	if r.schedules != nil {
		pending, err := r.schedules.Pending(ctx)
		if err != nil {
			return nil, err
		}
		report.Scheduled = len(pending)
		now := clock.Now()
		for i, entry := range pending {
			if i == upcomingLimit {
				break
			}
			report.NextScheduled = append(report.NextScheduled, Upcoming{
				ScheduleID:   entry.ScheduleID,
				ItemID:       entry.Item.ID,
				ScheduleTime: entry.ScheduleTime,
				Until:        entry.ScheduleTime.Sub(now),
			})
		}
	}
	return report, nil
}

// LedgerReport builds the aggregate view of the resource ledger.
func (r *Reporter) LedgerReport() *LedgerReport {
	report := &LedgerReport{Utilizations: map[string]float64{}}
	if r.ledger == nil {
		return report
	}
	resources := r.ledger.Resources()
	allocations := r.ledger.Allocations()
	report.Resources = len(resources)
	report.Allocations = len(allocations)

	allocated := map[string]float64{}
	ps := make([]float64, 0, len(allocations))
	for _, alloc := range allocations {
		allocated[alloc.ResourceID] += alloc.Amount
		ps = append(ps, alloc.Priority)
	}
	for _, res := range resources {
		report.Utilizations[res.ID] = allocated[res.ID] / res.Capacity
	}
	report.Buckets, report.AveragePriority, report.MinPriority, report.MaxPriority = summarize(ps)
	return report
}

func priorities(items []item.WorkItem) []float64 {
	out := make([]float64, 0, len(items))
	for _, it := range items {
		out = append(out, it.Priority)
	}
	return out
}

func summarize(ps []float64) (Buckets, float64, float64, float64) {
	var buckets Buckets
	if len(ps) == 0 {
		return buckets, 0, 0, 0
	}
	sum, minP, maxP := 0.0, ps[0], ps[0]
	for _, p := range ps {
		sum += p
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
		switch {
		case p > 0.7:
			buckets.High++
		case p < 0.3:
			buckets.Low++
		default:
			buckets.Medium++
		}
	}
	return buckets, sum / float64(len(ps)), minP, maxP
}
