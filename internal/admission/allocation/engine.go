// Package allocation runs the batch seat-matching pass.
//
// The pass is greedy and rank-ordered: each verified student, lowest rank
// first, takes the first preference whose branch still has a seat. There is no
// backtracking; an earlier student is never reconsidered. Every run starts from
// the configured capacities, so repeated runs are idempotent.
package allocation

import (
	"fmt"
	"log/slog"
	"time"

	"admission/internal/admission/models"
	"admission/internal/admission/roster"
	"admission/internal/platform/metrics"
)

// Assignment is the outcome for one student.
type Assignment struct {
	RegNumber  string
	Name       string
	Rank       int
	Allocation models.Allocation
}

// Result summarises one allocation pass.
type Result struct {
	Assignments  []Assignment
	Allocated    int
	NotAllocated int
	NotEligible  int
}

// Engine performs allocation passes over a roster and catalog.
type Engine struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Allocate resets seats and allocations, then assigns every student in rank
// order. The roster's operation log receives one entry per verified student.
func (e *Engine) Allocate(r *roster.Roster, catalog *models.Catalog) Result {
	start := e.now()

	catalog.ResetSeats()
	for s := range r.Traverse() {
		s.ClearAllocation()
	}

	log := r.Log()
	var res Result
	for s := range r.Traverse() {
		switch {
		case !s.Verified:
			s.Allocation = models.Allocation{Status: models.StatusNotEligible}
			res.NotEligible++
		case assign(s, catalog):
			log.Push(fmt.Sprintf("Allocated %s to %s %s", s.Name, s.Allocation.College, s.Allocation.Branch))
			res.Allocated++
		default:
			log.Push("Student could not be allocated")
			res.NotAllocated++
		}
		res.Assignments = append(res.Assignments, Assignment{
			RegNumber:  s.RegNumber,
			Name:       s.Name,
			Rank:       s.Rank,
			Allocation: s.Allocation,
		})
	}

	e.record(catalog, res, e.now().Sub(start))
	return res
}

// assign gives s the first preferred seat still available.
func assign(s *models.Student, catalog *models.Catalog) bool {
	for _, p := range s.Preferences {
		college := catalog.At(p.College)
		if college == nil || !college.TakeSeat(p.Branch) {
			continue
		}
		s.Allocation = models.Allocation{
			Status:  models.StatusAllocated,
			College: college.Name,
			Branch:  p.Branch,
		}
		return true
	}
	return false
}

func (e *Engine) record(catalog *models.Catalog, res Result, elapsed time.Duration) {
	if e.logger != nil {
		e.logger.Info("allocation pass complete",
			"students", len(res.Assignments),
			"allocated", res.Allocated,
			"not_allocated", res.NotAllocated,
			"not_eligible", res.NotEligible,
			"duration", elapsed,
		)
	}
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveAllocation(elapsed)
	e.metrics.AddAllocationOutcome(models.StatusAllocated.String(), res.Allocated)
	e.metrics.AddAllocationOutcome(models.StatusNotAllocated.String(), res.NotAllocated)
	e.metrics.AddAllocationOutcome(models.StatusNotEligible.String(), res.NotEligible)
	for _, c := range catalog.Colleges() {
		for _, b := range models.Branches {
			e.metrics.SetSeatsRemaining(c.Name, string(b), c.Remaining(b))
		}
	}
}
