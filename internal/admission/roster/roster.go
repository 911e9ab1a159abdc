// Package roster keeps registered students ordered by rank and maintains the
// rank index, preference graph and operation log as insertion side effects.
package roster

import (
	"fmt"
	"iter"
	"slices"

	"admission/internal/admission/models"
	"admission/internal/admission/oplog"
	"admission/internal/admission/prefgraph"
	"admission/internal/admission/rankindex"
	dErrors "admission/pkg/domain-errors"
	"admission/pkg/platform/sentinel"
)

// Roster is the rank-ordered collection of students.
//
// Invariants:
//   - ranks are unique (enforced through the rank index)
//   - students are stored in non-decreasing rank order
//   - a failed Insert leaves every structure untouched
type Roster struct {
	numColleges int
	students    []*models.Student
	byReg       map[string]*models.Student
	ranks       *rankindex.Index
	graph       *prefgraph.Graph
	log         *oplog.Log
}

// New creates an empty roster for a catalog of numColleges colleges.
func New(numColleges int, log *oplog.Log) *Roster {
	return &Roster{
		numColleges: numColleges,
		byReg:       make(map[string]*models.Student),
		ranks:       rankindex.New(),
		graph:       prefgraph.New(),
		log:         log,
	}
}

// Insert adds a student in rank order. It returns an error wrapping
// sentinel.ErrConflict when the rank or registration number is taken.
func (r *Roster) Insert(s *models.Student) error {
	if s == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "student is required")
	}
	if r.ranks.Contains(s.Rank) {
		return fmt.Errorf("rank %d already taken: %w", s.Rank, sentinel.ErrConflict)
	}
	if _, ok := r.byReg[s.RegNumber]; ok {
		return fmt.Errorf("registration number %s already enrolled: %w", s.RegNumber, sentinel.ErrConflict)
	}
	if err := r.checkPreferences(s.Preferences); err != nil {
		return err
	}

	if err := r.ranks.Insert(s.Rank, s); err != nil {
		return err
	}
	r.byReg[s.RegNumber] = s

	for i, p := range s.Preferences {
		r.graph.IncrementPreferenceCount(p.College)
		if i > 0 {
			r.graph.RecordTransition(s.Preferences[i-1].College, p.College, 1)
		}
	}

	pos := 0
	for pos < len(r.students) && r.students[pos].Rank <= s.Rank {
		pos++
	}
	r.students = slices.Insert(r.students, pos, s)

	r.log.Push(fmt.Sprintf("Enqueued student with rank %d", s.Rank))
	return nil
}

// SetPreferences replaces a student's preference list. Graph counters are
// registration-time observations and are not rewritten.
func (r *Roster) SetPreferences(regNumber string, prefs []models.Preference) error {
	s, ok := r.byReg[regNumber]
	if !ok {
		return fmt.Errorf("student %s: %w", regNumber, sentinel.ErrNotFound)
	}
	if err := r.checkPreferences(prefs); err != nil {
		return err
	}
	s.Preferences = append([]models.Preference(nil), prefs...)
	r.log.Push(fmt.Sprintf("Updated preferences for student %s", regNumber))
	return nil
}

func (r *Roster) checkPreferences(prefs []models.Preference) error {
	for i, p := range prefs {
		if p.College < 0 || p.College >= r.numColleges {
			return dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("preference %d references unknown college %d", i+1, p.College))
		}
		if !p.Branch.IsValid() {
			return dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("preference %d has unknown branch %q", i+1, p.Branch))
		}
	}
	return nil
}

// Traverse yields students in ascending rank order. Each call iterates a fresh
// snapshot, so it is restartable and safe against concurrent inserts.
func (r *Roster) Traverse() iter.Seq[*models.Student] {
	snapshot := slices.Clone(r.students)
	return func(yield func(*models.Student) bool) {
		for _, s := range snapshot {
			if !yield(s) {
				return
			}
		}
	}
}

// FindByRank looks a student up through the rank index.
func (r *Roster) FindByRank(rank int) (*models.Student, bool) {
	return r.ranks.Lookup(rank)
}

// RankTaken reports whether a rank is already registered.
func (r *Roster) RankTaken(rank int) bool {
	return r.ranks.Contains(rank)
}

func (r *Roster) FindByRegNumber(regNumber string) (*models.Student, bool) {
	s, ok := r.byReg[regNumber]
	return s, ok
}

func (r *Roster) Len() int {
	return len(r.students)
}

// Graph exposes the preference graph for reporting.
func (r *Roster) Graph() *prefgraph.Graph {
	return r.graph
}

// Log exposes the operation log shared with the allocation pass.
func (r *Roster) Log() *oplog.Log {
	return r.log
}

// Clear drops every student and index. Used on shutdown.
func (r *Roster) Clear() {
	r.students = nil
	r.byReg = make(map[string]*models.Student)
	r.ranks = rankindex.New()
	r.graph = prefgraph.New()
}
