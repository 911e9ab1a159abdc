package models

import (
	"fmt"
	"slices"

	dErrors "admission/pkg/domain-errors"
)

// College is one institution in the catalog. Remaining seats are mutated only
// by the allocation pass; capacity is fixed at construction.
type College struct {
	Name      string
	capacity  map[Branch]int
	remaining map[Branch]int
}

// Capacity returns the configured number of seats for a branch.
func (c *College) Capacity(b Branch) int {
	return c.capacity[b]
}

// Remaining returns the seats still free for a branch.
func (c *College) Remaining(b Branch) int {
	return c.remaining[b]
}

// TakeSeat consumes one seat. It returns false when the branch is full.
func (c *College) TakeSeat(b Branch) bool {
	if c.remaining[b] <= 0 {
		return false
	}
	c.remaining[b]--
	return true
}

// ResetSeats restores every branch to its configured capacity.
func (c *College) ResetSeats() {
	for b, n := range c.capacity {
		c.remaining[b] = n
	}
}

// Catalog is the fixed college table for one run.
type Catalog struct {
	colleges []*College
}

// SeatsPerCollege sizes each college for the expected number of students:
// ceil(totalStudents/numColleges), rounded up to an even number so both
// branches get the same share.
func SeatsPerCollege(totalStudents, numColleges int) int {
	if totalStudents <= 0 || numColleges <= 0 {
		return 0
	}
	seats := (totalStudents + numColleges - 1) / numColleges
	if seats%2 != 0 {
		seats++
	}
	return seats
}

// NewCatalog builds the college table with capacities derived from totalStudents.
func NewCatalog(names []string, totalStudents int) (*Catalog, error) {
	if len(names) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one college is required")
	}
	if totalStudents <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "total students must be a positive number")
	}
	perBranch := SeatsPerCollege(totalStudents, len(names)) / len(Branches)

	seen := make(map[string]struct{}, len(names))
	colleges := make([]*College, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "college name cannot be empty")
		}
		if _, dup := seen[name]; dup {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("duplicate college %q", name))
		}
		seen[name] = struct{}{}
		c := &College{
			Name:      name,
			capacity:  make(map[Branch]int, len(Branches)),
			remaining: make(map[Branch]int, len(Branches)),
		}
		for _, b := range Branches {
			c.capacity[b] = perBranch
		}
		c.ResetSeats()
		colleges = append(colleges, c)
	}
	return &Catalog{colleges: colleges}, nil
}

// NewCatalogWithCapacity builds a catalog with explicit per-branch capacities,
// keyed by college name in the given order.
func NewCatalogWithCapacity(names []string, capacity map[string]map[Branch]int) *Catalog {
	colleges := make([]*College, 0, len(names))
	for _, name := range names {
		c := &College{
			Name:      name,
			capacity:  make(map[Branch]int, len(Branches)),
			remaining: make(map[Branch]int, len(Branches)),
		}
		for _, b := range Branches {
			c.capacity[b] = capacity[name][b]
		}
		c.ResetSeats()
		colleges = append(colleges, c)
	}
	return &Catalog{colleges: colleges}
}

// Len returns the number of colleges.
func (c *Catalog) Len() int {
	return len(c.colleges)
}

// At returns the college at index i, or nil when out of range.
func (c *Catalog) At(i int) *College {
	if i < 0 || i >= len(c.colleges) {
		return nil
	}
	return c.colleges[i]
}

// Colleges returns the colleges in catalog order.
func (c *Catalog) Colleges() []*College {
	return slices.Clone(c.colleges)
}

// ResetSeats restores every college to its configured capacity.
func (c *Catalog) ResetSeats() {
	for _, col := range c.colleges {
		col.ResetSeats()
	}
}

// Choices returns the number of (college, branch) options, numbered 1..Choices().
func (c *Catalog) Choices() int {
	return len(c.colleges) * len(Branches)
}

// PreferenceForChoice maps a 1-based menu choice to a preference: odd choices
// are CSE and even choices ECE of college (choice-1)/2.
func (c *Catalog) PreferenceForChoice(choice int) (Preference, error) {
	if choice < 1 || choice > c.Choices() {
		return Preference{}, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("choice must be between 1 and %d", c.Choices()))
	}
	idx := choice - 1
	return Preference{
		College: idx / len(Branches),
		Branch:  Branches[idx%len(Branches)],
	}, nil
}

// ChoiceFor is the inverse of PreferenceForChoice.
func (c *Catalog) ChoiceFor(p Preference) int {
	return p.College*len(Branches) + slices.Index(Branches, p.Branch) + 1
}
