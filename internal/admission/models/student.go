package models

// Sentinel allocation values shown when a student holds no seat.
const (
	CollegeNotAllocated = "Not Allocated"
	CollegeNotEligible  = "Not Eligible"
	BranchNone          = "NA"
)

// Preference is one ranked (college, branch) choice. College indexes the catalog.
type Preference struct {
	College int
	Branch  Branch
	Weight  int
}

// AllocationStatus is the terminal state of a student after an allocation pass.
type AllocationStatus int

const (
	StatusNotAllocated AllocationStatus = iota
	StatusNotEligible
	StatusAllocated
)

func (s AllocationStatus) String() string {
	switch s {
	case StatusAllocated:
		return "allocated"
	case StatusNotEligible:
		return "not_eligible"
	default:
		return "not_allocated"
	}
}

// Allocation is the result recorded on a student by the last allocation pass.
type Allocation struct {
	Status  AllocationStatus
	College string
	Branch  Branch
}

// CollegeLabel returns the college name or the matching sentinel.
func (a Allocation) CollegeLabel() string {
	switch a.Status {
	case StatusAllocated:
		return a.College
	case StatusNotEligible:
		return CollegeNotEligible
	default:
		return CollegeNotAllocated
	}
}

// BranchLabel returns the branch or "NA".
func (a Allocation) BranchLabel() string {
	if a.Status != StatusAllocated {
		return BranchNone
	}
	return string(a.Branch)
}

// Student is a registered applicant.
//
// Invariants:
//   - RegNumber and Rank are unique across the roster
//   - Allocation is written only by the allocation pass
type Student struct {
	RegNumber   string
	Name        string
	Rank        int
	Verified    bool
	Preferences []Preference
	Allocation  Allocation
}

// NewStudent creates a student with no allocation.
func NewStudent(regNumber, name string, rank int, verified bool, prefs []Preference) *Student {
	return &Student{
		RegNumber:   regNumber,
		Name:        name,
		Rank:        rank,
		Verified:    verified,
		Preferences: append([]Preference(nil), prefs...),
	}
}

// ClearAllocation resets the student to the "Not Allocated" sentinel.
func (s *Student) ClearAllocation() {
	s.Allocation = Allocation{Status: StatusNotAllocated}
}
