package models

// Branch is the programme a seat belongs to. The set is closed.
type Branch string

const (
	BranchCSE Branch = "CSE"
	BranchECE Branch = "ECE"
)

// Branches lists every branch in display order.
var Branches = []Branch{BranchCSE, BranchECE}

func (b Branch) IsValid() bool {
	return b == BranchCSE || b == BranchECE
}

func (b Branch) String() string {
	return string(b)
}
