package verification

// DateLayout is the accepted date-of-birth format (DD-MM-YYYY).
const DateLayout = "02-01-2006"

// Record is the reference identity data a student is authenticated against.
type Record struct {
	RegNumber   string
	Name        string
	DateOfBirth string
	NationalID  string
}

// Matches reports whether the supplied identity details agree with the record.
func (r *Record) Matches(dateOfBirth, nationalID string) bool {
	return r.MatchesDateOfBirth(dateOfBirth) && r.MatchesNationalID(nationalID)
}

func (r *Record) MatchesDateOfBirth(dateOfBirth string) bool {
	return r.DateOfBirth == dateOfBirth
}

func (r *Record) MatchesNationalID(nationalID string) bool {
	return r.NationalID == nationalID
}
