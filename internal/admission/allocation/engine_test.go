package allocation

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admission/internal/admission/models"
	"admission/internal/admission/oplog"
	"admission/internal/admission/roster"
	"admission/internal/platform/metrics"
)

var collegeNames = []string{"College1", "College2", "College3", "College4"}

func pref(college int, b models.Branch) models.Preference {
	return models.Preference{College: college, Branch: b}
}

func newRoster(t *testing.T, catalog *models.Catalog, students ...*models.Student) *roster.Roster {
	t.Helper()
	r := roster.New(catalog.Len(), oplog.New())
	for _, s := range students {
		require.NoError(t, r.Insert(s))
	}
	return r
}

// consumedSeats counts students currently holding a seat in college/branch.
func consumedSeats(r *roster.Roster, college string, b models.Branch) int {
	n := 0
	for s := range r.Traverse() {
		if s.Allocation.Status == models.StatusAllocated && s.Allocation.College == college && s.Allocation.Branch == b {
			n++
		}
	}
	return n
}

func assertSeatConservation(t *testing.T, r *roster.Roster, catalog *models.Catalog) {
	t.Helper()
	for _, c := range catalog.Colleges() {
		for _, b := range models.Branches {
			assert.Equal(t, c.Capacity(b), consumedSeats(r, c.Name, b)+c.Remaining(b),
				"seat conservation for %s %s", c.Name, b)
		}
	}
}

func TestAllocate_CapacityScenario(t *testing.T) {
	catalog, err := models.NewCatalog(collegeNames, 10)
	require.NoError(t, err)
	for _, c := range catalog.Colleges() {
		require.Equal(t, 2, c.Capacity(models.BranchCSE))
		require.Equal(t, 2, c.Capacity(models.BranchECE))
	}

	first := []models.Preference{pref(0, models.BranchCSE)}
	r := newRoster(t, catalog,
		models.NewStudent("DC103", "C", 3, true, []models.Preference{pref(0, models.BranchCSE), pref(1, models.BranchECE)}),
		models.NewStudent("DC101", "A", 1, true, first),
		models.NewStudent("DC102", "B", 2, true, first),
		models.NewStudent("DC104", "D", 4, true, first),
	)

	res := New().Allocate(r, catalog)

	got := map[int]models.Allocation{}
	for _, a := range res.Assignments {
		got[a.Rank] = a.Allocation
	}
	want := map[int]models.Allocation{
		1: {Status: models.StatusAllocated, College: "College1", Branch: models.BranchCSE},
		2: {Status: models.StatusAllocated, College: "College1", Branch: models.BranchCSE},
		3: {Status: models.StatusAllocated, College: "College2", Branch: models.BranchECE},
		4: {Status: models.StatusNotAllocated},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("assignments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, res.Allocated)
	assert.Equal(t, 1, res.NotAllocated)
	assert.Zero(t, res.NotEligible)
	assertSeatConservation(t, r, catalog)
}

func TestAllocate_SkipsFullPreference(t *testing.T) {
	catalog := models.NewCatalogWithCapacity([]string{"CollegeA", "CollegeB"}, map[string]map[models.Branch]int{
		"CollegeA": {models.BranchCSE: 0, models.BranchECE: 3},
		"CollegeB": {models.BranchCSE: 0, models.BranchECE: 1},
	})
	s := models.NewStudent("DC101", "A", 1, true, []models.Preference{
		pref(0, models.BranchCSE),
		pref(1, models.BranchECE),
	})
	r := newRoster(t, catalog, s)

	New().Allocate(r, catalog)

	assert.Equal(t, models.Allocation{Status: models.StatusAllocated, College: "CollegeB", Branch: models.BranchECE}, s.Allocation)
	assert.Zero(t, catalog.At(1).Remaining(models.BranchECE))
	assert.Equal(t, 3, catalog.At(0).Remaining(models.BranchECE))
}

func TestAllocate_UnverifiedIsNotEligible(t *testing.T) {
	catalog, err := models.NewCatalog(collegeNames, 40)
	require.NoError(t, err)
	s := models.NewStudent("DC101", "A", 1, false, []models.Preference{pref(0, models.BranchCSE)})
	r := newRoster(t, catalog, s)
	logLen := r.Log().Len()

	res := New().Allocate(r, catalog)

	assert.Equal(t, models.StatusNotEligible, s.Allocation.Status)
	assert.Equal(t, models.CollegeNotEligible, s.Allocation.CollegeLabel())
	assert.Equal(t, models.BranchNone, s.Allocation.BranchLabel())
	assert.Equal(t, 1, res.NotEligible)
	assert.Equal(t, catalog.At(0).Capacity(models.BranchCSE), catalog.At(0).Remaining(models.BranchCSE))
	assert.Equal(t, logLen, r.Log().Len(), "ineligible students are not logged")
}

func TestAllocate_ZeroPreferences(t *testing.T) {
	catalog, err := models.NewCatalog(collegeNames, 8)
	require.NoError(t, err)
	s := models.NewStudent("DC101", "A", 1, true, nil)
	r := newRoster(t, catalog, s)

	New().Allocate(r, catalog)

	assert.Equal(t, models.StatusNotAllocated, s.Allocation.Status)
	assert.Equal(t, models.CollegeNotAllocated, s.Allocation.CollegeLabel())
	assert.Equal(t, "Student could not be allocated", r.Log().RecentN(1)[0].Message)
}

func TestAllocate_IsIdempotent(t *testing.T) {
	catalog, err := models.NewCatalog(collegeNames, 6)
	require.NoError(t, err)
	r := newRoster(t, catalog,
		models.NewStudent("DC101", "A", 1, true, []models.Preference{pref(0, models.BranchCSE), pref(0, models.BranchECE)}),
		models.NewStudent("DC102", "B", 2, true, []models.Preference{pref(0, models.BranchCSE), pref(0, models.BranchECE)}),
		models.NewStudent("DC103", "C", 3, true, []models.Preference{pref(0, models.BranchCSE), pref(0, models.BranchECE)}),
		models.NewStudent("DC104", "D", 4, false, []models.Preference{pref(2, models.BranchCSE)}),
		models.NewStudent("DC105", "E", 5, true, []models.Preference{pref(0, models.BranchCSE), pref(3, models.BranchECE)}),
	)
	engine := New()

	first := engine.Allocate(r, catalog)
	second := engine.Allocate(r, catalog)
	third := engine.Allocate(r, catalog)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second run differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first, third); diff != "" {
		t.Fatalf("third run differs (-first +third):\n%s", diff)
	}
	assertSeatConservation(t, r, catalog)
}

func TestAllocate_RecomputesAfterStateChange(t *testing.T) {
	catalog, err := models.NewCatalog(collegeNames, 4)
	require.NoError(t, err)
	a := models.NewStudent("DC101", "A", 1, true, []models.Preference{pref(0, models.BranchCSE)})
	b := models.NewStudent("DC102", "B", 2, true, []models.Preference{pref(0, models.BranchCSE), pref(1, models.BranchCSE)})
	r := newRoster(t, catalog, a, b)
	engine := New()

	engine.Allocate(r, catalog)
	require.Equal(t, "College1", a.Allocation.College)
	require.Equal(t, "College2", b.Allocation.College)

	a.Verified = false
	engine.Allocate(r, catalog)

	assert.Equal(t, models.StatusNotEligible, a.Allocation.Status)
	assert.Equal(t, "College1", b.Allocation.College, "freed seat goes to the next rank")
	assert.Equal(t, catalog.At(1).Capacity(models.BranchCSE), catalog.At(1).Remaining(models.BranchCSE))
	assertSeatConservation(t, r, catalog)
}

func TestAllocate_LogsAndMetrics(t *testing.T) {
	catalog, err := models.NewCatalog(collegeNames[:1], 2)
	require.NoError(t, err)
	r := newRoster(t, catalog,
		models.NewStudent("DC101", "A", 1, true, []models.Preference{pref(0, models.BranchECE)}),
		models.NewStudent("DC102", "B", 2, true, []models.Preference{pref(0, models.BranchECE)}),
		models.NewStudent("DC103", "C", 3, false, nil),
	)
	var buf bytes.Buffer
	m := metrics.New(prometheus.NewRegistry())
	engine := New(
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithMetrics(m),
	)

	engine.Allocate(r, catalog)

	recent := r.Log().RecentN(2)
	assert.Equal(t, "Student could not be allocated", recent[0].Message)
	assert.Equal(t, "Allocated A to College1 ECE", recent[1].Message)
	assert.Contains(t, buf.String(), "allocation pass complete")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AllocationRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AllocationOutcomes.WithLabelValues("allocated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AllocationOutcomes.WithLabelValues("not_allocated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AllocationOutcomes.WithLabelValues("not_eligible")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SeatsRemaining.WithLabelValues("College1", "ECE")))
}
