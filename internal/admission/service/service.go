package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"admission/internal/admission/allocation"
	"admission/internal/admission/models"
	"admission/internal/admission/oplog"
	"admission/internal/admission/roster"
	"admission/internal/platform/metrics"
	"admission/internal/verification"
	dErrors "admission/pkg/domain-errors"
	"admission/pkg/platform/sentinel"
)

// RecentOperations is how many log entries the status report shows.
const RecentOperations = 5

// Registry is the identity registry port.
type Registry interface {
	FindByRegNumber(ctx context.Context, regNumber string) (*verification.Record, error)
	ExistsNationalID(ctx context.Context, nationalID string) (bool, error)
	Append(ctx context.Context, record verification.Record) error
}

// Limits are the run-wide sizing parameters.
type Limits struct {
	TotalStudents  int
	MaxPreferences int
}

// Service orchestrates registration, verification and allocation over the
// in-memory roster. Readers (status reports) may run concurrently with the
// single interactive writer.
type Service struct {
	mu        sync.RWMutex
	limits    Limits
	catalog   *models.Catalog
	roster    *roster.Roster
	log       *oplog.Log
	registry  Registry
	validator *verification.Validator
	engine    *allocation.Engine
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithOperationLog replaces the default operation log.
func WithOperationLog(log *oplog.Log) Option {
	return func(s *Service) {
		s.log = log
	}
}

// New constructs a Service.
func New(catalog *models.Catalog, registry Registry, validator *verification.Validator, limits Limits, opts ...Option) *Service {
	s := &Service{
		limits:    limits,
		catalog:   catalog,
		registry:  registry,
		validator: validator,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = oplog.New()
	}
	s.roster = roster.New(catalog.Len(), s.log)
	s.engine = allocation.New(allocation.WithLogger(s.logger), allocation.WithMetrics(s.metrics))
	return s
}

// RegisterRequest carries a new student's identity data and preferences.
type RegisterRequest struct {
	Input       verification.RegistrationInput
	Preferences []models.Preference
}

// Register validates a new student, records their identity in the registry
// and enrolls them as verified. Nothing is mutated when an error is returned.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.register(ctx, req)
	if err != nil {
		s.metrics.IncrementRegistrationRejected(string(dErrors.CodeOf(err)))
		s.logger.InfoContext(ctx, "registration rejected",
			"reg_number", req.Input.RegNumber,
			"rank", req.Input.Rank,
			"error", err,
		)
		return nil, err
	}
	s.metrics.IncrementStudentsRegistered()
	s.logger.InfoContext(ctx, "student registered",
		"reg_number", student.RegNumber,
		"rank", student.Rank,
		"preferences", len(student.Preferences),
	)
	return cloneStudent(student), nil
}

func (s *Service) register(ctx context.Context, req RegisterRequest) (*models.Student, error) {
	if err := s.checkCapacity(); err != nil {
		return nil, err
	}
	in := req.Input
	if err := s.validator.ValidateRegistration(in); err != nil {
		return nil, err
	}
	if err := s.checkPreferences(req.Preferences); err != nil {
		return nil, err
	}
	if s.roster.RankTaken(in.Rank) {
		return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("rank %d is already taken", in.Rank))
	}
	if _, err := s.registry.FindByRegNumber(ctx, in.RegNumber); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("registration number %s already exists", in.RegNumber))
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up registration number")
	}
	exists, err := s.registry.ExistsNationalID(ctx, in.NationalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up national ID")
	}
	if exists {
		return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("national ID %s already registered", in.NationalID))
	}

	record := verification.Record{
		RegNumber:   in.RegNumber,
		Name:        in.Name,
		DateOfBirth: in.DateOfBirth,
		NationalID:  in.NationalID,
	}
	if err := s.registry.Append(ctx, record); err != nil {
		return nil, translateRegistryError(err)
	}

	student := models.NewStudent(in.RegNumber, in.Name, in.Rank, true, req.Preferences)
	if err := s.roster.Insert(student); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to enroll student")
	}
	return student, nil
}

// Preregister enrolls a student whose identity is already in the registry,
// verified and without preferences.
func (s *Service) Preregister(ctx context.Context, regNumber string, rank int) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCapacity(); err != nil {
		return nil, err
	}
	record, err := s.registry.FindByRegNumber(ctx, regNumber)
	if err != nil {
		return nil, translateRegistryError(err)
	}
	student := models.NewStudent(record.RegNumber, record.Name, rank, true, nil)
	if err := s.roster.Insert(student); err != nil {
		return nil, translateRosterError(err)
	}
	s.metrics.IncrementStudentsRegistered()
	s.logger.DebugContext(ctx, "student preregistered", "reg_number", regNumber, "rank", rank)
	return cloneStudent(student), nil
}

// Verify authenticates an enrolled student against the registry.
func (s *Service) Verify(ctx context.Context, regNumber, dateOfBirth, nationalID string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, err := s.verify(ctx, regNumber, dateOfBirth, nationalID)
	if err != nil {
		return nil, err
	}
	return cloneStudent(student), nil
}

// VerifyDateOfBirth checks only the date of birth of an enrolled student, so
// an interactive caller can stop before asking for the national ID.
func (s *Service) VerifyDateOfBirth(ctx context.Context, regNumber, dateOfBirth string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, record, err := s.identity(ctx, regNumber)
	if err != nil {
		return err
	}
	if !record.MatchesDateOfBirth(dateOfBirth) {
		return errInvalidDateOfBirth
	}
	return nil
}

var errInvalidDateOfBirth = dErrors.New(dErrors.CodeUnauthorized, "verification failed: invalid date of birth")

func (s *Service) identity(ctx context.Context, regNumber string) (*models.Student, *verification.Record, error) {
	student, ok := s.roster.FindByRegNumber(regNumber)
	if !ok {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("student with registration number %s not found", regNumber))
	}
	record, err := s.registry.FindByRegNumber(ctx, regNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "verification data not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification data")
	}
	return student, record, nil
}

func (s *Service) verify(ctx context.Context, regNumber, dateOfBirth, nationalID string) (*models.Student, error) {
	student, record, err := s.identity(ctx, regNumber)
	if err != nil {
		return nil, err
	}
	if !record.MatchesDateOfBirth(dateOfBirth) {
		return nil, errInvalidDateOfBirth
	}
	if !record.MatchesNationalID(nationalID) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "verification failed: invalid national ID")
	}
	return student, nil
}

// UpdatePreferencesRequest replaces the preference list of a verified student.
type UpdatePreferencesRequest struct {
	RegNumber   string
	DateOfBirth string
	NationalID  string
	Preferences []models.Preference
}

// UpdatePreferences re-verifies the student and replaces their preferences.
func (s *Service) UpdatePreferences(ctx context.Context, req UpdatePreferencesRequest) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, err := s.verify(ctx, req.RegNumber, req.DateOfBirth, req.NationalID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPreferences(req.Preferences); err != nil {
		return nil, err
	}
	if err := s.roster.SetPreferences(student.RegNumber, req.Preferences); err != nil {
		return nil, translateRosterError(err)
	}
	s.logger.InfoContext(ctx, "preferences updated",
		"reg_number", student.RegNumber,
		"preferences", len(req.Preferences),
	)
	return cloneStudent(student), nil
}

// Allocate runs a full allocation pass.
func (s *Service) Allocate(_ context.Context) allocation.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Allocate(s.roster, s.catalog)
}

// Student returns a snapshot of one enrolled student.
func (s *Service) Student(_ context.Context, regNumber string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.roster.FindByRegNumber(regNumber)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("student with registration number %s not found", regNumber))
	}
	return cloneStudent(student), nil
}

// StudentByRank returns a snapshot of the student holding rank.
func (s *Service) StudentByRank(_ context.Context, rank int) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.roster.FindByRank(rank)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no student with rank %d", rank))
	}
	return cloneStudent(student), nil
}

// NationalIDTaken reports whether the registry already holds nationalID.
func (s *Service) NationalIDTaken(ctx context.Context, nationalID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exists, err := s.registry.ExistsNationalID(ctx, nationalID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up national ID")
	}
	return exists, nil
}

// RankTaken reports whether rank is already registered.
func (s *Service) RankTaken(_ context.Context, rank int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.RankTaken(rank)
}

// Students returns snapshots of every student in rank order.
func (s *Service) Students(_ context.Context) []*models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Student, 0, s.roster.Len())
	for st := range s.roster.Traverse() {
		out = append(out, cloneStudent(st))
	}
	return out
}

// CollegeSeats is a read-only view of one college.
type CollegeSeats struct {
	Name            string
	Capacity        map[models.Branch]int
	Remaining       map[models.Branch]int
	PreferenceCount int
}

// Colleges returns the current seat table in catalog order.
func (s *Service) Colleges(_ context.Context) []CollegeSeats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.colleges()
}

func (s *Service) colleges() []CollegeSeats {
	graph := s.roster.Graph()
	out := make([]CollegeSeats, 0, s.catalog.Len())
	for i, c := range s.catalog.Colleges() {
		view := CollegeSeats{
			Name:            c.Name,
			Capacity:        make(map[models.Branch]int, len(models.Branches)),
			Remaining:       make(map[models.Branch]int, len(models.Branches)),
			PreferenceCount: graph.PreferenceCount(i),
		}
		for _, b := range models.Branches {
			view.Capacity[b] = c.Capacity(b)
			view.Remaining[b] = c.Remaining(b)
		}
		out = append(out, view)
	}
	return out
}

// Route aggregates the recorded transitions between two preferred colleges.
type Route struct {
	From  string
	To    string
	Count int
}

// Status is the system status report.
type Status struct {
	Students         int
	Transitions      int
	Colleges         []CollegeSeats
	Routes           []Route
	RecentOperations []oplog.Entry
}

// Status reports college popularity and the most recent operations.
func (s *Service) Status(_ context.Context) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Students:         s.roster.Len(),
		Transitions:      s.roster.Graph().EdgeCount(),
		Colleges:         s.colleges(),
		Routes:           s.routes(),
		RecentOperations: s.log.RecentN(RecentOperations),
	}
}

// routes enumerates the graph in catalog order. Repeated edges between the
// same pair of colleges are summed by weight.
func (s *Service) routes() []Route {
	graph := s.roster.Graph()
	var out []Route
	for from, c := range s.catalog.Colleges() {
		totals := make(map[int]int)
		var order []int
		for _, e := range graph.Edges(from) {
			if _, seen := totals[e.To]; !seen {
				order = append(order, e.To)
			}
			totals[e.To] += e.Weight
		}
		for _, to := range order {
			out = append(out, Route{From: c.Name, To: s.catalog.At(to).Name, Count: totals[to]})
		}
	}
	return out
}

// Catalog exposes the college table for preference selection menus.
func (s *Service) Catalog() *models.Catalog {
	return s.catalog
}

// Limits returns the configured sizing parameters.
func (s *Service) Limits() Limits {
	return s.limits
}

// Close drops all in-memory state. Nothing is persisted.
func (s *Service) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.roster.Len()
	s.roster.Clear()
	s.logger.InfoContext(ctx, "released roster", "students", n)
}

func (s *Service) checkCapacity() error {
	if s.limits.TotalStudents > 0 && s.roster.Len() >= s.limits.TotalStudents {
		return dErrors.New(dErrors.CodeResourceExhausted,
			fmt.Sprintf("maximum number of students (%d) reached", s.limits.TotalStudents))
	}
	return nil
}

func (s *Service) checkPreferences(prefs []models.Preference) error {
	if err := s.validator.ValidatePreferenceCount(len(prefs), s.limits.MaxPreferences); err != nil {
		return err
	}
	for i, p := range prefs {
		if s.catalog.At(p.College) == nil || !p.Branch.IsValid() {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("preference %d is not a known college/branch", i+1))
		}
	}
	return nil
}

func translateRegistryError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrExhausted):
		return dErrors.Wrap(err, dErrors.CodeResourceExhausted, "could not add to verification data, maximum limit reached")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "identity already registered")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "registration number not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "identity registry failure")
	}
}

func translateRosterError(err error) error {
	switch {
	case dErrors.Is(err):
		return err
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "student already enrolled")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "student not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "roster failure")
	}
}

func cloneStudent(s *models.Student) *models.Student {
	c := *s
	c.Preferences = slices.Clone(s.Preferences)
	return &c
}
