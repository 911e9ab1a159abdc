package httptransport

import (
	"time"

	"admission/internal/admission/models"
	"admission/internal/admission/service"
)

type preferenceResponse struct {
	College string `json:"college"`
	Branch  string `json:"branch"`
}

type studentResponse struct {
	RegNumber   string               `json:"reg_number"`
	Name        string               `json:"name"`
	Rank        int                  `json:"rank"`
	Verified    bool                 `json:"verified"`
	Preferences []preferenceResponse `json:"preferences"`
	Status      string               `json:"status"`
	College     string               `json:"college"`
	Branch      string               `json:"branch"`
}

type collegeResponse struct {
	Name            string         `json:"name"`
	Capacity        map[string]int `json:"capacity"`
	Remaining       map[string]int `json:"remaining"`
	PreferenceCount int            `json:"preference_count"`
}

type operationResponse struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type routeResponse struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

type statusResponse struct {
	Students         int                 `json:"students"`
	Transitions      int                 `json:"transitions"`
	Colleges         []collegeResponse   `json:"colleges"`
	Routes           []routeResponse     `json:"routes"`
	RecentOperations []operationResponse `json:"recent_operations"`
}

func toStudentResponse(s *models.Student, catalog *models.Catalog) studentResponse {
	prefs := make([]preferenceResponse, 0, len(s.Preferences))
	for _, p := range s.Preferences {
		name := ""
		if c := catalog.At(p.College); c != nil {
			name = c.Name
		}
		prefs = append(prefs, preferenceResponse{College: name, Branch: string(p.Branch)})
	}
	return studentResponse{
		RegNumber:   s.RegNumber,
		Name:        s.Name,
		Rank:        s.Rank,
		Verified:    s.Verified,
		Preferences: prefs,
		Status:      s.Allocation.Status.String(),
		College:     s.Allocation.CollegeLabel(),
		Branch:      s.Allocation.BranchLabel(),
	}
}

func toCollegeResponses(colleges []service.CollegeSeats) []collegeResponse {
	out := make([]collegeResponse, 0, len(colleges))
	for _, c := range colleges {
		resp := collegeResponse{
			Name:            c.Name,
			Capacity:        make(map[string]int, len(c.Capacity)),
			Remaining:       make(map[string]int, len(c.Remaining)),
			PreferenceCount: c.PreferenceCount,
		}
		for b, n := range c.Capacity {
			resp.Capacity[string(b)] = n
		}
		for b, n := range c.Remaining {
			resp.Remaining[string(b)] = n
		}
		out = append(out, resp)
	}
	return out
}

func toStatusResponse(s service.Status) statusResponse {
	ops := make([]operationResponse, 0, len(s.RecentOperations))
	for _, e := range s.RecentOperations {
		ops = append(ops, operationResponse{
			ID:        e.ID.String(),
			Seq:       e.Seq,
			Message:   e.Message,
			Timestamp: e.Timestamp,
		})
	}
	routes := make([]routeResponse, 0, len(s.Routes))
	for _, r := range s.Routes {
		routes = append(routes, routeResponse{From: r.From, To: r.To, Count: r.Count})
	}
	return statusResponse{
		Students:         s.Students,
		Transitions:      s.Transitions,
		Colleges:         toCollegeResponses(s.Colleges),
		Routes:           routes,
		RecentOperations: ops,
	}
}
