package http

import (
	"net/http"

	"expensetracker/internal/core"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// correctUser parses the named path id and checks the caller owns it.
func (s *Server) correctUser(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := pathID(r, name)
	if err == nil {
		err = ensureCorrectUser(r, id)
	}
	if err != nil {
		s.fail(w, r, err)
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.correctUser(w, r, "id")
	if !ok {
		return
	}
	u, err := s.svc.Users.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string]core.User{"user": u}).Write(w)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.correctUser(w, r, "id")
	if !ok {
		return
	}
	var patch core.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	if patch.FirstName != nil {
		*patch.FirstName = sanitizeInput(*patch.FirstName)
	}
	if patch.LastName != nil {
		*patch.LastName = sanitizeInput(*patch.LastName)
	}

	u, err := s.svc.Users.Update(r.Context(), id, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string]core.User{"user": u}).Write(w)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.correctUser(w, r, "id")
	if !ok {
		return
	}
	if err := s.svc.Users.Remove(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(deletedResponse{Deleted: id}).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := s.correctUser(w, r, "id")
	if !ok {
		return
	}
	d, err := s.svc.Dashboard.Compute(r.Context(), id, s.now().In(s.location))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string]core.Dashboard{"dashboard": d}).Write(w)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.correctUser(w, r, "id")
	if !ok {
		return
	}
	limit, err := queryLimit(r, defaultActivityLimit, maxActivityLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events, err := s.svc.Activity.ListActivity(r.Context(), id, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string][]core.ActivityEvent{"events": events}).Write(w)
}
