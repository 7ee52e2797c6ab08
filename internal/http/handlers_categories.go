package http

import (
	"net/http"

	"expensetracker/internal/core"
)

type categoryRequest struct {
	UserID int64             `json:"userId"`
	Name   string            `json:"name"`
	Type   core.CategoryType `json:"type"`
}

// ownedPath parses {id} and {userId}, checking the caller is userId.
func (s *Server) ownedPath(w http.ResponseWriter, r *http.Request) (id, userID int64, ok bool) {
	userID, ok = s.correctUser(w, r, "userId")
	if !ok {
		return 0, 0, false
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return 0, 0, false
	}
	return id, userID, true
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := requireFields([2]string{"name", req.Name}, [2]string{"type", string(req.Type)}); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := ensureCorrectUser(r, req.UserID); err != nil {
		s.fail(w, r, err)
		return
	}

	c, err := s.svc.Categories.Create(r.Context(), req.UserID, sanitizeInput(req.Name), req.Type)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string]core.Category{"category": c}).Status(http.StatusCreated).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.correctUser(w, r, "userId")
	if !ok {
		return
	}
	cats, err := s.svc.Categories.FindAll(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string][]core.Category{"categories": cats}).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := s.ownedPath(w, r)
	if !ok {
		return
	}
	c, err := s.svc.Categories.Get(r.Context(), id, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string]core.Category{"category": c}).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := s.ownedPath(w, r)
	if !ok {
		return
	}
	var patch core.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	if patch.Name != nil {
		*patch.Name = sanitizeInput(*patch.Name)
	}

	c, err := s.svc.Categories.Update(r.Context(), id, userID, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string]core.Category{"category": c}).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := s.ownedPath(w, r)
	if !ok {
		return
	}
	if err := s.svc.Categories.Remove(r.Context(), id, userID); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(deletedResponse{Deleted: id}).Write(w)
}
