package http

import (
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// handleToken exchanges credentials for a token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := requireFields([2]string{"email", req.Email}, [2]string{"password", req.Password}); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.svc.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Login failed",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldError, err.Error())
		s.fail(w, r, err)
		return
	}
	s.issueToken(w, r, u, http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := requireFields(
		[2]string{"email", req.Email},
		[2]string{"password", req.Password},
		[2]string{"firstName", req.FirstName},
		[2]string{"lastName", req.LastName},
	); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.svc.Users.Register(r.Context(), req.Email, req.Password,
		sanitizeInput(req.FirstName), sanitizeInput(req.LastName))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issueToken(w, r, u, http.StatusCreated)
}

// handleOAuth answers 201 when the account was created and 200 when it
// already existed.
func (s *Server) handleOAuth(w http.ResponseWriter, r *http.Request) {
	var req core.OAuthProfile
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := requireFields(
		[2]string{"email", req.Email},
		[2]string{"firstName", req.FirstName},
		[2]string{"lastName", req.LastName},
		[2]string{"oauthId", req.OAuthID},
		[2]string{"oauthProvider", req.OAuthProvider},
	); err != nil {
		s.fail(w, r, err)
		return
	}
	req.FirstName = sanitizeInput(req.FirstName)
	req.LastName = sanitizeInput(req.LastName)

	u, isNew, err := s.svc.Users.OAuth(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	s.issueToken(w, r, u, status)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, u core.User, status int) {
	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(tokenResponse{Token: token}).Status(status).Write(w)
}
