package http

import (
	"errors"
	"net/http"

	"expensetracker/internal/core"
)

type transactionRequest struct {
	UserID     int64      `json:"userId"`
	CategoryID int64      `json:"categoryId"`
	Amount     *Amount    `json:"amount"`
	Date       *core.Date `json:"date"`
	Note       string     `json:"note"`
}

type transactionPatchRequest struct {
	CategoryID *int64     `json:"categoryId"`
	Amount     *Amount    `json:"amount"`
	Date       *core.Date `json:"date"`
	Note       *string    `json:"note"`
}

func (p transactionPatchRequest) toPatch() core.TransactionPatch {
	patch := core.TransactionPatch{CategoryID: p.CategoryID, Date: p.Date}
	if p.Amount != nil {
		patch.Amount = &p.Amount.Money
	}
	if p.Note != nil {
		note := sanitizeInput(*p.Note)
		patch.Note = &note
	}
	return patch
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	switch {
	case req.CategoryID == 0:
		s.fail(w, r, core.BadRequestError(errors.New("categoryId is required")))
		return
	case req.Amount == nil:
		s.fail(w, r, core.BadRequestError(errors.New("amount is required")))
		return
	case req.Date == nil:
		s.fail(w, r, core.BadRequestError(errors.New("date is required")))
		return
	}
	if err := ensureCorrectUser(r, req.UserID); err != nil {
		s.fail(w, r, err)
		return
	}

	t, err := s.svc.Transactions.Create(r.Context(), core.Transaction{
		UserID:     req.UserID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount.Money,
		Date:       *req.Date,
		Note:       sanitizeInput(req.Note),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string]core.Transaction{"transaction": t}).Status(http.StatusCreated).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.correctUser(w, r, "userId")
	if !ok {
		return
	}
	txs, err := s.svc.Transactions.FindAll(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string][]core.Transaction{"transactions": txs}).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := s.ownedPath(w, r)
	if !ok {
		return
	}
	t, err := s.svc.Transactions.Get(r.Context(), id, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string]core.Transaction{"transaction": t}).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := s.ownedPath(w, r)
	if !ok {
		return
	}
	var req transactionPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	t, err := s.svc.Transactions.Update(r.Context(), id, userID, req.toPatch())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(map[string]core.Transaction{"transaction": t}).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := s.ownedPath(w, r)
	if !ok {
		return
	}
	if err := s.svc.Transactions.Remove(r.Context(), id, userID); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse(deletedResponse{Deleted: id}).Write(w)
}
