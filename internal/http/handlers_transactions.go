package http

import (
	"net/http"

	"lifeledger/internal/core"
	"lifeledger/internal/log"
)

const transactionNotFound = "Transaction not found"

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	var req createTransactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, transactionNotFound)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	t, err := s.ledger.Create(ctx, p.UserID, req.toNewTransaction())
	if err != nil {
		writeError(w, r, err, transactionNotFound)
		return
	}
	s.events.LogTransaction(r.Context(), log.OpCreate, p.UserID, t.ID, string(t.Kind), t.Amount.String())

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		Body(struct {
			Message     string              `json:"message"`
			Transaction transactionResponse `json:"transaction"`
		}{"Transaction created successfully", toTransactionResponse(t)}).
		Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	ctx, cancel := s.requestContext(r)
	defer cancel()

	items, err := s.ledger.ListByOwner(ctx, p.UserID)
	if err != nil {
		writeError(w, r, err, transactionNotFound)
		return
	}
	NewJSONResponse().Body(struct {
		Transactions []transactionResponse `json:"transactions"`
	}{toTransactionResponses(items)}).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	ctx, cancel := s.requestContext(r)
	defer cancel()

	t, err := s.ledger.Get(ctx, r.PathValue("id"), p.UserID)
	if err != nil {
		writeError(w, r, err, transactionNotFound)
		return
	}
	NewJSONResponse().Body(struct {
		Transaction transactionResponse `json:"transaction"`
	}{toTransactionResponse(t)}).Write(w)
}

// handleUpdateTransaction applies a partial update. Only keys present in the
// body are changed; an explicit null note clears it.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	var patch core.TransactionPatch
	if err := DecodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, transactionNotFound)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	t, err := s.ledger.Update(ctx, r.PathValue("id"), p.UserID, patch)
	if err != nil {
		writeError(w, r, err, transactionNotFound)
		return
	}
	s.events.LogTransaction(r.Context(), log.OpUpdate, p.UserID, t.ID, string(t.Kind), t.Amount.String())

	NewJSONResponse().Body(struct {
		Message     string              `json:"message"`
		Transaction transactionResponse `json:"transaction"`
	}{"Transaction updated successfully", toTransactionResponse(t)}).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	ctx, cancel := s.requestContext(r)
	defer cancel()

	id := r.PathValue("id")
	ok, err := s.ledger.Delete(ctx, id, p.UserID)
	if err != nil {
		writeError(w, r, err, transactionNotFound)
		return
	}
	if !ok {
		NotFoundError(transactionNotFound).Write(w)
		return
	}
	s.events.LogTransaction(r.Context(), log.OpDelete, p.UserID, id, "", "")

	MessageResponse("Transaction deleted successfully").Write(w)
}
