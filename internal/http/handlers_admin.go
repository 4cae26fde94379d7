package http

import (
	"net/http"

	"lifeledger/internal/core"
	"lifeledger/internal/log"
)

const userNotFound = "User not found"

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	users, err := s.ledger.ListUsers(ctx)
	if err != nil {
		writeError(w, r, err, userNotFound)
		return
	}
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	NewJSONResponse().Body(struct {
		Users []userResponse `json:"users"`
		Count int            `json:"count"`
	}{out, len(out)}).Write(w)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, userNotFound)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	u, err := s.ledger.CreateUser(ctx, core.NewUser{Name: req.Name, Email: req.Email, Role: req.Role})
	if err != nil {
		writeError(w, r, err, userNotFound)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(struct {
			Message string       `json:"message"`
			User    userResponse `json:"user"`
		}{"User created successfully", toUserResponse(u)}).
		Write(w)
}

// handleDeleteUser removes a user and their transactions. Admins cannot
// delete themselves.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	id := r.PathValue("id")
	if id == p.UserID {
		BadRequestError("Cannot delete your own account").Write(w)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	ok, err := s.ledger.DeleteUser(ctx, id)
	if err != nil {
		writeError(w, r, err, userNotFound)
		return
	}
	if !ok {
		NotFoundError(userNotFound).Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "User deleted by admin", "deleted_user_id", id)
	MessageResponse("User deleted successfully").Write(w)
}

func (s *Server) handleTotalTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	n, err := s.ledger.TransactionCount(ctx)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	NewJSONResponse().Body(struct {
		TotalTransactions int64 `json:"totalTransactions"`
	}{n}).Write(w)
}

func (s *Server) handleMostActiveUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query(), core.DefaultActivityLimit)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	ranks, err := s.ledger.MostActiveOwners(ctx, limit)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	out := make([]activeUserResponse, len(ranks))
	for i, a := range ranks {
		out[i] = activeUserResponse{ID: a.UserID, Name: a.Name, Email: a.Email, TransactionCount: a.TransactionCount}
	}
	NewJSONResponse().Body(struct {
		MostActiveUsers []activeUserResponse `json:"mostActiveUsers"`
	}{out}).Write(w)
}
