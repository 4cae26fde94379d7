package http

import (
	"net/http"
)

type indexResponse struct {
	Name      string   `json:"name"`
	Endpoints []string `json:"endpoints"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(indexResponse{
		Name: "lifeledger",
		Endpoints: []string{
			"/api/transactions",
			"/api/dashboard/stats",
			"/api/dashboard/monthly-comparison",
			"/api/admin/users",
			"/api/admin/users/most-active",
			"/api/admin/transactions/total",
		},
	}).Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady pings the backend so orchestrators stop routing to an instance
// whose database is gone.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.ledger.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("backend unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
