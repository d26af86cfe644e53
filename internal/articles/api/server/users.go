package server

import (
	"fmt"
	"net/http"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/access"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/authservice"
)

// Register creates a regular user
// (POST /register/).
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req authservice.RegisterRequest

	if err := s.decode(r, &req); err != nil {
		s.handleError(w, err)

		return
	}

	u, err := s.authService.Register(r.Context(), req)
	if err != nil {
		s.handleError(w, fmt.Errorf("register error: %w", err))

		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
}

// Login issues a bearer token
// (POST /login/).
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := s.decode(r, &req); err != nil {
		s.handleError(w, err)

		return
	}

	token, err := s.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.handleError(w, fmt.Errorf("login error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, AuthUserResponse{Token: token})
}

// CurrentUser returns the caller's profile. Anonymous callers have none
// (GET /user/).
func (s *Server) CurrentUser(w http.ResponseWriter, r *http.Request) {
	p, ok := access.FromContext(r.Context())
	if !ok {
		s.handleError(w, authservice.ErrNotFound)

		return
	}

	u, err := s.authService.GetUser(r.Context(), p.UserID)
	if err != nil {
		s.handleError(w, fmt.Errorf("get user error: %w", err))

		return
	}

	writeJSON(w, http.StatusOK, userResponse(u))
}

// (GET /users/).
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.authService.ListUsers(r.Context())
	if err != nil {
		s.handleError(w, fmt.Errorf("list users error: %w", err))

		return
	}

	res := make([]UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, userResponse(u))
	}

	writeJSON(w, http.StatusOK, res)
}
