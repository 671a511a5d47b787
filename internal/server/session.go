package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email string `json:"email"`
}

// handleLogin signs the user in and returns a session token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("email is required"))
		return
	}

	user, token, err := s.auth.Login(req.Email)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// handleLogout ends the current session.
func (s *Server) handleLogout(c *gin.Context) {
	s.auth.Logout(currentUser(c))
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}

// handleMe returns the authenticated user.
func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}
