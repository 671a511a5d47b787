package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskmind/internal/tasklist"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

type toggleTaskRequest struct {
	Completed *bool `json:"completed"`
}

// handleListTasks returns the owner's tasks filtered by the search term and
// category selection, plus aggregate counts over the full collection.
func (s *Server) handleListTasks(c *gin.Context) {
	owner := currentUser(c).ID

	all, loading, creating := s.tasks.Snapshot(owner)
	visible := tasklist.Filter(all, c.Query("search"), c.Query("category"))

	c.JSON(http.StatusOK, gin.H{
		"tasks":    visible,
		"stats":    tasklist.Stats(all),
		"loading":  loading,
		"creating": creating,
	})
}

// handleCreateTask classifies and persists a new task for the owner.
func (s *Server) handleCreateTask(c *gin.Context) {
	owner := currentUser(c).ID

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.tasks.Create(c.Request.Context(), owner, req.Title, req.Description, req.DueDate)
	if errors.Is(err, tasklist.ErrEmptyTitle) {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.respondError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// handleToggleTask flips the completed flag of a task.
func (s *Server) handleToggleTask(c *gin.Context) {
	owner := currentUser(c).ID
	id := c.Param("id")

	var req toggleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Completed == nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("completed is required"))
		return
	}

	if err := s.tasks.Toggle(c.Request.Context(), owner, id, *req.Completed); err != nil {
		s.respondError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	owner := currentUser(c).ID

	if err := s.tasks.Delete(c.Request.Context(), owner, c.Param("id")); err != nil {
		s.respondError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
