// Package devserver is a local tasks service speaking the same HTTP/JSON
// contract as the remote one. It backs the `serve` command and gateway tests.
package devserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tasksync/internal/log"
	"tasksync/internal/task"
)

// Server routes the tasks API onto a SQLiteStore.
type Server struct {
	store  *SQLiteStore
	router *gin.Engine

	now   func() time.Time
	newID func() string
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the created_at source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithIDs overrides id generation.
func WithIDs(newID func() string) Option {
	return func(s *Server) { s.newID = newID }
}

// NewServer creates the router for store.
func NewServer(store *SQLiteStore, opts ...Option) *Server {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(accessLog{}), gin.Recovery())

	s := &Server{
		store:  store,
		router: router,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	router.GET("/healthz", s.handleHealth)
	router.GET("/tasks", s.handleList)
	router.POST("/tasks", s.handleCreate)
	router.PUT("/tasks/:id", s.handleUpdate)
	router.DELETE("/tasks/:id", s.handleDelete)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleList(c *gin.Context) {
	tasks, err := s.store.List()
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleCreate(c *gin.Context) {
	var draft task.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !draft.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	created := task.Task{
		ID:          s.newID(),
		Title:       draft.Title,
		Description: draft.Description,
		Completed:   draft.Completed,
		DueDate:     draft.DueDate,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Create(created); err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdate(c *gin.Context) {
	id := c.Param("id")

	var t task.Task
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !task.IsValidTitle(t.Title) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	// The path wins over the body.
	t.ID = id
	if err := s.store.Update(t); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.internalError(c, err)
		return
	}

	updated, err := s.store.Get(id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("id")

	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.internalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// accessLog forwards gin request lines to the info logger as it is configured
// at write time.
type accessLog struct{}

func (accessLog) Write(p []byte) (int, error) {
	log.InfoLog.Print(string(p))
	return len(p), nil
}

func (s *Server) internalError(c *gin.Context, err error) {
	log.ErrorLog.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
