package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"notes-api/internal/domain"
	"notes-api/internal/metrics"
	"notes-api/internal/service"
	"notes-api/internal/storage"
)

// Deps are the collaborators of the HTTP API. Exports, Metrics and Health are optional.
type Deps struct {
	Users          service.UserService
	Sessions       service.SessionService
	Notes          service.NoteService
	Exports        service.ExportService
	Metrics        *metrics.Metrics
	Health         func(ctx context.Context) error
	Logger         logrus.FieldLogger
	RequestTimeout time.Duration
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users          service.UserService
	sessions       service.SessionService
	notes          service.NoteService
	exports        service.ExportService
	metrics        *metrics.Metrics
	health         func(ctx context.Context) error
	logger         logrus.FieldLogger
	requestTimeout time.Duration
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:          deps.Users,
		sessions:       deps.Sessions,
		notes:          deps.Notes,
		exports:        deps.Exports,
		metrics:        deps.Metrics,
		health:         deps.Health,
		logger:         logger,
		requestTimeout: deps.RequestTimeout,
	}
}

// Router builds a gin engine serving every route of the API.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.CustomRecovery(h.recoverPanic))
	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(
		requestIDMiddleware(),
		h.loggingMiddleware(),
		h.metricsMiddleware(),
		corsMiddleware(),
		timeoutMiddleware(h.requestTimeout),
	)

	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, msgNotFound)
	})
	router.NoMethod(func(c *gin.Context) {
		respondError(c, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	router.GET("/health", h.healthCheck)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/logout", h.logout)
		auth.GET("/me", h.requireAuth(), h.me)
	}

	notes := router.Group("/notes", h.requireAuth())
	{
		notes.GET("", h.getNotes)
		notes.POST("", h.createNote)
		notes.PUT("", h.updateNote)
		notes.DELETE("", h.deleteNote)
		if h.exports != nil {
			notes.POST("/export", h.createExport)
			notes.GET("/exports", h.listExports)
		}
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.requestLogger(c).WithError(err).Warn("health check failed")
			respondError(c, http.StatusServiceUnavailable, "unhealthy")
			return
		}
	}
	respond(c, http.StatusOK, "ok", gin.H{"status": "ok"})
}

func (h *Handler) recoverPanic(c *gin.Context, recovered any) {
	h.requestLogger(c).WithField("panic", recovered).Error("handler panicked")
	respondError(c, http.StatusInternalServerError, msgInternal)
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type NoteResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ExportResponse struct {
	Key       string `json:"key"`
	Location  string `json:"location"`
	URL       string `json:"url"`
	Notes     int    `json:"notes"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

func noteToResponse(note domain.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: formatTime(note.CreatedAt),
		UpdatedAt: formatTime(note.UpdatedAt),
	}
}

func exportToResponse(export *service.Export) ExportResponse {
	return ExportResponse{
		Key:       export.Key,
		Location:  export.Location,
		URL:       export.URL,
		Notes:     export.Notes,
		CreatedAt: formatTime(export.CreatedAt),
		ExpiresAt: formatTime(export.ExpiresAt),
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := formatTime(*obj.LastModified)
		resp.LastModified = &v
	}
	return resp
}
