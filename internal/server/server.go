// Package server exposes the Lyfeline API over HTTP with gin.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/lyfeline/internal/leaderboard"
	"github.com/abhisek/lyfeline/internal/lessons"
	"github.com/abhisek/lyfeline/internal/logger"
	"github.com/abhisek/lyfeline/internal/progress"
	"github.com/abhisek/lyfeline/internal/quiz"
	"github.com/abhisek/lyfeline/internal/shop"
	"github.com/abhisek/lyfeline/internal/store"
)

// Profiles is the profile persistence used by auth and the /me routes.
type Profiles interface {
	EnsureProfile(ctx context.Context, np store.NewProfile) (*store.Profile, error)
	GetProfile(ctx context.Context, userID string) (*store.Profile, error)
	UpdateSettings(ctx context.Context, userID string, set store.ProfileSettings) (*store.Profile, error)
	Ping(ctx context.Context) error
}

// Config holds HTTP settings.
type Config struct {
	// JWTSecret verifies HS256 access tokens.
	JWTSecret   string
	CORSOrigins []string
}

// Deps are the services behind the routes.
type Deps struct {
	Profiles Profiles
	Catalog  *lessons.Catalog
	Quiz     quiz.Generator
	Progress *progress.Service
	Shop     *shop.Service
	Board    *leaderboard.Board
	Log      *logger.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	deps   Deps
	log    *logger.Logger
	engine *gin.Engine
}

// New builds the router.
func New(cfg Config, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{cfg: cfg, deps: deps, log: log.With("component", "http")}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.POST("/generate-quiz", s.generateQuiz)
	api.GET("/lessons", s.listLessons)
	api.GET("/lessons/:id", s.getLesson)
	api.GET("/shop/items", s.shopItems)
	api.GET("/ranks", s.ranks)
	api.GET("/leaderboard", s.leaderboard)

	authed := api.Group("")
	authed.Use(Auth([]byte(cfg.JWTSecret), deps.Profiles, s.log))
	authed.POST("/purchase", s.purchase)
	authed.POST("/lessons/:id/quiz", s.lessonQuiz)
	authed.POST("/lessons/:id/complete", s.completeLesson)
	authed.GET("/me", s.me)
	authed.PATCH("/me", s.updateMe)
	authed.GET("/me/progress", s.myProgress)

	s.engine = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	if err := s.deps.Profiles.Ping(c.Request.Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		c.String(http.StatusServiceUnavailable, "database unavailable")
		return
	}
	c.String(http.StatusOK, "ok")
}
