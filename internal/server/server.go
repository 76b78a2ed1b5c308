package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/prospector/config"
	"github.com/mohammad-safakhou/prospector/internal/agent/core"
	"github.com/mohammad-safakhou/prospector/repository"
)

// Runner executes one research run. Satisfied by *core.Controller.
type Runner interface {
	Run(ctx context.Context, req core.RunRequest) (core.RunResult, error)
}

// Server exposes the research workflow over HTTP.
type Server struct {
	config *config.Config
	runner Runner
	repo   repository.RunRepository
	logger *log.Logger
}

func New(cfg *config.Config, runner Runner, repo repository.RunRepository) *Server {
	return &Server{
		config: cfg,
		runner: runner,
		repo:   repo,
		logger: log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}
}

// Echo builds the routed echo instance. Split from Start so tests can drive
// handlers without a listener.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	if s.config.Server.JWTSecret != "" {
		secret := []byte(s.config.Server.JWTSecret)
		api.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	}

	rh := &RunsHandler{Runner: s.runner, Repo: s.repo}
	rh.Register(api)

	return e
}

func (s *Server) Start() error {
	addr := s.config.Server.Address
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("listening on %s", addr)
	return s.Echo().Start(addr)
}
