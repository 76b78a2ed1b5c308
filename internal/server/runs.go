package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/prospector/internal/agent/core"
	"github.com/mohammad-safakhou/prospector/repository"
)

// RunsHandler serves research runs: trigger a new one, read back archived ones.
type RunsHandler struct {
	Runner Runner
	Repo   repository.RunRepository
}

func (h *RunsHandler) Register(g *echo.Group) {
	g.POST("/research", h.research)
	g.GET("/runs", h.list)
	g.GET("/runs/:id", h.get)
	g.DELETE("/runs/:id", h.delete)
}

// ResearchRequest is the POST /api/research payload.
type ResearchRequest struct {
	Email     string            `json:"email"`
	Name      string            `json:"name,omitempty"`
	Company   string            `json:"company,omitempty"`
	Role      string            `json:"role,omitempty"`
	LinkedIn  string            `json:"linkedin,omitempty"`
	UserNotes string            `json:"user_notes,omitempty"`
	Schema    map[string]string `json:"schema,omitempty"`
}

func (h *RunsHandler) research(c echo.Context) error {
	var req ResearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	runReq := core.RunRequest{
		Subject: core.Subject{
			Email:    req.Email,
			Name:     req.Name,
			Company:  req.Company,
			Role:     req.Role,
			LinkedIn: req.LinkedIn,
		},
		Schema:    core.TargetSchema(req.Schema),
		UserNotes: req.UserNotes,
	}

	result, err := h.Runner.Run(c.Request().Context(), runReq)
	if err != nil {
		var cfgErr *core.ConfigurationError
		var malformed *core.MalformedInputError
		if errors.As(err, &cfgErr) || errors.As(err, &malformed) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	if h.Repo != nil {
		if err := h.Repo.SaveRun(c.Request().Context(), result); err != nil {
			// archive failure must not fail the run the caller paid for
			c.Logger().Errorf("archive run %s: %v", result.ID, err)
		}
	}
	return c.JSON(http.StatusOK, result)
}

func (h *RunsHandler) list(c echo.Context) error {
	runs, err := h.Repo.ListRuns(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if runs == nil {
		runs = []core.RunResult{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (h *RunsHandler) get(c echo.Context) error {
	run, err := h.Repo.GetRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "run not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, run)
}

func (h *RunsHandler) delete(c echo.Context) error {
	if err := h.Repo.DeleteRun(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "run not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
