// Package api contains the HTTP handlers for the workflow service
package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nodeflow/nodeflow/internal/eval"
	"github.com/nodeflow/nodeflow/internal/node"
	"github.com/nodeflow/nodeflow/internal/store"
	"github.com/nodeflow/nodeflow/internal/workflow"
)

// Server holds the dependencies for the API server.
type Server struct {
	Repo     store.Repository
	Launcher *eval.Launcher
	TasksDir string
}

// NewServer creates a new Server.
func NewServer(repo store.Repository, launcher *eval.Launcher, tasksDir string) *Server {
	return &Server{Repo: repo, Launcher: launcher, TasksDir: tasksDir}
}

// Register mounts the API routes on the echo instance
func (s *Server) Register(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/workflows", s.ListWorkflows)
	g.GET("/workflows/:id", s.GetWorkflow)
	g.PUT("/workflows", s.PutWorkflow)
	g.GET("/evals", s.ListEvals)
	g.POST("/evals/launch", s.LaunchEval)
}

// ListWorkflows returns a list of all workflows
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	ctx := c.Request().Context()

	workflows, err := s.Repo.List(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, workflows)
}

// GetWorkflow returns a single workflow by id
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	wf, err := s.Repo.Get(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, wf)
}

// PutWorkflow creates or updates a workflow
// (PUT /api/v1/workflows)
func (s *Server) PutWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	var wf store.Workflow
	if err := c.Bind(&wf); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	if err := wf.Definition.ValidateStructure(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid workflow definition: "+err.Error())
	}

	// A new workflow gets a generated id; a present id is an update.
	if wf.ID == "" {
		wf.ID = uuid.New().String()
	}
	if wf.Name == "" {
		wf.Name = wf.Definition.Name
	}

	if err := s.Repo.Save(ctx, &wf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save workflow: "+err.Error())
	}

	return c.JSON(http.StatusOK, wf)
}

// ListEvals returns all available eval tasks
// (GET /api/v1/evals)
func (s *Server) ListEvals(c echo.Context) error {
	tasks, err := eval.ListTasks(s.TasksDir)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, tasks)
}

// LaunchEval validates and launches an eval job against a stored workflow
// (POST /api/v1/evals/launch)
func (s *Server) LaunchEval(c echo.Context) error {
	ctx := c.Request().Context()

	var req eval.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	wf, err := s.Repo.Get(ctx, req.WorkflowID)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	task, err := eval.FindTask(s.TasksDir, req.EvalName)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Eval configuration not found")
	}

	report, err := s.Launcher.Launch(ctx, &wf.Definition, req, task.Sampler())
	if err != nil {
		var cfgErr *node.ConfigurationError
		var integrityErr *workflow.GraphIntegrityError
		if errors.As(err, &cfgErr) || errors.As(err, &integrityErr) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Error launching eval: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"results": report,
	})
}
