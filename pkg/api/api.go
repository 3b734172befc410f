// Package api implements the REST API for parsing and evaluating field
// constraint expressions.
package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/binspec/fieldexpr/pkg/expr"
	"github.com/binspec/fieldexpr/pkg/types"
)

// Server is the expression evaluation API server.
type Server struct {
	app *fiber.App
	// assignments provides server-wide field values merged under any
	// per-request values. Loaded at startup; nil means none.
	assignments map[string]types.Value
}

// New creates a new API server. baseAssignments may be nil.
func New(baseAssignments map[string]types.Value) *Server {
	srv := &Server{
		assignments: baseAssignments,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Post("/v1/expressions\\:evaluate", srv.evaluateExpression)
	app.Post("/v1/expressions\\:parse", srv.parseExpression)
	app.Get("/healthz", srv.health)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

type evaluateRequest struct {
	Expression  string                 `json:"expression"`
	Assignments map[string]interface{} `json:"assignments"`
}

func (s *Server) evaluateExpression(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, fmt.Sprintf("invalid request body: %v", err), nil)
	}
	if req.Expression == "" {
		return badRequest(c, "expression is required", nil)
	}

	e, err := expr.Parse(req.Expression)
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}

	assignments, err := s.buildAssignments(req.Assignments)
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}

	result, err := e.Interpret(assignments)
	if err != nil {
		var ee *types.EvalError
		if errors.As(err, &ee) {
			return badRequest(c, ee.Message, ee.Tags)
		}
		return c.Status(500).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    500,
				"message": err.Error(),
				"status":  "INTERNAL",
			},
		})
	}

	return c.JSON(fiber.Map{
		"result":   result,
		"rendered": e.String(),
	})
}

type parseRequest struct {
	Expression string `json:"expression"`
}

func (s *Server) parseExpression(c *fiber.Ctx) error {
	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, fmt.Sprintf("invalid request body: %v", err), nil)
	}
	if req.Expression == "" {
		return badRequest(c, "expression is required", nil)
	}

	e, err := expr.Parse(req.Expression)
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}

	rpn := e.RPN()
	tokens := make([]string, len(rpn))
	for i, tok := range rpn {
		tokens[i] = tok.String()
	}

	return c.JSON(fiber.Map{
		"rpn":      tokens,
		"rendered": e.String(),
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// buildAssignments converts the request's JSON assignment values and merges
// them over the server-wide base values.
func (s *Server) buildAssignments(raw map[string]interface{}) (map[string]types.Value, error) {
	merged := make(map[string]types.Value, len(s.assignments)+len(raw))
	for k, v := range s.assignments {
		merged[k] = v
	}
	for k, v := range raw {
		val, err := types.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("assignment %q: %w", k, err)
		}
		merged[k] = val
	}
	return merged, nil
}

func badRequest(c *fiber.Ctx, msg string, tags []string) error {
	errBody := fiber.Map{
		"code":    400,
		"message": msg,
		"status":  "INVALID_ARGUMENT",
	}
	if len(tags) > 0 {
		errBody["tags"] = tags
	}
	return c.Status(400).JSON(fiber.Map{
		"error": errBody,
	})
}
