package graph

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/spec-kit/community-hub/internal/observability"
	"github.com/spec-kit/community-hub/internal/session"
)

// Request is the standard GraphQL-over-HTTP POST body.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler executes GraphQL operations for one subgraph. Domain failures come
// back as in-band GraphQL errors with extensions.code; the HTTP status stays
// 200 and the process never crashes on a resolver error.
type Handler struct {
	schema   graphql.Schema
	sessions *session.Middleware
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewHandler constructs the subgraph endpoint handler.
func NewHandler(schema graphql.Schema, sessions *session.Middleware, logger *zap.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{schema: schema, sessions: sessions, logger: logger, metrics: metrics}
}

// Handle serves POST /graphql.
func (h *Handler) Handle(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Query == "" {
		return fiber.NewError(http.StatusBadRequest, "query is required")
	}

	// The identity was derived by the session middleware; resolvers that set
	// or clear the cookie reach the response through the sink.
	ctx := session.WithCookieSink(c.UserContext(), &fiberCookieSink{c: c, sessions: h.sessions})

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	operation := req.OperationName
	if operation == "" {
		operation = "anonymous"
	}
	for _, gqlErr := range result.Errors {
		code := "INTERNAL_ERROR"
		if v, ok := gqlErr.Extensions["code"].(string); ok {
			code = v
		}
		if h.metrics != nil {
			h.metrics.RecordError(operation, code)
		}
		h.logger.Debug("graphql error",
			zap.String("operation", operation),
			zap.String("code", code),
			zap.String("message", gqlErr.Message))
	}

	return c.JSON(result)
}

// fiberCookieSink adapts the fiber response to the session cookie contract.
type fiberCookieSink struct {
	c        *fiber.Ctx
	sessions *session.Middleware
}

func (s *fiberCookieSink) SetSessionCookie(token string, expiresAt time.Time) {
	s.sessions.SetCookie(s.c, token, expiresAt)
}

func (s *fiberCookieSink) ClearSessionCookie() {
	s.sessions.ClearCookie(s.c)
}
