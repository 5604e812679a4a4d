package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/community-hub/pkg/util"
)

// Request is the client-facing GraphQL POST body. Variables stay raw: the
// gateway forwards them whole to every touched subgraph, un-interpreted.
type Request struct {
	Query         string          `json:"query"`
	OperationName string          `json:"operationName,omitempty"`
	Variables     json.RawMessage `json:"variables,omitempty"`
}

// Handler serves the gateway's /graphql endpoint: route, forward, merge.
type Handler struct {
	table     *RoutingTable
	forwarder *Forwarder
	logger    *zap.Logger
}

// NewHandler builds the gateway request handler over a composed table.
func NewHandler(table *RoutingTable, forwarder *Forwarder, logger *zap.Logger) *Handler {
	return &Handler{table: table, forwarder: forwarder, logger: logger}
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

	calls, err := Plan(h.table, req.Query, req.OperationName)
	if err != nil {
		return err
	}

	cookie := c.Get(fiber.HeaderCookie)
	authorization := c.Get(fiber.HeaderAuthorization)

	mergedData := map[string]json.RawMessage{}
	var mergedErrors []json.RawMessage
	sawData := false

	for _, call := range calls {
		body := c.Body()
		if call.Query != "" {
			body, err = json.Marshal(Request{Query: call.Query, Variables: req.Variables})
			if err != nil {
				return apperrors.NewInternalError(err)
			}
		}

		resp, setCookies, err := h.forwarder.Forward(c.UserContext(), call.URL, body, cookie, authorization)
		if err != nil {
			h.logger.Error("subgraph forward failed", zap.String("url", call.URL), zap.Error(err))
			return apperrors.NewDomainError("SUBGRAPH_UNAVAILABLE", "subgraph unavailable", http.StatusBadGateway, nil)
		}

		for _, setCookie := range setCookies {
			c.Response().Header.Add(fiber.HeaderSetCookie, setCookie)
		}

		fields, err := resp.DataFields()
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if fields != nil {
			sawData = true
			for key, value := range fields {
				mergedData[key] = value
			}
		}
		mergedErrors = append(mergedErrors, resp.Errors...)
	}

	response := fiber.Map{}
	if sawData {
		response["data"] = mergedData
	} else {
		response["data"] = nil
	}
	if len(mergedErrors) > 0 {
		response["errors"] = mergedErrors
	}
	return c.JSON(response)
}
