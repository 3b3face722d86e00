package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bookclub/api/internal/auth"
	"github.com/bookclub/api/internal/graph"
	"github.com/bookclub/api/internal/middleware"
	"github.com/bookclub/api/pkg/logger"
	"github.com/bookclub/api/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	graphqlOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookclub_graphql_operations_total",
		Help: "GraphQL operations by root field and result",
	}, []string{"operation", "result"})

	graphqlOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookclub_graphql_operation_duration_seconds",
		Help:    "GraphQL operation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"operation"})
)

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type GraphQLHandler struct {
	Schema graphql.Schema
}

func NewGraphQLHandler(schema graphql.Schema) *GraphQLHandler {
	return &GraphQLHandler{Schema: schema}
}

func parseGraphQLRequest(c *fiber.Ctx) (*graphqlRequest, error) {
	req := &graphqlRequest{}
	if c.Method() == fiber.MethodGet {
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if raw := c.Query("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				return nil, err
			}
		}
		return req, nil
	}
	if err := c.BodyParser(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (h *GraphQLHandler) context(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if s, ok := middleware.SessionFrom(c); ok {
		ctx = auth.WithSession(ctx, s)
	}
	requestID, _ := c.Locals("requestID").(string)
	return graph.WithRequestInfo(ctx, graph.RequestInfo{IP: c.IP(), RequestID: requestID})
}

// selectOperation returns the operation graphql.Do will execute, or nil
// when the document does not pick exactly one.
func selectOperation(doc *ast.Document, name string) *ast.OperationDefinition {
	var selected *ast.OperationDefinition
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if name != "" {
			if op.Name != nil && op.Name.Value == name {
				return op
			}
			continue
		}
		if selected != nil {
			return nil
		}
		selected = op
	}
	return selected
}

// operationLabel names an operation by its first root field so the metric
// label set stays bounded by the schema.
func (h *GraphQLHandler) operationLabel(op *ast.OperationDefinition) string {
	if op == nil || op.SelectionSet == nil || len(op.SelectionSet.Selections) == 0 {
		return "unknown"
	}
	field, ok := op.SelectionSet.Selections[0].(*ast.Field)
	if !ok || field.Name == nil {
		return "unknown"
	}

	var root *graphql.Object
	switch op.Operation {
	case ast.OperationTypeQuery:
		root = h.Schema.QueryType()
	case ast.OperationTypeMutation:
		root = h.Schema.MutationType()
	}
	if root == nil {
		return "unknown"
	}
	if _, ok := root.Fields()[field.Name.Value]; !ok {
		return "unknown"
	}
	return field.Name.Value
}

func unauthenticated(errs []gqlerrors.FormattedError) bool {
	for _, e := range errs {
		if code, _ := e.Extensions["code"].(string); code == "UNAUTHENTICATED" {
			return true
		}
	}
	return false
}

func (h *GraphQLHandler) Handle(c *fiber.Ctx) error {
	req, err := parseGraphQLRequest(c)
	if err != nil {
		logger.Warn("graphql_bad_request", map[string]interface{}{
			"ip":    c.IP(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusBadRequest, "invalid GraphQL request")
	}
	if req.Query == "" {
		return utils.Error(c, fiber.StatusBadRequest, "query is required")
	}

	var op *ast.OperationDefinition
	if doc, err := parser.Parse(parser.ParseParams{Source: req.Query}); err == nil {
		op = selectOperation(doc, req.OperationName)
	}
	if c.Method() == fiber.MethodGet && op != nil && op.Operation != ast.OperationTypeQuery {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return utils.Error(c, fiber.StatusMethodNotAllowed, "mutations require POST")
	}
	operation := h.operationLabel(op)

	start := time.Now()
	result := graphql.Do(graphql.Params{
		Schema:         h.Schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        h.context(c),
	})
	graphqlOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if result.HasErrors() {
		outcome = "error"
		if unauthenticated(result.Errors) {
			c.Locals("authRejected", true)
		}
	}
	graphqlOperationsTotal.WithLabelValues(operation, outcome).Inc()

	return c.Status(fiber.StatusOK).JSON(result)
}
