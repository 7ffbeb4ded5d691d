package graph

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/graph-gophers/graphql-go"

	domainerrors "github.com/readlist/readlist-server/internal/errors"
	"github.com/readlist/readlist-server/internal/http/response"
)

const maxBodyBytes = 1 << 20

type readOnlyKey struct{}

// withReadOnly marks ctx as coming from a transport that must not mutate.
func withReadOnly(ctx context.Context) context.Context {
	return context.WithValue(ctx, readOnlyKey{}, true)
}

func checkWritable(ctx context.Context) error {
	if readOnly, _ := ctx.Value(readOnlyKey{}).(bool); readOnly {
		return &Error{message: "mutations must be sent with POST", code: codeBadRequest}
	}
	return nil
}

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Handler serves the schema over HTTP. POST carries a JSON body. GET reads
// query, operationName, and variables from the URL and only runs queries.
type Handler struct {
	schema *graphql.Schema
	logger *slog.Logger
}

// NewHandler creates a GraphQL HTTP handler.
func NewHandler(schema *graphql.Schema, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{schema: schema, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req Request
	switch r.Method {
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			response.HandleError(w, domainerrors.Validation("could not read request body"), h.logger)
			return
		}
		if err := json.Unmarshal(body, &req); err != nil {
			response.HandleError(w, domainerrors.Validation("request body must be a JSON object"), h.logger)
			return
		}

	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if raw := q.Get("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				response.HandleError(w, domainerrors.Validation("variables must be a JSON object"), h.logger)
				return
			}
		}
		ctx = withReadOnly(ctx)

	default:
		w.Header().Set("Allow", "GET, POST")
		response.MethodNotAllowed(w, "use GET or POST", h.logger)
		return
	}

	if req.Query == "" {
		response.HandleError(w, domainerrors.Validation("query is required"), h.logger)
		return
	}

	result := h.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to encode graphql response", "error", err)
	}
}
