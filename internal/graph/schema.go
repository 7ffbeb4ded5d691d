// Package graph exposes the readlist services as a GraphQL schema.
package graph

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

const maxQueryDepth = 10

// SDL returns the schema definition served by this package.
func SDL() string {
	return schemaSDL
}

// NewSchema parses the schema and binds it to r.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(schemaSDL, r,
		graphql.UseFieldResolvers(),
		graphql.MaxDepth(maxQueryDepth),
		graphql.Logger(panicLogger{logger: r.logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return schema, nil
}

// panicLogger reports resolver panics through slog.
type panicLogger struct {
	logger *slog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value any) {
	l.logger.ErrorContext(ctx, "graphql resolver panic", "panic", fmt.Sprint(value))
}
