package handler

import (
	"context"
	"time"

	"github.com/eddieafk/mapperql/graphql"
)

// Extension is the base interface for server extensions.
type Extension interface {
	ExtensionName() string
}

// OperationInterceptor wraps whole-operation execution.
type OperationInterceptor interface {
	Extension
	InterceptOperation(ctx context.Context, next func(ctx context.Context) *graphql.Response) *graphql.Response
}

// ResponseInterceptor allows modification of the response before sending.
type ResponseInterceptor interface {
	Extension
	InterceptResponse(ctx context.Context, response *graphql.Response) *graphql.Response
}

// ExtensionData contributes data the server folds into the response.
type ExtensionData interface {
	Extension
	ExtensionData(ctx context.Context) map[string]any
}

// Caching handles whole-response result caching, keyed by the raw request
// text (no field-level caching, since nothing here resolves field by field).
type Caching interface {
	Extension
	GetFromCache(ctx context.Context, key string) (*graphql.Response, bool)
	SetInCache(ctx context.Context, key string, response *graphql.Response, ttl time.Duration)
}

// Tracing is a minimal timing extension, recording wall-clock duration per
// operation into the response extensions map.
type Tracing struct{ enabled bool }

func NewTracing() *Tracing { return &Tracing{enabled: true} }

func (t *Tracing) ExtensionName() string { return "tracing" }

func (t *Tracing) InterceptOperation(ctx context.Context, next func(ctx context.Context) *graphql.Response) *graphql.Response {
	if !t.enabled {
		return next(ctx)
	}
	start := time.Now()
	resp := next(ctx)
	if resp.Extensions == nil {
		resp.Extensions = map[string]any{}
	}
	resp.Extensions["tracing"] = map[string]any{"durationMs": time.Since(start).Milliseconds()}
	return resp
}
