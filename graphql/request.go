package graphql

import (
	"context"
	"time"
)

// Request carries one GraphQL operation, as the teacher's RequestContext
// does (graph/context.go), trimmed to what an algebra-first executor needs:
// no reflection-era resolver bookkeeping, since no resolvers are invoked.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any
	StartTime     time.Time
}

// Error is a GraphQL-shaped error entry, kept field-compatible with the
// teacher's graph.Error so handler/ can serialize it unchanged.
type Error struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Response is the outcome of executing a Request: exactly one of Data or
// Errors is meaningful, matching the teacher's single-Data-or-Errors
// Response shape (graph/context.go's Response). Data is the plain value
// tree graphql.Collector.Assemble produced by walking Cursor against the
// operation's selection set — what actually goes over the wire. Cursor is
// kept alongside it for callers (tests, extensions) that want to walk the
// result themselves instead of re-parsing Data.
type Response struct {
	Cursor     any `json:"-"` // a rowcursor.Cursor; kept untyped here to avoid importing rowcursor just for this field's type
	Data       any `json:"data,omitempty"`
	Errors     []*Error `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func newErrorResponse(err error) *Response {
	return &Response{Errors: []*Error{{Message: err.Error()}}}
}

type contextKey string

const requestKey contextKey = "mapperql:request"

// WithRequest attaches req to ctx for downstream loggers/metrics hooks.
func WithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestKey, req)
}

// RequestFromContext retrieves a Request attached by WithRequest, if any.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	req, ok := ctx.Value(requestKey).(*Request)
	return req, ok
}
