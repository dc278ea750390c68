package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/eddieafk/mapperql/graphql"
)

// Server is the HTTP front for an Executor: it negotiates a Transport,
// decodes a request, runs it through registered OperationInterceptor/
// ResponseInterceptor extensions, and writes the JSON response.
type Server struct {
	mu sync.RWMutex

	executor   *graphql.Executor
	transports []Transport
	extensions []Extension

	requestTimeout time.Duration
}

// Config holds server configuration.
type Config struct {
	RequestTimeout time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{RequestTimeout: 30 * time.Second}
}

// New creates a Server with default configuration.
func New(executor *graphql.Executor) *Server {
	return NewWithConfig(executor, DefaultConfig())
}

// NewWithConfig creates a Server with custom configuration.
func NewWithConfig(executor *graphql.Executor, cfg Config) *Server {
	s := &Server{
		executor:       executor,
		transports:     []Transport{NewPOST(), NewGET(), NewOPTIONS()},
		requestTimeout: cfg.RequestTimeout,
	}
	return s
}

// Use registers a transport, tried ahead of the server's defaults.
func (s *Server) Use(t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transports = append([]Transport{t}, s.transports...)
}

// UseExtension registers a server extension.
func (s *Server) UseExtension(e Extension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extensions = append(s.extensions, e)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	transports := s.transports
	s.mu.RUnlock()

	var transport Transport
	for _, t := range transports {
		if t.Supports(r) {
			transport = t
			break
		}
	}
	if transport == nil {
		http.Error(w, "unsupported request", http.StatusUnsupportedMediaType)
		return
	}

	if _, ok := transport.(*OPTIONS); ok {
		transport.WriteResponse(w, nil)
		return
	}

	params, err := transport.ParseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	resp := s.execute(ctx, params)
	transport.WriteResponse(w, resp)
}

func (s *Server) execute(ctx context.Context, params *RequestParams) *graphql.Response {
	req := &graphql.Request{
		Query:         params.Query,
		OperationName: params.OperationName,
		Variables:     params.Variables,
		StartTime:     time.Now(),
	}
	ctx = graphql.WithRequest(ctx, req)

	run := func(ctx context.Context) *graphql.Response {
		return s.executor.Execute(ctx, req)
	}

	s.mu.RLock()
	extensions := s.extensions
	s.mu.RUnlock()

	for _, e := range extensions {
		if oi, ok := e.(OperationInterceptor); ok {
			inner := run
			run = func(ctx context.Context) *graphql.Response {
				return oi.InterceptOperation(ctx, inner)
			}
		}
	}

	resp := run(ctx)

	for _, e := range extensions {
		if ri, ok := e.(ResponseInterceptor); ok {
			resp = ri.InterceptResponse(ctx, resp)
		}
		if ed, ok := e.(ExtensionData); ok {
			if resp.Extensions == nil {
				resp.Extensions = map[string]any{}
			}
			for k, v := range ed.ExtensionData(ctx) {
				resp.Extensions[k] = v
			}
		}
	}
	return resp
}
