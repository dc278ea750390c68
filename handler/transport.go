package handler

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/eddieafk/mapperql/graphql"
)

// RequestParams is the wire shape of a GraphQL-over-HTTP request, independent
// of which Transport parsed it.
type RequestParams struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Transport defines how GraphQL requests are received and responses sent.
type Transport interface {
	Supports(r *http.Request) bool
	ParseRequest(r *http.Request) (*RequestParams, error)
	WriteResponse(w http.ResponseWriter, response *graphql.Response)
}

// POST handles POST requests with a JSON (or raw `application/graphql`) body.
type POST struct {
	MaxBodySize int64
}

func NewPOST() *POST { return &POST{MaxBodySize: 1024 * 1024} }

func (t *POST) Supports(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return true
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	return mediaType == "application/json" || mediaType == "application/graphql"
}

func (t *POST) ParseRequest(r *http.Request) (*RequestParams, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	body := r.Body
	if t.MaxBodySize > 0 {
		body = http.MaxBytesReader(nil, body, t.MaxBodySize)
	}

	if mediaType == "application/graphql" {
		queryBytes, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		return &RequestParams{Query: string(queryBytes)}, nil
	}

	var params RequestParams
	if err := json.NewDecoder(body).Decode(&params); err != nil {
		return nil, err
	}
	return &params, nil
}

func (t *POST) WriteResponse(w http.ResponseWriter, response *graphql.Response) {
	writeJSON(w, response)
}

// GET handles GET requests with query-string parameters.
type GET struct {
	MaxQueryLength int
}

func NewGET() *GET { return &GET{MaxQueryLength: 2048} }

func (t *GET) Supports(r *http.Request) bool {
	return r.Method == http.MethodGet && r.URL.Query().Get("query") != ""
}

func (t *GET) ParseRequest(r *http.Request) (*RequestParams, error) {
	q := r.URL.Query()
	params := &RequestParams{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}
	if varsStr := q.Get("variables"); varsStr != "" {
		if err := json.Unmarshal([]byte(varsStr), &params.Variables); err != nil {
			return nil, err
		}
	}
	return params, nil
}

func (t *GET) WriteResponse(w http.ResponseWriter, response *graphql.Response) {
	writeJSON(w, response)
}

// OPTIONS answers CORS preflight requests.
type OPTIONS struct{}

func NewOPTIONS() *OPTIONS { return &OPTIONS{} }

func (t *OPTIONS) Supports(r *http.Request) bool { return r.Method == http.MethodOptions }

func (t *OPTIONS) ParseRequest(r *http.Request) (*RequestParams, error) {
	return &RequestParams{}, nil
}

func (t *OPTIONS) WriteResponse(w http.ResponseWriter, response *graphql.Response) {
	w.Header().Set("Allow", "OPTIONS, GET, POST")
	w.WriteHeader(http.StatusOK)
}

// SSE handles Server-Sent Events. Since this codebase answers every root
// selection with a single planned fetch (no subscriptions), SSE only ever
// pushes one event before closing — kept for transport-negotiation parity
// with a teacher GraphQL server, not because the core emits a stream.
type SSE struct{}

func NewSSE() *SSE { return &SSE{} }

func (t *SSE) Supports(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func (t *SSE) ParseRequest(r *http.Request) (*RequestParams, error) {
	return NewGET().ParseRequest(r)
}

func (t *SSE) WriteResponse(w http.ResponseWriter, response *graphql.Response) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	data, _ := json.Marshal(response)
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// Batch accepts a JSON array of operations sent in one POST.
// ParseRequestAll decodes the whole array (truncated to MaxBatchSize) and
// WriteResponseAll writes an array of responses. Through the Transport
// interface, ParseRequest yields only the first operation, so Server
// executes only that one and writes its single response, not an array.
type Batch struct {
	MaxBatchSize int
}

func NewBatch() *Batch { return &Batch{MaxBatchSize: 20} }

func (t *Batch) Supports(r *http.Request) bool {
	return r.Method == http.MethodPost && r.Header.Get("X-Batch-Request") == "true"
}

func (t *Batch) ParseRequestAll(r *http.Request) ([]*RequestParams, error) {
	body := r.Body
	var raw []RequestParams
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, err
	}
	if t.MaxBatchSize > 0 && len(raw) > t.MaxBatchSize {
		raw = raw[:t.MaxBatchSize]
	}
	out := make([]*RequestParams, len(raw))
	for i := range raw {
		out[i] = &raw[i]
	}
	return out, nil
}

func (t *Batch) ParseRequest(r *http.Request) (*RequestParams, error) {
	all, err := t.ParseRequestAll(r)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (t *Batch) WriteResponseAll(w http.ResponseWriter, responses []*graphql.Response) {
	writeJSON(w, responses)
}

func (t *Batch) WriteResponse(w http.ResponseWriter, response *graphql.Response) {
	writeJSON(w, response)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
