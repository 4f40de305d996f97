package gql

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/listings/internal/apperr"
	"github.com/dmitrijs2005/listings/internal/logging"
	"github.com/dmitrijs2005/listings/internal/server/metrics"
	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
)

const (
	maxBodyBytes    = 1 << 20
	maxQueryDepth   = 12
	internalMessage = "Internal server error."
)

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type errorEntry struct {
	Message   string               `json:"message"`
	Data      []apperr.Detail      `json:"data,omitempty"`
	Status    int                  `json:"status,omitempty"`
	Locations []gqlerrors.Location `json:"locations,omitempty"`
	Path      []interface{}        `json:"path,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []errorEntry    `json:"errors,omitempty"`
}

// Handler serves GraphQL over HTTP. GET renders GraphiQL, POST executes.
type Handler struct {
	schema *graphql.Schema
	log    logging.Logger
}

// NewHandler serves the schema bound to resolver.
func NewHandler(resolver *Resolver, log logging.Logger) *Handler {
	return &Handler{
		schema: graphql.MustParseSchema(Schema, resolver, graphql.MaxDepth(maxQueryDepth)),
		log:    log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	var req request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug(r.Context(), "bad graphql request body", "error", err)
		writeJSON(w, http.StatusBadRequest, response{Errors: []errorEntry{{
			Message: "Must provide a JSON body with a query.",
			Status:  http.StatusBadRequest,
		}}})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, response{Errors: []errorEntry{{
			Message: "Must provide query string.",
			Status:  http.StatusBadRequest,
		}}})
		return
	}

	res := h.schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)

	out := response{Data: res.Data, Errors: make([]errorEntry, 0, len(res.Errors))}
	for _, qe := range res.Errors {
		entry := formatError(qe)
		metrics.IncrementGraphQLError(entry.Status)
		out.Errors = append(out.Errors, entry)
	}

	writeJSON(w, statusFor(out), out)
}

// formatError turns an engine error into the client-facing entry. Errors
// raised by resolvers carry their own status. Anything else raised during
// execution (including recovered panics, which have a path but no resolver
// error) is reported as 500 without its text. Query errors found before
// execution are 400.
func formatError(qe *gqlerrors.QueryError) errorEntry {
	entry := errorEntry{
		Message:   qe.Message,
		Locations: qe.Locations,
		Path:      qe.Path,
	}

	if qe.ResolverError == nil && len(qe.Path) == 0 {
		entry.Status = http.StatusBadRequest
		return entry
	}

	if e, ok := apperr.As(qe.ResolverError); ok {
		entry.Message = e.Message
		entry.Status = e.Status
		entry.Data = e.Data
		return entry
	}

	entry.Message = internalMessage
	entry.Status = http.StatusInternalServerError
	return entry
}

func statusFor(out response) int {
	if hasData(out.Data) || len(out.Errors) == 0 {
		return http.StatusOK
	}
	return out.Errors[0].Status
}

func hasData(data json.RawMessage) bool {
	d := bytes.TrimSpace(data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
