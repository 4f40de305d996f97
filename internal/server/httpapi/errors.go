package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/listings/internal/apperr"
)

type errorBody struct {
	Message string          `json:"message"`
	Data    []apperr.Detail `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders e as the JSON body used by every non-GraphQL route.
func writeError(w http.ResponseWriter, e *apperr.Error) {
	writeJSON(w, e.Status, errorBody{Message: e.Message, Data: e.Data})
}

// respondTo returns a continuation for apperr.Dispatch that writes the
// dispatched error to w. Anything that is not an *apperr.Error becomes a 500.
func respondTo(w http.ResponseWriter) func(error) {
	return func(err error) {
		e, ok := apperr.As(err)
		if !ok {
			e = apperr.Internal(err, "Internal server error.")
		}
		writeError(w, e)
	}
}
