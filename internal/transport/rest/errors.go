package rest

import (
	"net/http"

	"github.com/heartmarshall/civic-client/internal/transport/middleware"
)

// fieldIssue is one entry of a 422 response, in the shape clients already
// parse: {"detail": [{"loc": [...], "msg": "...", "type": "..."}]}.
type fieldIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func missing(where, field string) fieldIssue {
	return fieldIssue{Loc: []string{where, field}, Msg: "field required", Type: "value_error.missing"}
}

func notFloat(where, field string) fieldIssue {
	return fieldIssue{Loc: []string{where, field}, Msg: "value is not a valid float", Type: "type_error.float"}
}

func writeUnprocessable(w http.ResponseWriter, issues []fieldIssue) {
	middleware.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": issues})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	middleware.WriteDetail(w, status, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	middleware.WriteJSON(w, status, v)
}

func writeJSONOK(w http.ResponseWriter, v any) {
	middleware.WriteJSON(w, http.StatusOK, v)
}
