package httphandler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fdagency/portal/internal/application"
	"github.com/fdagency/portal/internal/domain/model"
)

const contentTypeJSON = "application/json; charset=utf-8"

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeResult relays a normalized record-system answer. The body is already
// JSON and is written without re-encoding.
func writeResult(w http.ResponseWriter, res model.ProxyResult) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(res.Status)
	_, _ = w.Write(res.Body)
}

// writeCSV sends export as a file download.
func writeCSV(w http.ResponseWriter, export *application.CSVExport) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// okResponse is the body of successful auth calls.
type okResponse struct {
	OK bool `json:"ok"`
}

// LoginRequest is the JSON body for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
	Time     string `json:"time"`
}

func toHealthResponse(report application.HealthReport) HealthResponse {
	return HealthResponse{
		Status:   report.Status,
		Upstream: report.Upstream,
		Time:     report.CheckedAt.UTC().Format(time.RFC3339),
	}
}
