package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fdagency/portal/internal/application"
	"github.com/fdagency/portal/internal/domain/model"
	"github.com/fdagency/portal/internal/domain/port/driven"
)

// maxBodyBytes caps request bodies forwarded to the record system.
const maxBodyBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the portal API.
type Handler struct {
	sessions      *application.SessionService
	proxy         *application.ProxyService
	exports       *application.ExportService
	health        *application.HealthService
	secureCookies bool
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. secureCookies
// sets the Secure flag on the session cookie.
func NewHandler(
	sessions *application.SessionService,
	proxy *application.ProxyService,
	exports *application.ExportService,
	health *application.HealthService,
	secureCookies bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		sessions:      sessions,
		proxy:         proxy,
		exports:       exports,
		health:        health,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// registerRoutes registers every portal route on mux.
func registerRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/health", h.Health)

	mux.HandleFunc("GET /api/inventory", h.authenticated(h.ListInventory))
	mux.HandleFunc("POST /api/inventory", h.authenticated(h.CreateInventoryItem))
	mux.HandleFunc("PUT /api/inventory/{id}", h.authenticated(h.UpdateInventoryItem))
	mux.HandleFunc("DELETE /api/inventory/{id}", h.authenticated(h.DeleteInventoryItem))
	mux.HandleFunc("GET /api/inventory/report", h.authenticated(h.InventoryReport))
	mux.HandleFunc("GET /api/inventory/report.csv", h.authenticated(h.InventoryReportCSV))

	mux.HandleFunc("GET /api/people", h.authenticated(h.ListPeople))
	mux.HandleFunc("POST /api/people/clients", h.authenticated(h.CreateClient))
	mux.HandleFunc("PUT /api/people/clients/{id}", h.authenticated(h.UpdateClient))
	mux.HandleFunc("POST /api/people/employees", h.authenticated(h.CreateEmployee))
	mux.HandleFunc("PUT /api/people/employees/{id}", h.authenticated(h.UpdateEmployee))
	mux.HandleFunc("GET /api/people/report", h.authenticated(h.PeopleReport))
	mux.HandleFunc("GET /api/people/report.csv", h.authenticated(h.PeopleReportCSV))
	mux.HandleFunc("DELETE /api/people/{id}", h.authenticated(h.DeletePerson))

	mux.HandleFunc("GET /api/meta/departments", h.authenticated(h.ListDepartments))
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with the standard middleware chain.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	registerRoutes(mux, h)
	return applyMiddleware(mux, logger)
}

// credentialHandlerFunc is a handler that runs with a resolved credential.
type credentialHandlerFunc func(w http.ResponseWriter, r *http.Request, cred model.Credential)

// authenticated resolves the session credential before anything else about
// the request is inspected. Without one the request is answered 401 and the
// record system is never called.
func (h *Handler) authenticated(next credentialHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cred, err := h.sessions.Resolve(r.Context(), sessionCookie(r))
		if err != nil {
			h.logger.Error("failed to resolve session", "error", err, "request_id", requestIDFrom(r.Context()))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if cred.IsZero() {
			h.logger.Debug("unauthenticated request", "class", model.ErrorClassUnauthenticated, "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		next(w, r, cred)
	}
}

// forward runs op against the record system and writes the normalized answer.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request, cred model.Credential, op application.Operation) {
	res, err := h.proxy.Forward(r.Context(), cred, op)
	if err != nil {
		h.writeUpstreamError(w, r, op.Path, err)
		return
	}

	if res.Class != "" {
		h.logger.Warn("record system error",
			"method", op.Method,
			"upstream_path", op.Path,
			"status", res.Status,
			"class", res.Class,
			"request_id", requestIDFrom(r.Context()),
		)
	}

	writeResult(w, res)
}

// writeUpstreamError maps a failed record-system call to a response. When the
// browser has gone away nothing is written.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, r *http.Request, path string, err error) {
	reqID := requestIDFrom(r.Context())

	switch {
	case r.Context().Err() != nil:
		h.logger.Debug("client canceled request", "upstream_path", path, "request_id", reqID)
	case errors.Is(err, driven.ErrUpstreamTimeout):
		h.logger.Warn("record system timed out", "upstream_path", path, "class", model.ErrorClassTimeout, "request_id", reqID)
		writeError(w, http.StatusGatewayTimeout, "Record system timed out")
	case errors.Is(err, driven.ErrUpstreamResponseTooLarge):
		h.logger.Error("record system response too large", "upstream_path", path, "class", model.ErrorClassMalformed, "request_id", reqID)
		writeError(w, http.StatusBadGateway, "Record system response too large")
	case errors.Is(err, driven.ErrUpstreamUnreachable):
		h.logger.Error("record system unreachable", "upstream_path", path, "class", model.ErrorClassUnreachable, "error", err, "request_id", reqID)
		writeError(w, http.StatusBadGateway, "Record system unreachable")
	case errors.Is(err, context.Canceled):
		h.logger.Debug("upstream call canceled", "upstream_path", path, "request_id", reqID)
	default:
		h.logger.Error("record system call failed", "upstream_path", path, "error", err, "request_id", reqID)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathID validates the {id} path segment. It writes a 400 and returns false
// when the id is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return strconv.FormatInt(id, 10), true
}

// jsonBody reads a request body that must be a JSON document. The bytes are
// returned untouched for verbatim forwarding.
func jsonBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}

	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	return body, true
}

// uriComponentUnescapes restores the characters encodeURIComponent leaves
// as-is but url.QueryEscape encodes.
var uriComponentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// searchQuery builds the upstream query string. The record system always
// receives q, empty when the browser sent none, percent-encoded the way
// browsers encode URI components.
func searchQuery(r *http.Request) string {
	q := r.URL.Query().Get("q")
	return "q=" + uriComponentUnescapes.Replace(url.QueryEscape(q))
}
