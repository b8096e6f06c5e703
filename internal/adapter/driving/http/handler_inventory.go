package httphandler

import (
	"errors"
	"net/http"

	"github.com/fdagency/portal/internal/application"
	"github.com/fdagency/portal/internal/domain/model"
)

// ListInventory searches inventory items by the optional q parameter.
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	h.forward(w, r, cred, application.Operation{
		Method:   http.MethodGet,
		Path:     "/api/inventory",
		RawQuery: searchQuery(r),
		Fallback: "Failed to load inventory",
	})
}

// CreateInventoryItem forwards a new inventory item.
func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	body, ok := jsonBody(w, r)
	if !ok {
		return
	}

	h.forward(w, r, cred, application.Operation{
		Method:   http.MethodPost,
		Path:     "/api/inventory",
		Body:     body,
		Fallback: "Create failed",
	})
}

// UpdateInventoryItem forwards changes to an existing inventory item.
func (h *Handler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	body, ok := jsonBody(w, r)
	if !ok {
		return
	}

	h.forward(w, r, cred, application.Operation{
		Method:   http.MethodPut,
		Path:     "/api/inventory/" + id,
		Body:     body,
		Fallback: "Update failed",
	})
}

// DeleteInventoryItem removes an inventory item.
func (h *Handler) DeleteInventoryItem(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	h.forward(w, r, cred, application.Operation{
		Method:   http.MethodDelete,
		Path:     "/api/inventory/" + id,
		Fallback: "Delete failed",
	})
}

// InventoryReport relays the record system's inventory report.
func (h *Handler) InventoryReport(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	h.forward(w, r, cred, application.Operation{
		Method:   http.MethodGet,
		Path:     "/api/inventory/report",
		Fallback: "Failed to load report",
	})
}

// InventoryReportCSV renders the inventory report as a CSV download.
func (h *Handler) InventoryReportCSV(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	export, res, err := h.exports.InventoryReportCSV(r.Context(), cred)
	h.writeExport(w, r, "/api/inventory/report", export, res, err)
}

func (h *Handler) writeExport(w http.ResponseWriter, r *http.Request, path string, export *application.CSVExport, res model.ProxyResult, err error) {
	switch {
	case errors.Is(err, application.ErrMalformedReport):
		h.logger.Warn("report could not be decoded", "upstream_path", path, "error", err, "request_id", requestIDFrom(r.Context()))
		writeError(w, http.StatusBadGateway, "Failed to load report")
	case err != nil:
		h.writeUpstreamError(w, r, path, err)
	case export == nil:
		writeResult(w, res)
	default:
		writeCSV(w, export)
	}
}
