package httphandler

import (
	"net/http"

	"github.com/fdagency/portal/internal/application"
	"github.com/fdagency/portal/internal/domain/model"
)

// ListPeople searches clients and employees by the optional q parameter.
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	h.forward(w, r, cred, application.Operation{
		Method:   http.MethodGet,
		Path:     "/api/people",
		RawQuery: searchQuery(r),
		Fallback: "Failed to load people",
	})
}

// CreateClient forwards a new client record.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	h.createPerson(w, r, cred, "/api/people/clients")
}

// CreateEmployee forwards a new employee record.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	h.createPerson(w, r, cred, "/api/people/employees")
}

// UpdateClient forwards changes to an existing client.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	h.updatePerson(w, r, cred, "/api/people/clients/")
}

// UpdateEmployee forwards changes to an existing employee.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	h.updatePerson(w, r, cred, "/api/people/employees/")
}

// DeletePerson removes a client or employee.
func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	h.forward(w, r, cred, application.Operation{
		Method:   http.MethodDelete,
		Path:     "/api/people/" + id,
		Fallback: "Delete failed",
	})
}

// PeopleReport relays the record system's people report.
func (h *Handler) PeopleReport(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	h.forward(w, r, cred, application.Operation{
		Method:   http.MethodGet,
		Path:     "/api/people/report",
		Fallback: "Failed to load report",
	})
}

// PeopleReportCSV renders the people report as a CSV download.
func (h *Handler) PeopleReportCSV(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	export, res, err := h.exports.PeopleReportCSV(r.Context(), cred)
	h.writeExport(w, r, "/api/people/report", export, res, err)
}

// ListDepartments relays the department list used by the employee form.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request, cred model.Credential) {
	h.forward(w, r, cred, application.Operation{
		Method:   http.MethodGet,
		Path:     "/api/meta/departments",
		Fallback: "Failed to load departments",
	})
}

func (h *Handler) createPerson(w http.ResponseWriter, r *http.Request, cred model.Credential, path string) {
	body, ok := jsonBody(w, r)
	if !ok {
		return
	}

	h.forward(w, r, cred, application.Operation{
		Method:   http.MethodPost,
		Path:     path,
		Body:     body,
		Fallback: "Create failed",
	})
}

func (h *Handler) updatePerson(w http.ResponseWriter, r *http.Request, cred model.Credential, prefix string) {
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
		Path:     prefix + id,
		Body:     body,
		Fallback: "Update failed",
	})
}
