package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fdagency/portal/internal/domain/model"
)

// ErrMalformedReport is returned when a successful report response cannot
// be decoded into rows.
var ErrMalformedReport = errors.New("malformed report from record system")

// CSVExport is a rendered CSV download.
type CSVExport struct {
	Filename string
	Data     []byte
}

var inventoryCSVHeader = []string{"id", "name", "sku", "quantity", "reorderLevel", "updatedAt"}

// peopleCSVHeader splits roleOrCompany into its two typed meanings.
var peopleCSVHeader = []string{"id", "type", "code", "firstName", "lastName", "email", "companyName", "department"}

// ExportService turns record-system reports into CSV downloads.
type ExportService struct {
	proxy *ProxyService
	now   func() time.Time
}

// NewExportService creates an ExportService that fetches reports through proxy.
func NewExportService(proxy *ProxyService) *ExportService {
	return &ExportService{proxy: proxy, now: time.Now}
}

// InventoryReportCSV fetches the inventory report and renders it as CSV.
// When the upstream call does not succeed, export is nil and the normalized
// upstream result is returned for relaying.
func (s *ExportService) InventoryReportCSV(ctx context.Context, cred model.Credential) (*CSVExport, model.ProxyResult, error) {
	var report model.Report[model.InventoryItem]
	res, err := s.fetch(ctx, cred, "/api/inventory/report", &report)
	if err != nil || !res.OK() || res.Class != "" {
		return nil, res, err
	}

	records := make([][]string, 0, len(report.Rows))
	for _, it := range report.Rows {
		records = append(records, []string{
			strconv.FormatInt(it.ID, 10),
			it.Name,
			it.SKU,
			strconv.Itoa(it.Quantity),
			strconv.Itoa(it.ReorderLevel),
			it.UpdatedAt,
		})
	}

	return s.render("inventory-report", inventoryCSVHeader, records, res)
}

// PeopleReportCSV fetches the people report and renders it as CSV with the
// role-dependent field split into companyName and department columns.
func (s *ExportService) PeopleReportCSV(ctx context.Context, cred model.Credential) (*CSVExport, model.ProxyResult, error) {
	var report model.Report[model.Person]
	res, err := s.fetch(ctx, cred, "/api/people/report", &report)
	if err != nil || !res.OK() || res.Class != "" {
		return nil, res, err
	}

	records := make([][]string, 0, len(report.Rows))
	for _, p := range report.Rows {
		var company, department string
		switch role := p.Role.(type) {
		case model.ClientRole:
			company = role.CompanyName
		case model.EmployeeRole:
			department = role.Department
		}

		records = append(records, []string{
			strconv.FormatInt(p.ID, 10),
			string(p.Role.Kind()),
			p.Code,
			p.FirstName,
			p.LastName,
			p.Email,
			company,
			department,
		})
	}

	return s.render("people-report", peopleCSVHeader, records, res)
}

func (s *ExportService) fetch(ctx context.Context, cred model.Credential, path string, into any) (model.ProxyResult, error) {
	res, err := s.proxy.Forward(ctx, cred, Operation{
		Method:   http.MethodGet,
		Path:     path,
		Fallback: "Failed to load report",
	})
	if err != nil || !res.OK() || res.Class != "" {
		return res, err
	}

	if err := json.Unmarshal(res.Body, into); err != nil {
		return res, fmt.Errorf("%w: %s: %v", ErrMalformedReport, path, err)
	}
	return res, nil
}

func (s *ExportService) render(name string, header []string, records [][]string, res model.ProxyResult) (*CSVExport, model.ProxyResult, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, res, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		return nil, res, fmt.Errorf("write csv rows: %w", err)
	}

	return &CSVExport{
		Filename: fmt.Sprintf("%s-%s.csv", name, s.now().UTC().Format(time.DateOnly)),
		Data:     buf.Bytes(),
	}, res, nil
}
