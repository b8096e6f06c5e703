package application_test

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/fdagency/portal/internal/application"
	"github.com/fdagency/portal/internal/domain/model"
	"github.com/fdagency/portal/internal/domain/port/driven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csvFilename = regexp.MustCompile(`^[a-z-]+-\d{4}-\d{2}-\d{2}\.csv$`)

func TestExportService_InventoryReportCSV(t *testing.T) {
	records := &mockRecordSystem{resp: jsonResponse(http.StatusOK, `{
		"title": "Low stock",
		"generatedAt": "2026-10-01T09:00:00",
		"rows": [
			{"id": 1, "sku": "A-1", "name": "Paper, A4", "quantity": 3, "reorderLevel": 10, "updatedAt": "2026-09-30T12:00:00"},
			{"id": 2, "sku": "B-2", "name": "Toner", "quantity": 0, "reorderLevel": 2}
		]
	}`)}
	svc := application.NewExportService(application.NewProxyService(records))

	export, res, err := svc.InventoryReportCSV(context.Background(), testCredential(t))

	require.NoError(t, err)
	require.NotNil(t, export)
	assert.True(t, res.OK())
	assert.Regexp(t, csvFilename, export.Filename)
	assert.True(t, strings.HasPrefix(export.Filename, "inventory-report-"))

	want := "id,name,sku,quantity,reorderLevel,updatedAt\n" +
		"1,\"Paper, A4\",A-1,3,10,2026-09-30T12:00:00\n" +
		"2,Toner,B-2,0,2,\n"
	assert.Equal(t, want, string(export.Data))

	require.Equal(t, 1, records.calls())
	assert.Equal(t, "/api/inventory/report", records.requests[0].Path)
}

func TestExportService_PeopleReportCSV(t *testing.T) {
	records := &mockRecordSystem{resp: jsonResponse(http.StatusOK, `{
		"title": "Directory",
		"generatedAt": "2026-10-01T09:00:00",
		"rows": [
			{"id": 4, "type": "CLIENT", "code": "C-004", "firstName": "Ada", "lastName": "Byron", "email": "ada@example.com", "roleOrCompany": "Analytical Ltd"},
			{"id": 5, "type": "EMPLOYEE", "code": null, "firstName": "Grace", "lastName": "Hopper", "email": "grace@example.com", "roleOrCompany": "Engineering"}
		]
	}`)}
	svc := application.NewExportService(application.NewProxyService(records))

	export, _, err := svc.PeopleReportCSV(context.Background(), testCredential(t))

	require.NoError(t, err)
	require.NotNil(t, export)
	assert.True(t, strings.HasPrefix(export.Filename, "people-report-"))

	want := "id,type,code,firstName,lastName,email,companyName,department\n" +
		"4,CLIENT,C-004,Ada,Byron,ada@example.com,Analytical Ltd,\n" +
		"5,EMPLOYEE,,Grace,Hopper,grace@example.com,,Engineering\n"
	assert.Equal(t, want, string(export.Data))
}

func TestExportService_UpstreamFailureRelayed(t *testing.T) {
	records := &mockRecordSystem{resp: textResponse(http.StatusInternalServerError, "text/plain", "report engine crashed")}
	svc := application.NewExportService(application.NewProxyService(records))

	export, res, err := svc.InventoryReportCSV(context.Background(), testCredential(t))

	require.NoError(t, err)
	assert.Nil(t, export)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, `{"error":"report engine crashed"}`, string(res.Body))
	assert.Equal(t, model.ErrorClassUpstream, res.Class)
}

func TestExportService_MalformedReport(t *testing.T) {
	records := &mockRecordSystem{resp: jsonResponse(http.StatusOK, `{"rows":[{"id":1,"type":"VENDOR"}]}`)}
	svc := application.NewExportService(application.NewProxyService(records))

	export, _, err := svc.PeopleReportCSV(context.Background(), testCredential(t))

	assert.Nil(t, export)
	assert.ErrorIs(t, err, application.ErrMalformedReport)
}

func TestExportService_Unreachable(t *testing.T) {
	svc := application.NewExportService(application.NewProxyService(&mockRecordSystem{err: driven.ErrUpstreamUnreachable}))

	export, _, err := svc.PeopleReportCSV(context.Background(), testCredential(t))

	assert.Nil(t, export)
	assert.ErrorIs(t, err, driven.ErrUpstreamUnreachable)
}
