package application

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"mime"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/fdagency/portal/internal/domain/model"
	"github.com/fdagency/portal/internal/domain/port/driven"
)

// okBody is returned for successful writes whose upstream body is not JSON.
var okBody = []byte(`{"ok":true}`)

// Operation describes one proxied call.
type Operation struct {
	Method   string
	Path     string
	RawQuery string
	Body     []byte
	// Fallback is the error message used when the upstream gives none.
	Fallback string
}

// ProxyService forwards browser operations to the record system and
// normalizes the answers into a single JSON shape.
type ProxyService struct {
	records   driven.RecordSystem
	sanitizer *bluemonday.Policy
}

// NewProxyService creates a ProxyService over the given record system.
func NewProxyService(records driven.RecordSystem) *ProxyService {
	policy := bluemonday.StrictPolicy()
	policy.AddSpaceWhenStrippingTag(true)

	return &ProxyService{
		records:   records,
		sanitizer: policy,
	}
}

// Forward sends op with cred attached and returns the normalized result.
// The returned error is non-nil only when no upstream answer was obtained:
// driven.ErrUpstreamUnreachable, driven.ErrUpstreamTimeout, or a context error.
func (s *ProxyService) Forward(ctx context.Context, cred model.Credential, op Operation) (model.ProxyResult, error) {
	resp, err := s.records.Do(ctx, driven.UpstreamRequest{
		Method:     op.Method,
		Path:       op.Path,
		RawQuery:   op.RawQuery,
		Body:       op.Body,
		Credential: cred,
	})
	if err != nil {
		return model.ProxyResult{}, err
	}

	return s.normalize(op, resp), nil
}

// normalize applies the response translation rules:
//  1. valid JSON with a JSON content type is relayed verbatim;
//  2. a successful write or delete without a JSON body becomes {"ok":true}/200;
//  3. anything else becomes {"error": text-or-fallback} with the upstream
//     status, or 502 when that status forbids a body.
func (s *ProxyService) normalize(op Operation, resp *driven.UpstreamResponse) model.ProxyResult {
	success := resp.Status >= 200 && resp.Status < 300
	jsonType := isJSONContentType(resp.ContentType)

	if jsonType && json.Valid(resp.Body) {
		res := model.ProxyResult{Status: resp.Status, Body: resp.Body}
		if !success {
			res.Class = model.ErrorClassUpstream
		}
		return res
	}

	if success && isWrite(op.Method) {
		return model.ProxyResult{Status: http.StatusOK, Body: okBody}
	}

	msg := s.plainText(resp.ContentType, resp.Body)
	if msg == "" {
		msg = op.Fallback
	}

	class := model.ErrorClassUpstream
	if success || jsonType {
		class = model.ErrorClassMalformed
	}

	// 204 and 205 cannot carry the error document to the browser.
	status := resp.Status
	if status == http.StatusNoContent || status == http.StatusResetContent {
		status = http.StatusBadGateway
	}

	return model.ProxyResult{
		Status: status,
		Body:   ErrorBody(msg),
		Class:  class,
	}
}

// plainText extracts a human-readable message from a non-JSON body. HTML
// error pages are reduced to their text content.
func (s *ProxyService) plainText(contentType string, body []byte) string {
	text := string(body)

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "text/html" {
		text = html.UnescapeString(s.sanitizer.Sanitize(text))
	}

	return strings.Join(strings.Fields(text), " ")
}

// ErrorBody encodes the canonical {"error": msg} document.
func ErrorBody(msg string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		return []byte(`{"error":"internal server error"}`)
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
