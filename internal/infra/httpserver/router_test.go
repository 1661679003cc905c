package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/contract-quitter/internal/application/acquire"
	appai "github.com/bryanwahyu/contract-quitter/internal/application/ai"
	"github.com/bryanwahyu/contract-quitter/internal/application/letters"
	domai "github.com/bryanwahyu/contract-quitter/internal/domain/ai"
	"github.com/bryanwahyu/contract-quitter/internal/domain/contract"
	"github.com/bryanwahyu/contract-quitter/internal/infra/render"
	"github.com/bryanwahyu/contract-quitter/internal/middleware"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeModel struct {
	reply string
	err   error
	calls int
}

func (f *fakeModel) Complete(context.Context, string, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type emptyPDF struct{}

func (emptyPDF) ExtractText(context.Context, []byte) (string, error) { return "", nil }

type fakeSigner struct {
	res contract.Result[contract.SignatureImage]
}

func (f fakeSigner) Generate(context.Context, string) contract.Result[contract.SignatureImage] {
	return f.res
}

// pdfString is how fpdf writes s inside a text operator with a UTF-8 font.
func pdfString(s string) string {
	var b strings.Builder
	for _, u := range utf16.Encode([]rune(s)) {
		b.WriteByte(byte(u >> 8))
		b.WriteByte(byte(u))
	}
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, "\r", `\r`).Replace(b.String())
}

const contosoReply = "Company: Contoso\nContract Number: A-001\nQuitting Party: Jane Smith"

func newServer(t *testing.T, model *fakeModel, hasKey bool) *httptest.Server {
	t.Helper()
	return newServerWith(t, model, Options{HasAPIKey: hasKey})
}

func newServerWith(t *testing.T, model *fakeModel, opts Options) *httptest.Server {
	t.Helper()
	hasKey := opts.HasAPIKey
	clock := fixedClock{time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}
	renderer, err := render.NewLetterRenderer(render.Options{Language: "en"}, clock)
	require.NoError(t, err)

	pipeline := &letters.Service{
		Acquirer:  &acquire.Service{PDF: emptyPDF{}},
		Extractor: appai.NewService(model, time.Second),
		Signer:    fakeSigner{res: contract.Fail[contract.SignatureImage](contract.KindGeneration, "signature generation failed", errors.New("boom"))},
		Renderer:  renderer,
		Clock:     clock,
	}
	opts.Pipeline = pipeline
	opts.HealthCheckers = map[string]middleware.HealthChecker{
		"openai": middleware.APIKeyChecker{Configured: hasKey},
	}
	srv := httptest.NewServer(NewRouter(opts))
	t.Cleanup(srv.Close)
	return srv
}

func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func postForm(t *testing.T, url string, fields map[string]string, filename string, file []byte) *http.Response {
	t.Helper()
	body, ct := multipartBody(t, fields, filename, file)
	resp, err := http.Post(url, ct, body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIndexAndHealthEndpoints(t *testing.T) {
	srv := newServer(t, &fakeModel{}, true)

	for path, status := range map[string]int{"/": 200, "/health": 200, "/ready": 200, "/live": 200, "/metrics": 200} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, status, resp.StatusCode, path)
	}

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestMissingAPIKey(t *testing.T) {
	model := &fakeModel{reply: contosoReply}
	srv := newServer(t, model, false)

	resp := postForm(t, srv.URL+"/v1/contracts/analyze", map[string]string{"mode": "text", "text": "contract"}, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, MissingKeyMessage, decodeError(t, resp).Error.Message)
	assert.Equal(t, 0, model.calls)

	status, err := http.Get(srv.URL + "/v1/status")
	require.NoError(t, err)
	defer status.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(status.Body).Decode(&body))
	assert.Equal(t, false, body["api_key"])
	assert.Equal(t, MissingKeyMessage, body["message"])

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, health.StatusCode)

	// text acquisition works without a key
	text := postForm(t, srv.URL+"/v1/contracts/text", map[string]string{"mode": "text", "text": "hello"}, "", nil)
	assert.Equal(t, http.StatusOK, text.StatusCode)
}

func TestText(t *testing.T) {
	srv := newServer(t, &fakeModel{}, true)

	resp := postForm(t, srv.URL+"/v1/contracts/text", map[string]string{"mode": "text", "text": "Company: Acme"}, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Company: Acme", body["text"])

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		status   int
		kind     string
	}{
		{"unknown mode", map[string]string{"mode": "docx"}, "", http.StatusBadRequest, "bad_request"},
		{"blank text", map[string]string{"mode": "text", "text": "  "}, "", http.StatusBadRequest, "bad_request"},
		{"missing file", map[string]string{"mode": "pdf"}, "", http.StatusBadRequest, "bad_request"},
		{"wrong extension", map[string]string{"mode": "pdf"}, "scan.png", http.StatusBadRequest, "bad_request"},
		{"pdf without text", map[string]string{"mode": "pdf"}, "contract.pdf", http.StatusUnprocessableEntity, "acquisition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postForm(t, srv.URL+"/v1/contracts/text", tt.fields, tt.filename, []byte("%PDF-1.4"))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.kind, decodeError(t, resp).Error.Kind)
		})
	}
}

func TestAnalyze(t *testing.T) {
	model := &fakeModel{reply: contosoReply + "\nDate of Birth: 1990-01-01"}
	srv := newServer(t, model, true)

	resp := postForm(t, srv.URL+"/v1/contracts/analyze", map[string]string{"mode": "text", "text": "contract", "depth": "advanced"}, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ID          string                    `json:"id"`
		Text        string                    `json:"text"`
		Reply       string                    `json:"reply"`
		Record      contract.ExtractionRecord `json:"record"`
		DateOfBirth string                    `json:"date_of_birth"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "contract", body.Text)
	assert.Equal(t, []string{"Contoso"}, body.Record.Company)
	assert.Equal(t, []string{"1990-01-01"}, body.Record.DateOfBirth)
	assert.Empty(t, body.DateOfBirth)
}

func TestAnalyzeFailures(t *testing.T) {
	t.Run("empty pdf never reaches the model", func(t *testing.T) {
		model := &fakeModel{reply: contosoReply}
		srv := newServer(t, model, true)
		resp := postForm(t, srv.URL+"/v1/contracts/analyze", map[string]string{"mode": "pdf"}, "c.pdf", []byte("%PDF-1.4"))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, 0, model.calls)
	})

	t.Run("quota", func(t *testing.T) {
		srv := newServer(t, &fakeModel{err: fmt.Errorf("create: %w", domai.ErrQuotaExceeded)}, true)
		resp := postForm(t, srv.URL+"/v1/contracts/analyze", map[string]string{"mode": "text", "text": "x"}, "", nil)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "extraction", body.Error.Kind)
		assert.Equal(t, "ai quota exceeded", body.Error.Message)
	})

	t.Run("unparseable reply", func(t *testing.T) {
		srv := newServer(t, &fakeModel{reply: "Firma: Contoso"}, true)
		resp := postForm(t, srv.URL+"/v1/contracts/analyze", map[string]string{"mode": "text", "text": "x"}, "", nil)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "analysis failed", decodeError(t, resp).Error.Message)
	})
}

func TestLetter(t *testing.T) {
	srv := newServer(t, &fakeModel{}, true)

	resp := postJSON(t, srv.URL+"/v1/letters", `{"record":{"company":["Contoso"],"contract_number":["A-001"],"quitting_party":["Jane Smith"]}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="termination_contract.pdf"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "skipped", resp.Header.Get("X-Signature-Status"))
	assert.Empty(t, resp.Header.Get("X-Archive-URL"))

	var pdf bytes.Buffer
	_, err := pdf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, pdf.String(), pdfString("Contoso"))
	assert.NotContains(t, pdf.String(), pdfString("Date of Birth"))
}

func TestLetterSignatureDegrades(t *testing.T) {
	srv := newServer(t, &fakeModel{}, true)
	resp := postJSON(t, srv.URL+"/v1/letters", `{"record":{"quitting_party":["Jane Smith"]},"signature":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "failed", resp.Header.Get("X-Signature-Status"))
}

func TestLetterBadInput(t *testing.T) {
	srv := newServer(t, &fakeModel{}, true)
	for _, body := range []string{`{`, `{"record":{},"unknown":1}`, `{"signature_name":"` + strings.Repeat("x", 101) + `"}`} {
		resp := postJSON(t, srv.URL+"/v1/letters", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestSignature(t *testing.T) {
	srv := newServer(t, &fakeModel{}, true)

	resp := postJSON(t, srv.URL+"/v1/signatures", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/v1/signatures", `{"name":"Jane Smith"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "generation", decodeError(t, resp).Error.Kind)
}

func getStatus(t *testing.T, url, forwardedFor string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url+"/v1/status", nil)
	require.NoError(t, err)
	req.Header.Set("X-Forwarded-For", forwardedFor)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRateLimitByConnection(t *testing.T) {
	srv := newServerWith(t, &fakeModel{}, Options{HasAPIKey: true, RateLimit: 1})

	assert.Equal(t, http.StatusOK, getStatus(t, srv.URL, "1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, getStatus(t, srv.URL, "2.2.2.2"))
}

func TestRateLimitBehindTrustedProxy(t *testing.T) {
	srv := newServerWith(t, &fakeModel{}, Options{HasAPIKey: true, RateLimit: 1, TrustProxy: true})

	assert.Equal(t, http.StatusOK, getStatus(t, srv.URL, "1.1.1.1"))
	assert.Equal(t, http.StatusOK, getStatus(t, srv.URL, "2.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, getStatus(t, srv.URL, "1.1.1.1"))
}
