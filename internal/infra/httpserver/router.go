package httpserver

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/contract-quitter/internal/application/letters"
	domai "github.com/bryanwahyu/contract-quitter/internal/domain/ai"
	"github.com/bryanwahyu/contract-quitter/internal/domain/contract"
	"github.com/bryanwahyu/contract-quitter/internal/middleware"
	"github.com/bryanwahyu/contract-quitter/pkg/logger"
)

// MissingKeyMessage is shown whenever a model-backed feature is used without a key.
const MissingKeyMessage = "API key not found. Please set the OPENAI_API_KEY environment variable."

const defaultMaxUpload = 20 << 20

//go:embed static/index.html
var static embed.FS

type Options struct {
	Pipeline       *letters.Service
	HasAPIKey      bool
	MaxUploadBytes int64
	CORSOrigins    []string
	RateLimit      int  // requests per minute per client, 0 = off
	TrustProxy     bool // take the client IP from X-Forwarded-For / X-Real-IP
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	pipeline  *letters.Service
	hasKey    bool
	maxUpload int64
}

func NewRouter(opts Options) http.Handler {
	r := &Router{pipeline: opts.Pipeline, hasKey: opts.HasAPIKey, maxUpload: opts.MaxUploadBytes}
	if r.maxUpload <= 0 {
		r.maxUpload = defaultMaxUpload
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	if opts.TrustProxy {
		mux.Use(chimw.RealIP)
	}
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Signature-Status", "X-Archive-URL", "X-Request-Id"},
		MaxAge:         300,
	}))
	if opts.RateLimit > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimit, float64(opts.RateLimit)/60))
	}

	mux.Get("/", r.handleIndex)
	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/status", r.handleStatus)
		rt.Post("/contracts/text", r.wrap(r.handleText))
		rt.Post("/contracts/analyze", r.wrap(r.requireKey(r.handleAnalyze)))
		rt.Post("/signatures", r.wrap(r.requireKey(r.handleSignature)))
		rt.Post("/letters", r.wrap(r.handleLetter))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// httpError carries a status for failures outside the pipeline stages.
type httpError struct {
	status  int
	kind    string
	message string
}

func (e *httpError) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, kind: "bad_request", message: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var (
			he *httpError
			se *contract.StageError
		)
		switch {
		case errors.As(err, &he):
			writeError(w, he.status, he.kind, he.message)
		case errors.As(err, &se):
			writeError(w, stageStatus(se), string(se.Kind), se.Message)
		default:
			logger.WithContext(req.Context()).Error("unhandled error", "error", err)
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
		}
	}
}

func (r *Router) requireKey(h handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		if !r.hasKey {
			return &httpError{status: http.StatusServiceUnavailable, kind: "configuration", message: MissingKeyMessage}
		}
		return h(w, req)
	}
}

func stageStatus(se *contract.StageError) int {
	switch se.Kind {
	case contract.KindAcquisition:
		return http.StatusUnprocessableEntity
	case contract.KindExtraction:
		if errors.Is(se, domai.ErrQuotaExceeded) {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	case contract.KindGeneration:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"kind": kind, "message": message},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /
func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "ui not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// GET /v1/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) {
	resp := map[string]any{"api_key": r.hasKey}
	if !r.hasKey {
		resp["message"] = MissingKeyMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /v1/contracts/text
// Multipart: mode=image|pdf|text, file, text
func (r *Router) handleText(w http.ResponseWriter, req *http.Request) error {
	src, err := r.readSource(w, req)
	if err != nil {
		return err
	}
	text, err := r.pipeline.Text(req.Context(), src).Unpack()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": text})
	return nil
}

// POST /v1/contracts/analyze
// Multipart as /contracts/text plus depth=basic|intermediate|advanced, risk_assessment=true
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	src, err := r.readSource(w, req)
	if err != nil {
		return err
	}
	risk, _ := strconv.ParseBool(req.FormValue("risk_assessment"))
	opts := contract.AnalysisOptions{
		Depth:          contract.ParseDepth(req.FormValue("depth")),
		RiskAssessment: risk,
	}

	res := r.pipeline.Analyze(req.Context(), src, opts)
	middleware.RecordAnalysis(res.Failed())
	a, err := res.Unpack()
	if err != nil {
		return err
	}

	dob, _ := a.Record.BirthDate()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            a.ID,
		"text":          a.Text,
		"reply":         a.Reply,
		"record":        a.Record,
		"date_of_birth": dob,
	})
	return nil
}

// POST /v1/signatures
// Body: {"name": "Jane Smith"}
func (r *Router) handleSignature(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	name := middleware.SanitizeString(body.Name)
	if name == "" {
		return badRequest("name is required")
	}
	if err := middleware.ValidateName(name); err != nil {
		return badRequest("%v", err)
	}

	res := r.pipeline.Signature(req.Context(), name)
	middleware.RecordSignature(res.Failed())
	img, err := res.Unpack()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	_, _ = w.Write(img)
	return nil
}

// POST /v1/letters
// Body: {"record": {...}, "signature": true, "signature_name": ""}
func (r *Router) handleLetter(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Record        contract.ExtractionRecord `json:"record"`
		Signature     bool                      `json:"signature"`
		SignatureName string                    `json:"signature_name"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	name := middleware.SanitizeString(body.SignatureName)
	if err := middleware.ValidateName(name); err != nil {
		return badRequest("%v", err)
	}

	res := r.pipeline.Letter(req.Context(), letters.LetterRequest{
		Record:        middleware.SanitizeRecord(body.Record),
		Signature:     body.Signature,
		SignatureName: name,
	})
	middleware.RecordLetter(res.Failed())
	letter, err := res.Unpack()
	if err != nil {
		return err
	}
	if letter.SignatureStatus != letters.SignatureSkipped {
		middleware.RecordSignature(letter.SignatureStatus == letters.SignatureFailed)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", letter.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(letter.PDF)))
	w.Header().Set("X-Signature-Status", string(letter.SignatureStatus))
	if letter.ArchiveURL != "" {
		w.Header().Set("X-Archive-URL", letter.ArchiveURL)
	}
	_, _ = w.Write(letter.PDF)
	return nil
}

func (r *Router) readSource(w http.ResponseWriter, req *http.Request) (contract.Source, error) {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return contract.Source{}, &httpError{status: http.StatusRequestEntityTooLarge, kind: "bad_request", message: "upload too large"}
		}
		return contract.Source{}, badRequest("invalid form: %v", err)
	}

	mode, err := contract.ParseMode(strings.ToLower(strings.TrimSpace(req.FormValue("mode"))))
	if err != nil {
		return contract.Source{}, badRequest("%v", err)
	}

	if mode == contract.ModeText {
		text := req.FormValue("text")
		if err := middleware.ValidateText(text); err != nil {
			return contract.Source{}, badRequest("%v", err)
		}
		return contract.Source{Mode: mode, Text: text}, nil
	}

	f, hdr, err := req.FormFile("file")
	if err != nil {
		return contract.Source{}, badRequest("file is required for mode %s", mode)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return contract.Source{}, badRequest("read upload: %v", err)
	}
	if err := middleware.ValidateUpload(mode, hdr.Filename, len(data)); err != nil {
		return contract.Source{}, badRequest("%v", err)
	}
	return contract.Source{Mode: mode, Data: data, Filename: hdr.Filename}, nil
}

func decodeJSON(req *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(req.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}
