package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
	"github.com/matrixlabs/ai-converter/internal/core/ports"
	"github.com/matrixlabs/ai-converter/internal/observability/metrics"
)

type Router struct {
	converter ports.TabularConverter
	submitter ports.JobSubmitter
	jobs      ports.JobReader
	metrics   *metrics.HTTPServerMetrics
	service   string

	maxUploadSize    int64
	defaultThreshold float64
	defaultUseAI     bool
}

type RouterConfig struct {
	Service             string
	MaxUploadSize       int64
	ConfidenceThreshold float64
	UseAIByDefault      bool
}

func NewRouter(
	converter ports.TabularConverter,
	submitter ports.JobSubmitter,
	jobs ports.JobReader,
	serverMetrics *metrics.HTTPServerMetrics,
	cfg RouterConfig,
) *Router {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 10 << 20
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 70
	}
	return &Router{
		converter:        converter,
		submitter:        submitter,
		jobs:             jobs,
		metrics:          serverMetrics,
		service:          cfg.Service,
		maxUploadSize:    cfg.MaxUploadSize,
		defaultThreshold: cfg.ConfidenceThreshold,
		defaultUseAI:     cfg.UseAIByDefault,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/convert/json", rt.convertToJSON)
	mux.HandleFunc("/v1/convert/spreadsheet", rt.convertToSpreadsheet)
	mux.HandleFunc("/v1/convert/sql", rt.convertToSQL)
	mux.HandleFunc("/v1/conversions", rt.submitConversion)
	mux.HandleFunc("/v1/conversions/", rt.getConversionByID)

	var handler http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) convertToJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	payload, filename, req, err := rt.readUpload(r, domain.TargetJSON)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := rt.converter.ConvertToJSON(r.Context(), payload, filename, req)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordConversion(domain.TargetJSON, result)
	writeJSON(w, http.StatusOK, conversionResponse{
		Status:   result.Status,
		Data:     json.RawMessage(result.Data),
		Metadata: result.Metadata,
	})
}

func (rt *Router) convertToSpreadsheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	payload, _, req, err := rt.readUpload(r, domain.TargetSpreadsheet)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := rt.converter.ConvertToSpreadsheet(r.Context(), payload, req)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordConversion(domain.TargetSpreadsheet, result)

	meta, err := json.Marshal(result.Metadata)
	if err == nil {
		w.Header().Set("X-Conversion-Metadata", string(meta))
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Metadata.FileInfo.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Binary)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Binary)
}

func (rt *Router) convertToSQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	payload, filename, req, err := rt.readUpload(r, domain.TargetSQL)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := rt.converter.ConvertToSQL(r.Context(), payload, filename, req)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.recordConversion(domain.TargetSQL, result)
	writeJSON(w, http.StatusOK, conversionResponse{
		Status:   result.Status,
		SQL:      result.SQL,
		Metadata: result.Metadata,
	})
}

func (rt *Router) submitConversion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	target := domain.TargetFormat(strings.TrimSpace(r.FormValue("target_format")))
	switch target {
	case domain.TargetJSON, domain.TargetSpreadsheet, domain.TargetSQL:
	case "":
		target = domain.TargetJSON
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported target_format"})
		return
	}

	payload, filename, req, err := rt.readUpload(r, target)
	if err != nil {
		writeError(w, err)
		return
	}

	job, err := rt.submitter.Submit(r.Context(), filename, payload, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) getConversionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/conversions/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return
	}

	job, err := rt.jobs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type conversionResponse struct {
	Status   string                    `json:"status"`
	Data     json.RawMessage           `json:"data,omitempty"`
	SQL      string                    `json:"sql,omitempty"`
	Metadata domain.ConversionMetadata `json:"metadata"`
}

// readUpload pulls the multipart file and the conversion parameters from the
// form. Form fields mirror the request struct in snake_case; the confidence
// threshold accepts both the 0-100 scale and fractional 0-1 values.
func (rt *Router) readUpload(r *http.Request, target domain.TargetFormat) ([]byte, string, domain.ConversionRequest, error) {
	var req domain.ConversionRequest

	r.Body = http.MaxBytesReader(nil, r.Body, rt.maxUploadSize+4096)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		return nil, "", req, domain.WrapError(domain.ErrValidation, "read upload", fmt.Errorf("multipart field 'file' is required"))
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, rt.maxUploadSize+1))
	if err != nil {
		return nil, "", req, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(payload)) > rt.maxUploadSize {
		return nil, "", req, domain.WrapError(domain.ErrValidation, "read upload",
			fmt.Errorf("file exceeds the %d byte limit", rt.maxUploadSize))
	}

	filename := fileHeader.Filename
	req = domain.ConversionRequest{
		SourceFormat:        rt.sourceFormat(r, filename),
		TargetFormat:        target,
		UseAI:               parseBoolField(r, "use_ai", rt.defaultUseAI),
		ForceAI:             parseBoolField(r, "force_ai", false),
		ConfidenceThreshold: rt.parseThreshold(r),
		TableName:           strings.TrimSpace(r.FormValue("table_name")),
		OutputFilename:      strings.TrimSpace(r.FormValue("output_filename")),
	}
	return payload, filename, req, nil
}

func (rt *Router) sourceFormat(r *http.Request, filename string) domain.SourceFormat {
	switch strings.ToLower(strings.TrimSpace(r.FormValue("source_format"))) {
	case "csv":
		return domain.SourceCSV
	case "xlsx", "excel":
		return domain.SourceXLSX
	case "json":
		return domain.SourceJSON
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return domain.SourceXLSX
	case ".json":
		return domain.SourceJSON
	default:
		return domain.SourceCSV
	}
}

func (rt *Router) parseThreshold(r *http.Request) float64 {
	raw := strings.TrimSpace(r.FormValue("confidence_threshold"))
	if raw == "" {
		return rt.defaultThreshold
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return rt.defaultThreshold
	}
	if value <= 1 {
		value *= 100
	}
	if value > 100 {
		value = 100
	}
	return value
}

func parseBoolField(r *http.Request, field string, fallback bool) bool {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func (rt *Router) recordConversion(target domain.TargetFormat, result *domain.ConversionResult) {
	if rt.metrics == nil || result == nil {
		return
	}
	rt.metrics.RecordConversion(
		rt.service,
		string(target),
		string(result.Metadata.AIUsage.ProcessingMode),
		result.Metadata.RecordCount,
		time.Duration(result.Metadata.ProcessingTimeMs)*time.Millisecond,
	)
	for _, code := range result.Metadata.AIUsage.IssuesDetected {
		rt.metrics.RecordIssue(rt.service, code)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
