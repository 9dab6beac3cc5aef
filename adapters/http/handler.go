// Package http provides the HTTP surface of the extraction service.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/cleanreader/adapters/metrics"
	"github.com/artpar/cleanreader/app"
	"github.com/artpar/cleanreader/domain/extract"
	"github.com/artpar/cleanreader/domain/ratelimit"
	"github.com/artpar/cleanreader/domain/tier"
	"github.com/artpar/cleanreader/ports"
)

// ExtractRequest is the POST /v1/extract body.
type ExtractRequest struct {
	URL     string          `json:"url"`
	Options *ExtractOptions `json:"options,omitempty"`
}

// ExtractOptions mirrors extract.Options on the wire.
type ExtractOptions struct {
	IncludeImages    bool   `json:"include_images"`
	IncludeMetadata  *bool  `json:"include_metadata,omitempty"`
	MarkdownFlavor   string `json:"markdown_flavor,omitempty"`
	MaxContentLength int    `json:"max_content_length,omitempty"`
	TimeoutMs        int    `json:"timeout_ms,omitempty"`
}

func (o *ExtractOptions) toDomain() extract.Options {
	if o == nil {
		return extract.DefaultOptions()
	}
	opts := extract.Options{
		IncludeImages:    o.IncludeImages,
		IncludeMetadata:  true,
		MarkdownFlavor:   o.MarkdownFlavor,
		MaxContentLength: o.MaxContentLength,
		TimeoutMs:        o.TimeoutMs,
	}
	if o.IncludeMetadata != nil {
		opts.IncludeMetadata = *o.IncludeMetadata
	}
	return opts
}

// ContentBody is the extracted document in a success response.
type ContentBody struct {
	Markdown        string         `json:"markdown"`
	TextLength      int            `json:"text_length"`
	EstimatedTokens int            `json:"estimated_tokens"`
	ContentSizeKB   float64        `json:"content_size_kb"`
	Truncated       bool           `json:"truncated"`
	IsPDF           bool           `json:"is_pdf"`
	Metadata        *MetadataBody  `json:"metadata,omitempty"`
	Images          []ImageBody    `json:"images,omitempty"`
}

// MetadataBody is document metadata on the wire.
type MetadataBody struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Language    string `json:"language,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
}

// ImageBody is one image reference on the wire.
type ImageBody struct {
	URL      string `json:"url"`
	Alt      string `json:"alt,omitempty"`
	Position string `json:"position"`
}

// BillingBody reports what the request cost.
type BillingBody struct {
	BillableUnits int     `json:"billable_units"`
	CostUSD       float64 `json:"cost_usd"`
	Tier          string  `json:"tier"`
}

// ExtractResponse is the success envelope of POST /v1/extract.
type ExtractResponse struct {
	Success     bool        `json:"success"`
	RequestID   string      `json:"request_id"`
	URL         string      `json:"url"`
	ExtractedAt string      `json:"extracted_at"`
	Content     ContentBody `json:"content"`
	Billing     BillingBody `json:"billing"`
}

// ErrorBody is the error detail of a failure envelope.
type ErrorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Billable bool   `json:"billable"`
}

// ErrorResponse is the failure envelope shared by all endpoints.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	RequestID string    `json:"request_id"`
	Error     ErrorBody `json:"error"`
}

// ExtractHandler wires the extraction pipeline to HTTP.
type ExtractHandler struct {
	service  *app.ExtractService
	reporter *app.AccountService
	idGen    ports.IDGenerator
	logger   zerolog.Logger
	metrics  *metrics.Collector
}

// NewExtractHandler creates the handler. The metrics collector is
// optional.
func NewExtractHandler(service *app.ExtractService, reporter *app.AccountService, idGen ports.IDGenerator, logger zerolog.Logger, m *metrics.Collector) *ExtractHandler {
	return &ExtractHandler{
		service:  service,
		reporter: reporter,
		idGen:    idGen,
		logger:   logger,
		metrics:  m,
	}
}

const maxRequestBody = 64 << 10 // request bodies are small JSON documents

// Extract handles POST /v1/extract.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ExtractRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		h.writeFailure(w, h.idGen.NewRequestID(), extract.CodeValidationError, "failed to read request body")
		return
	}
	if len(body) == 0 {
		h.writeFailure(w, h.idGen.NewRequestID(), extract.CodeValidationError, "request body is required")
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeFailure(w, h.idGen.NewRequestID(), extract.CodeValidationError, "request body is not valid JSON")
		return
	}

	result := h.service.Handle(r.Context(), extractAPIKey(r), req.URL, req.Options.toDomain())

	h.logRequest(r, result, time.Since(start))
	h.recordMetrics(result, time.Since(start))

	setRateHeaders(w, result.RateStatus)

	if result.Error != nil {
		if result.RetryAfterSeconds > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfterSeconds))
		}
		writeJSON(w, result.Status, ErrorResponse{
			RequestID: result.RequestID,
			Error: ErrorBody{
				Code:     string(result.Error.Code),
				Message:  result.Error.Message,
				Billable: result.Billable,
			},
		})
		return
	}

	resp := result.Response
	out := ExtractResponse{
		Success:     true,
		RequestID:   resp.RequestID,
		URL:         resp.URL,
		ExtractedAt: resp.ExtractedAt.UTC().Format(time.RFC3339),
		Content: ContentBody{
			Markdown:        resp.Result.Markdown,
			TextLength:      resp.Result.TextLength,
			EstimatedTokens: resp.Result.EstimatedTokens,
			ContentSizeKB:   resp.Result.ContentSizeKB,
			Truncated:       resp.Result.Truncated,
			IsPDF:           resp.Result.IsPDF,
		},
		Billing: BillingBody{
			BillableUnits: resp.Charge.BillableUnits,
			CostUSD:       resp.Charge.CostUSD,
			Tier:          string(result.Tier),
		},
	}
	if m := resp.Result.Metadata; m != nil {
		out.Content.Metadata = &MetadataBody{
			Title:       m.Title,
			Author:      m.Author,
			PublishedAt: m.PublishedAt,
			SiteName:    m.SiteName,
			Language:    m.Language,
			Excerpt:     m.Excerpt,
		}
	}
	for _, img := range resp.Result.Images {
		out.Content.Images = append(out.Content.Images, ImageBody{
			URL:      img.URL,
			Alt:      img.Alt,
			Position: img.Position,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ExtractHandler) logRequest(r *http.Request, result app.HandleResult, elapsed time.Duration) {
	event := h.logger.Info()
	if result.Error != nil {
		event = h.logger.Warn().
			Str("error_code", string(result.Error.Code)).
			Bool("billable", result.Billable)
	}
	event.
		Str("request_id", result.RequestID).
		Str("tier", string(result.Tier)).
		Int("status", result.Status).
		Dur("duration", elapsed).
		Str("remote_ip", r.RemoteAddr).
		Msg("extract request")
}

func (h *ExtractHandler) recordMetrics(result app.HandleResult, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	tierLabel := string(result.Tier)
	h.metrics.RequestsTotal.WithLabelValues("/v1/extract", strconv.Itoa(result.Status), tierLabel).Inc()

	if result.Error == nil {
		h.metrics.ExtractionsTotal.WithLabelValues("success").Inc()
		h.metrics.ExtractionDuration.Observe(elapsed.Seconds())
		h.metrics.BilledUnitsTotal.WithLabelValues(tierLabel).Add(float64(result.Response.Charge.BillableUnits))
		h.metrics.BilledUSDTotal.WithLabelValues(tierLabel).Add(result.Response.Charge.CostUSD)
		return
	}

	switch result.Error.Code {
	case extract.CodeInvalidAPIKey, extract.CodeAPIKeyDisabled:
		h.metrics.AuthFailures.WithLabelValues(string(result.Error.Code)).Inc()
	case extract.CodeRateLimitExceeded:
		// Quota rejections carry no retry hint; window rejections do.
		if result.RetryAfterSeconds == 0 {
			h.metrics.QuotaRejections.WithLabelValues(tierLabel).Inc()
		} else {
			scope := ratelimit.ScopeMinute
			if result.RetryAfterSeconds >= ratelimit.RetryAfterDay {
				scope = ratelimit.ScopeDay
			}
			h.metrics.RateLimitHits.WithLabelValues(tierLabel, scope).Inc()
		}
	default:
		h.metrics.ExtractionsTotal.WithLabelValues(string(result.Error.Code)).Inc()
	}

	if result.Billable {
		h.metrics.BilledUnitsTotal.WithLabelValues(tierLabel).Inc()
	}
}

func (h *ExtractHandler) writeFailure(w http.ResponseWriter, requestID string, code extract.Code, message string) {
	writeJSON(w, extract.HTTPStatus(code), ErrorResponse{
		RequestID: requestID,
		Error: ErrorBody{
			Code:    string(code),
			Message: message,
		},
	})
}

// setRateHeaders adds the sliding-window state to the response.
func setRateHeaders(w http.ResponseWriter, st *ratelimit.Status) {
	if st == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit-Minute", strconv.Itoa(st.MinuteLimit))
	w.Header().Set("X-RateLimit-Remaining-Minute", strconv.Itoa(st.MinuteRemaining))
	if st.DayLimit > 0 {
		w.Header().Set("X-RateLimit-Limit-Day", strconv.Itoa(st.DayLimit))
		w.Header().Set("X-RateLimit-Remaining-Day", strconv.Itoa(st.DayRemaining))
	}
}

// extractAPIKey reads the key from Authorization (Bearer) or X-API-Key.
func extractAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return r.Header.Get("X-API-Key")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// tierBody is one catalog entry on the wire.
type tierBody struct {
	Name         string   `json:"name"`
	MonthlyLimit int64    `json:"monthly_limit"` // 0 means unlimited
	RatePerMin   int      `json:"rate_per_minute"`
	RatePerDay   int      `json:"rate_per_day"` // 0 means unlimited
	Discount     float64  `json:"discount"`
	PriceMonthly float64  `json:"price_monthly_usd"`
	Features     []string `json:"features,omitempty"`
}

func toTierBody(def tier.Definition) tierBody {
	return tierBody{
		Name:         string(def.Name),
		MonthlyLimit: def.MonthlyLimit,
		RatePerMin:   def.RatePerMinute,
		RatePerDay:   def.RatePerDay,
		Discount:     def.Discount,
		PriceMonthly: def.PriceMonthly,
		Features:     def.Features,
	}
}
