package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/artpar/cleanreader/domain/account"
	"github.com/artpar/cleanreader/domain/extract"
)

// AccountBody is the account identity in a status response.
type AccountBody struct {
	Email     string `json:"email"`
	Tier      string `json:"tier"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

// QuotaBody is the monthly quota state in a status response.
type QuotaBody struct {
	RequestsThisMonth int64    `json:"requests_this_month"`
	MonthlyLimit      *int64   `json:"monthly_limit"` // null means unlimited
	Remaining         int64    `json:"remaining"`     // -1 when unlimited
	UsagePercent      float64  `json:"usage_percent"`
	CostThisMonthUSD  float64  `json:"cost_this_month_usd"`
}

// AlertBody is a quota alert on the wire.
type AlertBody struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// StatusResponse is the GET /v1/account envelope.
type StatusResponse struct {
	Success bool        `json:"success"`
	Account AccountBody `json:"account"`
	Quota   QuotaBody   `json:"quota"`
	Alert   *AlertBody  `json:"alert,omitempty"`
}

// SummaryBody aggregates the current billing cycle.
type SummaryBody struct {
	TotalRequests int64   `json:"total_requests"`
	SuccessCount  int64   `json:"success_count"`
	ErrorCount    int64   `json:"error_count"`
	TotalCostUSD  float64 `json:"total_cost_usd"`
}

// UsageResponse is the GET /v1/usage envelope.
type UsageResponse struct {
	Success bool        `json:"success"`
	Since   string      `json:"since"`
	Summary SummaryBody `json:"summary"`
}

// EventBody is one usage ledger row on the wire.
type EventBody struct {
	RequestID     string  `json:"request_id"`
	URL           string  `json:"url"`
	BillableUnits int     `json:"billable_units"`
	CostUSD       float64 `json:"cost_usd"`
	ContentSizeKB float64 `json:"content_size_kb"`
	DurationMs    int64   `json:"duration_ms"`
	Success       bool    `json:"success"`
	ErrorCode     string  `json:"error_code,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// PaginationBody describes a ledger page.
type PaginationBody struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// HistoryResponse is the GET /v1/usage/history envelope.
type HistoryResponse struct {
	Success    bool           `json:"success"`
	Events     []EventBody    `json:"events"`
	Pagination PaginationBody `json:"pagination"`
}

// WindowBody is one rate window in a limits response.
type WindowBody struct {
	Limit     int `json:"limit"` // 0 means unlimited
	Used      int `json:"used"`
	Remaining int `json:"remaining"` // -1 when unlimited
}

// LimitsResponse is the GET /v1/limits envelope.
type LimitsResponse struct {
	Success bool       `json:"success"`
	Minute  WindowBody `json:"minute"`
	Day     WindowBody `json:"day"`
}

// TiersResponse is the GET /v1/tiers envelope.
type TiersResponse struct {
	Success bool       `json:"success"`
	Tiers   []tierBody `json:"tiers"`
}

// authenticate resolves the caller's account or writes a failure
// envelope. The read endpoints share it.
func (h *ExtractHandler) authenticate(w http.ResponseWriter, r *http.Request) (account.Account, bool) {
	acct, err := h.service.Authenticate(r.Context(), extractAPIKey(r))
	if err != nil {
		if h.metrics != nil && err.Code == extract.CodeInvalidAPIKey {
			h.metrics.AuthFailures.WithLabelValues(string(err.Code)).Inc()
		}
		h.writeFailure(w, h.idGen.NewRequestID(), err.Code, err.Message)
		return account.Account{}, false
	}
	return acct, true
}

// AccountStatus handles GET /v1/account.
func (h *ExtractHandler) AccountStatus(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	report, err := h.reporter.Status(r.Context(), acct)
	if err != nil {
		h.logger.Error().Err(err).Int64("account_id", acct.ID).Msg("account status failed")
		h.writeFailure(w, h.idGen.NewRequestID(), extract.CodeInternalError, "failed to build account status")
		return
	}

	resp := StatusResponse{
		Success: true,
		Account: AccountBody{
			Email:     acct.Email,
			Tier:      string(acct.Tier),
			Active:    acct.Active,
			CreatedAt: acct.CreatedAt.UTC().Format(time.RFC3339),
		},
		Quota: QuotaBody{
			RequestsThisMonth: report.RequestsThisMonth,
			MonthlyLimit:      report.MonthlyLimit,
			Remaining:         report.Remaining,
			UsagePercent:      report.UsagePercent,
			CostThisMonthUSD:  report.CostThisMonthUSD,
		},
	}
	if report.Alert != nil {
		resp.Alert = &AlertBody{Level: report.Alert.Level, Message: report.Alert.Message}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Usage handles GET /v1/usage.
func (h *ExtractHandler) Usage(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	report, err := h.reporter.Usage(r.Context(), acct)
	if err != nil {
		h.logger.Error().Err(err).Int64("account_id", acct.ID).Msg("usage summary failed")
		h.writeFailure(w, h.idGen.NewRequestID(), extract.CodeInternalError, "failed to summarize usage")
		return
	}

	writeJSON(w, http.StatusOK, UsageResponse{
		Success: true,
		Since:   report.Since,
		Summary: SummaryBody{
			TotalRequests: report.Summary.TotalRequests,
			SuccessCount:  report.Summary.SuccessCount,
			ErrorCount:    report.Summary.TotalRequests - report.Summary.SuccessCount,
			TotalCostUSD:  report.Summary.TotalCostUSD,
		},
	})
}

// UsageHistory handles GET /v1/usage/history.
func (h *ExtractHandler) UsageHistory(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.reporter.History(r.Context(), acct, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Int64("account_id", acct.ID).Msg("usage history failed")
		h.writeFailure(w, h.idGen.NewRequestID(), extract.CodeInternalError, "failed to read usage history")
		return
	}

	resp := HistoryResponse{
		Success: true,
		Events:  make([]EventBody, 0, len(page.Events)),
		Pagination: PaginationBody{
			Total:   page.Total,
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasMore: page.HasMore,
		},
	}
	for _, e := range page.Events {
		resp.Events = append(resp.Events, EventBody{
			RequestID:     e.RequestID,
			URL:           e.URL,
			BillableUnits: e.BillableUnits,
			CostUSD:       e.CostUSD,
			ContentSizeKB: e.ContentSizeKB,
			DurationMs:    e.DurationMs,
			Success:       e.Success,
			ErrorCode:     e.ErrorCode,
			CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Limits handles GET /v1/limits.
func (h *ExtractHandler) Limits(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	status, err := h.reporter.Limits(r.Context(), acct)
	if err != nil {
		h.logger.Error().Err(err).Int64("account_id", acct.ID).Msg("limits lookup failed")
		h.writeFailure(w, h.idGen.NewRequestID(), extract.CodeInternalError, "failed to read rate limits")
		return
	}

	writeJSON(w, http.StatusOK, LimitsResponse{
		Success: true,
		Minute: WindowBody{
			Limit:     status.MinuteLimit,
			Used:      status.MinuteUsed,
			Remaining: status.MinuteRemaining,
		},
		Day: WindowBody{
			Limit:     status.DayLimit,
			Used:      status.DayUsed,
			Remaining: status.DayRemaining,
		},
	})
}

// Tiers handles GET /v1/tiers. No authentication required.
func (h *ExtractHandler) Tiers(w http.ResponseWriter, r *http.Request) {
	defs := h.reporter.Tiers()
	resp := TiersResponse{Success: true, Tiers: make([]tierBody, 0, len(defs))}
	for _, def := range defs {
		resp.Tiers = append(resp.Tiers, toTierBody(def))
	}
	writeJSON(w, http.StatusOK, resp)
}
