// Package app provides the application services that orchestrate
// domain logic with I/O: the extraction pipeline, the quota gate, and
// the account reporting service.
package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/cleanreader/domain/account"
	"github.com/artpar/cleanreader/domain/billing"
	"github.com/artpar/cleanreader/domain/extract"
	"github.com/artpar/cleanreader/domain/ratelimit"
	"github.com/artpar/cleanreader/domain/tier"
	"github.com/artpar/cleanreader/domain/usage"
	"github.com/artpar/cleanreader/ports"
)

// ExtractService runs the admission and accounting pipeline around the
// external extractor: authenticate, check quota, rate-limit, extract,
// bill, record.
type ExtractService struct {
	accounts  ports.AccountStore
	rateLimit ports.RateLimitStore
	extractor ports.Extractor
	recorder  ports.UsageRecorder
	gate      *QuotaGate
	clock     ports.Clock
	idGen     ports.IDGenerator
	log       zerolog.Logger

	// Hot-reloadable configuration.
	dynamicCfg atomic.Pointer[DynamicConfig]
}

// DynamicConfig is the hot-reloadable part of the service config.
type DynamicConfig struct {
	Catalog *tier.Catalog
	Pricing billing.Pricing
}

// ExtractDeps holds the service dependencies.
type ExtractDeps struct {
	Accounts  ports.AccountStore
	RateLimit ports.RateLimitStore
	Extractor ports.Extractor
	Recorder  ports.UsageRecorder
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    zerolog.Logger
}

// NewExtractService creates the pipeline service.
func NewExtractService(deps ExtractDeps, cfg DynamicConfig) *ExtractService {
	s := &ExtractService{
		accounts:  deps.Accounts,
		rateLimit: deps.RateLimit,
		extractor: deps.Extractor,
		recorder:  deps.Recorder,
		gate:      NewQuotaGate(),
		clock:     deps.Clock,
		idGen:     deps.IDGen,
		log:       deps.Logger,
	}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig swaps the hot-reloadable configuration. Safe to call
// while requests are in flight.
func (s *ExtractService) UpdateConfig(cfg DynamicConfig) {
	if cfg.Catalog == nil {
		cfg.Catalog = tier.DefaultCatalog()
	}
	if cfg.Pricing == (billing.Pricing{}) {
		cfg.Pricing = billing.DefaultPricing()
	}
	s.dynamicCfg.Store(&cfg)
}

func (s *ExtractService) config() *DynamicConfig {
	return s.dynamicCfg.Load()
}

// Catalog returns the current tier catalog.
func (s *ExtractService) Catalog() *tier.Catalog {
	return s.config().Catalog
}

// RateConfigFor returns the sliding-window config for an account's
// tier.
func (s *ExtractService) RateConfigFor(t tier.Tier) (ratelimit.Config, bool) {
	def, ok := s.config().Catalog.Find(t)
	if !ok {
		return ratelimit.Config{}, false
	}
	return ratelimit.Config{PerMinute: def.RatePerMinute, PerDay: def.RatePerDay}, true
}

// ExtractResponse is the success payload of one pipeline run.
type ExtractResponse struct {
	RequestID   string
	URL         string
	ExtractedAt time.Time
	Result      extract.Result
	Charge      billing.Charge
}

// HandleResult is the outcome of one pipeline run. Exactly one of
// Response and Error is set.
type HandleResult struct {
	Response *ExtractResponse
	Error    *extract.Error
	Status   int

	RequestID         string
	Tier              tier.Tier // empty until authentication succeeded
	Billable          bool      // whether a failure was still charged
	RetryAfterSeconds int
	RateStatus        *ratelimit.Status
}

func fail(requestID string, t tier.Tier, code extract.Code, message string) HandleResult {
	return HandleResult{
		Error:     extract.NewError(code, message),
		Status:    extract.HTTPStatus(code),
		RequestID: requestID,
		Tier:      t,
		Billable:  billing.IsBillableError(code),
	}
}

// Authenticate resolves and verifies an API key. Shared by the
// extraction pipeline and the account read endpoints.
func (s *ExtractService) Authenticate(ctx context.Context, apiKey string) (account.Account, *extract.Error) {
	if !account.ValidKeyFormat(apiKey) {
		return account.Account{}, extract.NewError(extract.CodeInvalidAPIKey, "API key is missing or malformed")
	}
	candidates, err := s.accounts.GetByKeyPrefix(ctx, account.LookupPrefix(apiKey))
	if err != nil {
		s.log.Error().Err(err).Msg("account lookup failed")
		return account.Account{}, extract.NewError(extract.CodeInternalError, "account lookup failed")
	}
	for _, a := range candidates {
		if account.VerifyKey(apiKey, a.KeyHash) {
			return a, nil
		}
	}
	return account.Account{}, extract.NewError(extract.CodeInvalidAPIKey, "API key is not recognized")
}

// Handle runs the full pipeline for one extraction request.
func (s *ExtractService) Handle(ctx context.Context, apiKey, rawURL string, opts extract.Options) HandleResult {
	now := s.clock.Now()
	requestID := s.idGen.NewRequestID()
	cfg := s.config()

	// 1. Authenticate.
	acct, authErr := s.Authenticate(ctx, apiKey)
	if authErr != nil {
		return fail(requestID, "", authErr.Code, authErr.Message)
	}

	def, ok := cfg.Catalog.Find(acct.Tier)
	if !ok {
		s.log.Error().Int64("account_id", acct.ID).Str("tier", string(acct.Tier)).Msg("account tier missing from catalog")
		return fail(requestID, acct.Tier, extract.CodeInternalError, "account tier is not configured")
	}

	// 2. Account-level admission: disabled, then monthly quota.
	if adm := account.ValidateForAdmission(acct); !adm.Admitted {
		switch adm.Reason {
		case account.ReasonDisabled:
			return fail(requestID, acct.Tier, extract.CodeAPIKeyDisabled, "API key is disabled")
		default:
			return fail(requestID, acct.Tier, extract.CodeQuotaExceeded, "monthly request quota exhausted")
		}
	}

	// 3. Validate the request before it consumes any rate-limit slot.
	if err := opts.Normalize(); err != nil {
		return fail(requestID, acct.Tier, extract.CodeValidationError, err.Error())
	}
	if err := extract.ValidateURL(rawURL); err != nil {
		return fail(requestID, acct.Tier, extract.CodeInvalidURL, err.Error())
	}

	// 4. Reserve a quota slot for the duration of the extraction so
	// concurrent requests cannot share the last one.
	if !s.gate.Reserve(acct.ID, acct.RequestsThisMonth, acct.MonthlyLimit) {
		return fail(requestID, acct.Tier, extract.CodeQuotaExceeded, "monthly request quota exhausted")
	}
	released := false
	release := func() {
		if !released {
			released = true
			s.gate.Release(acct.ID)
		}
	}
	defer release()

	// 5. Sliding-window rate limit.
	rateCfg := ratelimit.Config{PerMinute: def.RatePerMinute, PerDay: def.RatePerDay}
	admit, err := s.rateLimit.Admit(ctx, acct.ID, rateCfg, now)
	if err != nil {
		s.log.Error().Err(err).Msg("rate limit store failed")
		return fail(requestID, acct.Tier, extract.CodeInternalError, "rate limit check failed")
	}
	if !admit.Allowed {
		res := fail(requestID, acct.Tier, extract.CodeRateLimitExceeded, "rate limit exceeded for the "+admit.Scope+" window")
		res.RetryAfterSeconds = admit.RetryAfterSeconds
		res.RateStatus = rateStatus(rateCfg, admit)
		return res
	}

	// 6. Extract under the caller's timeout.
	extractCtx, cancel := context.WithTimeout(ctx, opts.Timeout())
	defer cancel()

	result, err := s.extractor.Extract(extractCtx, rawURL, opts)
	durationMs := s.clock.Now().Sub(now).Milliseconds()

	if err != nil {
		code, message := failureCode(err)
		if code == extract.CodeInternalError {
			s.log.Error().Err(err).Str("request_id", requestID).Msg("extractor fault")
		}
		release()
		s.recordUsage(usage.Event{
			RequestID:     requestID,
			AccountID:     acct.ID,
			URL:           rawURL,
			BillableUnits: billing.ChargeForFailure(code).BillableUnits,
			DurationMs:    durationMs,
			Success:       false,
			ErrorCode:     string(code),
			CreatedAt:     now,
		})
		res := fail(requestID, acct.Tier, code, message)
		res.RateStatus = rateStatus(rateCfg, admit)
		return res
	}

	// 7. Bill and account. The quota increment lands before the usage
	// row is enqueued, so readers never see a row without its
	// increment.
	charge := billing.Price(cfg.Pricing, def, result.ContentSizeKB, opts.IncludeImages, result.IsPDF)

	applied, err := s.accounts.RecordSuccess(ctx, acct.ID, now)
	if err != nil {
		s.log.Error().Err(err).Int64("account_id", acct.ID).Msg("quota increment failed")
	} else if !applied {
		s.log.Warn().Int64("account_id", acct.ID).Msg("quota increment refused at limit")
	}
	release()

	s.recordUsage(usage.Event{
		RequestID:     requestID,
		AccountID:     acct.ID,
		URL:           rawURL,
		BillableUnits: charge.BillableUnits,
		CostUSD:       charge.CostUSD,
		ContentSizeKB: result.ContentSizeKB,
		DurationMs:    durationMs,
		Success:       true,
		CreatedAt:     now,
	})

	return HandleResult{
		Response: &ExtractResponse{
			RequestID:   requestID,
			URL:         rawURL,
			ExtractedAt: now,
			Result:      result,
			Charge:      charge,
		},
		Status:     200,
		RequestID:  requestID,
		Tier:       acct.Tier,
		RateStatus: rateStatus(rateCfg, admit),
	}
}

// recordUsage hands the event to the async recorder. A recorder fault
// must never fail the user-visible call.
func (s *ExtractService) recordUsage(e usage.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("request_id", e.RequestID).Msg("usage recording panicked")
		}
	}()
	s.recorder.Record(e)
}

// failureCode maps an extractor error to its wire code.
func failureCode(err error) (extract.Code, string) {
	var ee *extract.Error
	if errors.As(err, &ee) {
		return ee.Code, ee.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return extract.CodeFetchTimeout, "fetching the URL timed out"
	}
	return extract.CodeInternalError, "extraction failed unexpectedly"
}

func rateStatus(cfg ratelimit.Config, res ratelimit.Result) *ratelimit.Status {
	return &ratelimit.Status{
		MinuteLimit:     cfg.PerMinute,
		MinuteRemaining: res.MinuteRemaining,
		DayLimit:        cfg.PerDay,
		DayRemaining:    res.DayRemaining,
	}
}
