package extract

import (
	"net/http"
	"testing"
)

func TestOptionsNormalize_Defaults(t *testing.T) {
	var o Options
	if err := o.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if o.MarkdownFlavor != FlavorGitHub {
		t.Errorf("flavor = %q, want github", o.MarkdownFlavor)
	}
	if o.MaxContentLength != DefaultContentLength {
		t.Errorf("max_content_length = %d, want %d", o.MaxContentLength, DefaultContentLength)
	}
	if o.TimeoutMs != DefaultTimeoutMs {
		t.Errorf("timeout_ms = %d, want %d", o.TimeoutMs, DefaultTimeoutMs)
	}
}

func TestOptionsNormalize_Bounds(t *testing.T) {
	tests := []struct {
		name string
		o    Options
		ok   bool
	}{
		{"valid", Options{MarkdownFlavor: FlavorCommonMark, MaxContentLength: 1000, TimeoutMs: 30000}, true},
		{"plain flavor", Options{MarkdownFlavor: FlavorPlain}, true},
		{"bad flavor", Options{MarkdownFlavor: "asciidoc"}, false},
		{"content too small", Options{MaxContentLength: 999}, false},
		{"content too large", Options{MaxContentLength: 500001}, false},
		{"timeout too small", Options{TimeoutMs: 999}, false},
		{"timeout too large", Options{TimeoutMs: 30001}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.o.Normalize()
			if (err == nil) != tt.ok {
				t.Errorf("Normalize() err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"https://example.com/article", true},
		{"http://example.com", true},
		{"ftp://example.com/file", false},
		{"example.com/article", false},
		{"https://", false},
		{"", false},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateURL(%q) err = %v, want ok=%v", tt.url, err, tt.ok)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidAPIKey, http.StatusUnauthorized},
		{CodeAPIKeyDisabled, http.StatusForbidden},
		{CodeRateLimitExceeded, http.StatusTooManyRequests},
		{CodeQuotaExceeded, http.StatusTooManyRequests},
		{CodeFetchTimeout, http.StatusGatewayTimeout},
		{CodeFetchFailed, http.StatusBadGateway},
		{CodeExtractionFailed, http.StatusUnprocessableEntity},
		{CodeNoContent, http.StatusUnprocessableEntity},
		{CodeValidationError, http.StatusUnprocessableEntity},
		{CodeInvalidURL, http.StatusBadRequest},
		{CodeContentTooLarge, http.StatusRequestEntityTooLarge},
		{CodeInternalError, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestQuotaCodeSharesRateLimitWire(t *testing.T) {
	if CodeQuotaExceeded != CodeRateLimitExceeded {
		t.Error("quota code must reuse the rate-limit wire code")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(4000); got != 1000 {
		t.Errorf("EstimateTokens(4000) = %d, want 1000", got)
	}
	if got := EstimateTokens(3); got != 0 {
		t.Errorf("EstimateTokens(3) = %d, want 0", got)
	}
}
