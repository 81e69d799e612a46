package throttle

import (
	"testing"
	"time"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		in     string
		limit  int
		period time.Duration
	}{
		{"20/min", 20, time.Minute},
		{"2000/minute", 2000, time.Minute},
		{"5/s", 5, time.Second},
		{"10/hour", 10, time.Hour},
		{"1/day", 1, 24 * time.Hour},
		{" 6 / m ", 6, time.Minute},
	}
	for _, tt := range tests {
		r, err := ParseRate(tt.in)
		if err != nil {
			t.Fatalf("ParseRate(%q): %v", tt.in, err)
		}
		if r.Limit() != tt.limit || r.Period() != tt.period {
			t.Errorf("ParseRate(%q) = %d/%v", tt.in, r.Limit(), r.Period())
		}
		if r.IsUnlimited() {
			t.Errorf("ParseRate(%q) unlimited", tt.in)
		}
	}
}

func TestParseRate_Unlimited(t *testing.T) {
	for _, in := range []string{"", "0/min"} {
		r, err := ParseRate(in)
		if err != nil {
			t.Fatalf("ParseRate(%q): %v", in, err)
		}
		if !r.IsUnlimited() {
			t.Errorf("ParseRate(%q) should be unlimited", in)
		}
	}
}

func TestParseRate_Errors(t *testing.T) {
	for _, in := range []string{"20", "x/min", "-1/min", "20/", "20/week"} {
		if _, err := ParseRate(in); err == nil {
			t.Errorf("ParseRate(%q): expected error", in)
		}
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		c     Classification
		e     Endpoint
		limit int
	}{
		{Anonymous, EndpointDocument, 5},
		{Anonymous, EndpointSearch, 20},
		{Anonymous, EndpointExport, 2},
		{UI, EndpointDocument, 2000},
		{UI, EndpointSearch, 2000},
		{UI, EndpointExport, 6},
	}
	for _, tt := range tests {
		r := p.Rate(tt.c, tt.e)
		if r.Limit() != tt.limit || r.Period() != time.Minute {
			t.Errorf("%s/%s = %s", tt.c, tt.e, r)
		}
	}
	for _, e := range Endpoints {
		if p.Rate(UI, e).Limit() < p.Rate(Anonymous, e).Limit() {
			t.Errorf("UI quota for %s below anonymous", e)
		}
	}
}

func TestPolicy_MissingPairIsUnlimited(t *testing.T) {
	p := NewPolicy(map[Classification]map[Endpoint]Rate{
		Anonymous: {EndpointSearch: NewRate(1, time.Minute)},
	})
	if !p.Rate(UI, EndpointSearch).IsUnlimited() {
		t.Error("missing classification must be unlimited")
	}
	if !p.Rate(Anonymous, EndpointExport).IsUnlimited() {
		t.Error("missing endpoint must be unlimited")
	}
}

func TestDecision_RetryAfterSeconds(t *testing.T) {
	if got := NewDecision(false, 3, 2, 1500*time.Millisecond).RetryAfterSeconds(); got != 2 {
		t.Errorf("RetryAfterSeconds() = %d, want 2", got)
	}
	if got := NewDecision(false, 3, 2, 0).RetryAfterSeconds(); got != 1 {
		t.Errorf("denied RetryAfterSeconds() = %d, want 1", got)
	}
	if got := NewDecision(true, 1, 2, 0).RetryAfterSeconds(); got != 0 {
		t.Errorf("allowed RetryAfterSeconds() = %d, want 0", got)
	}
}
