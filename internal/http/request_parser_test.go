package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spenny/internal/core"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Home","is_default":true}`, false},
		{"unknown fields ignored", `{"name":"Home","color":"red"}`, false},
		{"empty", ``, true},
		{"not json", `name=Home`, true},
		{"wrong type", `{"name":42}`, true},
		{"trailing value", `{"name":"a"}{"name":"b"}`, true},
		{"too large", `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/budgets", strings.NewReader(tt.body))
			var in core.BudgetInput
			err := DecodeJSON(httptest.NewRecorder(), r, &in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedBody) {
				t.Errorf("error %v should wrap ErrMalformedBody", err)
			}
		})
	}
}

func TestDecodeJSON_Money(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"name":"S","type":"savings","balance":123.45,"budget_id":"b"}`))
	var in core.AccountInput
	if err := DecodeJSON(httptest.NewRecorder(), r, &in); err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if in.Balance.String() != "123.45" {
		t.Errorf("balance = %s, want 123.45", in.Balance.String())
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer   abc", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		if got := BearerToken(r); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestQueryBool(t *testing.T) {
	tests := []struct {
		query   string
		want    *bool
		wantErr bool
	}{
		{"", nil, false},
		{"is_default=true", boolPtr(true), false},
		{"is_default=0", boolPtr(false), false},
		{"is_default=maybe", nil, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/budgets?"+tt.query, nil)
		got, err := QueryBool(r, "is_default")
		if (err != nil) != tt.wantErr {
			t.Fatalf("QueryBool(%q) error = %v", tt.query, err)
		}
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("QueryBool(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\x07  "); got != "ab\tc" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}

func boolPtr(b bool) *bool { return &b }
