package providers

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want ErrorType
	}{
		"nil":          {nil, ""},
		"quota":        {errors.New("insufficient_quota: out of credits"), ErrorQuota},
		"rate limit":   {errors.New("429 Too Many Requests"), ErrorRate},
		"context":      {errors.New("prompt is too long for model"), ErrorContext},
		"timeout":      {errors.New("request timeout after 120s"), ErrorTransient},
		"unavailable":  {errors.New("service temporarily unavailable"), ErrorTransient},
		"error page":   {errors.New("completion returned an error page"), ErrorTransient},
		"anything else": {errors.New("model not found"), ErrorPermanent},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := ClassifyError(tc.err); got != tc.want {
				t.Fatalf("ClassifyError(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsErrorPage(t *testing.T) {
	cases := map[string]struct {
		body string
		want bool
	}{
		"doctype":    {"  <!DOCTYPE html><html></html>", true},
		"html tag":   {"<html lang=\"en\"><head></head></html>", true},
		"cloudflare": {"Attention Required! | Cloudflare", true},
		"json":       {`{"document_name": "x"}`, false},
		"prose with angle": {"the value <html> appears mid-sentence", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := IsErrorPage(tc.body); got != tc.want {
				t.Fatalf("IsErrorPage(%q) = %v, want %v", tc.body, got, tc.want)
			}
		})
	}
}
