package extract

import (
	"errors"
	"testing"

	"lcflow/internal/util"
)

func TestCleanJSON(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want string
	}{
		"json fence": {
			raw:  "Here you go:\n```json\n{\"a\": 1}\n```\nthanks",
			want: `{"a": 1}`,
		},
		"bare fence": {
			raw:  "```\n{\"b\": 2}\n```",
			want: `{"b": 2}`,
		},
		"json fence preferred over earlier object": {
			raw:  "{\"decoy\": true} and then ```json\n{\"real\": true}\n```",
			want: `{"real": true}`,
		},
		"balanced object in prose": {
			raw:  `The result is {"c": {"nested": 3}} as requested.`,
			want: `{"c": {"nested": 3}}`,
		},
		"braces inside strings ignored": {
			raw:  `{"text": "a } brace and a \" quote"} trailing`,
			want: `{"text": "a } brace and a \" quote"}`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := CleanJSON(tc.raw)
			if err != nil {
				t.Fatalf("CleanJSON: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCleanJSONNoObject(t *testing.T) {
	_, err := CleanJSON("the model apologised instead of answering")
	if !errors.Is(err, util.ErrNoJSONFound) {
		t.Fatalf("expected ErrNoJSONFound, got %v", err)
	}
}

func TestCleanJSONErrorPage(t *testing.T) {
	for name, body := range map[string]string{
		"html doctype": "<!DOCTYPE html><html><body>502 Bad Gateway</body></html>",
		"cloudflare":   "Attention Required! | Cloudflare — checking your browser",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := CleanJSON(body)
			if !errors.Is(err, util.ErrTransientService) {
				t.Fatalf("expected ErrTransientService, got %v", err)
			}
		})
	}
}
