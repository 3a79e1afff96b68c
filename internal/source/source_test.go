package source

import (
	"errors"
	"testing"
)

func TestFetchType_IsValid(t *testing.T) {
	tests := []struct {
		ft    FetchType
		valid bool
	}{
		{FetchTypeRSS, true},
		{FetchTypeJSON, true},
		{FetchType("atom"), false},
		{FetchType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.ft), func(t *testing.T) {
			if got := tt.ft.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		wantErr bool
	}{
		{"valid rss", Draft{Name: "Remote OK", URL: "https://remoteok.com/rss", FetchType: FetchTypeRSS}, false},
		{"valid json", Draft{Name: "Board", URL: "http://example.com/jobs.json", FetchType: FetchTypeJSON}, false},
		{"empty name", Draft{Name: "", URL: "https://example.com", FetchType: FetchTypeRSS}, true},
		{"blank name", Draft{Name: "   ", URL: "https://example.com", FetchType: FetchTypeRSS}, true},
		{"empty url", Draft{Name: "Board", URL: "", FetchType: FetchTypeRSS}, true},
		{"relative url", Draft{Name: "Board", URL: "/jobs.rss", FetchType: FetchTypeRSS}, true},
		{"no host", Draft{Name: "Board", URL: "https://", FetchType: FetchTypeRSS}, true},
		{"ftp scheme", Draft{Name: "Board", URL: "ftp://example.com/jobs", FetchType: FetchTypeRSS}, true},
		{"garbage url", Draft{Name: "Board", URL: "ht!tp://%%", FetchType: FetchTypeRSS}, true},
		{"bad fetch type", Draft{Name: "Board", URL: "https://example.com", FetchType: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.draft)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_TrimsFields(t *testing.T) {
	d, err := Validate(Draft{Name: "  Board ", URL: " https://example.com/feed ", FetchType: " RSS "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "Board" {
		t.Errorf("expected trimmed name, got %q", d.Name)
	}
	if d.URL != "https://example.com/feed" {
		t.Errorf("expected trimmed url, got %q", d.URL)
	}
	if d.FetchType != FetchTypeRSS {
		t.Errorf("expected fetch type rss, got %q", d.FetchType)
	}
}
