package google

import (
	"context"
	"testing"
)

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		name string
		base string
		year int
		want string
	}{
		{"plain base gets prefixed", "Expenses", 2025, "2025 Expenses"},
		{"already prefixed is kept", "2024 Expenses", 2025, "2024 Expenses"},
		{"empty base stays empty", "", 2025, ""},
		{"short base gets prefixed", "Exp", 2025, "2025 Exp"},
		{"numeric-looking base without space", "20240", 2025, "2025 20240"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Fatal("New() should fail without a spreadsheet id")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"})
	if err == nil {
		t.Fatal("New() should fail without credentials")
	}
}

func TestLoadCredentialsPrefersInlineJSON(t *testing.T) {
	data, err := loadCredentials(Config{
		ServiceAccountJSON: `{"type":"service_account"}`,
		ServiceAccountFile: "/does/not/exist",
	})
	if err != nil {
		t.Fatalf("loadCredentials() error = %v", err)
	}
	if string(data) != `{"type":"service_account"}` {
		t.Errorf("credentials = %s", data)
	}
}
