package settings

import (
	"strings"
	"testing"
)

func TestSanitizeSlackID(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		allowEmpty bool
		want       string
		wantErr    bool
	}{
		{"team id", "T0ABC123", false, "T0ABC123", false},
		{"channel id", "C0XYZ789", false, "C0XYZ789", false},
		{"trims whitespace", "  T0ABC123  ", false, "T0ABC123", false},
		{"empty allowed", "", true, "", false},
		{"empty rejected", "", false, "", true},
		{"whitespace only", "   ", true, "", true},
		{"operator prefix", "$where", false, "", true},
		{"bare dollar", "$", false, "", true},
		{"dot", "T0.ABC", false, "", true},
		{"braces", "T0{ABC}", false, "", true},
		{"space inside", "T0 ABC", false, "", true},
		{"too long", strings.Repeat("T", 257), false, "", true},
		{"at limit", strings.Repeat("T", 256), false, strings.Repeat("T", 256), false},
		{"unicode", "T0ÄBC", false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeSlackID(tt.value, "team_id", tt.allowEmpty)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeSlackID(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("SanitizeSlackID(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestSanitizeProjectName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"plain", "backend", "backend", false},
		{"with spaces", "mobile app", "mobile app", false},
		{"trims", "  backend  ", "backend", false},
		{"empty", "", "", true},
		{"dot", "projects.admin", "", true},
		{"dollar", "$inc", "", true},
		{"braces", "{evil}", "", true},
		{"control char", "back\x00end", "", true},
		{"too long", strings.Repeat("p", 129), "", true},
		{"at limit", strings.Repeat("p", 128), strings.Repeat("p", 128), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeProjectName(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeProjectName(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("SanitizeProjectName(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
