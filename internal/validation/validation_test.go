package validation

import (
	"testing"
	"unicode/utf8"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     bool
	}{
		{"valid simple", "alice", true},
		{"valid with underscore and digits", "alice_01", true},
		{"valid with surrounding whitespace", "  alice  ", true},
		{"too short", "ab", false},
		{"too long", "a_very_long_username_that_exceeds_the_limit", false},
		{"invalid characters", "alice!", false},
		{"spaces inside", "alice smith", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateUsername(tt.username); got != tt.want {
				t.Errorf("ValidateUsername(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"valid", "alice@example.com", true},
		{"valid with plus", "alice+tag@example.com", true},
		{"missing at", "alice.example.com", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateEmail(tt.email); got != tt.want {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM  "); got != "alice@example.com" {
		t.Errorf("NormalizeEmail = %q, want %q", got, "alice@example.com")
	}
}

func TestValidatePassword(t *testing.T) {
	t.Setenv("PASSWORD_MIN_LENGTH", "")

	if ValidatePassword("short") {
		t.Errorf("ValidatePassword accepted a password below the default minimum")
	}
	if !ValidatePassword("long-enough-password") {
		t.Errorf("ValidatePassword rejected a valid password")
	}

	t.Setenv("PASSWORD_MIN_LENGTH", "12")
	if ValidatePassword("elevenchars") {
		t.Errorf("ValidatePassword ignored the configured minimum")
	}

	// Suspiciously low configured minimums fall back to the default.
	t.Setenv("PASSWORD_MIN_LENGTH", "2")
	if ValidatePassword("short") {
		t.Errorf("ValidatePassword honored an unsafe minimum")
	}
}

func TestTrimAndLimit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"trims whitespace", "  hello  ", 100, "hello"},
		{"limits length", "hello world", 5, "hello"},
		{"zero max means unlimited", "hello world", 0, "hello world"},
		{"empty input", "   ", 100, ""},
		{"never splits a multi-byte rune", "aé", 2, "a"},
		{"keeps a rune ending exactly at the cap", "aé", 3, "aé"},
		{"emoji at the boundary", "hi👋", 4, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndLimit(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("TrimAndLimit(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TrimAndLimit(%q, %d) produced invalid UTF-8", tt.in, tt.max)
			}
		})
	}
}
