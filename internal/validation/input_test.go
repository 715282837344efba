package validation

import (
	"strings"
	"testing"
)

func TestValidateGroupName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "normal name",
			input:     "Project Alpha",
			wantError: false,
		},
		{
			name:      "unicode name",
			input:     "团队聊天",
			wantError: false,
		},
		{
			name:      "name at max length",
			input:     strings.Repeat("a", MaxGroupNameLength),
			wantError: false,
		},
		{
			name:      "name exceeding max length",
			input:     strings.Repeat("a", MaxGroupNameLength+1),
			wantError: true,
		},
		{
			name:      "empty name",
			input:     "",
			wantError: true,
		},
		{
			name:      "whitespace only",
			input:     "   ",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGroupName(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateGroupName() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "simple username",
			input:     "alice",
			wantError: false,
		},
		{
			name:      "username with separators",
			input:     "alice.dev_01-x",
			wantError: false,
		},
		{
			name:      "empty username",
			input:     "",
			wantError: true,
		},
		{
			name:      "username with space",
			input:     "alice smith",
			wantError: true,
		},
		{
			name:      "username with at sign",
			input:     "alice@example",
			wantError: true,
		},
		{
			name:      "username exceeding max length",
			input:     strings.Repeat("a", MaxUsernameLength+1),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateUsername() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "normal email",
			input:     "user@example.com",
			wantError: false,
		},
		{
			name:      "empty email allowed",
			input:     "",
			wantError: false,
		},
		{
			name:      "email at max length",
			input:     strings.Repeat("a", MaxEmailLength-12) + "@example.com",
			wantError: false,
		},
		{
			name:      "email exceeding max length",
			input:     strings.Repeat("a", MaxEmailLength) + "@example.com",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateEmail() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateEmailFormat(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "valid email",
			input:     "user@example.com",
			wantError: false,
		},
		{
			name:      "valid email with plus",
			input:     "user+tag@example.com",
			wantError: false,
		},
		{
			name:      "empty email allowed",
			input:     "",
			wantError: false,
		},
		{
			name:      "missing at sign",
			input:     "userexample.com",
			wantError: true,
		},
		{
			name:      "missing domain",
			input:     "user@",
			wantError: true,
		},
		{
			name:      "just at sign",
			input:     "@",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmailFormat(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateEmailFormat() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateMessageContent(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "normal message",
			input:     "hello world",
			wantError: false,
		},
		{
			name:      "empty content allowed",
			input:     "",
			wantError: false,
		},
		{
			name:      "content at max length",
			input:     strings.Repeat("a", MaxMessageLength),
			wantError: false,
		},
		{
			name:      "content exceeding max length",
			input:     strings.Repeat("a", MaxMessageLength+1),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageContent(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateMessageContent() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateJSONPayload(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "normal payload",
			input:     `{"key": "value"}`,
			wantError: false,
		},
		{
			name:      "empty payload rejected",
			input:     "",
			wantError: true,
		},
		{
			name:      "payload exceeding max size",
			input:     strings.Repeat("a", MaxJSONPayload+1),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSONPayload(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateJSONPayload() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidatePasskey(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "valid passkey",
			input:     "AB12CD34",
			wantError: false,
		},
		{
			name:      "all letters",
			input:     "ABCDEFGH",
			wantError: false,
		},
		{
			name:      "all digits",
			input:     "12345678",
			wantError: false,
		},
		{
			name:      "empty passkey",
			input:     "",
			wantError: true,
		},
		{
			name:      "too short",
			input:     "AB12",
			wantError: true,
		},
		{
			name:      "too long",
			input:     "AB12CD345",
			wantError: true,
		},
		{
			name:      "lowercase rejected",
			input:     "ab12cd34",
			wantError: true,
		},
		{
			name:      "symbol rejected",
			input:     "AB12CD3!",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasskey(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePasskey() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestParsePositiveID(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		fieldName string
		want      int64
		wantError bool
		errMsg    string
	}{
		{
			name:      "simple ID",
			input:     "123",
			fieldName: "group ID",
			want:      123,
		},
		{
			name:      "ID with hash prefix",
			input:     "#42",
			fieldName: "group ID",
			want:      42,
		},
		{
			name:      "ID with surrounding whitespace",
			input:     "  7  ",
			fieldName: "group ID",
			want:      7,
		},
		{
			name:      "zero rejected",
			input:     "0",
			fieldName: "group ID",
			wantError: true,
			errMsg:    "must be a positive integer",
		},
		{
			name:      "negative rejected",
			input:     "-5",
			fieldName: "group ID",
			wantError: true,
			errMsg:    "must be a positive integer",
		},
		{
			name:      "non-numeric rejected",
			input:     "abc",
			fieldName: "group ID",
			wantError: true,
			errMsg:    "invalid group ID",
		},
		{
			name:      "empty rejected",
			input:     "",
			fieldName: "group ID",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePositiveID(tt.input, tt.fieldName)
			if (err != nil) != tt.wantError {
				t.Errorf("ParsePositiveID() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("ParsePositiveID() = %v, want %v", got, tt.want)
			}
			if tt.wantError && tt.errMsg != "" && err != nil && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ParsePositiveID() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func BenchmarkValidateMessageContent(b *testing.B) {
	content := strings.Repeat("hello world ", 100)
	for i := 0; i < b.N; i++ {
		_ = ValidateMessageContent(content)
	}
}

func BenchmarkParsePositiveID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = ParsePositiveID("123456", "ID")
	}
}
