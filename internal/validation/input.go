package validation

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input length limits to prevent resource exhaustion
const (
	MaxGroupNameLength = 255
	MaxUsernameLength  = 64
	MaxEmailLength     = 320     // RFC 5321: 64 chars (local) + 1 (@) + 255 (domain) = 320
	MaxMessageLength   = 100000  // 100KB for message content
	MaxJSONPayload     = 1048576 // 1MB for JSON payloads
	MaxURLLength       = 2048    // Standard browser URL limit
	PasskeyLength      = 8
)

// ValidateGroupName validates a group name.
func ValidateGroupName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("group name cannot be empty")
	}

	length := utf8.RuneCountInString(name)
	if length > MaxGroupNameLength {
		return fmt.Errorf("group name exceeds maximum length of %d characters (got %d)", MaxGroupNameLength, length)
	}

	return nil
}

// ValidateUsername validates a username length and character set.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	length := utf8.RuneCountInString(username)
	if length > MaxUsernameLength {
		return fmt.Errorf("username exceeds maximum length of %d characters (got %d)", MaxUsernameLength, length)
	}

	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return fmt.Errorf("invalid username: contains invalid character %q", r)
		}
	}

	return nil
}

// ValidateEmail validates an email address length.
// Empty emails are allowed; the field is optional in some contexts.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}

	length := utf8.RuneCountInString(email)
	if length > MaxEmailLength {
		return fmt.Errorf("email exceeds maximum length of %d characters (got %d)", MaxEmailLength, length)
	}

	return nil
}

// ValidateEmailFormat validates the format of an email address.
// Returns nil for empty emails (optional field).
func ValidateEmailFormat(email string) error {
	if email == "" {
		return nil
	}
	_, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

// ValidateMessageContent validates message content length.
// Note: Empty content is allowed (e.g., file-only messages).
// Callers should check if content is required before calling this function.
func ValidateMessageContent(content string) error {
	if content == "" {
		return nil
	}

	// Use byte length for message content as it's transmitted as UTF-8
	length := len(content)
	if length > MaxMessageLength {
		return fmt.Errorf("message content exceeds maximum size of %d bytes (got %d)", MaxMessageLength, length)
	}

	return nil
}

// ValidateJSONPayload validates JSON payload size
func ValidateJSONPayload(payload string) error {
	if payload == "" {
		return fmt.Errorf("JSON payload cannot be empty")
	}

	// Use byte length for JSON payloads as they're transmitted as UTF-8
	length := len(payload)
	if length > MaxJSONPayload {
		return fmt.Errorf("JSON payload exceeds maximum size of %d bytes (got %d)", MaxJSONPayload, length)
	}

	return nil
}

// ValidatePasskey validates a session passkey: exactly 8 characters,
// uppercase letters and digits only.
func ValidatePasskey(passkey string) error {
	if passkey == "" {
		return fmt.Errorf("passkey cannot be empty")
	}
	if len(passkey) != PasskeyLength {
		return fmt.Errorf("passkey must be exactly %d characters (got %d)", PasskeyLength, len(passkey))
	}
	for _, r := range passkey {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("invalid passkey: contains invalid character %q", r)
		}
	}
	return nil
}

// ParsePositiveID parses a string as a positive integer ID.
// Returns error if the value is not a positive integer.
func ParsePositiveID(s string, fieldName string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", fieldName, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", fieldName)
	}
	return id, nil
}
