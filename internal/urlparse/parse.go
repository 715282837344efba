// Package urlparse provides URL parsing utilities for PassDrive web URLs.
package urlparse

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ParsedURL represents a parsed PassDrive web URL with extracted context.
type ParsedURL struct {
	BaseURL string
	Page    string // chat, pass-share, drive, profile, admin-dashboard
	GroupID int64  // optional, from the group query parameter, 0 if absent
	Passkey string // optional, from the passkey query parameter
}

// Supported web app pages and the CLI context each maps to.
var pages = map[string]string{
	"chat":            "chat",
	"pass-share":      "pass-share",
	"drive":           "drive",
	"profile":         "profile",
	"admin-dashboard": "admin-dashboard",
}

var passkeyPattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// Parse extracts context from a PassDrive web URL. It accepts full URLs
// like https://passdrive.example.com/chat?group=12 or
// https://passdrive.example.com/pass-share?passkey=AB12CD34 and returns
// the parsed components.
func Parse(rawURL string) (*ParsedURL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme == "" {
		return nil, fmt.Errorf("invalid URL: missing scheme (expected https://...)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme %q: expected http or https", parsed.Scheme)
	}

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)

	segment := strings.Trim(parsed.Path, "/")
	page, ok := pages[segment]
	if !ok {
		valid := make([]string, 0, len(pages))
		for k := range pages {
			valid = append(valid, k)
		}
		sort.Strings(valid)
		return nil, fmt.Errorf("unsupported page %q: expected one of %s", segment, strings.Join(valid, ", "))
	}

	result := &ParsedURL{
		BaseURL: baseURL,
		Page:    page,
	}

	query := parsed.Query()
	if raw := query.Get("group"); raw != "" {
		groupID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || groupID <= 0 {
			return nil, fmt.Errorf("invalid group ID %q", raw)
		}
		result.GroupID = groupID
	}
	if raw := query.Get("passkey"); raw != "" {
		passkey := strings.ToUpper(strings.TrimSpace(raw))
		if !passkeyPattern.MatchString(passkey) {
			return nil, fmt.Errorf("invalid passkey %q: expected 8 characters A-Z, 0-9", raw)
		}
		result.Passkey = passkey
	}

	return result, nil
}

// HasGroup returns true if the parsed URL carries a group ID.
func (p *ParsedURL) HasGroup() bool {
	return p.GroupID > 0
}

// HasPasskey returns true if the parsed URL carries a session passkey.
func (p *ParsedURL) HasPasskey() bool {
	return p.Passkey != ""
}
