// Package queryalias rewrites short field aliases in jq queries and
// field paths to the canonical JSON keys used by the PassDrive API.
//
// Aliases let agents write compact queries like
//
//	.it[] | sl(.sd == "alice") | .ct
//
// instead of spelling out senderUsername and content every time.
package queryalias

import (
	"sort"
	"strings"
	"unicode"
)

// Context selects how an input string is interpreted.
type Context int

const (
	// ContextPath treats the input as a dot-separated field path.
	ContextPath Context = iota
	// ContextQuery treats the input as a full jq expression.
	ContextQuery
)

// Entry maps a short alias to its canonical JSON key.
type Entry struct {
	Alias     string
	Canonical string
}

// fieldAliases maps short tokens to canonical JSON keys. Aliases are
// at most 3 characters and only rewrite all-lowercase tokens.
var fieldAliases = map[string]string{
	"i":   "id",
	"n":   "name",
	"it":  "items",
	"mt":  "meta",
	"ct":  "content",
	"sd":  "senderUsername",
	"ty":  "type",
	"tm":  "timestamp",
	"gi":  "groupId",
	"pk":  "passkey",
	"fi":  "fileId",
	"fn":  "fileName",
	"ft":  "fileType",
	"fs":  "fileSize",
	"vb":  "visibility",
	"vt":  "visibleTo",
	"un":  "username",
	"em":  "email",
	"cb":  "createdBy",
	"ca":  "createdAt",
	"mb":  "members",
	"pt":  "participants",
	"ub":  "uploadedBy",
	"ua":  "uploadedAt",
	"tok": "token",
}

// funcAliases maps short function names to jq builtins. Applied only
// when the token is immediately called.
var funcAliases = map[string]string{
	"sl": "select",
	"ts": "test",
}

// Entries returns the field alias table sorted by alias.
func Entries() []Entry {
	out := make([]Entry, 0, len(fieldAliases))
	for alias, canonical := range fieldAliases {
		out = append(out, Entry{Alias: alias, Canonical: canonical})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Canonical resolves a field alias to its canonical key.
func Canonical(alias string) (string, bool) {
	c, ok := fieldAliases[alias]
	return c, ok
}

// Normalize rewrites aliases in the input according to the context.
// Unknown contexts return the input unchanged.
func Normalize(in string, ctx Context) string {
	switch ctx {
	case ContextPath:
		return normalizePath(in)
	case ContextQuery:
		return normalizeQuery(in)
	default:
		return in
	}
}

func normalizePath(in string) string {
	if in == "" {
		return in
	}
	parts := strings.Split(in, ".")
	for i, p := range parts {
		if c, ok := lookupField(p); ok {
			parts[i] = c
		}
	}
	return strings.Join(parts, ".")
}

// lookupField resolves a token as a field alias. Mixed-case tokens are
// never rewritten so quoted-style keys like "St" survive untouched.
func lookupField(tok string) (string, bool) {
	if tok == "" || tok != strings.ToLower(tok) {
		return "", false
	}
	c, ok := fieldAliases[tok]
	return c, ok
}

// normalizeQuery rewrites aliases in a jq expression while leaving
// string literals, comments, quoted bracket keys, variables, and
// object construction keys (the part before a colon) untouched.
func normalizeQuery(in string) string {
	var b strings.Builder
	b.Grow(len(in))

	runes := []rune(in)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '"':
			// String literal, copied verbatim including escapes.
			b.WriteRune(r)
			i++
			for i < len(runes) {
				b.WriteRune(runes[i])
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
					b.WriteRune(runes[i])
				} else if runes[i] == '"' {
					i++
					break
				}
				i++
			}
		case r == '#':
			// Comment to end of line.
			for i < len(runes) && runes[i] != '\n' {
				b.WriteRune(runes[i])
				i++
			}
		case r == '$':
			// Variable reference, never rewritten.
			b.WriteRune(r)
			i++
			for i < len(runes) && isIdentRune(runes[i]) {
				b.WriteRune(runes[i])
				i++
			}
		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
			}
			tok := string(runes[start:i])
			b.WriteString(rewriteToken(tok, runes, i))
		default:
			b.WriteRune(r)
			i++
		}
	}
	return b.String()
}

// rewriteToken decides how a bare identifier is rewritten based on
// what follows it: a call is a function alias, an object key before a
// colon stays as written, everything else is a field access.
func rewriteToken(tok string, runes []rune, pos int) string {
	next := nextNonSpace(runes, pos)
	switch next {
	case '(':
		if c, ok := funcAliases[tok]; ok {
			return c
		}
		return tok
	case ':':
		return tok
	default:
		if c, ok := lookupField(tok); ok {
			return c
		}
		return tok
	}
}

func nextNonSpace(runes []rune, pos int) rune {
	for pos < len(runes) {
		if !unicode.IsSpace(runes[pos]) {
			return runes[pos]
		}
		pos++
	}
	return 0
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
