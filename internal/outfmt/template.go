package outfmt

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/template"
)

type templateKey struct{}

// WithTemplate stores a Go template string on the context.
func WithTemplate(ctx context.Context, tmpl string) context.Context {
	return context.WithValue(ctx, templateKey{}, tmpl)
}

// GetTemplate returns the template string set on the context, if any.
func GetTemplate(ctx context.Context) string {
	tmpl, _ := ctx.Value(templateKey{}).(string)
	return tmpl
}

// templateFuncs is the function set available inside --template
// expressions. "json" re-renders any value as indented JSON.
var templateFuncs = template.FuncMap{
	"json": func(val any) (string, error) {
		var sb strings.Builder
		if err := WriteJSON(&sb, val); err != nil {
			return "", err
		}
		return sb.String(), nil
	},
}

// WriteTemplate renders v through the given text/template string.
// Missing keys render as zero values rather than failing.
func WriteTemplate(w io.Writer, v any, tmpl string) error {
	t, err := template.New("output").Funcs(templateFuncs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return formatTemplateError("invalid template", err)
	}
	if err := t.Execute(w, v); err != nil {
		return formatTemplateError("template execution error", err)
	}
	return nil
}

var templateLocationPattern = regexp.MustCompile(`:(\d+):(\d+):`)

// formatTemplateError surfaces the line and column that text/template
// buries in its error string.
func formatTemplateError(kind string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if loc := templateLocationPattern.FindStringSubmatch(msg); len(loc) == 3 {
		return fmt.Errorf("%s at line %s, column %s: %s", kind, loc[1], loc[2], msg)
	}
	return fmt.Errorf("%s: %w", kind, err)
}
