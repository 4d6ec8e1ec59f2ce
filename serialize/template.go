package serialize

import (
	"fmt"
	"reflect"
	"strings"
)

// Formatter transforms one placeholder value during template filling. The
// key is the placeholder name, useful for guards and flag-style rendering.
type Formatter func(key string, value any) (any, error)

// GlobalFormatters are the formatter names available in templates by
// default. The empty name is the terminal stringifier every placeholder
// chain ends with.
var GlobalFormatters = map[string]Formatter{
	"":        func(_ string, value any) (any, error) { return stringify(value), nil },
	"bool":    formatBool,
	"nospace": formatNoSpace,
	"join":    func(key string, value any) (any, error) { return joinIterable(key, value, "") },
	"comma":   func(key string, value any) (any, error) { return joinIterable(key, value, ",") },
	"space":   func(key string, value any) (any, error) { return joinIterable(key, value, " ") },
}

// formatBool renders the placeholder name itself when the value is truthy
// and nothing otherwise, for flag parameters like AWAY or MODE switches.
func formatBool(key string, value any) (any, error) {
	if truthy(value) {
		return key, nil
	}
	return "", nil
}

// formatNoSpace rejects values whose rendering contains a space.
func formatNoSpace(key string, value any) (any, error) {
	s := stringify(value)
	if strings.Contains(s, " ") {
		return nil, fmt.Errorf("%s cannot contain spaces", key)
	}
	return s, nil
}

// joinIterable joins slice values with delim, leaves strings and scalars as
// they are.
func joinIterable(_ string, value any, delim string) (any, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = stringify(rv.Index(i).Interface())
		}
		return strings.Join(parts, delim), nil
	}
	return value, nil
}

func stringify(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

// truthy mirrors the permissive emptiness check used for flag parameters:
// nil, false, zero numbers, empty strings and empty collections are falsy.
func truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	default:
		return true
	}
}

// component is one parsed piece of a template: a literal run or a named
// placeholder with its formatter chain.
type component struct {
	literal string
	field   string
	fns     []Formatter
}

// Template is a parsed output pattern with named placeholders. Placeholders
// use {name} or {name:spec} where spec is a |-separated formatter chain; a
// leading "opt" marks the placeholder optional. Literal braces are escaped
// by doubling.
type Template struct {
	original   string
	components []component
	required   []string
	optional   []string
}

// String returns the original template text.
func (t *Template) String() string { return t.original }

// Required returns the placeholder names without an opt marker.
func (t *Template) Required() []string { return t.required }

// Optional returns the placeholder names carrying an opt marker.
func (t *Template) Optional() []string { return t.optional }

// ParseTemplate parses a template using the default formatters.
func ParseTemplate(text string) (*Template, error) {
	return ParseTemplateWith(text, GlobalFormatters)
}

// ParseTemplateWith parses a template against an explicit formatter table.
// The empty formatter name must be present; it terminates every chain.
func ParseTemplateWith(text string, formatters map[string]Formatter) (*Template, error) {
	t := &Template{original: text}
	seen := make(map[string]bool)

	var literal strings.Builder
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			literal.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			literal.WriteByte('}')
			i += 2
		case c == '}':
			return nil, fmt.Errorf("invalid template %q: unmatched '}'", text)
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("invalid template %q: unmatched '{'", text)
			}
			raw := text[i+1 : i+1+end]
			i += end + 2

			name := raw
			spec := ""
			hasSpec := false
			if j := strings.IndexByte(raw, ':'); j >= 0 {
				name, spec = raw[:j], raw[j+1:]
				hasSpec = true
			}
			comp, optional, err := parseField(text, name, spec, hasSpec, formatters)
			if err != nil {
				return nil, err
			}

			comp.literal = literal.String()
			literal.Reset()
			t.components = append(t.components, comp)

			if !seen[name] {
				seen[name] = true
				if optional {
					t.optional = append(t.optional, name)
				} else {
					t.required = append(t.required, name)
				}
			}
		default:
			literal.WriteByte(c)
			i++
		}
	}
	if literal.Len() > 0 {
		t.components = append(t.components, component{literal: literal.String()})
	}
	return t, nil
}

func parseField(text, name, spec string, hasSpec bool, formatters map[string]Formatter) (component, bool, error) {
	if name == "" {
		return component{}, false, fmt.Errorf("invalid template %q: anonymous placeholder", text)
	}
	if strings.ContainsAny(name, " {}") {
		return component{}, false, fmt.Errorf("invalid template %q: bad placeholder name %q", text, name)
	}
	if strings.Contains(name, "!") {
		return component{}, false, fmt.Errorf("invalid template %q: conversions are not supported", text)
	}
	if strings.ContainsAny(spec, "{}") {
		return component{}, false, fmt.Errorf("invalid template %q: nested placeholder in format spec", text)
	}

	var chain []string
	if hasSpec {
		chain = strings.Split(spec, "|")
	}
	optional := false
	if len(chain) > 0 && chain[0] == "opt" {
		optional = true
		chain = chain[1:]
	}
	for _, fname := range chain {
		if _, ok := formatters[fname]; !ok {
			return component{}, false, fmt.Errorf("invalid template %q: unknown formatter %q", text, fname)
		}
	}
	// Every chain ends with the default stringifier.
	if len(chain) == 0 || chain[len(chain)-1] != "" {
		chain = append(chain, "")
	}

	fns := make([]Formatter, len(chain))
	for i, fname := range chain {
		fns[i] = formatters[fname]
	}
	return component{field: name, fns: fns}, optional, nil
}

// Format fills the template from params. Every placeholder must be present
// with a non-nil value; Serialize is responsible for supplying defaults and
// empty strings first. The result is trimmed of surrounding whitespace.
func (t *Template) Format(params map[string]any) (string, error) {
	var b strings.Builder
	for _, comp := range t.components {
		b.WriteString(comp.literal)
		if comp.field == "" {
			continue
		}
		value, ok := params[comp.field]
		if !ok || value == nil {
			return "", fmt.Errorf("template %q: missing parameter %q", t.original, comp.field)
		}
		for _, fn := range comp.fns {
			var err error
			value, err = fn(comp.field, value)
			if err != nil {
				return "", fmt.Errorf("template %q: %w", t.original, err)
			}
		}
		b.WriteString(stringify(value))
	}
	return strings.TrimSpace(b.String()), nil
}
