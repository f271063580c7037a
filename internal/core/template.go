package core

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRe matches a single-brace Jinja-style placeholder:
// { namespace.attr.subattr }, with optional surrounding whitespace.
var placeholderRe = regexp.MustCompile(`\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*)\s*\}`)

// RenderStrict renders tmpl against namespaces using single-brace
// placeholders: `{ }` delimiters, Jinja-like dotted access, list values
// space-joined, and an undefined variable is fatal (never silently
// substituted with an empty string).
//
// This is a hand-rolled substitution pass rather than text/template:
// namespaces are Value trees built at submission time, not Go structs,
// so there is no static type to drive template's field-selector syntax
// against, and missingkey=error only covers map lookups one level deep.
// The dotted path is pre-resolved against the Value tree before any
// output is written, so an undefined variable aborts before partial
// output is produced.
func RenderStrict(tmpl string, namespaces Value) (string, error) {
	if !strings.Contains(tmpl, "{") {
		return tmpl, nil
	}

	var outerErr error
	matches := placeholderRe.FindAllStringSubmatchIndex(tmpl, -1)
	if matches == nil {
		return tmpl, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		pathStart, pathEnd := m[2], m[3]
		path := tmpl[pathStart:pathEnd]

		val, ok := namespaces.Get(path)
		if !ok {
			return "", Errorf(KindTemplateUndefined, "template.render", "undefined variable: %s", path)
		}
		rendered, err := val.AsString()
		if err != nil {
			outerErr = Errorf(KindTemplateUndefined, "template.render", "variable %s: %v", path, err)
			return "", outerErr
		}
		b.WriteString(tmpl[last:start])
		b.WriteString(rendered)
		last = end
	}
	b.WriteString(tmpl[last:])
	return b.String(), nil
}

// RenderVarTemplates walks a nested mapping of string templates (the PI's
// var_templates section, ) and renders each string leaf
// independently under RenderStrict, returning a new nested mapping.
func RenderVarTemplates(templates Value, namespaces Value) (Value, error) {
	switch templates.Kind() {
	case ValueString:
		s, _ := templates.AsString()
		rendered, err := RenderStrict(s, namespaces)
		if err != nil {
			return Value{}, err
		}
		return String(rendered), nil
	case ValueMapping:
		m, _ := templates.AsMapping()
		out := make(map[string]Value, len(m))
		for k, v := range m {
			rv, err := RenderVarTemplates(v, namespaces)
			if err != nil {
				return Value{}, fmt.Errorf("var_templates.%s: %w", k, err)
			}
			out[k] = rv
		}
		return Mapping(out), nil
	case ValueList:
		items, _ := templates.AsList()
		out := make([]Value, len(items))
		for i, v := range items {
			rv, err := RenderVarTemplates(v, namespaces)
			if err != nil {
				return Value{}, err
			}
			out[i] = rv
		}
		return List(out...), nil
	default:
		return templates, nil
	}
}

// Compute-package submission templates use a different substitution form
// entirely ({UPPERCASE_TOKEN}) and are handled in compute.go, not here:
// the dotted-path + Value-tree lookup model above does not map onto Go's
// text/template field-selector semantics without a much larger adapter,
// so direct placeholder substitution is the better fit (see DESIGN.md).
