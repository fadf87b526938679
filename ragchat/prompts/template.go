// Package prompts renders named prompt templates with strict variable checking.
//
// Templates use text/template syntax with map keys, e.g. {{.question}}. Every variable a
// template declares must be supplied to Format; rendering fails before any model call otherwise.
package prompts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

var (
	// ErrMissingVariable is returned when Format is called without a declared variable.
	ErrMissingVariable = errors.New("prompt variable missing")
	// ErrInvalidTemplate is returned when template text fails to parse or execute.
	ErrInvalidTemplate = errors.New("invalid prompt template")
)

// Template is a parsed prompt with the variables it requires.
type Template struct {
	name string
	text string
	vars []string
	tmpl *template.Template
}

// New parses text and records vars as required variables.
func New(name, text string, vars ...string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, name, err)
	}

	required := append([]string(nil), vars...)
	sort.Strings(required)

	return &Template{name: name, text: text, vars: required, tmpl: tmpl}, nil
}

// Must panics if err is non-nil. Intended for package-level defaults only.
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Name() string { return t.name }

func (t *Template) Text() string { return t.text }

// Variables returns the sorted required variable names.
func (t *Template) Variables() []string {
	return append([]string(nil), t.vars...)
}

// Format renders the template. Missing required variables are reported before execution.
func (t *Template) Format(vars map[string]string) (string, error) {
	if t == nil || t.tmpl == nil {
		return "", fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	}

	var missing []string
	for _, name := range t.vars {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s requires %s", ErrMissingVariable, t.name, strings.Join(missing, ", "))
	}

	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, t.name, err)
	}
	return sb.String(), nil
}
