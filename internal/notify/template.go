package notify

import (
	"regexp"
	"strings"
)

// DefaultTemplate is used when no template is configured or the configured
// one references an unknown placeholder.
const DefaultTemplate = "%{actor} moved %{user} from %{previous} to %{current}"

var placeholder = regexp.MustCompile(`%\{(\w+)\}`)

// Render interpolates %{name} placeholders from vars. It reports false when
// the template names a placeholder vars does not provide.
func Render(tmpl string, vars map[string]string) (string, bool) {
	ok := true
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[2 : len(m)-1]
		v, found := vars[name]
		if !found {
			ok = false
			return m
		}
		return v
	})
	return out, ok
}

// Message renders tmpl, falling back to DefaultTemplate when tmpl is blank
// or cannot be fully interpolated.
func Message(tmpl string, vars map[string]string) string {
	if strings.TrimSpace(tmpl) != "" {
		if out, ok := Render(tmpl, vars); ok {
			return out
		}
	}
	out, _ := Render(DefaultTemplate, vars)
	return out
}
