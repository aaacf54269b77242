// internal/template/render.go
package template

import (
	"strings"

	"salon-notifications/internal/models"
)

var knownVariable = func() map[string]bool {
	m := make(map[string]bool, len(models.MergeVariables))
	for _, v := range models.MergeVariables {
		m[v] = true
	}
	return m
}()

// Render substitutes {{name}} placeholders in text. A known variable with no
// value renders as the empty string; a placeholder outside the canonical set
// stays verbatim so staff notice a misconfigured template. Pure function,
// applied independently to subject and body.
func Render(text string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(text))

	rest := text
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			b.WriteString(rest)
			break
		}
		end += start

		name := rest[start+2 : end]
		b.WriteString(rest[:start])

		if v, ok := vars[name]; ok {
			b.WriteString(v)
		} else if knownVariable[name] {
			// declared but absent, e.g. salon has no address on file
		} else {
			b.WriteString(rest[start : end+2])
		}

		rest = rest[end+2:]
	}

	return b.String()
}
