// internal/template/render_test.go
package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		vars     map[string]string
		expected string
	}{
		{
			name: "simple replacement",
			text: "Hello {{client_name}}, {{pet_name}} at {{appointment_time}}",
			vars: map[string]string{
				"client_name":      "Ivan",
				"pet_name":         "Barsik",
				"appointment_time": "14:30",
			},
			expected: "Hello Ivan, Barsik at 14:30",
		},
		{
			name: "known variable without value renders empty",
			text: "Hello {{client_name}}, {{pet_name}} at {{appointment_time}}",
			vars: map[string]string{
				"client_name": "Ivan",
				"pet_name":    "Barsik",
			},
			expected: "Hello Ivan, Barsik at ",
		},
		{
			name:     "unrecognized placeholder stays literal",
			text:     "Hello {{client_name}}, code {{unknown_x}}",
			vars:     map[string]string{"client_name": "Ivan"},
			expected: "Hello Ivan, code {{unknown_x}}",
		},
		{
			name:     "no placeholders",
			text:     "Static message.",
			vars:     map[string]string{"client_name": "Ivan"},
			expected: "Static message.",
		},
		{
			name:     "unterminated placeholder left as-is",
			text:     "Hello {{client_name",
			vars:     map[string]string{"client_name": "Ivan"},
			expected: "Hello {{client_name",
		},
		{
			name:     "cyrillic body",
			text:     "Напоминание: {{appointment_time}}",
			vars:     map[string]string{"appointment_time": "09:00"},
			expected: "Напоминание: 09:00",
		},
		{
			name: "adjacent placeholders",
			text: "{{client_name}}{{pet_name}}",
			vars: map[string]string{
				"client_name": "A",
				"pet_name":    "B",
			},
			expected: "AB",
		},
		{
			name:     "empty input",
			text:     "",
			vars:     map[string]string{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.text, tt.vars))
		})
	}
}

func TestRender_SubjectAndBodyIndependent(t *testing.T) {
	vars := map[string]string{"salon_name": "Groom Room", "client_name": "Ivan"}

	subject := Render("News from {{salon_name}}", vars)
	body := Render("Hello {{client_name}}", vars)

	assert.Equal(t, "News from Groom Room", subject)
	assert.Equal(t, "Hello Ivan", body)
}

func BenchmarkRender(b *testing.B) {
	text := "Hi {{client_name}}! {{pet_name}} has a {{service_name}} appointment on {{appointment_date}} at {{appointment_time}}."
	vars := map[string]string{
		"client_name":      "Ivan",
		"pet_name":         "Barsik",
		"service_name":     "Full Groom",
		"appointment_date": "2026-09-01",
		"appointment_time": "14:30",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Render(text, vars)
	}
}
