package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRenderer(t *testing.T) {
	renderer := NewRenderer()
	if renderer == nil {
		t.Fatal("NewRenderer returned nil")
	}
}

func TestRendererOptions(t *testing.T) {
	renderer := NewRenderer(
		WithTemplateDir("/tmp/custom"),
		WithFuncs(map[string]any{"shout": strings.ToUpper}),
	)

	if renderer.options.TemplateDir != "/tmp/custom" {
		t.Errorf("TemplateDir = %q, want /tmp/custom", renderer.options.TemplateDir)
	}

	if _, ok := renderer.funcMap()["shout"]; !ok {
		t.Error("extra template func not registered")
	}
}

func TestLoadTemplatesFromDir(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "booking_created.html",
		`<html><body>Hola {{.customer_name}}, tu cita de {{.service_type}} esta confirmada.</body></html>`)
	writeTemplate(t, dir, "booking_created.txt",
		`Hola {{.customer_name}}, tu cita de {{.service_type}} esta confirmada.`)

	renderer := NewRenderer(WithTemplateDir(dir))
	if err := renderer.LoadTemplatesFromDir(dir); err != nil {
		t.Fatalf("LoadTemplatesFromDir failed: %v", err)
	}

	if !renderer.TemplateExists("booking_created", FormatHTML) {
		t.Error("HTML template not loaded")
	}
	if !renderer.TemplateExists("booking_created", FormatText) {
		t.Error("text template not loaded")
	}

	data := map[string]any{"customer_name": "Ana", "service_type": "Corte"}

	html, err := renderer.RenderHTML("booking_created", data)
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	if !strings.Contains(html, "Hola Ana") || !strings.Contains(html, "Corte") {
		t.Errorf("unexpected HTML output: %s", html)
	}

	text, err := renderer.RenderText("booking_created", data)
	if err != nil {
		t.Fatalf("RenderText failed: %v", err)
	}
	if !strings.Contains(text, "Hola Ana") {
		t.Errorf("unexpected text output: %s", text)
	}
}

func TestLoadTemplatesFromDirCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does", "not", "exist")

	renderer := NewRenderer(WithTemplateDir(dir))
	if err := renderer.LoadTemplatesFromDir(dir); err != nil {
		t.Fatalf("LoadTemplatesFromDir on missing dir failed: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("template directory was not created: %v", err)
	}
}

func TestRenderHTMLEscapesContext(t *testing.T) {
	renderer := NewRenderer()
	if err := renderer.LoadTemplate("transactional", FormatHTML,
		`<p>{{.customer_name}}</p>`); err != nil {
		t.Fatal(err)
	}

	html, err := renderer.RenderHTML("transactional", map[string]any{
		"customer_name": `<script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(html, "<script>") {
		t.Errorf("HTML output not escaped: %s", html)
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("expected escaped markup in output: %s", html)
	}
}

func TestRenderHTMLMissingTemplate(t *testing.T) {
	renderer := NewRenderer()

	_, err := renderer.RenderHTML("booking_created", nil)
	if err == nil {
		t.Fatal("expected error for missing template")
	}
	if !strings.Contains(err.Error(), "template not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRenderTextFallbacks(t *testing.T) {
	renderer := NewRenderer()

	tests := []struct {
		name      string
		emailType string
		data      map[string]any
		want      []string
	}{
		{
			name:      "booking created",
			emailType: "booking_created",
			data: map[string]any{
				"customer_name":    "Ana",
				"service_type":     "Corte",
				"booking_date":     "2025-06-01",
				"booking_time":     "10:00",
				"duration_minutes": 45,
			},
			want: []string{"Hola Ana", "Tu cita ha sido confirmada", "Servicio: Corte", "Duracion: 45 minutos"},
		},
		{
			name:      "booking cancelled",
			emailType: "booking_cancelled",
			data:      map[string]any{"customer_name": "Luis"},
			want:      []string{"Hola Luis", "Tu cita ha sido cancelada", "Servicio: N/A"},
		},
		{
			name:      "booking rescheduled",
			emailType: "booking_rescheduled",
			data: map[string]any{
				"old_date": "2025-06-01",
				"new_date": "2025-06-08",
			},
			want: []string{"Hola Cliente", "Tu cita ha sido reagendada", "Fecha anterior: 2025-06-01", "Nueva fecha: 2025-06-08"},
		},
		{
			name:      "reminder defaults to 24 hours",
			emailType: "reminder_24h",
			data:      map[string]any{"customer_name": "Eva"},
			want:      []string{"Recordatorio: Tienes una cita en 24 horas", "Te esperamos!"},
		},
		{
			name:      "one hour reminder keeps its own horizon",
			emailType: "reminder_1h",
			data:      map[string]any{"hours_until": "1"},
			want:      []string{"Tienes una cita en 1 horas"},
		},
		{
			name:      "unknown type gets the generic body",
			emailType: "password_reset",
			data:      nil,
			want:      []string{"Hola Cliente", "Gracias por tu confianza."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := renderer.RenderText(tt.emailType, tt.data)
			if err != nil {
				t.Fatalf("RenderText failed: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(text, want) {
					t.Errorf("fallback missing %q:\n%s", want, text)
				}
			}
		})
	}
}

func TestRenderTextPrefersLoadedTemplate(t *testing.T) {
	renderer := NewRenderer()
	if err := renderer.LoadTemplate("booking_created", FormatText,
		`Custom body for {{.customer_name}}`); err != nil {
		t.Fatal(err)
	}

	text, err := renderer.RenderText("booking_created", map[string]any{"customer_name": "Ana"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Custom body for Ana") {
		t.Errorf("loaded template not used: %s", text)
	}
	if strings.Contains(text, "Gracias por tu confianza") {
		t.Error("fallback used despite loaded template")
	}
}

func TestTemplateFuncsPassThrough(t *testing.T) {
	renderer := NewRenderer()
	if err := renderer.LoadTemplate("reminder_24h", FormatText,
		`Fecha: {{format_date .booking_date}} Hora: {{format_time .booking_time}}`); err != nil {
		t.Fatal(err)
	}

	text, err := renderer.RenderText("reminder_24h", map[string]any{
		"booking_date": "2025-06-01",
		"booking_time": "10:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	if text != "Fecha: 2025-06-01 Hora: 10:00" {
		t.Errorf("unexpected output: %s", text)
	}
}

func TestReplaceTemplatesFromDir(t *testing.T) {
	oldDir := t.TempDir()
	writeTemplate(t, oldDir, "booking_created.html", `old`)

	renderer := NewRenderer(WithTemplateDir(oldDir))
	if err := renderer.LoadTemplatesFromDir(oldDir); err != nil {
		t.Fatal(err)
	}

	newDir := t.TempDir()
	writeTemplate(t, newDir, "reminder_24h.html", `new`)

	if err := renderer.ReplaceTemplatesFromDir(newDir); err != nil {
		t.Fatalf("ReplaceTemplatesFromDir failed: %v", err)
	}

	if renderer.TemplateExists("booking_created", FormatHTML) {
		t.Error("stale template survived replace")
	}
	if !renderer.TemplateExists("reminder_24h", FormatHTML) {
		t.Error("new template not loaded")
	}
}

func TestListTemplates(t *testing.T) {
	renderer := NewRenderer()
	if err := renderer.LoadTemplate("booking_created", FormatHTML, `x`); err != nil {
		t.Fatal(err)
	}
	if err := renderer.LoadTemplate("booking_created", FormatText, `x`); err != nil {
		t.Fatal(err)
	}

	names := renderer.ListTemplates()
	if len(names) != 2 {
		t.Fatalf("ListTemplates returned %d names, want 2", len(names))
	}
	if names[0] != "booking_created.html" || names[1] != "booking_created.txt" {
		t.Errorf("unexpected names: %v", names)
	}
}

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
