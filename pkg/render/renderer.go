// Package render loads and renders the HTML and plain-text templates behind
// each email type.
//
// Templates live on disk as <email_type>.html and <email_type>.txt and use Go
// template syntax. HTML output is contextually escaped; plain-text output is
// not. When a type has no .txt template a built-in fallback body is generated
// instead, so every email can carry a text alternative.
package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	texttemplate "text/template"
)

const (
	// FormatHTML selects the .html variant of a template.
	FormatHTML = "html"
	// FormatText selects the .txt variant of a template.
	FormatText = "text"
)

// Renderer holds the parsed template sets for both formats.
type Renderer struct {
	html    map[string]*htmltemplate.Template
	text    map[string]*texttemplate.Template
	mu      sync.RWMutex
	options *Options
}

// Options configures the renderer behavior.
type Options struct {
	TemplateDir string         // Directory holding <type>.html / <type>.txt files
	Funcs       map[string]any // Extra functions available to all templates
}

// Option configures the renderer.
type Option func(*Options)

// WithTemplateDir sets the default template directory.
func WithTemplateDir(dir string) Option {
	return func(opts *Options) {
		opts.TemplateDir = dir
	}
}

// WithFuncs registers additional template functions on top of the built-in
// ones. Names shadow built-ins on collision.
func WithFuncs(funcs map[string]any) Option {
	return func(opts *Options) {
		opts.Funcs = funcs
	}
}

// NewRenderer creates a renderer with the given options. Templates are not
// loaded until LoadTemplatesFromDir is called.
func NewRenderer(opts ...Option) *Renderer {
	options := &Options{
		TemplateDir: "templates",
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Renderer{
		html:    make(map[string]*htmltemplate.Template),
		text:    make(map[string]*texttemplate.Template),
		options: options,
	}
}

// funcMap returns the functions exposed to templates. format_date and
// format_time are pass-throughs today; callers already send preformatted
// strings in the context.
func (r *Renderer) funcMap() map[string]any {
	funcs := map[string]any{
		"format_date": func(v any) any { return v },
		"format_time": func(v any) any { return v },
	}
	for name, fn := range r.options.Funcs {
		funcs[name] = fn
	}
	return funcs
}

// LoadTemplate parses a single template from a string and registers it under
// the given email type. Format is FormatHTML or FormatText.
func (r *Renderer) LoadTemplate(emailType, format, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch format {
	case FormatHTML:
		tmpl, err := htmltemplate.New(emailType).Funcs(r.funcMap()).Parse(content)
		if err != nil {
			return fmt.Errorf("failed to parse template %s.html: %w", emailType, err)
		}
		r.html[emailType] = tmpl
	case FormatText:
		tmpl, err := texttemplate.New(emailType).Funcs(r.funcMap()).Parse(content)
		if err != nil {
			return fmt.Errorf("failed to parse template %s.txt: %w", emailType, err)
		}
		r.text[emailType] = tmpl
	default:
		return fmt.Errorf("unknown template format %q", format)
	}

	return nil
}

// LoadTemplateFromFile loads a single template file. The format is inferred
// from the file extension.
func (r *Renderer) LoadTemplateFromFile(emailType, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	format, ok := formatForPath(path)
	if !ok {
		return fmt.Errorf("unsupported template file %s", path)
	}

	return r.LoadTemplate(emailType, format, string(content))
}

// LoadTemplatesFromDir loads every .html and .txt file from a directory. The
// directory is created if it does not exist, so a fresh deployment with no
// templates still boots and serves fallback text.
func (r *Renderer) LoadTemplatesFromDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create template directory %s: %w", dir, err)
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}
		if _, ok := formatForPath(path); !ok {
			return nil
		}

		// Use filename without extension as the email type.
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return r.LoadTemplateFromFile(name, path)
	})
}

// ReplaceTemplatesFromDir atomically replaces all templates by loading from a
// directory. The swap happens only after every file parsed, so no requests
// see a partially-loaded state.
func (r *Renderer) ReplaceTemplatesFromDir(dir string) error {
	staged := NewRenderer(WithTemplateDir(dir), WithFuncs(r.options.Funcs))
	if err := staged.LoadTemplatesFromDir(dir); err != nil {
		return err
	}

	r.mu.Lock()
	r.html = staged.html
	r.text = staged.text
	r.mu.Unlock()

	return nil
}

// RenderHTML renders the HTML template for an email type. Missing templates
// are an error: HTML has no generated fallback.
func (r *Renderer) RenderHTML(emailType string, data map[string]any) (string, error) {
	r.mu.RLock()
	tmpl, exists := r.html[emailType]
	r.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s.html", emailType)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s.html: %w", emailType, err)
	}

	return buf.String(), nil
}

// RenderText renders the plain-text template for an email type. When no .txt
// template is loaded a built-in fallback body is generated instead.
func (r *Renderer) RenderText(emailType string, data map[string]any) (string, error) {
	r.mu.RLock()
	tmpl, exists := r.text[emailType]
	r.mu.RUnlock()

	if !exists {
		return fallbackText(emailType, data), nil
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s.txt: %w", emailType, err)
	}

	return buf.String(), nil
}

// TemplateExists reports whether a template is loaded for the email type in
// the given format.
func (r *Renderer) TemplateExists(emailType, format string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch format {
	case FormatText:
		_, ok := r.text[emailType]
		return ok
	default:
		_, ok := r.html[emailType]
		return ok
	}
}

// ListTemplates returns the loaded template file names, sorted.
func (r *Renderer) ListTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.html)+len(r.text))
	for name := range r.html {
		names = append(names, name+".html")
	}
	for name := range r.text {
		names = append(names, name+".txt")
	}
	sort.Strings(names)
	return names
}

func formatForPath(path string) (string, bool) {
	switch filepath.Ext(path) {
	case ".html":
		return FormatHTML, true
	case ".txt":
		return FormatText, true
	default:
		return "", false
	}
}
