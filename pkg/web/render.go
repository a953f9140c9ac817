package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/platinummonkey/codehub/pkg/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names
const (
	PageHome        = "home"
	PageSignup      = "signup"
	PageSignin      = "signin"
	PageCodehub     = "codehub"
	PageSource      = "source"
	PageProjects    = "projects"
	PageIntegration = "integration"
	PageSetting     = "setting"
)

// PageData is passed to every page template
type PageData struct {
	Username string

	// form messages
	WrongPass      string
	UserExists     string
	PassDoNotMatch string

	// external sign-in links shown on the login and signup pages
	Providers []auth.Provider
}

// Renderer writes a page
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data PageData) error
}

// TemplateRenderer renders the embedded html/template pages
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded templates
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

// Render executes page into a buffer so a template error never leaves a
// partial response behind
func (t *TemplateRenderer) Render(w http.ResponseWriter, status int, page string, data PageData) error {
	var buf bytes.Buffer
	if err := t.templates.ExecuteTemplate(&buf, page, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
