package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Email is a rendered notification ready for a transport.
type Email struct {
	Kind      Kind
	Reference string
	FromName  string
	From      string
	To        string
	Subject   string
	HTML      string
}

// RendererConfig holds the sender identity and display zone.
type RendererConfig struct {
	FromAddress string
	FromName    string
	Location    *time.Location
}

// Renderer turns typed messages into emails using the embedded templates.
type Renderer struct {
	templates   *template.Template
	format      formatter
	fromAddress string
	fromName    string
}

func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("unable to parse notification templates: %w", err)
	}

	for kind, entry := range templateSpecs {
		if tmpl.Lookup(entry.file) == nil {
			return nil, fmt.Errorf("template %s for %s not found", entry.file, kind)
		}
	}

	location := cfg.Location
	if location == nil {
		location = time.UTC
	}

	return &Renderer{
		templates:   tmpl,
		format:      formatter{location: location},
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
	}, nil
}

func (r *Renderer) Render(msg Message) (*Email, error) {
	entry, ok := templateSpecs[msg.Kind()]
	if !ok {
		return nil, fmt.Errorf("no template registered for %s", msg.Kind())
	}
	if msg.Recipient() == "" {
		return nil, fmt.Errorf("%s for %s has no recipient", msg.Kind(), msg.Reference())
	}

	var body bytes.Buffer
	if err := r.templates.ExecuteTemplate(&body, entry.file, msg.view(r.format)); err != nil {
		return nil, fmt.Errorf("unable to render %s: %w", entry.file, err)
	}

	return &Email{
		Kind:      msg.Kind(),
		Reference: msg.Reference(),
		FromName:  r.fromName,
		From:      r.fromAddress,
		To:        msg.Recipient(),
		Subject:   entry.subject,
		HTML:      body.String(),
	}, nil
}
