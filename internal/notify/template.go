package notify

import (
	"bytes"
	"errors"
	"text/template"
)

const DefaultTemplate = `[Tank {{.Status}}]
Plaza: {{.Plaza}}
Balance: {{.Balance}} L
Threshold: {{.Threshold}} L
Last Withdrawal: {{.Withdrawn}} L by {{.Actor}}
Time: {{.Time}}
Suggestion: {{.Suggestion}}`

// TemplateData provides fields for rendering tank alert content.
type TemplateData struct {
	Plaza      string
	PlazaID    string
	Balance    string
	Threshold  string
	Withdrawn  string
	Actor      string
	Time       string
	Status     string
	Suggestion string
}

// Template renders notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("tank-alert").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("tank template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
