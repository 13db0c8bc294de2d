package notification

import (
	"bytes"
	_ "embed"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Template names
const (
	TemplateOffer             = "offer"
	TemplateEmailVerification = "email_verification"
	TemplatePasswordReset     = "password_reset"
	TemplateWelcomeIntern     = "welcome_intern"
	TemplateWelcomeCompany    = "welcome_company"
)

//go:embed templates.yaml
var templatesYAML []byte

type templateSource struct {
	Subject string `yaml:"subject"`
	Text    string `yaml:"text"`
	HTML    string `yaml:"html"`
}

type compiledTemplate struct {
	subject *template.Template
	text    *template.Template
	html    *htmltemplate.Template
}

// Templates renders the email templates embedded in the binary
type Templates struct {
	byName map[string]compiledTemplate
}

// LoadTemplates parses the embedded templates
func LoadTemplates() (*Templates, error) {
	return ParseTemplates(templatesYAML)
}

// ParseTemplates parses a YAML document of named subject/text/html templates
func ParseTemplates(src []byte) (*Templates, error) {
	var sources map[string]templateSource
	if err := yaml.Unmarshal(src, &sources); err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	t := &Templates{byName: make(map[string]compiledTemplate, len(sources))}
	for name, s := range sources {
		var (
			c   compiledTemplate
			err error
		)
		if c.subject, err = template.New(name + ".subject").Parse(s.Subject); err != nil {
			return nil, fmt.Errorf("template %s subject: %w", name, err)
		}
		if c.text, err = template.New(name + ".text").Parse(s.Text); err != nil {
			return nil, fmt.Errorf("template %s text: %w", name, err)
		}
		if c.html, err = htmltemplate.New(name + ".html").Parse(s.HTML); err != nil {
			return nil, fmt.Errorf("template %s html: %w", name, err)
		}
		t.byName[name] = c
	}
	return t, nil
}

// Render fills the named template. The returned message has no recipient.
func (t *Templates) Render(name string, data any) (Message, error) {
	c, ok := t.byName[name]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template %q", name)
	}

	var subject, text, html bytes.Buffer
	if err := c.subject.Execute(&subject, data); err != nil {
		return Message{}, err
	}
	if err := c.text.Execute(&text, data); err != nil {
		return Message{}, err
	}
	if err := c.html.Execute(&html, data); err != nil {
		return Message{}, err
	}

	return Message{
		Subject: subject.String(),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
