package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"

	"eventhub/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// templateRenderer renders "<name>_subject.txt", "<name>.html" and "<name>.txt" from
// the embedded templates folder. All templates are parsed once at construction.
type templateRenderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewTemplateRenderer parses the embedded templates. It panics if they do not parse,
// which can only happen with a broken build.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return &templateRenderer{
		html: htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html")),
		text: texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt")),
	}
}

func (r *templateRenderer) Render(templateName string, data any) (subject, htmlBody, textBody string, err error) {
	subject, err = execute(r.text, templateName+"_subject.txt", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	htmlBody, err = execute(r.html, templateName+".html", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	textBody, err = execute(r.text, templateName+".txt", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	return strings.TrimSpace(subject), htmlBody, textBody, nil
}

type templateExecutor interface {
	ExecuteTemplate(wr io.Writer, name string, data any) error
}

func execute(t templateExecutor, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
