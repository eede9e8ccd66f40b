package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"log"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/sintimjnr/gctu-project-submission-system/fs"
)

const tmplDir = "templates/email"

var (
	templates tmplCache
	tmplInit  sync.Once
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getTemplate(ext string) (interface{}, bool) {
	cache, ok := templates[m.TemplateName]
	if !ok {
		return nil, ok
	}
	tmplEntry, ok := cache[ext]
	return tmplEntry, ok
}

func (m *EmailMessage) renderText(data ContextData) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".txt")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, data); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(data ContextData) error {
	if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, data); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills TextContent and HTMLContent from the message template.
func (m *EmailMessage) Render(frontendBaseURL string) error {
	if m.TemplateName != "" {
		tmplInit.Do(parseTemplates) // only execute once during first request
	}
	data := ContextData{FrontendBaseURL: frontendBaseURL, Data: m.TemplateData}
	if err := m.renderText(data); err != nil {
		return errors.Wrap(err, "rendering text content")
	}
	return errors.Wrap(m.renderHTML(data), "rendering html content")
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseTemplates() {
	templates = make(tmplCache)

	entries, err := fs.ReadDir(appfs.FS, tmplDir)
	if err != nil {
		log.Printf("core.parseTemplates: %v", err)
		return
	}

	for _, e := range entries {
		fname := e.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := templates[name]
		if !ok {
			templates[name] = make(tmplCacheEntry)
			entry = templates[name]
		}
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(appfs.FS, path.Join(tmplDir, "_base.txt"), path.Join(tmplDir, fname))
			if err != nil {
				log.Printf("core.parseTemplates: %v", err)
				continue
			}
			entry[ext] = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(appfs.FS, path.Join(tmplDir, "_base.gohtml"), path.Join(tmplDir, fname))
			if err != nil {
				log.Printf("core.parseTemplates: %v", err)
				continue
			}
			entry[ext] = tmpl.Option("missingkey=error")
		}
	}
}
