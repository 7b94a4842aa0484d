// Package renderer turns reports into markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed *.md
var templates embed.FS

// RenderReport renders the beneficiaries of one root.
func RenderReport(r *Report) string {
	partials := map[string]string{
		"report_title":         "report_title.md",
		"report_beneficiaries": "report_beneficiaries.md",
		"report_warnings":      "report_warnings.md",
		"report_diagnostics":   "report_diagnostics.md",
	}
	return renderTemplate("report", "report.md", partials, r)
}

// RenderReports renders several reports one after the other.
func RenderReports(reports []*Report) string {
	parts := make([]string, len(reports))
	for i, r := range reports {
		parts[i] = RenderReport(r)
	}
	return strings.Join(parts, "\n")
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
