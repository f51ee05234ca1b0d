// -----------------------------------------------------------------------
// Deck Templates - YAML-defined rendering styles
// -----------------------------------------------------------------------

package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RGB is a template color.
type RGB struct {
	R int `yaml:"r"`
	G int `yaml:"g"`
	B int `yaml:"b"`
}

// DeckTemplate controls page layout and typography for rendered decks.
// Templates are loaded from <templates_dir>/<name>.yaml.
type DeckTemplate struct {
	Name        string  `yaml:"name"`
	Orientation string  `yaml:"orientation"` // "P" portrait or "L" landscape
	PageSize    string  `yaml:"page_size"`   // "A4", "Letter"
	FontFamily  string  `yaml:"font_family"` // fpdf core font: Arial, Times, Courier
	BaseSize    float64 `yaml:"base_size"`   // body font size in points
	Accent      RGB     `yaml:"accent"`      // heading color
}

// DefaultTemplate returns the built-in template used when no template file
// matches.
func DefaultTemplate() *DeckTemplate {
	return &DeckTemplate{
		Name:        "default",
		Orientation: "L",
		PageSize:    "A4",
		FontFamily:  "Arial",
		BaseSize:    10,
		Accent:      RGB{R: 31, G: 78, B: 121},
	}
}

// TemplateStore loads deck templates from a directory.
type TemplateStore struct {
	dir string
}

// NewTemplateStore creates a template store over the given directory. The
// directory may be missing; lookups then always return the default.
func NewTemplateStore(dir string) *TemplateStore {
	return &TemplateStore{dir: dir}
}

// Get returns the named template, falling back to the built-in default for
// an empty name or a missing file.
func (t *TemplateStore) Get(name string) (*DeckTemplate, error) {
	if name == "" || name == "default" {
		return DefaultTemplate(), nil
	}
	if strings.ContainsAny(name, `/\.`) {
		return nil, fmt.Errorf("invalid template name: %s", name)
	}

	data, err := os.ReadFile(filepath.Join(t.dir, name+".yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTemplate(), nil
		}
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl := DefaultTemplate()
	if err := yaml.Unmarshal(data, tmpl); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	tmpl.Name = name

	if tmpl.Orientation != "P" && tmpl.Orientation != "L" {
		tmpl.Orientation = "L"
	}
	if tmpl.BaseSize <= 0 {
		tmpl.BaseSize = 10
	}
	if tmpl.FontFamily == "" {
		tmpl.FontFamily = "Arial"
	}
	if tmpl.PageSize == "" {
		tmpl.PageSize = "A4"
	}

	return tmpl, nil
}

// List returns the names of available templates, default first.
func (t *TemplateStore) List() []string {
	names := []string{"default"}
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return names
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		if name != entry.Name() && name != "default" {
			names = append(names, name)
		}
	}
	return names
}
