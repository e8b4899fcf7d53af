package compose

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"reelscript/internal/reel"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Extra is text appended to a section when the source shows Pattern.
type Extra struct {
	Pattern Pattern `yaml:"pattern"`
	Text    string  `yaml:"text"`
}

// SectionTemplate is one section of a style.
type SectionTemplate struct {
	Type     reel.SectionType `yaml:"type"`
	Text     string           `yaml:"text"`
	Duration int              `yaml:"duration"`
	Extras   []Extra          `yaml:"extras"`
}

// Template is a named script style.
type Template struct {
	Style    string            `yaml:"style"`
	Title    string            `yaml:"title"`
	Sections []SectionTemplate `yaml:"sections"`
}

// Catalog is the ordered list of styles available to the composer.
type Catalog struct {
	Templates []Template `yaml:"templates"`
}

// Styles returns the style names in catalog order.
func (c Catalog) Styles() []string {
	out := make([]string, 0, len(c.Templates))
	for _, t := range c.Templates {
		out = append(out, t.Style)
	}
	return out
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(defaultTemplates)
}

// LoadCatalog reads a catalog file, or the embedded default when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read templates: %w", err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse templates: %w", err)
	}
	if err := catalog.validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

func (c Catalog) validate() error {
	if len(c.Templates) == 0 {
		return errors.New("templates: at least one style required")
	}
	seen := make(map[string]struct{}, len(c.Templates))
	for i, t := range c.Templates {
		style := strings.TrimSpace(t.Style)
		if style == "" {
			return fmt.Errorf("templates[%d]: style required", i)
		}
		if _, dup := seen[style]; dup {
			return fmt.Errorf("templates[%d]: duplicate style %q", i, style)
		}
		seen[style] = struct{}{}
		if len(t.Sections) == 0 {
			return fmt.Errorf("template %q: no sections", style)
		}
		for j, s := range t.Sections {
			if !reel.ValidSectionType(s.Type) {
				return fmt.Errorf("template %q section %d: unknown type %q", style, j, s.Type)
			}
			if strings.TrimSpace(s.Text) == "" {
				return fmt.Errorf("template %q section %d: empty text", style, j)
			}
			if s.Duration < 0 {
				return fmt.Errorf("template %q section %d: negative duration", style, j)
			}
			for _, extra := range s.Extras {
				if !extra.Pattern.Known() {
					return fmt.Errorf("template %q section %d: unknown pattern %q", style, j, extra.Pattern)
				}
			}
		}
	}
	return nil
}
