package compose

import (
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"reelscript/internal/config"
	"reelscript/internal/engagement"
	"reelscript/internal/reel"
	"reelscript/internal/services"
)

const (
	// DefaultVariantCount is used when a request does not ask for a count.
	DefaultVariantCount = 2
	// excerptRunes caps each transcript excerpt slotted into a template.
	excerptRunes = 160
)

// Composer renders scripts from templates and ranked reels.
type Composer struct {
	catalog  Catalog
	weights  engagement.Weights
	variants int
	newID    func() string
}

// Option customizes a Composer.
type Option func(*Composer)

// WithCatalog replaces the template catalog.
func WithCatalog(catalog Catalog) Option {
	return func(c *Composer) { c.catalog = catalog }
}

// WithIDGenerator replaces uuid script ids.
func WithIDGenerator(fn func() string) Option {
	return func(c *Composer) { c.newID = fn }
}

// New builds a Composer from configuration, loading compose.templates_file
// when set.
func New(cfg *config.Config, opts ...Option) (*Composer, error) {
	c := &Composer{
		weights: engagement.Weights{
			Comment: cfg.Engagement.CommentWeight,
			Like:    cfg.Engagement.LikeWeight,
			View:    cfg.Engagement.ViewWeight,
		},
		variants: cfg.Compose.VariantCount,
		newID:    uuid.NewString,
	}
	if c.variants <= 0 {
		c.variants = DefaultVariantCount
	}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.catalog.Templates) == 0 {
		catalog, err := LoadCatalog(cfg.Compose.TemplatesFile)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "compose", "templates", "load catalog", err)
		}
		c.catalog = catalog
	}
	return c, nil
}

// Catalog returns the templates in use.
func (c *Composer) Catalog() Catalog { return c.catalog }

// variantCount applies the configured default and caps n at the number of
// styles so no style is used twice.
func (c *Composer) variantCount(n int) int {
	if n <= 0 {
		n = c.variants
	}
	return min(n, len(c.catalog.Templates))
}

// Compose renders up to variantCount scripts for theme. Each script uses a
// different style and the highest-ranked reel not yet used; reels repeat only
// when the pool is smaller than the variant count. Reels without a transcript
// are ignored.
func (c *Composer) Compose(theme string, target reel.TargetAudience, pool []reel.Reel, variantCount int) ([]reel.Script, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, services.Wrap(services.ErrValidation, "compose", "theme", "theme required", nil)
	}
	ranked := make([]reel.Reel, 0, len(pool))
	for _, r := range pool {
		if strings.TrimSpace(r.Transcript) != "" {
			ranked = append(ranked, r)
		}
	}
	if len(ranked) == 0 {
		return nil, services.Wrap(services.ErrEmptyPool, "compose", "pool", "no usable reels for target "+target.AsLabel().String(), nil)
	}
	c.weights.Sort(ranked)
	variantCount = c.variantCount(variantCount)

	keywords := keywordText(theme)
	offset := styleOffset(theme, len(c.catalog.Templates))
	scripts := make([]reel.Script, 0, variantCount)
	for i := 0; i < variantCount; i++ {
		tmpl := c.catalog.Templates[(offset+i)%len(c.catalog.Templates)]
		source := ranked[i%len(ranked)]
		scripts = append(scripts, c.render(tmpl, theme, keywords, source))
	}
	return scripts, nil
}

// Generic renders variantCount scripts that rely on no source reel. The
// generator uses it as its empty-pool fallback.
func (c *Composer) Generic(theme string, variantCount int) []reel.Script {
	theme = strings.TrimSpace(theme)
	variantCount = c.variantCount(variantCount)
	parts := Structure{
		Intro:      "今日は" + theme + "について話します。",
		Main:       theme + "の基本を押さえて、できることから実践していきましょう。",
		Conclusion: theme + "についての理解が深まったでしょうか。",
	}
	keywords := keywordText(theme)
	offset := styleOffset(theme, len(c.catalog.Templates))
	scripts := make([]reel.Script, 0, variantCount)
	for i := 0; i < variantCount; i++ {
		tmpl := c.catalog.Templates[(offset+i)%len(c.catalog.Templates)]
		script := reel.Script{
			ID:       c.newID(),
			Title:    renderText(tmpl.Title, titleTheme(theme), keywords, parts),
			Style:    tmpl.Style,
			Fallback: true,
		}
		for _, st := range tmpl.Sections {
			script.Sections = append(script.Sections, reel.ScriptSection{
				Type:            st.Type,
				Content:         renderText(st.Text, theme, keywords, parts),
				DurationSeconds: st.Duration,
			})
		}
		scripts = append(scripts, script)
	}
	return scripts
}

func (c *Composer) render(tmpl Template, theme, keywords string, source reel.Reel) reel.Script {
	parts := SplitStructure(source.Transcript)
	parts.Intro = excerpt(parts.Intro, excerptRunes)
	parts.Main = excerpt(parts.Main, excerptRunes)
	parts.Conclusion = excerpt(parts.Conclusion, excerptRunes)
	if parts.Main == "" {
		parts.Main = parts.Intro
	}
	if parts.Conclusion == "" {
		parts.Conclusion = parts.Main
	}
	patterns := DetectPatterns(source.Transcript)

	script := reel.Script{
		ID:           c.newID(),
		Title:        renderText(tmpl.Title, titleTheme(theme), keywords, parts),
		Style:        tmpl.Style,
		Engagement:   c.weights.Stats(source),
		SourceReelID: source.ID,
		Patterns:     patterns.Names(),
	}
	bodies := make([]string, 0, len(tmpl.Sections))
	for _, st := range tmpl.Sections {
		content := renderText(st.Text, theme, keywords, parts)
		for _, extra := range st.Extras {
			if patterns.Has(extra.Pattern) {
				content += "\n" + renderText(extra.Text, theme, keywords, parts)
			}
		}
		content = strings.TrimSpace(content)
		script.Sections = append(script.Sections, reel.ScriptSection{
			Type:            st.Type,
			Content:         content,
			DurationSeconds: st.Duration,
			SourceReelID:    source.ID,
		})
		bodies = append(bodies, content)
	}
	script.StructureMatch = StructureMatch(source.Transcript, strings.Join(bodies, "\n\n"))
	return script
}

func renderText(text, theme, keywords string, parts Structure) string {
	return strings.NewReplacer(
		"{theme}", theme,
		"{keywords}", keywords,
		"{intro}", parts.Intro,
		"{main}", parts.Main,
		"{conclusion}", parts.Conclusion,
	).Replace(text)
}

func keywordText(theme string) string {
	kw := ThemeKeywords(theme)
	if len(kw) == 0 {
		return theme
	}
	return strings.Join(kw, "・")
}

// styleOffset rotates the starting style per theme so repeated requests for
// different themes do not all open with the same template.
func styleOffset(theme string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(theme)))
	return int(h.Sum32() % uint32(n))
}

// Truncate shortens section contents so the script totals at most limit
// characters, sharing the budget in proportion to each section's length.
// A non-positive limit leaves the script unchanged.
func Truncate(s reel.Script, limit int) reel.Script {
	if limit <= 0 {
		return s
	}
	total := 0
	for _, section := range s.Sections {
		total += utf8.RuneCountInString(section.Content)
	}
	if total <= limit {
		return s
	}
	out := s
	out.Sections = make([]reel.ScriptSection, len(s.Sections))
	for i, section := range s.Sections {
		n := utf8.RuneCountInString(section.Content)
		share := max(1, n*limit/total)
		if n > share {
			runes := []rune(section.Content)
			section.Content = strings.TrimSpace(string(runes[:share]))
		}
		out.Sections[i] = section
	}
	return out
}
