package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"regexp"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// chartMarker matches the placeholder a narrative uses for a chart slot:
// <!-- chart:production -->
var chartMarker = regexp.MustCompile(`<!--\s*chart:([a-z0-9-]+)\s*-->`)

// Renderer turns the markdown narratives into HTML. Narratives are
// text/template sources, so figures can be filled in before conversion.
type Renderer struct {
	md      goldmark.Markdown
	content fs.FS

	mu    sync.Mutex
	cache map[string]*texttemplate.Template
}

// NewRenderer reads narratives from content.
func NewRenderer(content fs.FS) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Renderer{md: md, content: content, cache: make(map[string]*texttemplate.Template)}
}

// Markdown converts src to HTML.
func (r *Renderer) Markdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Narrative executes the named narrative with data and converts the result.
func (r *Renderer) Narrative(name string, data any) (template.HTML, error) {
	tmpl, err := r.template(name)
	if err != nil {
		return "", err
	}
	var src bytes.Buffer
	if err := tmpl.Execute(&src, data); err != nil {
		return "", fmt.Errorf("execute narrative %s: %w", name, err)
	}
	return r.Markdown(src.Bytes())
}

func (r *Renderer) template(name string) (*texttemplate.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[name]; ok {
		return t, nil
	}
	b, err := fs.ReadFile(r.content, name)
	if err != nil {
		return nil, fmt.Errorf("read narrative %s: %w", name, err)
	}
	t, err := texttemplate.New(name).Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse narrative %s: %w", name, err)
	}
	r.cache[name] = t
	return t, nil
}

// InsertCharts replaces chart markers in h with the matching slot markup.
// Markers without a slot are dropped.
func InsertCharts(h template.HTML, slots map[string]*Slot) template.HTML {
	out := chartMarker.ReplaceAllStringFunc(string(h), func(m string) string {
		key := chartMarker.FindStringSubmatch(m)[1]
		s, ok := slots[key]
		if !ok {
			return ""
		}
		return fmt.Sprintf(`<div class="chart-container" id="%s">%s</div>`, s.ID, s.HTML())
	})
	return template.HTML(out)
}

// ChartKeys lists the chart markers in h, in document order.
func ChartKeys(h template.HTML) []string {
	var keys []string
	for _, m := range chartMarker.FindAllStringSubmatch(string(h), -1) {
		keys = append(keys, m[1])
	}
	return keys
}
