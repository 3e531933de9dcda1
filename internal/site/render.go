package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

// Templates holds one parsed template set per page. Each set is the
// layout plus partials plus a page file defining "content".
type Templates struct {
	pages map[string]*template.Template
}

// ParseTemplates reads layout.html, partials/*.html and pages/*.html from
// fsys.
func ParseTemplates(fsys fs.FS) (*Templates, error) {
	base, err := template.New("layout").ParseFS(fsys, "layout.html", "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	names, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, err
	}
	t := &Templates{pages: make(map[string]*template.Template, len(names))}
	for _, n := range names {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		pt, err := clone.ParseFS(fsys, n)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", n, err)
		}
		t.pages[strings.TrimSuffix(path.Base(n), ".html")] = pt
	}
	return t, nil
}

// Execute renders the layout around the named page.
func (t *Templates) Execute(w io.Writer, page string, v any) error {
	pt, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("no template for page %q", page)
	}
	return pt.ExecuteTemplate(w, "layout", v)
}

// ExecutePartial renders one named template from the page's set.
func (t *Templates) ExecutePartial(w io.Writer, page, name string, v any) error {
	pt, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("no template for page %q", page)
	}
	return pt.ExecuteTemplate(w, name, v)
}

// RenderOptions vary the output between the live server and the export.
type RenderOptions struct {
	Base   string // base path seen by the script, e.g. "/Project-CanViz/"
	Static bool   // exported files: no server-side chart endpoints
}

type navLink struct {
	Href   string
	Label  string
	Active bool
}

var navItems = []navLink{
	{Href: PathHome, Label: "Home"},
	{Href: PathTopics, Label: "Topics"},
	{Href: PathCPI, Label: "Consumer Price Index"},
}

// view is the layout's data.
type view struct {
	DocTitle    string
	SiteName    string
	Description string
	Preview     string
	Path        string
	Base        string
	Static      bool
	Nav         []navLink
	Data        any
}

func navFor(p string) []navLink {
	out := make([]navLink, len(navItems))
	for i, n := range navItems {
		n.Active = n.Href == p
		out[i] = n
	}
	return out
}

// Render waits for the page's loads and writes the full document. Nothing
// is written when rendering fails.
func (s *Site) Render(w io.Writer, p *Page, opts RenderOptions) error {
	if err := p.Wait(); err != nil {
		return fmt.Errorf("load %s: %w", p.Path, err)
	}
	if opts.Base == "" {
		opts.Base = "/"
	}
	v := view{
		DocTitle:    DocumentTitle(p.Title),
		SiteName:    SiteName,
		Description: s.descriptions[p.Path],
		Preview:     previews[p.Path],
		Path:        p.Path,
		Base:        opts.Base,
		Static:      opts.Static,
		Nav:         navFor(p.Path),
		Data:        p.Data,
	}
	var buf bytes.Buffer
	if err := s.templates.Execute(&buf, p.name, v); err != nil {
		return fmt.Errorf("render %s: %w", p.Path, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// previews maps pages to their social preview image.
var previews = map[string]string{
	PathCPI:   "/previews/cpi.png",
	PathGrain: "/previews/grain-production.png",
}
