package site

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// PageFunc builds the page for a request. Chart loads started with
// Page.Load run under ctx, which is cancelled when the page is destroyed.
type PageFunc func(ctx context.Context, req Request) (*Page, error)

// Page is one built view: its template, data and pending chart loads.
type Page struct {
	Path   string
	Title  string
	Status int
	Data   any

	name      string // content template
	ctx       context.Context
	cancel    context.CancelFunc
	group     *errgroup.Group
	after     []func() error
	onDestroy []func()
	destroyed atomic.Bool
}

func newPage(ctx context.Context, path, title, name string, data any) *Page {
	ctx, cancel := context.WithCancel(ctx)
	return &Page{
		Path:   path,
		Title:  title,
		Status: http.StatusOK,
		Data:   data,
		name:   name,
		ctx:    ctx,
		cancel: cancel,
		group:  new(errgroup.Group),
	}
}

// Slot is a placeholder filled by an asynchronous load. Until filled it
// renders its loading markup.
type Slot struct {
	ID      string
	mu      sync.RWMutex
	html    template.HTML
	loading template.HTML
	filled  bool
	closed  bool
}

// NewSlot returns an empty slot showing loading until filled.
func NewSlot(id string, loading template.HTML) *Slot {
	return &Slot{ID: id, loading: loading}
}

// HTML returns the loaded markup or the loading placeholder.
func (s *Slot) HTML() template.HTML {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.filled {
		return s.loading
	}
	return s.html
}

// Filled reports whether a load has delivered.
func (s *Slot) Filled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filled
}

// Close marks the chart instance destroyed. Results delivered afterwards
// are dropped and the slot keeps what it showed.
func (s *Slot) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close has run.
func (s *Slot) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Slot) set(h template.HTML) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.html, s.filled = h, true
}

// Load runs fn in the background and fills slot with its result. A result
// arriving after Destroy is discarded.
func (p *Page) Load(slot *Slot, fn func(ctx context.Context) template.HTML) {
	p.group.Go(func() error {
		h := fn(p.ctx)
		if p.destroyed.Load() {
			return nil
		}
		slot.set(h)
		return nil
	})
}

// Go runs fn alongside the chart loads. Its error fails Wait.
func (p *Page) Go(fn func(ctx context.Context) error) {
	p.group.Go(func() error { return fn(p.ctx) })
}

// After registers fn to run once every load has finished.
func (p *Page) After(fn func() error) {
	p.after = append(p.after, fn)
}

// OnDestroy registers a hook run when the page is torn down.
func (p *Page) OnDestroy(fn func()) {
	p.onDestroy = append(p.onDestroy, fn)
}

// Wait blocks until every load has finished, then runs the After hooks.
func (p *Page) Wait() error {
	if err := p.group.Wait(); err != nil {
		return err
	}
	for _, fn := range p.after {
		if err := fn(); err != nil {
			return err
		}
	}
	p.after = nil
	return nil
}

// Destroy runs the destroy hooks and cancels outstanding loads. It is safe
// to call more than once.
func (p *Page) Destroy() {
	if p.destroyed.Swap(true) {
		return
	}
	for _, fn := range p.onDestroy {
		fn()
	}
	p.cancel()
}

// Destroyed reports whether Destroy has run.
func (p *Page) Destroyed() bool { return p.destroyed.Load() }

// Navigator holds the current page of one browsing session and replaces it
// on navigation.
type Navigator struct {
	router   *Router
	notFound func(ctx context.Context, path string) *Page

	mu      sync.Mutex
	current *Page
}

// NewNavigator creates a navigator over router. Unknown paths are built by
// notFound.
func NewNavigator(router *Router, notFound func(ctx context.Context, path string) *Page) *Navigator {
	return &Navigator{router: router, notFound: notFound}
}

// Navigate destroys the current page, if any, and builds the page for
// target. Unknown paths build the not-found page and never fail.
func (n *Navigator) Navigate(ctx context.Context, target string) (*Page, error) {
	req := ParseTarget(target)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current != nil {
		n.current.Destroy()
		n.current = nil
	}

	build, ok := n.router.Lookup(req.Path)
	if !ok {
		n.current = n.notFound(ctx, req.Path)
		return n.current, nil
	}
	p, err := build(ctx, req)
	if err != nil {
		return nil, err
	}
	n.current = p
	return p, nil
}

// Current returns the page on display, or nil.
func (n *Navigator) Current() *Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Close destroys the current page.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current != nil {
		n.current.Destroy()
		n.current = nil
	}
}
