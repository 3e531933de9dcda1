package site

import (
	"net/url"
	"strings"
)

// SiteName is appended to every document title.
const SiteName = "Canada in Data"

// Route paths.
const (
	PathHome      = "/"
	PathTopics    = "/topics"
	PathCPI       = "/topics/consumer-price-index"
	PathInflation = "/topics/inflation-story"
	PathGrain     = "/topics/grain-production"
)

// NormalisePath trims whitespace and makes the path absolute. An empty
// path is the home page.
func NormalisePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

// HashPath turns a location fragment such as "#/topics" into a path.
func HashPath(fragment string) string {
	return NormalisePath(strings.TrimPrefix(fragment, "#"))
}

// DocumentTitle is "<title> | Canada in Data", or the site name alone.
func DocumentTitle(title string) string {
	if title == "" {
		return SiteName
	}
	return title + " | " + SiteName
}

// Request is a navigation target split into path and query.
type Request struct {
	Path  string
	Query url.Values
}

// ParseTarget splits a navigation target. Hash routes win over the path
// part, so "/#/topics" and "#/topics" both resolve to "/topics". Any other
// fragment is an in-page anchor and is dropped.
func ParseTarget(target string) Request {
	target = strings.TrimSpace(target)
	if i := strings.Index(target, "#"); i >= 0 {
		if strings.HasPrefix(target[i:], "#/") || i == 0 {
			target = HashPath(target[i:])
		} else {
			target = target[:i]
		}
	}
	req := Request{Path: target}
	if i := strings.Index(target, "?"); i >= 0 {
		req.Path = target[:i]
		req.Query, _ = url.ParseQuery(target[i+1:])
	}
	if req.Query == nil {
		req.Query = url.Values{}
	}
	req.Path = NormalisePath(req.Path)
	return req
}

// Route binds a path to a page builder.
type Route struct {
	Path  string
	Build PageFunc
}

// Router is the ordered route table.
type Router struct {
	routes []Route
	index  map[string]int
}

// NewRouter returns an empty route table.
func NewRouter() *Router {
	return &Router{index: make(map[string]int)}
}

// Handle registers build for path, replacing an earlier registration.
func (r *Router) Handle(path string, build PageFunc) {
	path = NormalisePath(path)
	if i, ok := r.index[path]; ok {
		r.routes[i].Build = build
		return
	}
	r.index[path] = len(r.routes)
	r.routes = append(r.routes, Route{Path: path, Build: build})
}

// Lookup finds the builder for an exact path.
func (r *Router) Lookup(path string) (PageFunc, bool) {
	i, ok := r.index[NormalisePath(path)]
	if !ok {
		return nil, false
	}
	return r.routes[i].Build, true
}

// Paths lists the registered paths in registration order.
func (r *Router) Paths() []string {
	out := make([]string, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.Path
	}
	return out
}
