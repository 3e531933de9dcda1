// Package models defines the data shapes shared across Canada in Data:
// topics, monthly price series, the inflation contribution tree and the
// grain production datasets.
package models

// Topic is one navigable topic page.
type Topic struct {
	Slug        string `json:"slug"        yaml:"slug"`
	Title       string `json:"title"       yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Href        string `json:"href"        yaml:"href"` // hash route, e.g. "#/topics/grain-production"
}

// Path returns the path route for the topic ("/topics/<slug>").
func (t Topic) Path() string {
	return "/topics/" + t.Slug
}
