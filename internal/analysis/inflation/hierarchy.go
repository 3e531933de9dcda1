// Package inflation computes the figures behind the Inflation Story page:
// the re-indexed category overview and the weighted contribution of every
// CPI basket category to overall price change.
package inflation

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed hierarchy.yaml
var hierarchyYAML []byte

// Category is one node of the CPI basket hierarchy. StatCan is the
// Statistics Canada product name used to look up the basket weight.
type Category struct {
	Name     string     `yaml:"name"     json:"name"`
	StatCan  string     `yaml:"statcan"  json:"statcan"`
	Children []Category `yaml:"children" json:"children,omitempty"`
}

var (
	defaultOnce      sync.Once
	defaultHierarchy []Category
	defaultErr       error
)

// DefaultHierarchy returns the built-in basket hierarchy: eight top-level
// groups nested down to individual items.
func DefaultHierarchy() ([]Category, error) {
	defaultOnce.Do(func() {
		defaultHierarchy, defaultErr = ParseHierarchy(hierarchyYAML)
	})
	return defaultHierarchy, defaultErr
}

// ParseHierarchy decodes a YAML category list.
func ParseHierarchy(b []byte) ([]Category, error) {
	var cats []Category
	if err := yaml.Unmarshal(b, &cats); err != nil {
		return nil, fmt.Errorf("parse hierarchy: %w", err)
	}
	if len(cats) == 0 {
		return nil, fmt.Errorf("parse hierarchy: no categories")
	}
	return cats, nil
}

// WeightNames flattens the hierarchy into display name → StatCan name.
func WeightNames(cats []Category) map[string]string {
	out := make(map[string]string)
	var walk func([]Category)
	walk = func(cs []Category) {
		for _, c := range cs {
			out[c.Name] = c.StatCan
			walk(c.Children)
		}
	}
	walk(cats)
	return out
}

// RootOf returns the name of the top-level category containing name, or
// "" when name is not in the hierarchy.
func RootOf(cats []Category, name string) string {
	var contains func(Category) bool
	contains = func(c Category) bool {
		if c.Name == name {
			return true
		}
		for _, ch := range c.Children {
			if contains(ch) {
				return true
			}
		}
		return false
	}
	for _, c := range cats {
		if contains(c) {
			return c.Name
		}
	}
	return ""
}
