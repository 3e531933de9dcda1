package site

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/canviz/canadaindata/pkg/models"
)

//go:embed topics.yaml
var topicsYAML []byte

var (
	topicsOnce sync.Once
	topics     []models.Topic
	topicsErr  error
)

// Topics returns the topic catalogue in display order.
func Topics() ([]models.Topic, error) {
	topicsOnce.Do(func() {
		topics, topicsErr = ParseTopics(topicsYAML)
	})
	return topics, topicsErr
}

// ParseTopics decodes a YAML topic list. Every topic needs a slug and a
// title, and slugs are unique.
func ParseTopics(b []byte) ([]models.Topic, error) {
	var out []models.Topic
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	seen := make(map[string]bool, len(out))
	for i, t := range out {
		if t.Slug == "" || t.Title == "" {
			return nil, fmt.Errorf("parse topics: entry %d needs slug and title", i)
		}
		if seen[t.Slug] {
			return nil, fmt.Errorf("parse topics: duplicate slug %q", t.Slug)
		}
		seen[t.Slug] = true
		if out[i].Href == "" {
			out[i].Href = "#" + t.Path()
		}
	}
	return out, nil
}

// TopicBySlug finds a topic in list.
func TopicBySlug(list []models.Topic, slug string) (models.Topic, bool) {
	for _, t := range list {
		if t.Slug == slug {
			return t, true
		}
	}
	return models.Topic{}, false
}
