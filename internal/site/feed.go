package site

import (
	"encoding/xml"
	"io"
	"strings"
	"time"

	"github.com/canviz/canadaindata/pkg/models"
)

type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
}

// FeedDescription is the channel description of the topic feed.
const FeedDescription = "Interactive charts and plain language explanations of public Canadian data."

// WriteFeed writes an RSS 2.0 feed listing the topics. Links join origin
// and base with each topic path; origin may be empty for a relative feed.
func WriteFeed(w io.Writer, origin, base string, topics []models.Topic, built time.Time) error {
	root := strings.TrimRight(origin, "/") + strings.TrimRight(base, "/")
	ch := rssChannel{
		Title:       SiteName,
		Link:        root + "/",
		Description: FeedDescription,
	}
	if !built.IsZero() {
		ch.LastBuildDate = built.UTC().Format(time.RFC1123Z)
	}
	for _, t := range topics {
		link := root + t.Path()
		ch.Items = append(ch.Items, rssItem{
			Title:       t.Title,
			Link:        link,
			GUID:        link,
			Description: t.Description,
		})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(rss{Version: "2.0", Channel: ch}); err != nil {
		return err
	}
	return enc.Flush()
}
