package model

import "time"

// Page is a fetched page. HTML and Markdown are both optional but at least
// one is set on a successful fetch.
type Page struct {
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	HTML       string    `json:"html,omitempty"`
	Markdown   string    `json:"markdown,omitempty"`
	StatusCode int       `json:"status_code"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Empty reports whether the page carries no usable content.
func (p Page) Empty() bool {
	return p.HTML == "" && p.Markdown == ""
}
