// Package model defines the records exchanged across the discovery pipeline.
package model

import "strings"

// Company is a business discovered on a page.
type Company struct {
	Name        string `json:"name" yaml:"name"`
	Website     string `json:"website,omitempty" yaml:"website,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address     string `json:"address,omitempty" yaml:"address,omitempty"`
	SourceURL   string `json:"source_url" yaml:"source_url"`
}

// Normalize returns c with every field trimmed of surrounding whitespace.
func (c Company) Normalize() Company {
	return Company{
		Name:        strings.TrimSpace(c.Name),
		Website:     strings.TrimSpace(c.Website),
		Description: strings.TrimSpace(c.Description),
		Email:       strings.TrimSpace(c.Email),
		Phone:       strings.TrimSpace(c.Phone),
		Address:     strings.TrimSpace(c.Address),
		SourceURL:   strings.TrimSpace(c.SourceURL),
	}
}

// Valid reports whether c has a non-blank name.
func (c Company) Valid() bool {
	return strings.TrimSpace(c.Name) != ""
}

// FillGaps copies every non-empty field of other into an empty field of c.
// Name and SourceURL are never replaced once set.
func (c Company) FillGaps(other Company) Company {
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fill(&c.Name, other.Name)
	fill(&c.Website, other.Website)
	fill(&c.Description, other.Description)
	fill(&c.Email, other.Email)
	fill(&c.Phone, other.Phone)
	fill(&c.Address, other.Address)
	fill(&c.SourceURL, other.SourceURL)
	return c
}

// Candidate is a search hit considered for crawling.
type Candidate struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Content string `json:"content,omitempty"`
}
