package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldName case-folds name and collapses its internal whitespace.
func FoldName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// IdentityKey is the dedup key of a company: the folded name, plus "|" and
// the website host when the website yields one. Two records describe the
// same business when their keys are equal.
func IdentityKey(c Company) string {
	key := FoldName(c.Name)
	if host := Host(c.Website); host != "" {
		key += "|" + host
	}
	return key
}
