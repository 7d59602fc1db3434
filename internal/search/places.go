package search

import (
	"context"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/pkg/google"
)

// maxPlacesPageSize is the largest page Text Search returns.
const maxPlacesPageSize = 20

// PlacesProvider searches Google Places Text Search. Each place becomes a
// candidate pointing at its website, or its Maps listing when it has none.
type PlacesProvider struct {
	client   google.Client
	maxPages int
}

// NewPlacesProvider creates a provider backed by client. maxPages bounds
// nextPageToken follow-ups; values below 1 mean 3.
func NewPlacesProvider(client google.Client, maxPages int) *PlacesProvider {
	if maxPages < 1 {
		maxPages = 3
	}
	return &PlacesProvider{client: client, maxPages: maxPages}
}

// Name implements Provider.
func (p *PlacesProvider) Name() string { return "places" }

// Search implements Provider.
func (p *PlacesProvider) Search(ctx context.Context, query string, limit int, country string) ([]model.Candidate, error) {
	req := google.TextSearchRequest{
		TextQuery:  query,
		RegionCode: regionCode(country),
		PageSize:   maxPlacesPageSize,
	}
	if req.RegionCode == "" {
		req.TextQuery = withCountry(query, country)
	}
	if limit > 0 && limit < maxPlacesPageSize {
		req.PageSize = limit
	}

	var out []model.Candidate
	for page := 0; page < p.maxPages; page++ {
		resp, err := p.client.TextSearch(ctx, req)
		if err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, eris.Wrap(err, "search: places")
		}
		for _, pl := range resp.Places {
			if c, ok := placeCandidate(pl); ok {
				out = append(out, c)
			}
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if resp.NextPageToken == "" {
			break
		}
		req.PageToken = resp.NextPageToken
	}
	return out, nil
}

func placeCandidate(pl google.Place) (model.Candidate, bool) {
	link := pl.WebsiteURI
	if link == "" {
		link = pl.GoogleMapsURI
	}
	if link == "" {
		return model.Candidate{}, false
	}
	var parts []string
	for _, s := range []string{pl.FormattedAddress, pl.Phone} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return model.Candidate{
		URL:     link,
		Title:   pl.DisplayName.Text,
		Snippet: strings.Join(parts, " | "),
	}, true
}

// regionCode returns country as an upper-case CLDR region code when it is a
// two-letter code, and "" otherwise.
func regionCode(country string) string {
	country = strings.TrimSpace(country)
	if len(country) != 2 {
		return ""
	}
	for _, r := range country {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return ""
		}
	}
	return strings.ToUpper(country)
}
