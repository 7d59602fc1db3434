package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-finder/pkg/google"
	"github.com/sells-group/company-finder/pkg/google/mocks"
)

func TestPlacesProvider_Search(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("TextSearch", mock.Anything, google.TextSearchRequest{
		TextQuery:  "cosmetics suppliers",
		RegionCode: "NP",
		PageSize:   5,
	}).Return(&google.TextSearchResponse{
		Places: []google.Place{
			{DisplayName: google.DisplayName{Text: "Himalayan Beauty"}, WebsiteURI: "https://himalayan.example", FormattedAddress: "Kathmandu", Phone: "01-555"},
			{DisplayName: google.DisplayName{Text: "No Web"}, GoogleMapsURI: "https://maps.example/?cid=1"},
			{DisplayName: google.DisplayName{Text: "Nothing"}},
		},
	}, nil)

	p := NewPlacesProvider(client, 0)
	assert.Equal(t, "places", p.Name())

	got, err := p.Search(context.Background(), "cosmetics suppliers", 5, "np")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://himalayan.example", got[0].URL)
	assert.Equal(t, "Himalayan Beauty", got[0].Title)
	assert.Equal(t, "Kathmandu | 01-555", got[0].Snippet)
	assert.Equal(t, "https://maps.example/?cid=1", got[1].URL)
}

func TestPlacesProvider_FollowsPageToken(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("TextSearch", mock.Anything, mock.MatchedBy(func(r google.TextSearchRequest) bool {
		return r.PageToken == ""
	})).Return(&google.TextSearchResponse{
		Places:        []google.Place{{WebsiteURI: "https://1.example"}},
		NextPageToken: "tok",
	}, nil).Once()
	client.On("TextSearch", mock.Anything, mock.MatchedBy(func(r google.TextSearchRequest) bool {
		return r.PageToken == "tok" && r.TextQuery == "bakeries Nepal" && r.RegionCode == ""
	})).Return(&google.TextSearchResponse{
		Places: []google.Place{{WebsiteURI: "https://2.example"}},
	}, nil).Once()

	got, err := NewPlacesProvider(client, 3).Search(context.Background(), "bakeries", 30, "Nepal")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPlacesProvider_ErrorAfterFirstPageKeepsResults(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("TextSearch", mock.Anything, mock.MatchedBy(func(r google.TextSearchRequest) bool {
		return r.PageToken == ""
	})).Return(&google.TextSearchResponse{
		Places:        []google.Place{{WebsiteURI: "https://1.example"}},
		NextPageToken: "tok",
	}, nil).Once()
	client.On("TextSearch", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	got, err := NewPlacesProvider(client, 3).Search(context.Background(), "q", 30, "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPlacesProvider_Error(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("TextSearch", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := NewPlacesProvider(client, 1).Search(context.Background(), "q", 5, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search: places")
}
