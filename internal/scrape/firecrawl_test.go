package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-finder/pkg/firecrawl"
)

type mockFirecrawlClient struct {
	mock.Mock
}

func (m *mockFirecrawlClient) Scrape(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.ScrapeResponse), args.Error(1)
}

func TestFirecrawlAdapter_Scrape(t *testing.T) {
	client := &mockFirecrawlClient{}
	client.On("Scrape", mock.Anything, mock.MatchedBy(func(r firecrawl.ScrapeRequest) bool {
		return r.URL == "https://dir.example" && len(r.Formats) == 2 && !r.OnlyMainContent
	})).Return(&firecrawl.ScrapeResponse{
		Success: true,
		Data: firecrawl.PageData{
			Markdown: "# Dir",
			HTML:     "<h1>Dir</h1>",
			Metadata: firecrawl.Metadata{Title: "Dir", SourceURL: "https://dir.example", URL: "https://dir.example/home", StatusCode: 200},
		},
	}, nil)

	a := NewFirecrawlAdapter(client)
	assert.Equal(t, "firecrawl", a.Name())
	assert.True(t, a.Supports("x"))

	res, err := a.Scrape(context.Background(), "https://dir.example")
	require.NoError(t, err)
	assert.Equal(t, "firecrawl", res.Source)
	assert.Equal(t, "https://dir.example/home", res.Page.URL)
	assert.Equal(t, "<h1>Dir</h1>", res.Page.HTML)
	assert.Equal(t, "# Dir", res.Page.Markdown)
	assert.Equal(t, 200, res.Page.StatusCode)
	client.AssertExpectations(t)
}

func TestFirecrawlAdapter_NoMetadataURL(t *testing.T) {
	client := &mockFirecrawlClient{}
	client.On("Scrape", mock.Anything, mock.Anything).Return(&firecrawl.ScrapeResponse{
		Success: true, Data: firecrawl.PageData{Markdown: "x"},
	}, nil)

	res, err := NewFirecrawlAdapter(client).Scrape(context.Background(), "https://dir.example")
	require.NoError(t, err)
	assert.Equal(t, "https://dir.example", res.Page.URL)
}

func TestFirecrawlAdapter_Error(t *testing.T) {
	client := &mockFirecrawlClient{}
	client.On("Scrape", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := NewFirecrawlAdapter(client).Scrape(context.Background(), "https://dir.example")
	require.ErrorIs(t, err, assert.AnError)
}
